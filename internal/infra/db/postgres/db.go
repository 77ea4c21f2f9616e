package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects through gorm's pgx-backed driver.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if log != nil {
		log.Info("postgres connected")
	}
	return db, nil
}

// Migrate creates the tables and the overlap exclusion constraint. The constraint is the
// database-level backstop for the calendar lock: two live short-term reservations of one
// listing can never share a night.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("postgres: btree_gist: %w", err)
	}
	if err := db.AutoMigrate(
		&listingModel{},
		&userModel{},
		&sessionModel{},
		&overrideModel{},
		&reservationModel{},
		&transactionModel{},
		&calendarLockModel{},
		&outboxModel{},
		&inboxModel{},
	); err != nil {
		return fmt.Errorf("postgres: automigrate: %w", err)
	}
	return db.Exec(`
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap') THEN
		ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
			EXCLUDE USING gist (listing_id WITH =, daterange(start_date, end_date) WITH &&)
			WHERE (status <> 'cancelled' AND mode = 'short_term');
	END IF;
END $$;`).Error
}
