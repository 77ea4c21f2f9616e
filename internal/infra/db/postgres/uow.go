package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rentgate/internal/app/uow"
	domainavailability "rentgate/internal/domain/availability"
	domainledger "rentgate/internal/domain/ledger"
	domainlistings "rentgate/internal/domain/listings"
	domainreservation "rentgate/internal/domain/reservation"
	domainuser "rentgate/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing database")

type txKey struct{}

// conn returns the transaction bound to ctx, or db when there is none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

type Factory struct {
	DB *gorm.DB

	listings     *ListingRepository
	users        *UserRepository
	overrides    *OverrideRepository
	reservations *ReservationRepository
	transactions *TransactionRepository
}

func NewFactory(db *gorm.DB) Factory {
	return Factory{
		DB:           db,
		listings:     NewListingRepository(db),
		users:        NewUserRepository(db),
		overrides:    NewOverrideRepository(db),
		reservations: NewReservationRepository(db),
		transactions: NewTransactionRepository(db),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	tx := f.DB.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: opts.ReadOnly})
	if tx.Error != nil {
		return nil, classify(tx.Error)
	}
	return &Unit{tx: tx, factory: f}, nil
}

type Unit struct {
	tx      *gorm.DB
	factory Factory
}

func (u *Unit) Listings() domainlistings.Repository { return u.factory.listings }
func (u *Unit) Users() domainuser.Repository { return u.factory.users }
func (u *Unit) Overrides() domainavailability.OverrideRepository { return u.factory.overrides }
func (u *Unit) Reservations() domainreservation.Repository { return u.factory.reservations }
func (u *Unit) Transactions() domainledger.Repository { return u.factory.transactions }

// LockCalendar takes a row lock on the listing's calendar_locks row. Concurrent
// writers of the same listing queue here until this transaction ends.
func (u *Unit) LockCalendar(ctx context.Context, listingID domainlistings.ListingID) error {
	db := u.tx.WithContext(ctx)
	lock := calendarLockModel{ListingID: string(listingID)}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&lock).Error; err != nil {
		return classify(err)
	}
	var row calendarLockModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("listing_id = ?", string(listingID)).
		Take(&row).Error
	return classify(err)
}

func (u *Unit) Commit(ctx context.Context) error {
	return classify(u.tx.Commit().Error)
}

func (u *Unit) Rollback(ctx context.Context) error {
	err := u.tx.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, u.tx)
}

var _ uow.UoWFactory = Factory{}
