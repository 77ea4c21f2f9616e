package main

import (
	"context"
	"fmt"
	"log/slog"

	"rentgate/internal/app/middleware"
	appoutbox "rentgate/internal/app/outbox"
	"rentgate/internal/app/policies"
	"rentgate/internal/app/uow"
	domainauth "rentgate/internal/domain/auth"
	domainlistings "rentgate/internal/domain/listings"
	domainuser "rentgate/internal/domain/user"
	"rentgate/internal/infra/broker/kafka"
	rediscache "rentgate/internal/infra/cache/redis"
	"rentgate/internal/infra/config"
	mongostore "rentgate/internal/infra/db/mongo"
	"rentgate/internal/infra/db/postgres"
	ginserver "rentgate/internal/infra/http/gin"
	"rentgate/internal/infra/obs"
	infraoutbox "rentgate/internal/infra/outbox"
	"rentgate/internal/infra/storage/memory"
	"rentgate/internal/infra/storage/s3"
)

const inboxConsumer = "payments-outcomes"

// storage is every persistence port the process needs, resolved for one backend.
type storage struct {
	uow           uow.UoWFactory
	outbox        appoutbox.Outbox
	outboxStore   infraoutbox.Store
	users         domainuser.Repository
	listings      domainlistings.Repository
	sessions      domainauth.SessionStore
	idempotency   middleware.IdempotencyStore
	inbox         kafka.Inbox
	receipts      policies.ReceiptStorage
	receiptReader ginserver.ReceiptReader
	checks        map[string]obs.Check
	closers       []func(context.Context) error
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	st := &storage{checks: make(map[string]obs.Check)}
	var err error
	switch cfg.Storage {
	case config.StorageMongo:
		err = st.openMongo(ctx, cfg)
	case config.StoragePostgres:
		err = st.openPostgres(ctx, cfg, logger)
	default:
		st.openMemory(cfg)
	}
	if err != nil {
		st.close(logger)
		return nil, err
	}
	if cfg.RedisAddr != "" {
		if err := st.openRedis(ctx, cfg); err != nil {
			st.close(logger)
			return nil, err
		}
	}
	if err := st.openReceipts(cfg, logger); err != nil {
		st.close(logger)
		return nil, err
	}
	return st, nil
}

func (st *storage) openMemory(cfg config.Config) {
	factory := memory.NewFactory()
	if cfg.Broker != config.BrokerNone {
		factory.Outbox.Retain()
	}
	st.uow = factory
	st.outbox = factory.Outbox
	st.outboxStore = factory.Outbox
	st.users = factory.UsersRepo
	st.listings = factory.ListingsRepo
	st.sessions = memory.NewSessionStore()
	st.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	st.inbox = memory.NewInbox(inboxConsumer)
}

func (st *storage) openMongo(ctx context.Context, cfg config.Config) error {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	st.closers = append(st.closers, client.Close)
	if err := mongostore.EnsureIndexes(ctx, client.DB, cfg.IdempotencyTTL); err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	factory := mongostore.NewFactory(client.DB)
	outbox := mongostore.NewOutboxStore(client.DB)
	st.uow = factory
	st.outbox = outbox
	st.outboxStore = outbox
	st.users = factory.UsersRepo
	st.listings = factory.ListingsRepo
	st.sessions = mongostore.NewSessionStore(client.DB)
	st.idempotency = mongostore.NewIdempotencyStore(client.DB)
	st.inbox = mongostore.NewInboxStore(client.DB, inboxConsumer)
	st.checks["mongo"] = client.Ping
	return nil
}

func (st *storage) openPostgres(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := postgres.Open(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres handle: %w", err)
	}
	st.closers = append(st.closers, func(context.Context) error { return sqlDB.Close() })
	if err := postgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	outbox := postgres.NewOutboxStore(db)
	st.uow = postgres.NewFactory(db)
	st.outbox = outbox
	st.outboxStore = outbox
	st.users = postgres.NewUserRepository(db)
	st.listings = postgres.NewListingRepository(db)
	st.sessions = postgres.NewSessionStore(db)
	// Postgres has no idempotency table; REDIS_ADDR replaces this below.
	st.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	st.inbox = postgres.NewInboxStore(db, inboxConsumer)
	st.checks["postgres"] = sqlDB.PingContext
	return nil
}

// openRedis moves idempotency records and sessions to redis so several replicas share them.
func (st *storage) openRedis(ctx context.Context, cfg config.Config) error {
	client, err := rediscache.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	st.closers = append(st.closers, func(context.Context) error { return client.Close() })
	st.idempotency = rediscache.NewIdempotencyStore(client, cfg.IdempotencyTTL)
	st.sessions = rediscache.NewSessionStore(client)
	st.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return nil
}

func (st *storage) openReceipts(cfg config.Config, logger *slog.Logger) error {
	if cfg.S3Endpoint == "" {
		mem := memory.NewReceiptStore()
		st.receipts = mem
		st.receiptReader = mem
		return nil
	}
	store, err := s3.NewReceiptStore(s3.Config{
		Endpoint:       cfg.S3Endpoint,
		PublicEndpoint: cfg.S3PublicEndpoint,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		Bucket:         cfg.S3Bucket,
		UseSSL:         cfg.S3UseSSL,
	}, logger)
	if err != nil {
		return fmt.Errorf("s3 receipts: %w", err)
	}
	st.receipts = store
	st.checks["s3"] = store.Ping
	return nil
}

func (st *storage) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(st.closers) - 1; i >= 0; i-- {
		if err := st.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
	st.closers = nil
}
