package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rentgate/internal/app/services/auth"
	"rentgate/internal/app/wiring"
	domainpricing "rentgate/internal/domain/pricing"
	"rentgate/internal/infra/config"
	"rentgate/internal/infra/fixtures"
	ginserver "rentgate/internal/infra/http/gin"
	"rentgate/internal/infra/obs"
	"rentgate/internal/infra/security"
	"rentgate/internal/infra/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg = config.Memory()
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage init failed", "storage", cfg.Storage, "error", err)
		os.Exit(1)
	}
	defer store.close(logger)

	hasher := security.BcryptHasher{}
	loader := fixtures.Loader{
		Users:     store.users,
		Listings:  store.listings,
		Passwords: hasher,
		Currency:  cfg.Currency,
		Logger:    logger,
	}
	if _, err := loader.LoadFile(ctx, cfg.FixturesPath); err != nil {
		logger.Warn("fixtures load failed", "error", err, "path", cfg.FixturesPath)
	}

	buses, err := wiring.Build(wiring.Deps{
		UoW:         store.uow,
		Outbox:      store.outbox,
		Idempotency: store.idempotency,
		Validator:   validation.New(),
		Pricing:     domainpricing.NewEngine(cfg.PricingNightFee, cfg.PricingFlatFee),
		Receipts:    store.receipts,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	stopMessaging, err := startMessaging(ctx, cfg, store, buses.Commands, logger)
	if err != nil {
		logger.Error("broker init failed", "broker", cfg.Broker, "error", err)
		os.Exit(1)
	}
	defer stopMessaging()

	authService := &auth.Service{
		Users:      store.users,
		Sessions:   store.sessions,
		Passwords:  hasher,
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	handlers := ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Reservations:   ginserver.ReservationHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Transactions:   ginserver.TransactionHandler{Commands: buses.Commands, Queries: buses.Queries, Receipts: store.receiptReader, Logger: logger},
		Availability:   ginserver.AvailabilityHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Quotes:         ginserver.QuoteHandler{Queries: buses.Queries, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: store.checks}, handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.Storage, "broker", cfg.Broker)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
