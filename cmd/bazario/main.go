package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlenaMolokova/bazario/internal/auth"
	"github.com/AlenaMolokova/bazario/internal/config"
	"github.com/AlenaMolokova/bazario/internal/constants"
	"github.com/AlenaMolokova/bazario/internal/files"
	"github.com/AlenaMolokova/bazario/internal/handlers"
	"github.com/AlenaMolokova/bazario/internal/logger"
	"github.com/AlenaMolokova/bazario/internal/middleware"
	"github.com/AlenaMolokova/bazario/internal/notify"
	"github.com/AlenaMolokova/bazario/internal/router"
	"github.com/AlenaMolokova/bazario/internal/storage"
	"github.com/AlenaMolokova/bazario/internal/sweeper"
	"github.com/AlenaMolokova/bazario/internal/usecase"
	"github.com/AlenaMolokova/bazario/internal/validation"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const (
	shutdownTimeout        = 10 * time.Second
	rateLimitCleanupPeriod = time.Minute
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}

func run() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	if err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(cfg.DatabaseURI, cfg.MigrationsPath); err != nil {
		return err
	}

	db, err := pgxpool.New(ctx, cfg.DatabaseURI)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := storage.NewStorage(db)
	if err != nil {
		return err
	}
	if err := store.Ping(ctx); err != nil {
		return err
	}

	disk, err := files.NewDiskStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	users := usecase.NewUserUseCase(store, tokens, validation.NewDefaultPasswordValidator())
	if _, err := users.EnsureAdmin(ctx, cfg.AdminLogin, cfg.AdminPassword); err != nil {
		return err
	}
	operatorID, err := users.ResolveOperator(ctx, cfg.OperatorLogin)
	if err != nil {
		return err
	}

	if cfg.SweepInterval > 0 {
		go sweeper.NewSweeper(disk, store, constants.OrphanGracePeriod).Start(ctx, cfg.SweepInterval)
	}

	hub := notify.NewHub()
	dispatcher := usecase.NewDispatcher(store, notify.NewNotifier(store, hub))

	orders := usecase.NewOrderUseCase(store, store, validation.NewLineItemValidator(), dispatcher, operatorID)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartCleanup(ctx, rateLimitCleanupPeriod)

	r := router.SetupRoutes(router.Deps{
		Auth:          handlers.NewAuthHandler(users),
		Balance:       handlers.NewBalanceHandler(usecase.NewLedgerUseCase(store)),
		Coins:         handlers.NewCoinHandler(usecase.NewCoinRequestUseCase(store, store, disk, dispatcher), disk, cfg.MaxUploadBytes),
		Catalog:       handlers.NewCatalogHandler(usecase.NewCatalogUseCase(store, disk), disk, cfg.MaxUploadBytes),
		Orders:        handlers.NewOrderHandler(orders),
		Cart:          handlers.NewCartHandler(usecase.NewCartUseCase(store, store), orders),
		Notifications: handlers.NewNotificationHandler(usecase.NewNotificationUseCase(store), hub),
		Tokens:        tokens,
		Principals:    users,
		AuthLimiter:   limiter,
		UploadDir:     disk.Dir(),
	})

	srv := &http.Server{
		Addr:              cfg.RunAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":        cfg.RunAddr,
			"operator_id": operatorID,
		}).Info("Starting Bazario server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}
