package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/shop-auth/internal/api/http"
	"github.com/spec-kit/shop-auth/internal/api/http/handlers"
	"github.com/spec-kit/shop-auth/internal/auth"
	"github.com/spec-kit/shop-auth/internal/config"
	"github.com/spec-kit/shop-auth/internal/events"
	"github.com/spec-kit/shop-auth/internal/observability"
	"github.com/spec-kit/shop-auth/internal/persistence"
	"github.com/spec-kit/shop-auth/internal/repository"
	"github.com/spec-kit/shop-auth/internal/service"
	"github.com/spec-kit/shop-auth/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	ledger, checkers, closeLedger, err := openLedger(ctx, cfg, pg, logger)
	if err != nil {
		logger.Fatal("failed to open refresh ledger", zap.Error(err), zap.String("driver", cfg.Ledger.Driver))
	}
	defer closeLedger()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics.SubscribeAuthEvents(dispatcher)

	codec, err := auth.NewCodec(auth.CodecConfig{
		AccessSecret:  cfg.Auth.AccessTokenSecret,
		RefreshSecret: cfg.Auth.RefreshTokenSecret,
		AccessTTL:     cfg.Auth.AccessTTL(),
		RefreshTTL:    cfg.Auth.RefreshTTL(),
	})
	if err != nil {
		logger.Fatal("failed to build token codec", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(pg.Pool)
	verifier := service.NewUserCredentialVerifier(userRepo, cfg.Auth.BcryptCost)

	sessionService := service.NewSessionService(service.SessionDependencies{
		Verifier:     verifier,
		Principals:   verifier,
		Ledger:       ledger,
		Tokens:       codec,
		Dispatcher:   dispatcher,
		Logger:       logger.Named("sessions"),
		StoreTimeout: cfg.Auth.StoreTimeout(),
	})
	accountService := service.NewAccountService(userRepo, dispatcher, logger.Named("accounts"), cfg.Auth.BcryptCost)

	workers := worker.Set{
		Notifications: service.NewNotificationService(dispatcher, logger.Named("notifications"), cfg.Notification),
	}
	if purger, ok := ledger.(repository.ExpiredPurger); ok && cfg.Ledger.PurgeInterval() > 0 {
		workers.LedgerPurge = worker.NewLedgerPurgeWorker(purger, cfg.Ledger.PurgeInterval(), 5*time.Second, logger.Named("ledger_purge"))
	}
	waitWorkers := worker.Start(ctx, workers)

	cookies := auth.CookiePolicy{
		AccessName:  cfg.Cookie.AccessName,
		RefreshName: cfg.Cookie.RefreshName,
		RefreshPath: cfg.Cookie.RefreshPath,
		AccessTTL:   codec.AccessTTL(),
		RefreshTTL:  codec.RefreshTTL(),
		Secure:      cfg.Cookie.Secure,
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.IsProduction(),
		ReadTimeout:           cfg.App.RequestTimeout(),
		WriteTimeout:          cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:       logger,
		Metrics:      metrics,
		Timeout:      cfg.App.RequestTimeout(),
		AllowOrigins: cfg.CORS.AllowOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, checkers...),
		Auth:           handlers.NewAuthHandler(sessionService, accountService, cookies),
		Admin:          handlers.NewAdminHandler(sessionService),
		AuthMiddleware: auth.NewAuthMiddleware(codec, cookies),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	waitWorkers()
}

// openLedger builds the refresh ledger selected by LEDGER_DRIVER together with the
// readiness checkers for the stores it needs.
func openLedger(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) (repository.RefreshLedger, []persistence.Checker, func(), error) {
	checkers := []persistence.Checker{pg}
	noop := func() {}

	switch cfg.Ledger.Driver {
	case config.LedgerDriverPostgres:
		return repository.NewPostgresRefreshLedger(pg.Pool), checkers, noop, nil

	case config.LedgerDriverRedis:
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, cfg.Auth.StoreTimeout(), logger)
		if err != nil {
			return nil, nil, noop, err
		}
		ledger := repository.NewRedisRefreshLedger(rdb.Client, cfg.Ledger.RedisPrefix, nil)
		return ledger, append(checkers, rdb), rdb.Close, nil

	case config.LedgerDriverSQLite:
		lite, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := persistence.RunSQLiteMigrations(ctx, lite.DB, logger); err != nil {
			lite.Close()
			return nil, nil, noop, err
		}
		return repository.NewSQLiteRefreshLedger(lite.DB), append(checkers, lite), lite.Close, nil

	case config.LedgerDriverMemory:
		logger.Warn("using in-memory refresh ledger; sessions do not survive restarts")
		return repository.NewMemoryRefreshLedger(), checkers, noop, nil
	}
	return nil, nil, noop, fmt.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
