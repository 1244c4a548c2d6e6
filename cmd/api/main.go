package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/aftersales-service/internal/api/http"
	"github.com/spec-kit/aftersales-service/internal/api/http/handlers"
	"github.com/spec-kit/aftersales-service/internal/auth"
	"github.com/spec-kit/aftersales-service/internal/clock"
	"github.com/spec-kit/aftersales-service/internal/config"
	"github.com/spec-kit/aftersales-service/internal/events"
	"github.com/spec-kit/aftersales-service/internal/observability"
	"github.com/spec-kit/aftersales-service/internal/persistence"
	"github.com/spec-kit/aftersales-service/internal/repository"
	"github.com/spec-kit/aftersales-service/internal/service"
	"github.com/spec-kit/aftersales-service/internal/sla"
	"github.com/spec-kit/aftersales-service/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	repos := repository.New(pool)
	txManager := persistence.NewTxManager(pool, logger)
	dispatcher := events.NewInMemoryDispatcher()
	systemClock := clock.System()
	metrics := observability.NewMetrics()

	slaCfg := sla.Config{
		UnderWarrantyHours: cfg.SLA.UnderWarrantyHours,
		OutOfWarrantyHours: cfg.SLA.OutOfWarrantyHours,
		OnsiteBufferHours:  cfg.SLA.OnsiteBufferHours,
	}

	requestService := service.NewRequestService(service.RequestDependencies{
		Tx:         txManager,
		Repos:      repos,
		Dispatcher: dispatcher,
		Clock:      systemClock,
		SLAConfig:  slaCfg,
		Logger:     logger,
	})
	inventoryService := service.NewInventoryService(service.InventoryDependencies{
		Tx:         txManager,
		Repos:      repos,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Repos:      repos,
		Dispatcher: dispatcher,
		Cache:      redis,
		Logger:     logger,
		Retention:  cfg.Sweeper.RetentionHorizon(),
	})
	overdueService := service.NewOverdueService(service.OverdueDependencies{
		Repos:      repos,
		Dispatcher: dispatcher,
		Clock:      systemClock,
		Metrics:    metrics,
		Logger:     logger,
	})
	authService := service.NewAuthService(*cfg, repos.Users)

	worker.StartNotificationWorker(notificationService)
	sweeper := worker.NewSweeper(overdueService, notificationService, cfg.Sweeper, logger)
	go sweeper.Run(ctx)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.Users)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	app.Use(httptransport.Recover(logger))
	app.Use(httptransport.Timeout(cfg.App.RequestTimeout()))
	app.Use(observability.RequestLogger(logger, metrics))

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(pg, redis, cfg.App.Version),
		Users:         handlers.NewUsersHandler(authService, logger),
		Requests:      handlers.NewRequestsHandler(requestService, logger),
		Inventory:     handlers.NewInventoryHandler(inventoryService, logger),
		Notifications: handlers.NewNotificationsHandler(notificationService, logger),
		Auth:          authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = app.ShutdownWithContext(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
