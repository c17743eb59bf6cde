package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/booking-service/internal/api/http"
	"github.com/spec-kit/booking-service/internal/api/http/handlers"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/config"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/observability"
	"github.com/spec-kit/booking-service/internal/persistence"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/internal/service"
	"github.com/spec-kit/booking-service/internal/worker"
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
	userRepo := repository.NewUserRepository(pool)
	resourceRepo := repository.NewResourceRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	var publisher *events.KafkaPublisher
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
		defer publisher.Close() //nolint:errcheck
	}

	authService := service.NewAuthService(*cfg, userRepo)
	resourceService := service.NewResourceService(resourceRepo, redis, cfg.Redis.ResourceTTL(), logger)
	reservationService := service.NewReservationService(service.ReservationDependencies{
		ReservationRepo: reservationRepo,
		ResourceRepo:    resourceRepo,
		UserRepo:        userRepo,
		Dispatcher:      dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService, publisher, dispatcher)

	if cfg.Seed.Enabled && pool != nil {
		seed := service.NewSeedService(userRepo, resourceRepo, cfg.Auth.BcryptCost, logger)
		if err := seed.Run(ctx); err != nil {
			logger.Fatal("failed to seed default data", zap.Error(err))
		}
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Resources:      handlers.NewResourcesHandler(resourceService),
		Reservations:   handlers.NewReservationsHandler(reservationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
