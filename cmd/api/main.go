package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kushabhinav13/notification-service/internal/adapter"
	"github.com/kushabhinav13/notification-service/internal/config"
	"github.com/kushabhinav13/notification-service/internal/domain"
	"github.com/kushabhinav13/notification-service/internal/handler"
	"github.com/kushabhinav13/notification-service/internal/infra/postgresql"
	"github.com/kushabhinav13/notification-service/internal/infra/postgresql/migrations"
	infraredis "github.com/kushabhinav13/notification-service/internal/infra/redis"
	"github.com/kushabhinav13/notification-service/internal/observability"
	"github.com/kushabhinav13/notification-service/internal/queue"
	"github.com/kushabhinav13/notification-service/internal/repository"
	"github.com/kushabhinav13/notification-service/internal/retry"
	"github.com/kushabhinav13/notification-service/internal/service"
	"github.com/kushabhinav13/notification-service/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN, postgresql.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime(),
	})
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer broker.Close()

	publisher := queue.NewRabbitMQPublisher(broker)
	consumer := queue.NewRabbitMQConsumer(broker, cfg.WorkerConcurrency, logger)

	registry, err := buildAdapterRegistry(cfg, rdb)
	if err != nil {
		return fmt.Errorf("adapter registry init failed: %w", err)
	}

	limiter, err := infraredis.NewSendLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		return fmt.Errorf("rate limiter init failed: %w", err)
	}

	notificationRepo := repository.NewGormNotificationRepo(db)
	attemptRepo := repository.NewGormAttemptRepo(db)

	notificationService, err := service.NewNotificationService(notificationRepo, attemptRepo, publisher, logger)
	if err != nil {
		return fmt.Errorf("notification service init failed: %w", err)
	}

	metrics := observability.NewMetrics()

	workerService, err := service.NewWorkerService(service.WorkerConfig{
		Repo:        notificationRepo,
		Attempts:    attemptRepo,
		Consumer:    consumer,
		Publisher:   publisher,
		Adapters:    registry,
		RateLimiter: limiter,
		Policy:      retry.NewPolicy(cfg.RetryBaseDelay(), cfg.RetryMaxDelay(), cfg.MaxAttempts),
		Metrics:     metrics,
		SendTimeout: cfg.SendTimeout(),
		Concurrency: cfg.WorkerConcurrency,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("worker service init failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, broker)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	if err := handler.RegisterNotificationRoutes(app, notificationService); err != nil {
		return fmt.Errorf("route registration failed: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api listening", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := workerService.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("worker pool: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Warn("api shutdown failed", zap.Error(err))
		}
		if err := consumer.Close(); err != nil {
			logger.Warn("consumer close failed", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

func buildAdapterRegistry(cfg *config.Config, rdb *goredis.Client) (*adapter.Registry, error) {
	registry := adapter.NewRegistry()

	email, err := adapter.NewEmailAdapter(cfg.EmailGatewayURL)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(domain.ChannelEmail, email); err != nil {
		return nil, err
	}

	sms, err := adapter.NewSMSAdapter(cfg.SMSGatewayURL)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(domain.ChannelSMS, sms); err != nil {
		return nil, err
	}

	inApp, err := adapter.NewInAppAdapter(rdb)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(domain.ChannelInApp, inApp); err != nil {
		return nil, err
	}

	return registry, nil
}
