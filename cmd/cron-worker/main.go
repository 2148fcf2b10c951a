package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ooprato/ooprato-backend/internal/app"
	"github.com/ooprato/ooprato-backend/internal/cron"
	"github.com/ooprato/ooprato-backend/pkg/config"
	"github.com/ooprato/ooprato-backend/pkg/db"
	"github.com/ooprato/ooprato-backend/pkg/logger"
	"github.com/ooprato/ooprato-backend/pkg/metrics"
	"github.com/ooprato/ooprato-backend/pkg/migrate"
	"github.com/ooprato/ooprato-backend/pkg/outbox"
	"github.com/ooprato/ooprato-backend/pkg/redis"
)

const lockKeyFormat = "ooprato:housekeeping:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	var dbClient *db.Client
	if cfg.FeatureFlags.UseSQLite {
		dbClient, err = db.NewSQLite(context.Background(), cfg.DB.SQLitePath, logg)
	} else {
		dbClient, err = db.New(context.Background(), cfg.DB, logg)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var store redis.Store = redis.NewMemoryStore()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		store = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, lock is local to this process")
	}

	services, err := app.Build(cfg, dbClient, store, prometheus.DefaultRegisterer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	lock, err := cron.NewStoreLock(store, lockKey(cfg.App.Env), cfg.Housekeeping.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create housekeeping lock", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg.Housekeeping, dbClient, services, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to register housekeeping jobs", err)
		os.Exit(1)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewHousekeepingMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Housekeeping.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create housekeeping service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Housekeeping.Interval.String(),
	})

	metricsServer := &http.Server{Addr: ":" + cfg.App.Port, Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	defer func() {
		_ = metricsServer.Shutdown(context.Background())
	}()

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg config.HousekeepingConfig, dbClient *db.Client, services *app.Services, logg *logger.Logger) (*cron.Registry, error) {
	staleOrders, err := cron.NewStaleOrderJob(cron.StaleOrderJobParams{
		Logger:    logg,
		Reader:    services.OrderRepo,
		Orders:    services.Orders,
		TTL:       cfg.StaleOrderTTL,
		BatchSize: cfg.StaleOrderBatchSize,
	})
	if err != nil {
		return nil, err
	}
	notificationCleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: services.NotifyRepo,
		Retention:  cfg.NotificationRetentionDays,
	})
	if err != nil {
		return nil, err
	}
	outboxRetention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Retention:  cfg.OutboxRetentionDays,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(staleOrders, notificationCleanup, outboxRetention), nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
