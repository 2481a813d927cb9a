package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jarilabs/jariecom-backend/internal/cron"
	"github.com/jarilabs/jariecom-backend/internal/orders"
	"github.com/jarilabs/jariecom-backend/internal/payments"
	"github.com/jarilabs/jariecom-backend/internal/subscriptions"
	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/db"
	"github.com/jarilabs/jariecom-backend/pkg/intasend"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
	"github.com/jarilabs/jariecom-backend/pkg/metrics"
	"github.com/jarilabs/jariecom-backend/pkg/migrate"
	"github.com/jarilabs/jariecom-backend/pkg/mpesa"
	"github.com/jarilabs/jariecom-backend/pkg/redis"
)

const lockKeyFormat = "je:worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	darajaClient, err := mpesa.NewClient(context.Background(), cfg.Mpesa, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create daraja client", err)
		os.Exit(1)
	}
	intasendClient, err := intasend.NewClient(context.Background(), cfg.IntaSend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create intasend client", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	intentRepo := payments.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	subscriptionRepo := subscriptions.NewRepository(gdb)

	subscriptionService, err := subscriptions.NewService(subscriptionRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Intents:       intentRepo,
		Daraja:        darajaClient,
		IntaSend:      intasendClient,
		Orders:        orderRepo,
		Subscriptions: subscriptionService,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	poller, err := payments.NewPoller(payments.PollerParams{
		Repo:     intentRepo,
		Service:  paymentService,
		Daraja:   darajaClient,
		IntaSend: intasendClient,
		Config:   cfg.Payments,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment poller", err)
		os.Exit(1)
	}

	paymentJob, err := cron.NewPaymentPollJob(poller, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment poll job", err)
		os.Exit(1)
	}
	expiryJob, err := cron.NewSubscriptionExpiryJob(subscriptionService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription expiry job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(paymentJob, expiryJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
