package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/internal/cash"
	"github.com/angelmondragon/laundrydesk-backend/internal/cron"
	"github.com/angelmondragon/laundrydesk-backend/internal/inventory"
	"github.com/angelmondragon/laundrydesk-backend/internal/notifications"
	"github.com/angelmondragon/laundrydesk-backend/pkg/config"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db"
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
	"github.com/angelmondragon/laundrydesk-backend/pkg/metrics"
	"github.com/angelmondragon/laundrydesk-backend/pkg/migrate"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/laundrydesk-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	registry, err := buildRegistry(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"jobs":        registry.Names(),
	})

	if *once {
		logg.Info(ctx, "running single cron cycle")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return metrics.Serve(gctx, cfg.App.MetricsAddr, prometheus.DefaultGatherer, logg)
	})
	g.Go(func() error {
		logg.Info(gctx, "starting cron worker")
		return service.Run(gctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	emitter := outbox.NewService(outboxRepo, logg)

	registry := cron.NewRegistry()

	notificationRepo := notifications.NewRepository(conn)
	retention, err := cron.NewRetentionJob(logg, dbClient,
		cron.OutboxRetention(outboxRepo, cfg.Cron.OutboxRetentionDays, cfg.Outbox.MaxAttempts),
		cron.RetentionTarget{
			Name: "notifications",
			Days: cfg.Cron.NotificationRetentionDays,
			Prune: func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
				return notificationRepo.WithTx(tx).DeleteReadBefore(ctx, cutoff)
			},
		},
	)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(retention); err != nil {
		return nil, err
	}

	cashSvc, err := cash.NewService(cash.NewRepository(conn), dbClient, emitter, logg)
	if err != nil {
		return nil, err
	}
	staleRegisters, err := cron.NewStaleRegisterJob(logg, cashSvc, cfg.Cron.StaleRegisterAfter)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(staleRegisters); err != nil {
		return nil, err
	}

	if !cfg.Cron.LowStockAlertEnabled {
		return registry, nil
	}
	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		Repo:       inventory.NewRepository(conn),
		Tx:         dbClient,
		Outbox:     emitter,
		Logger:     logg,
		WarnFactor: decimal.NewFromFloat(cfg.Cron.LowStockWarnFactor),
	})
	if err != nil {
		return nil, err
	}
	lowStock, err := cron.NewLowStockJob(logg, inventorySvc)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(lowStock); err != nil {
		return nil, err
	}
	return registry, nil
}
