package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/laundrydesk-backend/api/routes"
	"github.com/angelmondragon/laundrydesk-backend/internal/cash"
	"github.com/angelmondragon/laundrydesk-backend/internal/catalog"
	"github.com/angelmondragon/laundrydesk-backend/internal/customers"
	"github.com/angelmondragon/laundrydesk-backend/internal/inventory"
	"github.com/angelmondragon/laundrydesk-backend/internal/notifications"
	"github.com/angelmondragon/laundrydesk-backend/internal/orders"
	"github.com/angelmondragon/laundrydesk-backend/pkg/config"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db"
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
	"github.com/angelmondragon/laundrydesk-backend/pkg/metrics"
	"github.com/angelmondragon/laundrydesk-backend/pkg/migrate"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/laundrydesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	params, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}
	params.Config = cfg
	params.Logger = logg
	params.DB = dbClient
	params.Redis = redisClient
	params.Gatherer = prometheus.DefaultGatherer

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(params),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

// buildServices wires the domain services over one database connection and
// one outbox emitter.
func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.RouterParams, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)

	customerSvc, err := customers.NewService(customers.NewRepository(conn))
	if err != nil {
		return routes.RouterParams{}, err
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), dbClient)
	if err != nil {
		return routes.RouterParams{}, err
	}
	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		Repo:       inventory.NewRepository(conn),
		Tx:         dbClient,
		Outbox:     emitter,
		Metrics:    workflowMetrics,
		Logger:     logg,
		WarnFactor: decimal.NewFromFloat(cfg.Cron.LowStockWarnFactor),
	})
	if err != nil {
		return routes.RouterParams{}, err
	}
	cashSvc, err := cash.NewService(cash.NewRepository(conn), dbClient, emitter, logg)
	if err != nil {
		return routes.RouterParams{}, err
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(conn),
		Tx:        dbClient,
		Outbox:    emitter,
		Customers: customerSvc,
		Catalog:   catalogSvc,
		Inventory: inventorySvc,
		Cash:      cashSvc,
		Metrics:   workflowMetrics,
		Logger:    logg,
	})
	if err != nil {
		return routes.RouterParams{}, err
	}
	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.RouterParams{}, err
	}

	return routes.RouterParams{
		Customers:     customerSvc,
		Catalog:       catalogSvc,
		Inventory:     inventorySvc,
		Cash:          cashSvc,
		Orders:        orderSvc,
		Notifications: notificationSvc,
	}, nil
}
