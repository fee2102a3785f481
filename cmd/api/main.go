package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/stockroom-backend/api/routes"
	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/auth"
	"github.com/angelmondragon/stockroom-backend/internal/dashboard"
	"github.com/angelmondragon/stockroom-backend/internal/items"
	"github.com/angelmondragon/stockroom-backend/internal/transfers"
	"github.com/angelmondragon/stockroom-backend/internal/users"
	"github.com/angelmondragon/stockroom-backend/internal/warehouses"
	"github.com/angelmondragon/stockroom-backend/pkg/auth/session"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/migrate"
	"github.com/angelmondragon/stockroom-backend/pkg/redis"
)

const serviceName = "stockroom-api"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, err := buildServices(cfg, logg, dbClient, sessionManager, metrics.NewTransferMetrics(registry))
	requireResource(ctx, logg, "services", err)

	created, err := services.Users.EnsureBootstrapAdmin(ctx, cfg.Bootstrap)
	requireResource(ctx, logg, "bootstrap admin", err)
	if created {
		logg.Info(logg.WithField(ctx, "username", cfg.Bootstrap.AdminUsername), "bootstrap admin created")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			registry,
			metrics.NewHTTPMetrics(registry),
			dbClient,
			redisClient,
			sessionManager,
			services,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	sessionManager *session.Manager,
	transferMetrics *metrics.TransferMetrics,
) (routes.Services, error) {
	conn := dbClient.DB()

	auditService, err := audit.NewService(audit.NewRepository(conn), cfg.Inventory)
	if err != nil {
		return routes.Services{}, fmt.Errorf("audit service: %w", err)
	}

	userService, err := users.NewService(users.NewRepository(conn), cfg.Password, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("user service: %w", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		Accounts:       userService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("auth service: %w", err)
	}

	warehouseRepo := warehouses.NewRepository(conn)
	warehouseService, err := warehouses.NewService(warehouseRepo, dbClient, auditService)
	if err != nil {
		return routes.Services{}, fmt.Errorf("warehouse service: %w", err)
	}

	itemRepo := items.NewRepository(conn)
	itemService, err := items.NewService(items.ServiceParams{
		Repo:              itemRepo,
		Warehouses:        warehouseRepo,
		Tx:                dbClient,
		Recorder:          auditService,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("item service: %w", err)
	}

	transferService, err := transfers.NewService(transfers.ServiceParams{
		Items:      itemRepo,
		Warehouses: warehouseRepo,
		Tx:         dbClient,
		Recorder:   auditService,
		Metrics:    transferMetrics,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("transfer service: %w", err)
	}

	dashboardService, err := dashboard.NewService(warehouseService, itemService, auditService)
	if err != nil {
		return routes.Services{}, fmt.Errorf("dashboard service: %w", err)
	}

	return routes.Services{
		Auth:       authService,
		Users:      userService,
		Warehouses: warehouseService,
		Items:      itemService,
		Transfers:  transferService,
		Audit:      auditService,
		Dashboard:  dashboardService,
	}, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
