package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/warung-erp/warung-erp/internal/app"
	"github.com/warung-erp/warung-erp/internal/inventory"
	"github.com/warung-erp/warung-erp/internal/notify"
	"github.com/warung-erp/warung-erp/internal/observability"
	"github.com/warung-erp/warung-erp/internal/orders"
	"github.com/warung-erp/warung-erp/internal/payments"
	"github.com/warung-erp/warung-erp/internal/platform/cache"
	"github.com/warung-erp/warung-erp/internal/platform/db"
	"github.com/warung-erp/warung-erp/internal/rbac"
	"github.com/warung-erp/warung-erp/internal/shared"
	"github.com/warung-erp/warung-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, continuing without guard", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()
	rbacMiddleware := rbac.Middleware{}

	notifyRepo := notify.NewRepository(pool)
	notifyService := notify.NewService(notifyRepo, redisClient, notify.ServiceConfig{Cooldown: cfg.NotifyCooldown}, metrics, logger)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, idempotencyStore, metrics, inventory.ServiceConfig{NotifyCooldown: cfg.NotifyCooldown})

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, auditLogger, metrics, orders.ServiceConfig{NotifyCooldown: cfg.NotifyCooldown})

	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(paymentsRepo, auditLogger)

	inventoryHandler := inventory.NewHandler(logger, inventoryService, rbacMiddleware)
	ordersHandler := orders.NewHandler(logger, ordersService, rbacMiddleware)
	paymentsHandler := payments.NewHandler(logger, paymentsService)
	notifyHandler := notify.NewHandler(logger, notifyService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Pool:             pool,
		RBACMiddleware:   rbacMiddleware,
		InventoryHandler: inventoryHandler,
		OrdersHandler:    ordersHandler,
		PaymentsHandler:  paymentsHandler,
		NotifyHandler:    notifyHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
