package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warung-erp/warung-erp/internal/inventory"
	"github.com/warung-erp/warung-erp/internal/notify"
	"github.com/warung-erp/warung-erp/internal/observability"
	"github.com/warung-erp/warung-erp/internal/orders"
	"github.com/warung-erp/warung-erp/internal/payments"
	"github.com/warung-erp/warung-erp/internal/rbac"
	"github.com/warung-erp/warung-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Pool             *pgxpool.Pool
	RBACMiddleware   rbac.Middleware
	InventoryHandler *inventory.Handler
	OrdersHandler    *orders.Handler
	PaymentsHandler  *payments.Handler
	NotifyHandler    *notify.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := `{"status":"ok"}`
		if params.Pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := params.Pool.Ping(ctx); err != nil {
				params.Logger.Warn("healthz ping", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(status))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(params.RBACMiddleware.Principal)

		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/sales", func(r chi.Router) {
			params.OrdersHandler.MountSalesRoutes(r)
			params.PaymentsHandler.MountSalesRoutes(r)
		})
		r.Route("/purchases", func(r chi.Router) {
			params.OrdersHandler.MountPurchaseRoutes(r)
			params.PaymentsHandler.MountPurchaseRoutes(r)
		})
		r.Route("/notifications", params.NotifyHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireAny(rbac.RoleOwner, rbac.RoleAdmin))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}
