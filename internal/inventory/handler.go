package inventory

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/warung-erp/warung-erp/internal/platform/httpx"
	"github.com/warung-erp/warung-erp/internal/rbac"
	"github.com/warung-erp/warung-erp/internal/shared"
)

// Handler wires inventory HTTP endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
	reads   singleflight.Group
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/items", h.handleListItems)
	r.Get("/items/{id}", h.handleGetItem)
	r.Get("/low-stock", h.handleLowStock)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.RoleOwner, rbac.RoleAdmin))
		r.Post("/items/{id}/stock", h.handleAdjustStock)
	})
}

type adjustStockRequest struct {
	Stock *float64 `json:"stock" validate:"required"`
	Note  string   `json:"note"`
}

func (h *Handler) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.NewValidationError("id", "invalid item id"))
		return
	}
	var req adjustStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed request body"))
		return
	}
	if req.Stock == nil {
		httpx.RespondError(w, shared.NewValidationError("stock", "stock is required"))
		return
	}
	item, err := h.service.AdjustStock(r.Context(), AdjustmentInput{
		ItemID:         id,
		NewStock:       *req.Stock,
		Note:           req.Note,
		ActorID:        p.UserID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.logger.Warn("manual stock adjustment failed", slog.Int64("item_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.NewValidationError("id", "invalid item id"))
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ItemFilter{Search: q.Get("q")}
	if cat := q.Get("category"); cat != "" {
		filter.Category = Category(cat)
		if !filter.Category.Valid() {
			httpx.RespondError(w, shared.NewValidationError("category", "unknown category"))
			return
		}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	items, err := h.service.ListItems(r.Context(), filter)
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Item{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleLowStock serves the low-stock report. Concurrent identical reads are
// collapsed through singleflight since the dashboard polls this endpoint.
func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	result, err, _ := h.reads.Do("low-stock", func() (any, error) {
		return h.service.ListLowStock(context.WithoutCancel(r.Context()))
	})
	if err != nil {
		h.logger.Error("low stock report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items, _ := result.([]Item)
	if items == nil {
		items = []Item{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}
