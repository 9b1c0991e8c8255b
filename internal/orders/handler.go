package orders

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warung-erp/warung-erp/internal/platform/httpx"
	"github.com/warung-erp/warung-erp/internal/rbac"
	"github.com/warung-erp/warung-erp/internal/shared"
)

// Handler wires sales and purchase order endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler constructs the orders handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), rbac: mw}
}

// MountSalesRoutes registers sales order routes. Any authenticated role may
// sell; that includes staff on the till.
func (h *Handler) MountSalesRoutes(r chi.Router) {
	r.Post("/orders", h.handleCreateSales)
	r.Put("/orders/{id}", h.handleUpdateSales)
	r.Get("/orders/{id}", h.handleGetOrder(KindSales))
}

// MountPurchaseRoutes registers purchase order routes, gated to owner/admin.
func (h *Handler) MountPurchaseRoutes(r chi.Router) {
	r.Get("/orders/{id}", h.handleGetOrder(KindPurchase))
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.RoleOwner, rbac.RoleAdmin))
		r.Post("/orders", h.handleCreatePurchase)
		r.Put("/orders/{id}", h.handleUpdatePurchase)
	})
}

func (h *Handler) handleCreateSales(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	var req salesOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, validationError(err))
		return
	}
	in, err := req.toInput(p.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.CreateSales(r.Context(), in)
	if err != nil {
		h.logger.Warn("create sales order failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) handleUpdateSales(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req salesOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, validationError(err))
		return
	}
	in, err := req.toInput(p.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.OrderID = id
	order, err := h.service.UpdateSales(r.Context(), in)
	if err != nil {
		h.logger.Warn("update sales order failed", slog.Int64("order_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	var req purchaseOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, validationError(err))
		return
	}
	in, err := req.toInput(p.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.CreatePurchase(r.Context(), in)
	if err != nil {
		h.logger.Warn("create purchase order failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) handleUpdatePurchase(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req purchaseOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, validationError(err))
		return
	}
	in, err := req.toInput(p.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.OrderID = id
	order, err := h.service.UpdatePurchase(r.Context(), in)
	if err != nil {
		h.logger.Warn("update purchase order failed", slog.Int64("order_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleGetOrder(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		order, err := h.service.Get(r.Context(), kind, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, order)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.NewValidationError("id", "invalid order id"))
		return 0, false
	}
	return id, true
}
