package payments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warung-erp/warung-erp/internal/orders"
	"github.com/warung-erp/warung-erp/internal/platform/httpx"
	"github.com/warung-erp/warung-erp/internal/shared"
)

// Handler wires payment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the payments handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountSalesRoutes registers sales payment routes.
func (h *Handler) MountSalesRoutes(r chi.Router) {
	r.Post("/orders/{id}/payments", h.handleRecord(orders.KindSales))
	r.Get("/orders/{id}/payments", h.handleList(orders.KindSales))
}

// MountPurchaseRoutes registers purchase payment routes.
func (h *Handler) MountPurchaseRoutes(r chi.Router) {
	r.Post("/orders/{id}/payments", h.handleRecord(orders.KindPurchase))
	r.Get("/orders/{id}/payments", h.handleList(orders.KindPurchase))
}

type paymentRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Method      string  `json:"method" validate:"required"`
	BankName    string  `json:"bank_name"`
	BankAccount string  `json:"bank_account"`
	PaymentDate string  `json:"payment_date"`
}

func (h *Handler) handleRecord(kind orders.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := shared.PrincipalFromContext(r.Context())
		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || orderID <= 0 {
			httpx.RespondError(w, shared.NewValidationError("id", "invalid order id"))
			return
		}
		var req paymentRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, shared.NewValidationError("body", "malformed request body"))
			return
		}
		if err := h.validate.Struct(req); err != nil {
			httpx.RespondError(w, shared.NewValidationError("body", "invalid payment"))
			return
		}
		var paidAt time.Time
		if req.PaymentDate != "" {
			paidAt, err = time.Parse("2006-01-02", req.PaymentDate)
			if err != nil {
				httpx.RespondError(w, shared.NewValidationError("payment_date", "expected YYYY-MM-DD"))
				return
			}
		}
		inv, err := h.service.RecordPayment(r.Context(), PaymentInput{
			OrderKind:   kind,
			OrderID:     orderID,
			Amount:      req.Amount,
			Method:      req.Method,
			BankName:    req.BankName,
			BankAccount: req.BankAccount,
			PaidAt:      paidAt,
			ActorID:     p.UserID,
		})
		if err != nil {
			h.logger.Warn("record payment failed", slog.Int64("order_id", orderID), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, inv)
	}
}

func (h *Handler) handleList(kind orders.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || orderID <= 0 {
			httpx.RespondError(w, shared.NewValidationError("id", "invalid order id"))
			return
		}
		list, err := h.service.ListForOrder(r.Context(), kind, orderID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if list == nil {
			list = []Invoice{}
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"invoices": list})
	}
}
