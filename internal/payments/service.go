package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/warung-erp/warung-erp/internal/orders"
	"github.com/warung-erp/warung-erp/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records payments and maintains the order payment status. It never
// touches inventory.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// RecordPayment inserts an invoice and flips the order to Paid once invoice
// amounts cover the total. The flip never reverts; over-payment is accepted.
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (Invoice, error) {
	fields := map[string]string{}
	if input.OrderID <= 0 {
		fields["order_id"] = "order id required"
	}
	if input.Amount <= 0 {
		fields["amount"] = "amount must be positive"
	}
	if input.Method == "" {
		fields["method"] = "payment method required"
	}
	if input.OrderKind != orders.KindSales && input.OrderKind != orders.KindPurchase {
		fields["order_kind"] = "unknown order kind"
	}
	if len(fields) > 0 {
		return Invoice{}, &shared.ValidationError{Fields: fields}
	}

	inv := Invoice{
		OrderKind:   input.OrderKind,
		OrderID:     input.OrderID,
		Amount:      input.Amount,
		Method:      input.Method,
		BankName:    input.BankName,
		BankAccount: input.BankAccount,
		PaidAt:      input.PaidAt,
	}
	if inv.PaidAt.IsZero() {
		inv.PaidAt = s.now().UTC()
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		charge, err := tx.GetOrderForPayment(ctx, input.OrderKind, input.OrderID)
		if err != nil {
			return err
		}
		id, err := tx.InsertInvoice(ctx, inv)
		if err != nil {
			return fmt.Errorf("payments: insert invoice: %w", err)
		}
		inv.ID = id
		paid, err := tx.SumInvoices(ctx, input.OrderKind, input.OrderID)
		if err != nil {
			return fmt.Errorf("payments: sum invoices: %w", err)
		}
		if charge.PaymentStatus != orders.PaymentStatusPaid && paid >= charge.Total {
			if err := tx.SetPaymentStatus(ctx, input.OrderKind, input.OrderID, orders.PaymentStatusPaid); err != nil {
				return fmt.Errorf("payments: set status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "payment:record",
			Entity:   string(input.OrderKind) + "_order",
			EntityID: fmt.Sprintf("%d", input.OrderID),
			Meta: map[string]any{
				"amount": input.Amount,
				"method": input.Method,
			},
		})
	}
	return inv, nil
}

// ListForOrder returns the invoices recorded against an order.
func (s *Service) ListForOrder(ctx context.Context, kind orders.Kind, orderID int64) ([]Invoice, error) {
	if orderID <= 0 {
		return nil, shared.NewValidationError("order_id", "order id required")
	}
	return s.repo.ListForOrder(ctx, kind, orderID)
}
