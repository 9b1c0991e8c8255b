package payments

import (
	"time"

	"github.com/warung-erp/warung-erp/internal/orders"
)

// Invoice records one payment against an order. Invoices are immutable once
// created; there is no refund path.
type Invoice struct {
	ID          int64       `json:"id"`
	OrderKind   orders.Kind `json:"order_kind"`
	OrderID     int64       `json:"order_id"`
	Amount      float64     `json:"amount"`
	Method      string      `json:"method"`
	BankName    string      `json:"bank_name,omitempty"`
	BankAccount string      `json:"bank_account,omitempty"`
	PaidAt      time.Time   `json:"paid_at"`
	CreatedAt   time.Time   `json:"created_at"`
}

// PaymentInput describes a payment to record.
type PaymentInput struct {
	OrderKind   orders.Kind
	OrderID     int64
	Amount      float64
	Method      string
	BankName    string
	BankAccount string
	PaidAt      time.Time
	ActorID     int64
}
