package orders

import "time"

// Kind separates sales from purchase orders. The engine is shared and
// parameterized by kind: purchases replenish directly, sales consume via a
// recipe when one exists.
type Kind string

const (
	KindSales    Kind = "sales"
	KindPurchase Kind = "purchase"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks invoice coverage of the order total.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

// Order is the shared header for sales and purchase documents. Total is
// always recomputed from committed lines, never trusted from the client.
type Order struct {
	ID             int64         `json:"id"`
	Kind           Kind          `json:"kind"`
	CounterpartyID int64         `json:"counterparty_id"`
	StaffID        int64         `json:"staff_id,omitempty"`
	OrderDate      time.Time     `json:"order_date"`
	DueDate        *time.Time    `json:"due_date,omitempty"`
	Urgency        string        `json:"urgency,omitempty"`
	Status         Status        `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Tag            string        `json:"tag,omitempty"`
	Memo           string        `json:"memo,omitempty"`
	Total          float64       `json:"total"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	CreatedBy      int64         `json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Lines          []Line        `json:"lines,omitempty"`
}

// Completed reports whether stock side effects have already been applied.
func (o Order) Completed() bool {
	return o.CompletedAt != nil
}

// Line is one order position. LineTotal = UnitPrice * Qty.
type Line struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ItemID    int64   `json:"item_id"`
	Qty       float64 `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}
