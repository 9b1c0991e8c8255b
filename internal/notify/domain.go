package notify

import "time"

// TypeStock marks stock threshold notifications.
const TypeStock = "stock"

// Notification is a persisted alert. A nil UserID means broadcast.
type Notification struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	RefID     int64      `json:"ref_id"`
	UserID    *int64     `json:"user_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

// Reason classifies a threshold crossing.
type Reason string

const (
	ReasonOut Reason = "out"
	ReasonLow Reason = "low"
)

// StockState is the slice of an inventory item the emitter needs. Keeping it
// a plain value lets every mutation path reuse the same evaluation without
// depending on the ledger package.
type StockState struct {
	ItemID       int64
	Name         string
	Unit         string
	Stock        float64
	ReorderLimit *float64
	LastNotified *time.Time
}
