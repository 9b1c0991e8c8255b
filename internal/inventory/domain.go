package inventory

import (
	"time"

	"github.com/warung-erp/warung-erp/internal/notify"
	"github.com/warung-erp/warung-erp/internal/units"
)

// Category partitions stock-tracked entities. All three share one ledger.
type Category string

const (
	CategoryProduct   Category = "product"
	CategoryMaterial  Category = "material"
	CategoryPackaging Category = "packaging"
)

// Valid reports whether the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryProduct, CategoryMaterial, CategoryPackaging:
		return true
	}
	return false
}

// Item is a stock-tracked entity: finished product, raw material or
// packaging. Stock never goes negative after a committed transaction.
type Item struct {
	ID           int64      `json:"id"`
	SKU          string     `json:"sku"`
	Name         string     `json:"name"`
	Category     Category   `json:"category"`
	Unit         units.Unit `json:"unit"`
	BuyPrice     float64    `json:"buy_price"`
	SellPrice    float64    `json:"sell_price"`
	Stock        float64    `json:"stock"`
	ReorderLimit *float64   `json:"reorder_limit,omitempty"`
	LastNotified *time.Time `json:"last_notified,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// StockState projects the item into the shape the notification emitter
// evaluates.
func (i Item) StockState() notify.StockState {
	return notify.StockState{
		ItemID:       i.ID,
		Name:         i.Name,
		Unit:         string(i.Unit),
		Stock:        i.Stock,
		ReorderLimit: i.ReorderLimit,
		LastNotified: i.LastNotified,
	}
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	Category Category
	Search   string
	Limit    int
}

// AdjustmentInput describes a manual stock correction to an absolute value.
type AdjustmentInput struct {
	ItemID         int64
	NewStock       float64
	Note           string
	ActorID        int64
	IdempotencyKey string
}
