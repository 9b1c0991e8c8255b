package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/warung-erp/warung-erp/internal/platform/db"
	"github.com/warung-erp/warung-erp/internal/shared"
)

// Epsilon absorbs float drift when comparing stock quantities.
const Epsilon = 0.0001

// Ledger is the single writer of stock quantities. All mutation passes
// through it, scoped to the transaction of the enclosing operation.
type Ledger interface {
	// GetItemForUpdate loads and row-locks an item.
	GetItemForUpdate(ctx context.Context, id int64) (Item, error)
	// AdjustStock applies stock += delta atomically; a result below zero
	// returns InsufficientStockError and leaves the row untouched.
	AdjustStock(ctx context.Context, id int64, delta float64) (Item, error)
	// SetStock writes an absolute stock value, still non-negative.
	SetStock(ctx context.Context, id int64, qty float64) (Item, error)
	// TouchLastNotified stamps the notification timestamp on items.
	TouchLastNotified(ctx context.Context, ids []int64, at time.Time) error
}

const itemColumns = `id, sku, name, category, unit, buy_price, sell_price, stock, reorder_limit, last_notified, created_at, updated_at`

// PgLedger implements Ledger over a pgx querier. Hand it a pgx.Tx so the
// mutation joins the caller's transaction.
type PgLedger struct {
	q db.Querier
}

// NewLedger constructs PgLedger.
func NewLedger(q db.Querier) *PgLedger {
	return &PgLedger{q: q}
}

func (l *PgLedger) GetItemForUpdate(ctx context.Context, id int64) (Item, error) {
	row := l.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1 FOR UPDATE`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, &shared.NotFoundError{Entity: "inventory item", ID: id}
		}
		return Item{}, err
	}
	return item, nil
}

func (l *PgLedger) AdjustStock(ctx context.Context, id int64, delta float64) (Item, error) {
	// Conditional update resolves concurrent decrements at the database; the
	// loser observes zero rows and the whole enclosing transaction aborts.
	row := l.q.QueryRow(ctx, `UPDATE inventory_items SET stock = GREATEST(stock + $2, 0), updated_at = NOW() WHERE id=$1 AND stock + $2 >= -$3 RETURNING `+itemColumns, id, delta, Epsilon)
	item, err := scanItem(row)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Item{}, err
	}
	var name string
	if nameErr := l.q.QueryRow(ctx, `SELECT name FROM inventory_items WHERE id=$1`, id).Scan(&name); nameErr != nil {
		if errors.Is(nameErr, pgx.ErrNoRows) {
			return Item{}, &shared.NotFoundError{Entity: "inventory item", ID: id}
		}
		return Item{}, nameErr
	}
	return Item{}, &shared.InsufficientStockError{Item: name}
}

func (l *PgLedger) SetStock(ctx context.Context, id int64, qty float64) (Item, error) {
	if qty < 0 {
		item, err := l.GetItemForUpdate(ctx, id)
		if err != nil {
			return Item{}, err
		}
		return Item{}, &shared.InsufficientStockError{Item: item.Name}
	}
	row := l.q.QueryRow(ctx, `UPDATE inventory_items SET stock = $2, updated_at = NOW() WHERE id=$1 RETURNING `+itemColumns, id, qty)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, &shared.NotFoundError{Entity: "inventory item", ID: id}
		}
		return Item{}, err
	}
	return item, nil
}

func (l *PgLedger) TouchLastNotified(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := l.q.Exec(ctx, `UPDATE inventory_items SET last_notified=$2 WHERE id = ANY($1)`, ids, at)
	return err
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.SKU, &item.Name, &item.Category, &item.Unit, &item.BuyPrice, &item.SellPrice, &item.Stock, &item.ReorderLimit, &item.LastNotified, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}
