package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warung-erp/warung-erp/internal/inventory"
	"github.com/warung-erp/warung-erp/internal/notify"
	"github.com/warung-erp/warung-erp/internal/platform/db"
	"github.com/warung-erp/warung-erp/internal/production"
	"github.com/warung-erp/warung-erp/internal/shared"
)

// TxRepository bundles every store the commitment sequence touches, all
// scoped to one transaction so any failure rolls the whole order back.
type TxRepository interface {
	InsertOrder(ctx context.Context, o Order) (int64, error)
	UpdateOrder(ctx context.Context, o Order) error
	GetOrderForUpdate(ctx context.Context, kind Kind, id int64) (Order, error)
	ReplaceLines(ctx context.Context, kind Kind, orderID int64, lines []Line) error
	UpdateMemo(ctx context.Context, kind Kind, orderID int64, tag, memo string) error
	MarkCompleted(ctx context.Context, kind Kind, orderID int64, at time.Time) error
	Ledger() inventory.Ledger
	Production() production.Resolver
	InsertNotifications(ctx context.Context, drafts []notify.Notification) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, kind Kind, id int64) (Order, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx       pgx.Tx
	ledger   *inventory.PgLedger
	resolver *production.PgResolver
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, ledger: inventory.NewLedger(tx), resolver: production.NewResolver(tx)})
	})
}

func orderTable(kind Kind) (string, string) {
	if kind == KindPurchase {
		return "purchase_orders", "purchase_order_lines"
	}
	return "sales_orders", "sales_order_lines"
}

const orderColumns = `id, counterparty_id, staff_id, order_date, due_date, urgency, status, payment_status, tag, memo, total, completed_at, created_by, created_at, updated_at`

// GetOrder loads an order with its lines, without locking.
func (r *Repository) GetOrder(ctx context.Context, kind Kind, id int64) (Order, error) {
	table, lineTable := orderTable(kind)
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM `+table+` WHERE id=$1`, id)
	o, err := scanOrder(row, kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, &shared.NotFoundError{Entity: string(kind) + " order", ID: id}
		}
		return Order{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, item_id, qty, unit_price, line_total FROM `+lineTable+` WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ItemID, &line.Qty, &line.UnitPrice, &line.LineTotal); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *txRepo) InsertOrder(ctx context.Context, o Order) (int64, error) {
	table, _ := orderTable(o.Kind)
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO `+table+` (counterparty_id, staff_id, order_date, due_date, urgency, status, payment_status, tag, memo, total, created_by, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW()) RETURNING id`,
		o.CounterpartyID, o.StaffID, o.OrderDate, o.DueDate, o.Urgency, o.Status, o.PaymentStatus, o.Tag, o.Memo, o.Total, o.CreatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("orders: insert %s order: %w", o.Kind, err)
	}
	return id, nil
}

func (r *txRepo) UpdateOrder(ctx context.Context, o Order) error {
	table, _ := orderTable(o.Kind)
	tag, err := r.tx.Exec(ctx, `UPDATE `+table+` SET counterparty_id=$2, staff_id=$3, order_date=$4, due_date=$5, urgency=$6, status=$7, tag=$8, memo=$9, total=$10, updated_at=NOW() WHERE id=$1`,
		o.ID, o.CounterpartyID, o.StaffID, o.OrderDate, o.DueDate, o.Urgency, o.Status, o.Tag, o.Memo, o.Total)
	if err != nil {
		return fmt.Errorf("orders: update %s order: %w", o.Kind, err)
	}
	if tag.RowsAffected() == 0 {
		return &shared.NotFoundError{Entity: string(o.Kind) + " order", ID: o.ID}
	}
	return nil
}

func (r *txRepo) GetOrderForUpdate(ctx context.Context, kind Kind, id int64) (Order, error) {
	table, _ := orderTable(kind)
	row := r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM `+table+` WHERE id=$1 FOR UPDATE`, id)
	o, err := scanOrder(row, kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, &shared.NotFoundError{Entity: string(kind) + " order", ID: id}
		}
		return Order{}, err
	}
	return o, nil
}

// ReplaceLines deletes the existing line set and inserts the new one whole.
func (r *txRepo) ReplaceLines(ctx context.Context, kind Kind, orderID int64, lines []Line) error {
	_, lineTable := orderTable(kind)
	if _, err := r.tx.Exec(ctx, `DELETE FROM `+lineTable+` WHERE order_id=$1`, orderID); err != nil {
		return fmt.Errorf("orders: delete lines: %w", err)
	}
	for _, line := range lines {
		_, err := r.tx.Exec(ctx, `INSERT INTO `+lineTable+` (order_id, item_id, qty, unit_price, line_total) VALUES ($1,$2,$3,$4,$5)`,
			orderID, line.ItemID, line.Qty, line.UnitPrice, line.LineTotal)
		if err != nil {
			return fmt.Errorf("orders: insert line: %w", err)
		}
	}
	return nil
}

func (r *txRepo) UpdateMemo(ctx context.Context, kind Kind, orderID int64, tag, memo string) error {
	table, _ := orderTable(kind)
	res, err := r.tx.Exec(ctx, `UPDATE `+table+` SET tag=$2, memo=$3, updated_at=NOW() WHERE id=$1`, orderID, tag, memo)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return &shared.NotFoundError{Entity: string(kind) + " order", ID: orderID}
	}
	return nil
}

// MarkCompleted stamps completed_at exactly once; a second call finds the
// stamp already set and reports a conflict.
func (r *txRepo) MarkCompleted(ctx context.Context, kind Kind, orderID int64, at time.Time) error {
	table, _ := orderTable(kind)
	res, err := r.tx.Exec(ctx, `UPDATE `+table+` SET completed_at=$2, status=$3, updated_at=NOW() WHERE id=$1 AND completed_at IS NULL`, orderID, at, StatusCompleted)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return shared.ErrOrderCompleted
	}
	return nil
}

func (r *txRepo) Ledger() inventory.Ledger {
	return r.ledger
}

func (r *txRepo) Production() production.Resolver {
	return r.resolver
}

func (r *txRepo) InsertNotifications(ctx context.Context, drafts []notify.Notification) error {
	return notify.InsertNotifications(ctx, r.tx, drafts)
}

func scanOrder(row pgx.Row, kind Kind) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CounterpartyID, &o.StaffID, &o.OrderDate, &o.DueDate, &o.Urgency, &o.Status, &o.PaymentStatus, &o.Tag, &o.Memo, &o.Total, &o.CompletedAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Kind = kind
	return o, nil
}
