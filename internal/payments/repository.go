package payments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warung-erp/warung-erp/internal/orders"
	"github.com/warung-erp/warung-erp/internal/platform/db"
	"github.com/warung-erp/warung-erp/internal/shared"
)

// OrderCharge is the payment-relevant slice of an order header.
type OrderCharge struct {
	ID            int64
	Total         float64
	PaymentStatus orders.PaymentStatus
}

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	GetOrderForPayment(ctx context.Context, kind orders.Kind, orderID int64) (OrderCharge, error)
	InsertInvoice(ctx context.Context, inv Invoice) (int64, error)
	SumInvoices(ctx context.Context, kind orders.Kind, orderID int64) (float64, error)
	SetPaymentStatus(ctx context.Context, kind orders.Kind, orderID int64, status orders.PaymentStatus) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListForOrder(ctx context.Context, kind orders.Kind, orderID int64) ([]Invoice, error)
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
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ListForOrder returns the invoices recorded against an order.
func (r *Repository) ListForOrder(ctx context.Context, kind orders.Kind, orderID int64) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_kind, order_id, amount, method, bank_name, bank_account, paid_at, created_at FROM invoices WHERE order_kind=$1 AND order_id=$2 ORDER BY id`, string(kind), orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.OrderKind, &inv.OrderID, &inv.Amount, &inv.Method, &inv.BankName, &inv.BankAccount, &inv.PaidAt, &inv.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func orderTable(kind orders.Kind) string {
	if kind == orders.KindPurchase {
		return "purchase_orders"
	}
	return "sales_orders"
}

func (r *txRepo) GetOrderForPayment(ctx context.Context, kind orders.Kind, orderID int64) (OrderCharge, error) {
	var charge OrderCharge
	err := r.tx.QueryRow(ctx, `SELECT id, total, payment_status FROM `+orderTable(kind)+` WHERE id=$1 FOR UPDATE`, orderID).
		Scan(&charge.ID, &charge.Total, &charge.PaymentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrderCharge{}, &shared.NotFoundError{Entity: string(kind) + " order", ID: orderID}
		}
		return OrderCharge{}, err
	}
	return charge, nil
}

func (r *txRepo) InsertInvoice(ctx context.Context, inv Invoice) (int64, error) {
	paidAt := inv.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO invoices (order_kind, order_id, amount, method, bank_name, bank_account, paid_at, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,NOW()) RETURNING id`,
		string(inv.OrderKind), inv.OrderID, inv.Amount, inv.Method, inv.BankName, inv.BankAccount, paidAt).Scan(&id)
	return id, err
}

func (r *txRepo) SumInvoices(ctx context.Context, kind orders.Kind, orderID int64) (float64, error) {
	var sum float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE order_kind=$1 AND order_id=$2`, string(kind), orderID).Scan(&sum)
	return sum, err
}

func (r *txRepo) SetPaymentStatus(ctx context.Context, kind orders.Kind, orderID int64, status orders.PaymentStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE `+orderTable(kind)+` SET payment_status=$2, updated_at=NOW() WHERE id=$1`, orderID, status)
	return err
}
