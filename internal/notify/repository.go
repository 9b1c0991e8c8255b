package notify

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warung-erp/warung-erp/internal/platform/db"
	"github.com/warung-erp/warung-erp/internal/shared"
)

// TxRepository exposes the transactional operations used by the sweep.
type TxRepository interface {
	ListBreaches(ctx context.Context, notifiedBefore time.Time) ([]StockState, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	InsertNotifications(ctx context.Context, drafts []Notification) error
	TouchLastNotified(ctx context.Context, itemIDs []int64, at time.Time) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}

// Repository persists notifications in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
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

// ListForUser returns the newest notifications targeted at the user plus
// broadcasts.
func (r *Repository) ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, title, message, type, ref_id, user_id, read, created_at FROM notifications WHERE user_id IS NULL OR user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// MarkRead flags a notification as read for its target user.
func (r *Repository) MarkRead(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read=TRUE WHERE id=$1 AND (user_id IS NULL OR user_id=$2)`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &shared.NotFoundError{Entity: "notification", ID: id}
	}
	return nil
}

// ListBreaches finds material/packaging items at or below their reorder limit
// whose last notification is stale or absent. Rows are locked so a concurrent
// commit cannot race the last_notified update.
func (r *txRepo) ListBreaches(ctx context.Context, notifiedBefore time.Time) ([]StockState, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, name, unit, stock, reorder_limit, last_notified FROM inventory_items WHERE category IN ('material','packaging') AND reorder_limit IS NOT NULL AND stock <= reorder_limit AND (last_notified IS NULL OR last_notified < $1) ORDER BY id FOR UPDATE`, notifiedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var states []StockState
	for rows.Next() {
		var st StockState
		if err := rows.Scan(&st.ItemID, &st.Name, &st.Unit, &st.Stock, &st.ReorderLimit, &st.LastNotified); err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

func (r *txRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.tx.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *txRepo) InsertNotifications(ctx context.Context, drafts []Notification) error {
	return InsertNotifications(ctx, r.tx, drafts)
}

func (r *txRepo) TouchLastNotified(ctx context.Context, itemIDs []int64, at time.Time) error {
	if len(itemIDs) == 0 {
		return nil
	}
	_, err := r.tx.Exec(ctx, `UPDATE inventory_items SET last_notified=$2 WHERE id = ANY($1)`, itemIDs, at)
	return err
}

// InsertNotifications batch-inserts drafts using any querier, so order
// commits can persist drafts inside their own transaction.
func InsertNotifications(ctx context.Context, q db.Querier, drafts []Notification) error {
	for _, d := range drafts {
		if d.Type == "" {
			return errors.New("notify: type required")
		}
		_, err := q.Exec(ctx, `INSERT INTO notifications (title, message, type, ref_id, user_id, read, created_at) VALUES ($1, $2, $3, $4, $5, FALSE, $6)`, d.Title, d.Message, d.Type, d.RefID, d.UserID, d.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanNotifications(rows pgx.Rows) ([]Notification, error) {
	var list []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.RefID, &n.UserID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}
