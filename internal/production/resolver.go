package production

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/warung-erp/warung-erp/internal/platform/db"
)

// Resolver decides whether a sellable product is manufactured from a recipe
// or stocked directly.
type Resolver interface {
	// ResolveForProduct returns the recipe for a product, or nil when the
	// item is sold without one. When several recipes exist the lowest id
	// wins.
	ResolveForProduct(ctx context.Context, productID int64) (*BillOfMaterials, error)
}

// PgResolver implements Resolver over a pgx querier.
type PgResolver struct {
	q db.Querier
}

// NewResolver constructs PgResolver.
func NewResolver(q db.Querier) *PgResolver {
	return &PgResolver{q: q}
}

func (r *PgResolver) ResolveForProduct(ctx context.Context, productID int64) (*BillOfMaterials, error) {
	var bom BillOfMaterials
	err := r.q.QueryRow(ctx, `SELECT id, product_id, name, tag, description, total_cost, created_at FROM boms WHERE product_id=$1 ORDER BY id LIMIT 1`, productID).
		Scan(&bom.ID, &bom.ProductID, &bom.Name, &bom.Tag, &bom.Description, &bom.TotalCost, &bom.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rows, err := r.q.Query(ctx, `SELECT id, bom_id, material_id, qty, unit, line_cost FROM bom_lines WHERE bom_id=$1 ORDER BY id`, bom.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line MaterialLine
		if err := rows.Scan(&line.ID, &line.BOMID, &line.MaterialID, &line.Qty, &line.Unit, &line.LineCost); err != nil {
			return nil, err
		}
		bom.Lines = append(bom.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &bom, nil
}
