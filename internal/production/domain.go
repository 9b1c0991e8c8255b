package production

import (
	"time"

	"github.com/warung-erp/warung-erp/internal/units"
)

// MaterialLine is one consumed material of a recipe.
type MaterialLine struct {
	ID         int64      `json:"id"`
	BOMID      int64      `json:"bom_id"`
	MaterialID int64      `json:"material_id"`
	Qty        float64    `json:"qty"`
	Unit       units.Unit `json:"unit"`
	LineCost   float64    `json:"line_cost"`
}

// BillOfMaterials maps one finished product to the materials consumed to
// produce it. Read-only to the order commitment engine.
type BillOfMaterials struct {
	ID          int64          `json:"id"`
	ProductID   int64          `json:"product_id"`
	Name        string         `json:"name"`
	Tag         string         `json:"tag"`
	Description string         `json:"description"`
	TotalCost   float64        `json:"total_cost"`
	Lines       []MaterialLine `json:"lines"`
	CreatedAt   time.Time      `json:"created_at"`
}
