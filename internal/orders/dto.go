package orders

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/warung-erp/warung-erp/internal/shared"
)

const dateLayout = "2006-01-02"

type lineRequest struct {
	ItemID    int64   `json:"item_id" validate:"required,gt=0"`
	Qty       float64 `json:"qty" validate:"gte=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

type salesOrderRequest struct {
	CustomerID int64         `json:"customer_id" validate:"required,gt=0"`
	OrderDate  string        `json:"order_date" validate:"required"`
	Status     string        `json:"status" validate:"required"`
	Tag        string        `json:"tag"`
	Memo       string        `json:"memo"`
	Lines      []lineRequest `json:"lines" validate:"dive"`
}

type purchaseOrderRequest struct {
	SupplierID   int64         `json:"supplier_id" validate:"required,gt=0"`
	StaffID      int64         `json:"staff_id" validate:"required,gt=0"`
	PurchaseDate string        `json:"purchase_date" validate:"required"`
	DueDate      string        `json:"due_date" validate:"required"`
	Urgency      string        `json:"urgency"`
	Status       string        `json:"status" validate:"required"`
	Tag          string        `json:"tag"`
	Memo         string        `json:"memo"`
	Lines        []lineRequest `json:"lines" validate:"dive"`
}

func (r salesOrderRequest) toInput(actorID int64) (CommitInput, error) {
	orderDate, err := time.Parse(dateLayout, r.OrderDate)
	if err != nil {
		return CommitInput{}, shared.NewValidationError("order_date", "expected YYYY-MM-DD")
	}
	return CommitInput{
		CounterpartyID: r.CustomerID,
		OrderDate:      orderDate,
		Tag:            r.Tag,
		Memo:           r.Memo,
		Status:         Status(strings.ToUpper(r.Status)),
		Lines:          toLineInputs(r.Lines),
		ActorID:        actorID,
	}, nil
}

func (r purchaseOrderRequest) toInput(actorID int64) (CommitInput, error) {
	orderDate, err := time.Parse(dateLayout, r.PurchaseDate)
	if err != nil {
		return CommitInput{}, shared.NewValidationError("purchase_date", "expected YYYY-MM-DD")
	}
	dueDate, err := time.Parse(dateLayout, r.DueDate)
	if err != nil {
		return CommitInput{}, shared.NewValidationError("due_date", "expected YYYY-MM-DD")
	}
	return CommitInput{
		CounterpartyID: r.SupplierID,
		StaffID:        r.StaffID,
		OrderDate:      orderDate,
		DueDate:        &dueDate,
		Urgency:        r.Urgency,
		Tag:            r.Tag,
		Memo:           r.Memo,
		Status:         Status(strings.ToUpper(r.Status)),
		Lines:          toLineInputs(r.Lines),
		ActorID:        actorID,
	}, nil
}

func toLineInputs(lines []lineRequest) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineInput{ItemID: l.ItemID, Qty: l.Qty, UnitPrice: l.UnitPrice})
	}
	return out
}

// validationError converts validator output into the shared taxonomy.
func validationError(err error) error {
	var invalid validator.ValidationErrors
	fields := map[string]string{}
	if errors.As(err, &invalid) {
		for _, fe := range invalid {
			fields[strings.ToLower(fe.Field())] = "invalid value"
		}
	}
	if len(fields) == 0 {
		fields["body"] = "invalid request"
	}
	return &shared.ValidationError{Fields: fields}
}
