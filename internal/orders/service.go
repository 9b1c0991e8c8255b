package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warung-erp/warung-erp/internal/inventory"
	"github.com/warung-erp/warung-erp/internal/notify"
	"github.com/warung-erp/warung-erp/internal/shared"
	"github.com/warung-erp/warung-erp/internal/units"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ObserverPort counts domain events.
type ObserverPort interface {
	OrderCommitted(kind string)
	InsufficientStock()
	NotificationEmitted(reason string)
}

type commitMode int

const (
	modeCreate commitMode = iota
	modeUpdate
)

// LineInput is one requested order position.
type LineInput struct {
	ItemID    int64
	Qty       float64
	UnitPrice float64
}

// CommitInput carries everything a create-or-update call supplies. The
// client-submitted total, if any, never reaches this struct.
type CommitInput struct {
	OrderID        int64
	CounterpartyID int64
	StaffID        int64
	OrderDate      time.Time
	DueDate        *time.Time
	Urgency        string
	Tag            string
	Memo           string
	Status         Status
	Lines          []LineInput
	ActorID        int64
}

// Service is the order commitment engine: one code path for sales and
// purchases, executing resolution, conversion, stock mutation and
// notification emission inside a single transaction.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	observer ObserverPort
	cooldown time.Duration
	now      func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	NotifyCooldown time.Duration
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, observer ObserverPort, cfg ServiceConfig) *Service {
	cooldown := cfg.NotifyCooldown
	if cooldown <= 0 {
		cooldown = 24 * time.Hour
	}
	return &Service{repo: repo, audit: audit, observer: observer, cooldown: cooldown, now: time.Now}
}

// CreateSales commits a new sales order.
func (s *Service) CreateSales(ctx context.Context, in CommitInput) (Order, error) {
	return s.commit(ctx, KindSales, modeCreate, in)
}

// UpdateSales replaces an existing sales order wholesale.
func (s *Service) UpdateSales(ctx context.Context, in CommitInput) (Order, error) {
	return s.commit(ctx, KindSales, modeUpdate, in)
}

// CreatePurchase commits a new purchase order.
func (s *Service) CreatePurchase(ctx context.Context, in CommitInput) (Order, error) {
	return s.commit(ctx, KindPurchase, modeCreate, in)
}

// UpdatePurchase replaces an existing purchase order wholesale.
func (s *Service) UpdatePurchase(ctx context.Context, in CommitInput) (Order, error) {
	return s.commit(ctx, KindPurchase, modeUpdate, in)
}

// Get loads an order with its lines.
func (s *Service) Get(ctx context.Context, kind Kind, id int64) (Order, error) {
	if id <= 0 {
		return Order{}, shared.NewValidationError("id", "order id required")
	}
	return s.repo.GetOrder(ctx, kind, id)
}

func (s *Service) commit(ctx context.Context, kind Kind, mode commitMode, in CommitInput) (Order, error) {
	if err := s.validate(kind, mode, in); err != nil {
		return Order{}, err
	}

	lines := make([]Line, 0, len(in.Lines))
	var total float64
	for _, l := range in.Lines {
		lineTotal := l.UnitPrice * l.Qty
		total += lineTotal
		lines = append(lines, Line{ItemID: l.ItemID, Qty: l.Qty, UnitPrice: l.UnitPrice, LineTotal: lineTotal})
	}

	now := s.now().UTC()
	var orderID int64
	committed := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		switch mode {
		case modeCreate:
			o := Order{
				Kind:           kind,
				CounterpartyID: in.CounterpartyID,
				StaffID:        in.StaffID,
				OrderDate:      in.OrderDate,
				DueDate:        in.DueDate,
				Urgency:        in.Urgency,
				Status:         in.Status,
				PaymentStatus:  PaymentStatusUnpaid,
				Tag:            in.Tag,
				Memo:           in.Memo,
				Total:          total,
				CreatedBy:      in.ActorID,
			}
			id, err := tx.InsertOrder(ctx, o)
			if err != nil {
				return err
			}
			orderID = id
			if err := tx.ReplaceLines(ctx, kind, id, lines); err != nil {
				return err
			}
		case modeUpdate:
			existing, err := tx.GetOrderForUpdate(ctx, kind, in.OrderID)
			if err != nil {
				return err
			}
			orderID = existing.ID
			if existing.Completed() {
				// Once committed, stock effects are final: only tag/memo
				// edits pass through, never a second mutation.
				if len(in.Lines) > 0 || (in.Status != "" && in.Status != StatusCompleted) {
					return shared.ErrOrderCompleted
				}
				return tx.UpdateMemo(ctx, kind, existing.ID, in.Tag, in.Memo)
			}
			if err := checkTransition(existing.Status, in.Status); err != nil {
				return err
			}
			if len(in.Lines) == 0 {
				return shared.NewValidationError("lines", "at least one line item is required")
			}
			updated := existing
			updated.CounterpartyID = in.CounterpartyID
			updated.StaffID = in.StaffID
			updated.OrderDate = in.OrderDate
			updated.DueDate = in.DueDate
			updated.Urgency = in.Urgency
			updated.Status = in.Status
			updated.Tag = in.Tag
			updated.Memo = in.Memo
			updated.Total = total
			if err := tx.UpdateOrder(ctx, updated); err != nil {
				return err
			}
			if err := tx.ReplaceLines(ctx, kind, existing.ID, lines); err != nil {
				return err
			}
		}

		if in.Status != StatusCompleted {
			return nil
		}

		drafts, notifiedIDs, err := s.applyStockEffects(ctx, tx, kind, lines, now)
		if err != nil {
			return err
		}
		if err := tx.MarkCompleted(ctx, kind, orderID, now); err != nil {
			return err
		}
		if len(drafts) > 0 {
			if err := tx.InsertNotifications(ctx, drafts); err != nil {
				return fmt.Errorf("orders: insert notifications: %w", err)
			}
			if err := tx.Ledger().TouchLastNotified(ctx, notifiedIDs, now); err != nil {
				return err
			}
		}
		committed = true
		return nil
	})
	if err != nil {
		var insufficient *shared.InsufficientStockError
		if errors.As(err, &insufficient) && s.observer != nil {
			s.observer.InsufficientStock()
		}
		return Order{}, err
	}

	if committed && s.observer != nil {
		s.observer.OrderCommitted(string(kind))
	}
	if s.audit != nil {
		action := fmt.Sprintf("%s_order:%s", kind, map[commitMode]string{modeCreate: "create", modeUpdate: "update"}[mode])
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  in.ActorID,
			Action:   action,
			Entity:   string(kind) + "_order",
			EntityID: fmt.Sprintf("%d", orderID),
			Meta: map[string]any{
				"status": string(in.Status),
				"total":  total,
				"lines":  len(lines),
			},
		})
	}
	return s.repo.GetOrder(ctx, kind, orderID)
}

// applyStockEffects resolves each line against the recipe catalog, converts
// quantities into the stocked unit and mutates the ledger. It returns the
// notification drafts for every threshold crossing, deduplicated per item.
func (s *Service) applyStockEffects(ctx context.Context, tx TxRepository, kind Kind, lines []Line, now time.Time) ([]notify.Notification, []int64, error) {
	ledger := tx.Ledger()
	mutated := make(map[int64]inventory.Item)
	var order []int64

	record := func(item inventory.Item) {
		if _, seen := mutated[item.ID]; !seen {
			order = append(order, item.ID)
		}
		mutated[item.ID] = item
	}

	for _, line := range lines {
		item, err := ledger.GetItemForUpdate(ctx, line.ItemID)
		if err != nil {
			return nil, nil, err
		}
		if line.Qty == 0 {
			continue
		}
		if kind == KindPurchase {
			// Purchases replenish the bought item directly, never via a
			// recipe.
			updated, err := ledger.AdjustStock(ctx, item.ID, line.Qty)
			if err != nil {
				return nil, nil, err
			}
			record(updated)
			continue
		}
		bom, err := tx.Production().ResolveForProduct(ctx, item.ID)
		if err != nil {
			return nil, nil, err
		}
		if bom == nil || len(bom.Lines) == 0 {
			// No recipe, or an empty one: the product itself is the
			// stocked good.
			updated, err := ledger.AdjustStock(ctx, item.ID, -line.Qty)
			if err != nil {
				return nil, nil, err
			}
			record(updated)
			continue
		}
		for _, ml := range bom.Lines {
			material, err := ledger.GetItemForUpdate(ctx, ml.MaterialID)
			if err != nil {
				return nil, nil, err
			}
			need, err := units.Convert(ml.Qty*line.Qty, ml.Unit, material.Unit)
			if err != nil {
				return nil, nil, fmt.Errorf("orders: recipe %q material %s: %w", bom.Name, material.Name, err)
			}
			updated, err := ledger.AdjustStock(ctx, material.ID, -need)
			if err != nil {
				return nil, nil, err
			}
			record(updated)
		}
	}

	var drafts []notify.Notification
	var notifiedIDs []int64
	for _, id := range order {
		item := mutated[id]
		draft := notify.Evaluate(item.StockState(), now, s.cooldown)
		if draft == nil {
			continue
		}
		drafts = append(drafts, *draft)
		notifiedIDs = append(notifiedIDs, id)
		if s.observer != nil {
			reason, _ := notify.Classify(item.StockState())
			s.observer.NotificationEmitted(string(reason))
		}
	}
	return drafts, notifiedIDs, nil
}

func (s *Service) validate(kind Kind, mode commitMode, in CommitInput) error {
	fields := map[string]string{}
	if mode == modeUpdate && in.OrderID <= 0 {
		fields["order_id"] = "order id required"
	}
	if in.CounterpartyID <= 0 {
		if kind == KindSales {
			fields["customer_id"] = "customer is required"
		} else {
			fields["supplier_id"] = "supplier is required"
		}
	}
	if kind == KindPurchase {
		if in.StaffID <= 0 {
			fields["staff_id"] = "staff is required"
		}
		if in.DueDate == nil {
			fields["due_date"] = "due date is required"
		}
	}
	if in.OrderDate.IsZero() {
		fields["order_date"] = "order date is required"
	}
	if !in.Status.Valid() {
		fields["status"] = "unknown status"
	} else if mode == modeCreate && in.Status == StatusCancelled {
		fields["status"] = "cannot create a cancelled order"
	}
	if mode == modeCreate && len(in.Lines) == 0 {
		fields["lines"] = "at least one line item is required"
	}
	for i, line := range in.Lines {
		switch {
		case line.ItemID <= 0:
			fields[fmt.Sprintf("lines[%d].item_id", i)] = "item is required"
		case line.Qty < 0:
			fields[fmt.Sprintf("lines[%d].qty", i)] = "quantity must not be negative"
		case line.UnitPrice < 0:
			fields[fmt.Sprintf("lines[%d].unit_price", i)] = "price must not be negative"
		}
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}

// checkTransition enforces Draft -> Approved -> Completed with cancellation
// from any non-final state.
func checkTransition(from, to Status) error {
	if from == StatusCancelled {
		return shared.ErrInvalidStatus
	}
	if from == StatusApproved && to == StatusDraft {
		return shared.ErrInvalidStatus
	}
	return nil
}
