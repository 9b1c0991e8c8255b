package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/warung-erp/warung-erp/internal/notify"
	"github.com/warung-erp/warung-erp/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ObserverPort counts domain events.
type ObserverPort interface {
	NotificationEmitted(reason string)
}

// IdempotencyPort guards repeated manual adjustments.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates manual inventory corrections. Order-driven stock
// mutation goes through the order commitment engine instead.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	observer    ObserverPort
	cooldown    time.Duration
	now         func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	NotifyCooldown time.Duration
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, observer ObserverPort, cfg ServiceConfig) *Service {
	cooldown := cfg.NotifyCooldown
	if cooldown <= 0 {
		cooldown = 24 * time.Hour
	}
	return &Service{repo: repo, audit: audit, idempotency: idem, observer: observer, cooldown: cooldown, now: time.Now}
}

// AdjustStock writes an absolute stock value, bypassing order logic but not
// the non-negative invariant or the notification evaluation.
func (s *Service) AdjustStock(ctx context.Context, input AdjustmentInput) (Item, error) {
	if input.ItemID <= 0 {
		return Item{}, shared.NewValidationError("item_id", "item id required")
	}
	if input.NewStock < 0 {
		return Item{}, shared.NewValidationError("stock", "stock must not be negative")
	}

	insertedKey := false
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "inventory"); err != nil {
			return Item{}, err
		}
		insertedKey = true
	}

	now := s.now().UTC()
	var updated Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.SetStock(ctx, input.ItemID, input.NewStock)
		if err != nil {
			return err
		}
		updated = item
		if draft := notify.Evaluate(item.StockState(), now, s.cooldown); draft != nil {
			if err := tx.InsertNotifications(ctx, []notify.Notification{*draft}); err != nil {
				return fmt.Errorf("inventory: insert notification: %w", err)
			}
			if err := tx.TouchLastNotified(ctx, []int64{item.ID}, now); err != nil {
				return err
			}
			at := now
			updated.LastNotified = &at
			if s.observer != nil {
				reason, _ := notify.Classify(item.StockState())
				s.observer.NotificationEmitted(string(reason))
			}
		}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		return Item{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "inventory:adjust",
			Entity:   "inventory_item",
			EntityID: fmt.Sprintf("%d", input.ItemID),
			Meta: map[string]any{
				"stock": input.NewStock,
				"note":  input.Note,
			},
		})
	}
	return updated, nil
}

// GetItem loads a single item.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, shared.NewValidationError("id", "item id required")
	}
	return s.repo.GetItem(ctx, id)
}

// ListItems lists catalog entries.
func (s *Service) ListItems(ctx context.Context, filter ItemFilter) ([]Item, error) {
	return s.repo.ListItems(ctx, filter)
}

// ListLowStock reports every threshold breach.
func (s *Service) ListLowStock(ctx context.Context) ([]Item, error) {
	return s.repo.ListLowStock(ctx)
}
