package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ObserverPort counts emitted notifications.
type ObserverPort interface {
	NotificationEmitted(reason string)
}

// Service runs the scheduled stock sweep and serves notification reads.
type Service struct {
	repo     RepositoryPort
	guard    *redis.Client
	cooldown time.Duration
	observer ObserverPort
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Cooldown time.Duration
}

// NewService builds Service. The redis client is optional; when present it is
// used as a cross-process fast suppression in front of the last_notified
// predicate, which stays authoritative.
func NewService(repo RepositoryPort, guard *redis.Client, cfg ServiceConfig, observer ObserverPort, logger *slog.Logger) *Service {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 24 * time.Hour
	}
	return &Service{repo: repo, guard: guard, cooldown: cooldown, observer: observer, logger: logger, now: time.Now}
}

// Cooldown returns the configured suppression window.
func (s *Service) Cooldown() time.Duration {
	return s.cooldown
}

// RunSweep scans material/packaging items for threshold breaches independent
// of order activity and fans one notification out per known user. Returns the
// number of items notified.
func (s *Service) RunSweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	notified := 0
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		states, err := tx.ListBreaches(ctx, now.Add(-s.cooldown))
		if err != nil {
			return fmt.Errorf("notify: list breaches: %w", err)
		}
		if len(states) == 0 {
			return nil
		}
		userIDs, err := tx.ListUserIDs(ctx)
		if err != nil {
			return fmt.Errorf("notify: list users: %w", err)
		}
		var drafts []Notification
		var itemIDs []int64
		for _, st := range states {
			if !s.acquireGuard(ctx, st.ItemID) {
				continue
			}
			draft := Evaluate(st, now, s.cooldown)
			if draft == nil {
				continue
			}
			reason, _ := Classify(st)
			if s.observer != nil {
				s.observer.NotificationEmitted(string(reason))
			}
			for _, userID := range userIDs {
				id := userID
				fanout := *draft
				fanout.UserID = &id
				drafts = append(drafts, fanout)
			}
			if len(userIDs) == 0 {
				drafts = append(drafts, *draft)
			}
			itemIDs = append(itemIDs, st.ItemID)
		}
		if len(drafts) == 0 {
			return nil
		}
		if err := tx.InsertNotifications(ctx, drafts); err != nil {
			return fmt.Errorf("notify: insert batch: %w", err)
		}
		if err := tx.TouchLastNotified(ctx, itemIDs, now); err != nil {
			return fmt.Errorf("notify: touch last notified: %w", err)
		}
		notified = len(itemIDs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if notified > 0 && s.logger != nil {
		s.logger.Info("stock sweep emitted notifications", slog.Int("items", notified))
	}
	return notified, nil
}

// acquireGuard claims the redis cooldown key for an item. Errors and a nil
// client both fall back to allowing the notification; the database predicate
// still applies.
func (s *Service) acquireGuard(ctx context.Context, itemID int64) bool {
	if s.guard == nil {
		return true
	}
	ok, err := s.guard.SetNX(ctx, guardKey(itemID), 1, s.cooldown).Result()
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("notify guard unavailable", slog.Any("error", err))
		}
		return true
	}
	return ok
}

func guardKey(itemID int64) string {
	return fmt.Sprintf("notify:item:%d", itemID)
}

// List returns notifications visible to the user.
func (s *Service) List(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	return s.repo.ListForUser(ctx, userID, limit)
}

// MarkRead flags a notification as read.
func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	if id <= 0 {
		return fmt.Errorf("notify: invalid notification id")
	}
	return s.repo.MarkRead(ctx, id, userID)
}
