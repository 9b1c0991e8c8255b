package notify

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type sweepRepo struct {
	states        []StockState
	userIDs       []int64
	inserted      []Notification
	touchedItems  []int64
	touchedAt     time.Time
	listBreachCut time.Time
}

func (r *sweepRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *sweepRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	var out []Notification
	for _, n := range r.inserted {
		if n.UserID == nil || *n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *sweepRepo) MarkRead(ctx context.Context, id, userID int64) error { return nil }

func (r *sweepRepo) ListBreaches(ctx context.Context, notifiedBefore time.Time) ([]StockState, error) {
	r.listBreachCut = notifiedBefore
	var out []StockState
	for _, st := range r.states {
		if st.LastNotified == nil || st.LastNotified.Before(notifiedBefore) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *sweepRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	return r.userIDs, nil
}

func (r *sweepRepo) InsertNotifications(ctx context.Context, drafts []Notification) error {
	r.inserted = append(r.inserted, drafts...)
	return nil
}

func (r *sweepRepo) TouchLastNotified(ctx context.Context, itemIDs []int64, at time.Time) error {
	r.touchedItems = append(r.touchedItems, itemIDs...)
	r.touchedAt = at
	return nil
}

type countingObserver struct {
	reasons []string
}

func (o *countingObserver) NotificationEmitted(reason string) {
	o.reasons = append(o.reasons, reason)
}

func sweepService(t *testing.T, repo *sweepRepo, guard *redis.Client, observer ObserverPort) *Service {
	t.Helper()
	svc := NewService(repo, guard, ServiceConfig{}, observer, slog.Default())
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC) }
	return svc
}

func TestRunSweepNotifiesStaleBreaches(t *testing.T) {
	now := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour)
	stale := now.Add(-25 * time.Hour)
	repo := &sweepRepo{
		states: []StockState{
			{ItemID: 1, Name: "Gula", Unit: "gram", Stock: 100, ReorderLimit: floatPtr(500)},
			{ItemID: 2, Name: "Kopi", Unit: "gram", Stock: 0, ReorderLimit: floatPtr(200), LastNotified: &stale},
			{ItemID: 3, Name: "Gelas", Unit: "Pcs", Stock: 3, ReorderLimit: floatPtr(10), LastNotified: &fresh},
		},
		userIDs: []int64{1, 2},
	}
	observer := &countingObserver{}
	svc := sweepService(t, repo, nil, observer)

	notified, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, notified)

	// Two breached items fanned out to two users each.
	require.Len(t, repo.inserted, 4)
	for _, n := range repo.inserted {
		require.NotNil(t, n.UserID)
	}
	require.ElementsMatch(t, []int64{1, 2}, repo.touchedItems)
	require.Equal(t, now, repo.touchedAt)
	require.ElementsMatch(t, []string{"low", "out"}, observer.reasons)
}

func TestRunSweepBroadcastsWithoutUsers(t *testing.T) {
	repo := &sweepRepo{
		states: []StockState{{ItemID: 1, Name: "Gula", Unit: "gram", Stock: 0, ReorderLimit: floatPtr(500)}},
	}
	svc := sweepService(t, repo, nil, nil)

	notified, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, notified)
	require.Len(t, repo.inserted, 1)
	require.Nil(t, repo.inserted[0].UserID)
}

func TestRunSweepNothingToDo(t *testing.T) {
	repo := &sweepRepo{userIDs: []int64{1}}
	svc := sweepService(t, repo, nil, nil)

	notified, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	require.Zero(t, notified)
	require.Empty(t, repo.inserted)
	require.Empty(t, repo.touchedItems)
}

func TestRunSweepRedisGuardSuppresses(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := &sweepRepo{
		states:  []StockState{{ItemID: 7, Name: "Gula", Unit: "gram", Stock: 0, ReorderLimit: floatPtr(500)}},
		userIDs: []int64{1},
	}
	svc := sweepService(t, repo, client, nil)

	notified, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, notified)
	require.True(t, mr.Exists("notify:item:7"))

	// The repo fake does not persist last_notified, so only the redis key
	// stands between the item and a duplicate on the next run.
	notified, err = svc.RunSweep(context.Background())
	require.NoError(t, err)
	require.Zero(t, notified)
	require.Len(t, repo.inserted, 1)
}

func TestRunSweepGuardFailureFallsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	repo := &sweepRepo{
		states:  []StockState{{ItemID: 7, Name: "Gula", Unit: "gram", Stock: 0, ReorderLimit: floatPtr(500)}},
		userIDs: []int64{1},
	}
	svc := sweepService(t, repo, client, nil)

	// An unreachable guard must not block the sweep; the database predicate
	// remains the authority.
	notified, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, notified)
}

func TestMarkReadValidation(t *testing.T) {
	svc := sweepService(t, &sweepRepo{}, nil, nil)
	require.Error(t, svc.MarkRead(context.Background(), 0, 1))
}
