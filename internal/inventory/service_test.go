package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warung-erp/warung-erp/internal/notify"
	"github.com/warung-erp/warung-erp/internal/shared"
	"github.com/warung-erp/warung-erp/internal/units"
)

type memInventory struct {
	items         map[int64]Item
	notifications []notify.Notification
}

func (m *memInventory) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[int64]Item, len(m.items))
	for id, item := range m.items {
		snapshot[id] = item
	}
	saved := append([]notify.Notification(nil), m.notifications...)
	if err := fn(ctx, m); err != nil {
		m.items = snapshot
		m.notifications = saved
		return err
	}
	return nil
}

func (m *memInventory) GetItem(ctx context.Context, id int64) (Item, error) {
	item, ok := m.items[id]
	if !ok {
		return Item{}, &shared.NotFoundError{Entity: "inventory item", ID: id}
	}
	return item, nil
}

func (m *memInventory) ListItems(ctx context.Context, filter ItemFilter) ([]Item, error) {
	var out []Item
	for _, item := range m.items {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *memInventory) ListLowStock(ctx context.Context) ([]Item, error) {
	var out []Item
	for _, item := range m.items {
		if item.Stock <= 0 || (item.ReorderLimit != nil && item.Stock <= *item.ReorderLimit) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memInventory) GetItemForUpdate(ctx context.Context, id int64) (Item, error) {
	return m.GetItem(ctx, id)
}

func (m *memInventory) AdjustStock(ctx context.Context, id int64, delta float64) (Item, error) {
	item, ok := m.items[id]
	if !ok {
		return Item{}, &shared.NotFoundError{Entity: "inventory item", ID: id}
	}
	next := item.Stock + delta
	if next < -Epsilon {
		return Item{}, &shared.InsufficientStockError{Item: item.Name}
	}
	if next < 0 {
		next = 0
	}
	item.Stock = next
	m.items[id] = item
	return item, nil
}

func (m *memInventory) SetStock(ctx context.Context, id int64, qty float64) (Item, error) {
	item, ok := m.items[id]
	if !ok {
		return Item{}, &shared.NotFoundError{Entity: "inventory item", ID: id}
	}
	if qty < 0 {
		return Item{}, &shared.InsufficientStockError{Item: item.Name}
	}
	item.Stock = qty
	m.items[id] = item
	return item, nil
}

func (m *memInventory) TouchLastNotified(ctx context.Context, ids []int64, at time.Time) error {
	for _, id := range ids {
		item, ok := m.items[id]
		if !ok {
			continue
		}
		stamp := at
		item.LastNotified = &stamp
		m.items[id] = item
	}
	return nil
}

func (m *memInventory) InsertNotifications(ctx context.Context, drafts []notify.Notification) error {
	m.notifications = append(m.notifications, drafts...)
	return nil
}

type fakeIdempotency struct {
	keys    map[string]bool
	deleted []string
}

func (f *fakeIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeIdempotency) Delete(ctx context.Context, key string) error {
	delete(f.keys, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func floatPtr(f float64) *float64 { return &f }

func newInventoryService(repo *memInventory, idem IdempotencyPort) *Service {
	svc := NewService(repo, nil, idem, nil, ServiceConfig{})
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func testItem(id int64, name string, stock float64) Item {
	return Item{ID: id, Name: name, Category: CategoryMaterial, Unit: units.UnitGram, Stock: stock}
}

func TestAdjustStockSetsAbsoluteValue(t *testing.T) {
	repo := &memInventory{items: map[int64]Item{1: testItem(1, "Gula", 200)}}
	svc := newInventoryService(repo, nil)

	item, err := svc.AdjustStock(context.Background(), AdjustmentInput{ItemID: 1, NewStock: 750, Note: "recount"})
	require.NoError(t, err)
	require.InDelta(t, 750, item.Stock, 0.001)
	require.InDelta(t, 750, repo.items[1].Stock, 0.001)
	require.Empty(t, repo.notifications)
}

func TestAdjustStockRejectsNegative(t *testing.T) {
	repo := &memInventory{items: map[int64]Item{1: testItem(1, "Gula", 200)}}
	svc := newInventoryService(repo, nil)

	_, err := svc.AdjustStock(context.Background(), AdjustmentInput{ItemID: 1, NewStock: -5})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.InDelta(t, 200, repo.items[1].Stock, 0.001)
}

func TestAdjustStockEmitsNotificationOnBreach(t *testing.T) {
	item := testItem(1, "Gula", 1000)
	item.ReorderLimit = floatPtr(500)
	repo := &memInventory{items: map[int64]Item{1: item}}
	svc := newInventoryService(repo, nil)

	updated, err := svc.AdjustStock(context.Background(), AdjustmentInput{ItemID: 1, NewStock: 100})
	require.NoError(t, err)
	require.Len(t, repo.notifications, 1)
	require.Equal(t, "Low stock", repo.notifications[0].Title)
	require.NotNil(t, updated.LastNotified)
	require.NotNil(t, repo.items[1].LastNotified)
}

func TestAdjustStockUnknownItem(t *testing.T) {
	repo := &memInventory{items: map[int64]Item{}}
	svc := newInventoryService(repo, nil)

	_, err := svc.AdjustStock(context.Background(), AdjustmentInput{ItemID: 9, NewStock: 10})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAdjustStockIdempotencyConflict(t *testing.T) {
	repo := &memInventory{items: map[int64]Item{1: testItem(1, "Gula", 200)}}
	idem := &fakeIdempotency{}
	svc := newInventoryService(repo, idem)

	_, err := svc.AdjustStock(context.Background(), AdjustmentInput{ItemID: 1, NewStock: 300, IdempotencyKey: "k1"})
	require.NoError(t, err)

	_, err = svc.AdjustStock(context.Background(), AdjustmentInput{ItemID: 1, NewStock: 900, IdempotencyKey: "k1"})
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.InDelta(t, 300, repo.items[1].Stock, 0.001)
}

func TestAdjustStockReleasesKeyOnFailure(t *testing.T) {
	repo := &memInventory{items: map[int64]Item{}}
	idem := &fakeIdempotency{}
	svc := newInventoryService(repo, idem)

	_, err := svc.AdjustStock(context.Background(), AdjustmentInput{ItemID: 5, NewStock: 10, IdempotencyKey: "k2"})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Contains(t, idem.deleted, "k2")
}

func TestListLowStock(t *testing.T) {
	low := testItem(2, "Kopi", 50)
	low.ReorderLimit = floatPtr(100)
	repo := &memInventory{items: map[int64]Item{
		1: testItem(1, "Gula", 1000),
		2: low,
		3: testItem(3, "Teh", 0),
	}}
	svc := newInventoryService(repo, nil)

	items, err := svc.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
}
