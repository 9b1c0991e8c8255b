package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func floatPtr(f float64) *float64 { return &f }

func TestShouldNotify(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cooldown := 24 * time.Hour

	require.True(t, ShouldNotify(nil, now, cooldown))
	require.True(t, ShouldNotify(timePtr(now.Add(-25*time.Hour)), now, cooldown))
	require.True(t, ShouldNotify(timePtr(now.Add(-24*time.Hour)), now, cooldown))
	require.False(t, ShouldNotify(timePtr(now.Add(-time.Hour)), now, cooldown))
	require.False(t, ShouldNotify(timePtr(now.Add(-23*time.Hour)), now, cooldown))
}

func TestClassify(t *testing.T) {
	reason, ok := Classify(StockState{Stock: 0})
	require.True(t, ok)
	require.Equal(t, ReasonOut, reason)

	reason, ok = Classify(StockState{Stock: 3, ReorderLimit: floatPtr(5)})
	require.True(t, ok)
	require.Equal(t, ReasonLow, reason)

	// At the limit counts as low.
	reason, ok = Classify(StockState{Stock: 5, ReorderLimit: floatPtr(5)})
	require.True(t, ok)
	require.Equal(t, ReasonLow, reason)

	_, ok = Classify(StockState{Stock: 6, ReorderLimit: floatPtr(5)})
	require.False(t, ok)

	// No reorder limit means only the out-of-stock threshold applies.
	_, ok = Classify(StockState{Stock: 0.5})
	require.False(t, ok)
}

func TestEvaluateMessages(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	n := Evaluate(StockState{ItemID: 7, Name: "Gula", Unit: "gram", Stock: 0}, now, 24*time.Hour)
	require.NotNil(t, n)
	require.Equal(t, "Out of stock", n.Title)
	require.Equal(t, "Gula is out", n.Message)
	require.Equal(t, TypeStock, n.Type)
	require.Equal(t, int64(7), n.RefID)
	require.Nil(t, n.UserID)

	n = Evaluate(StockState{ItemID: 8, Name: "Gelas", Unit: "Pcs", Stock: 4.7, ReorderLimit: floatPtr(5)}, now, 24*time.Hour)
	require.NotNil(t, n)
	require.Equal(t, "Low stock", n.Title)
	require.Equal(t, "Gelas is low, 4 Pcs left", n.Message)
}

func TestEvaluateRespectsCooldown(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	st := StockState{ItemID: 7, Name: "Gula", Unit: "gram", Stock: 0, LastNotified: timePtr(now.Add(-time.Hour))}
	require.Nil(t, Evaluate(st, now, 24*time.Hour))

	st.LastNotified = timePtr(now.Add(-25 * time.Hour))
	require.NotNil(t, Evaluate(st, now, 24*time.Hour))
}

func TestEvaluateNoBreach(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.Nil(t, Evaluate(StockState{ItemID: 1, Name: "Beras", Stock: 100}, now, 24*time.Hour))
}
