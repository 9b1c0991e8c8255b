package notify

import (
	"fmt"
	"math"
	"time"
)

// ShouldNotify reports whether an item is outside its cooldown window. Both
// the inline order-commit path and the scheduled sweep share this predicate.
func ShouldNotify(lastNotified *time.Time, now time.Time, cooldown time.Duration) bool {
	if lastNotified == nil {
		return true
	}
	return now.Sub(*lastNotified) >= cooldown
}

// Classify returns the threshold crossing for a stock state, if any.
func Classify(st StockState) (Reason, bool) {
	if st.Stock <= 0 {
		return ReasonOut, true
	}
	if st.ReorderLimit != nil && st.Stock <= *st.ReorderLimit {
		return ReasonLow, true
	}
	return "", false
}

// Evaluate produces a notification draft when the item crossed a threshold
// and its cooldown has elapsed. Returns nil when nothing should fire.
func Evaluate(st StockState, now time.Time, cooldown time.Duration) *Notification {
	reason, ok := Classify(st)
	if !ok {
		return nil
	}
	if !ShouldNotify(st.LastNotified, now, cooldown) {
		return nil
	}
	n := Notification{
		Type:      TypeStock,
		RefID:     st.ItemID,
		CreatedAt: now,
	}
	remaining := int64(math.Floor(st.Stock))
	switch reason {
	case ReasonOut:
		n.Title = "Out of stock"
		n.Message = fmt.Sprintf("%s is out", st.Name)
	default:
		n.Title = "Low stock"
		n.Message = fmt.Sprintf("%s is low, %d %s left", st.Name, remaining, st.Unit)
	}
	return &n
}
