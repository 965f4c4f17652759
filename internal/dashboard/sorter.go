package dashboard

import (
	"sort"
	"time"

	"anomalyse_dashboard/internal/domain"
)

// accepted timestamp layouts, tried in order
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// SortDefault returns a copy of txs ordered newest first. Transactions whose
// timestamp cannot be parsed go last, keeping their relative order.
func SortDefault(txs []domain.Transaction) []domain.Transaction {
	type keyed struct {
		tx domain.Transaction
		ts time.Time
		ok bool
	}

	items := make([]keyed, len(txs))
	for i, tx := range txs {
		ts, ok := parseTimestamp(tx.Timestamp)
		items[i] = keyed{tx: tx, ts: ts, ok: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		return a.ts.After(b.ts)
	})

	out := make([]domain.Transaction, len(items))
	for i, it := range items {
		out[i] = it.tx
	}
	return out
}
