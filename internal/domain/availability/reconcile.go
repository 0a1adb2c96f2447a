package availability

import (
	"sort"
	"time"

	"buckler/internal/domain/shared/daterange"
)

// Plan splits a reconcile request into rows to insert and rows to overwrite.
type Plan struct {
	Creates []Entry
	Updates []Entry
}

func (p Plan) Processed() int {
	return len(p.Creates) + len(p.Updates)
}

// All returns creates and updates in date order.
func (p Plan) All() []Entry {
	out := make([]Entry, 0, p.Processed())
	out = append(out, p.Creates...)
	out = append(out, p.Updates...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Diff merges requested entries into existing ones. Dates are normalized to
// UTC midnight; when a date repeats, the last request wins. Existing rows keep
// their CreatedAt. Dates absent from requested are not touched.
func Diff(existing, requested []Entry, now time.Time) Plan {
	now = now.UTC()
	current := Index(existing)

	latest := make(map[string]Entry, len(requested))
	order := make([]string, 0, len(requested))
	for _, e := range requested {
		e.Date = daterange.Truncate(e.Date)
		key := e.Key()
		if _, seen := latest[key]; !seen {
			order = append(order, key)
		}
		latest[key] = e
	}

	var plan Plan
	for _, key := range order {
		e := latest[key]
		e.UpdatedAt = now
		if prev, ok := current[key]; ok {
			e.CreatedAt = prev.CreatedAt
			plan.Updates = append(plan.Updates, e)
			continue
		}
		e.CreatedAt = now
		plan.Creates = append(plan.Creates, e)
	}
	return plan
}
