package services

import (
	"context"
	"fmt"
	"time"

	"clarify/internal/cache"
	"clarify/internal/core"
	"clarify/internal/storage"
)

// movementSummer is implemented by storage.Queries both inside and outside a
// transaction.
type movementSummer interface {
	SumMovements(ctx context.Context, groupID string, t core.MovementType, w core.Window) (core.Money, error)
}

// LedgerAggregator answers total-by-type questions over a group's movements.
// Every total is an exact decimal; an empty selection sums to zero.
type LedgerAggregator struct {
	store     movementSummer
	summaries *cache.LRUCache[core.MonthSummary]
}

// NewLedgerAggregator wires the aggregator. summaries may be nil, in which case
// month summaries are always computed from the store.
func NewLedgerAggregator(store *storage.SQLiteRepository, summaries *cache.LRUCache[core.MonthSummary]) *LedgerAggregator {
	a := &LedgerAggregator{summaries: summaries}
	if store != nil {
		a.store = store
	}
	return a
}

// Sum totals movements of type t for group inside w.
func (a *LedgerAggregator) Sum(ctx context.Context, groupID string, t core.MovementType, w core.Window) (core.Money, error) {
	return sumMovements(ctx, a.store, groupID, t, w)
}

func (a *LedgerAggregator) Lifetime(ctx context.Context, groupID string, t core.MovementType) (core.Money, error) {
	return a.Sum(ctx, groupID, t, core.Lifetime())
}

func (a *LedgerAggregator) Month(ctx context.Context, groupID string, t core.MovementType, m core.Month) (core.Money, error) {
	return a.Sum(ctx, groupID, t, core.MonthWindow(m))
}

// Range totals movements dated between from and to, both inclusive.
func (a *LedgerAggregator) Range(ctx context.Context, groupID string, t core.MovementType, from, to core.Date) (core.Money, error) {
	return a.Sum(ctx, groupID, t, core.DateRange(from, to))
}

// LastNDays totals the n calendar days ending today (UTC), today included.
func (a *LedgerAggregator) LastNDays(ctx context.Context, groupID string, t core.MovementType, n int, now time.Time) (core.Money, error) {
	if n < 1 {
		return core.Zero, fmt.Errorf("%w: day count must be positive", core.ErrInvalidWindow)
	}
	return a.Sum(ctx, groupID, t, core.LastNDays(now, n))
}

// MonthNet is earnings minus expenses for the month. Investments do not count.
func (a *LedgerAggregator) MonthNet(ctx context.Context, groupID string, m core.Month) (core.Money, error) {
	return monthNet(ctx, a.store, groupID, m)
}

// MonthSummary returns the month's totals per type, served from the cache
// when present.
func (a *LedgerAggregator) MonthSummary(ctx context.Context, groupID string, m core.Month) (core.MonthSummary, error) {
	key := summaryKey(groupID, m)
	if a.summaries != nil {
		if s, ok := a.summaries.Get(key); ok {
			return s, nil
		}
	}

	w := core.MonthWindow(m)
	totals, err := totalsFor(ctx, a.store, groupID, w)
	if err != nil {
		return core.MonthSummary{}, err
	}
	s := core.MonthSummary{
		Month:       m,
		Earnings:    totals.Earnings,
		Expenses:    totals.Expenses,
		Investments: totals.Investments,
	}
	if a.summaries != nil {
		a.summaries.Set(key, s)
	}
	return s, nil
}

// RecentTotals returns per-type totals for the last days calendar days.
func (a *LedgerAggregator) RecentTotals(ctx context.Context, groupID string, days int, now time.Time) (core.PeriodTotals, error) {
	if days < 1 {
		return core.PeriodTotals{}, fmt.Errorf("%w: day count must be positive", core.ErrInvalidWindow)
	}
	return totalsFor(ctx, a.store, groupID, core.LastNDays(now, days))
}

// Invalidate drops the cached summary of the month containing d.
func (a *LedgerAggregator) Invalidate(groupID string, d core.Date) {
	if a.summaries == nil || d.IsZero() {
		return
	}
	a.summaries.Delete(summaryKey(groupID, core.MonthOf(d.Time)))
}

func summaryKey(groupID string, m core.Month) string {
	return groupID + "|" + m.String()
}

func sumMovements(ctx context.Context, q movementSummer, groupID string, t core.MovementType, w core.Window) (core.Money, error) {
	if err := t.Validate(); err != nil {
		return core.Zero, err
	}
	if err := w.Validate(); err != nil {
		return core.Zero, err
	}
	total, err := q.SumMovements(ctx, groupID, t, w)
	if err != nil {
		return core.Zero, fmt.Errorf("sum %s movements: %w", t, err)
	}
	return total, nil
}

func monthNet(ctx context.Context, q movementSummer, groupID string, m core.Month) (core.Money, error) {
	w := core.MonthWindow(m)
	earnings, err := sumMovements(ctx, q, groupID, core.Earning, w)
	if err != nil {
		return core.Zero, err
	}
	expenses, err := sumMovements(ctx, q, groupID, core.Expense, w)
	if err != nil {
		return core.Zero, err
	}
	return earnings.Sub(expenses), nil
}

func totalsFor(ctx context.Context, q movementSummer, groupID string, w core.Window) (core.PeriodTotals, error) {
	out := core.PeriodTotals{Window: w}
	for _, target := range []struct {
		t   core.MovementType
		dst *core.Money
	}{
		{core.Earning, &out.Earnings},
		{core.Expense, &out.Expenses},
		{core.Investment, &out.Investments},
	} {
		total, err := sumMovements(ctx, q, groupID, target.t, w)
		if err != nil {
			return core.PeriodTotals{}, err
		}
		*target.dst = total
	}
	return out, nil
}
