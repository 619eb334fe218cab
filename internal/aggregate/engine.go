// Package aggregate answers read-only questions about the ledger: filters,
// totals, budget figures and the series behind the dashboard charts.
//
// Nothing here writes. Engine reads a fresh snapshot on every call; the
// package-level functions work on any expense slice a caller hands in.
package aggregate

import (
	"fmt"
	"time"

	"dbudget/internal/cache"
	"dbudget/internal/core"
)

// Source provides the current ledger state. *ledger.Store satisfies it.
type Source interface {
	Snapshot() core.Snapshot
}

type Engine struct {
	src    Source
	now    func() time.Time
	totals *cache.LRUCache[core.Money]
}

type Option func(*Engine)

// WithClock replaces time.Now as the source of "the current month".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:    src,
		now:    time.Now,
		totals: cache.NewLRUCache[core.Money](64),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot exposes the state the engine reads from.
func (e *Engine) Snapshot() core.Snapshot {
	return e.src.Snapshot()
}

// Now returns the engine's clock reading.
func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) ByCalendarDate(date core.Date) []core.Expense {
	return FilterDay(e.src.Snapshot().Expenses, date)
}

func (e *Engine) ByMonth(month, year int) []core.Expense {
	return FilterMonth(e.src.Snapshot().Expenses, month, year)
}

func (e *Engine) TotalByCategory(category core.Category) core.Money {
	var total core.Money
	for _, x := range e.src.Snapshot().Expenses {
		if x.Category == category {
			total = total.Add(x.Amount)
		}
	}
	return total
}

// TotalAll sums every stored expense regardless of month.
func (e *Engine) TotalAll() core.Money {
	return Sum(e.src.Snapshot().Expenses)
}

// MonthlyTotal is memoised per ledger revision.
func (e *Engine) MonthlyTotal(month, year int) core.Money {
	snap := e.src.Snapshot()
	key := fmt.Sprintf("%d:%04d-%02d", snap.Revision, year, month)
	return e.totals.GetOrCompute(key, func() core.Money {
		return Sum(FilterMonth(snap.Expenses, month, year))
	})
}

// RemainingBudget is income minus this month's spending. It is zero when
// there is no active user or no income, and negative when overspent.
func (e *Engine) RemainingBudget() core.Money {
	snap := e.src.Snapshot()
	if snap.User == nil || snap.User.MonthlyIncome.Cents == 0 {
		return core.Money{}
	}
	year, month, _ := e.now().Date()
	return snap.User.MonthlyIncome.Sub(e.MonthlyTotal(int(month), year))
}

// SpentPercentage is this month's spending as a percentage of income.
func (e *Engine) SpentPercentage() float64 {
	snap := e.src.Snapshot()
	if snap.User == nil || snap.User.MonthlyIncome.Cents == 0 {
		return 0
	}
	year, month, _ := e.now().Date()
	spent := e.MonthlyTotal(int(month), year)
	return float64(spent.Cents) * 100 / float64(snap.User.MonthlyIncome.Cents)
}

// CurrentMonth returns this month's expenses.
func (e *Engine) CurrentMonth() []core.Expense {
	year, month, _ := e.now().Date()
	return e.ByMonth(int(month), year)
}

func (e *Engine) Sorted(mode SortMode) []core.Expense {
	return Sorted(e.src.Snapshot().Expenses, mode)
}

func (e *Engine) DailyTotals() []DayTotal {
	return DailyTotals(e.src.Snapshot().Expenses)
}

func (e *Engine) MonthlyTotals() []MonthTotal {
	return MonthlyTotals(e.src.Snapshot().Expenses)
}

func (e *Engine) CategoryBreakdown() []CategoryTotal {
	return CategoryBreakdown(e.src.Snapshot().Expenses)
}

// Summarize describes the given expenses against the active user's income.
// ok is false when there is no active user.
func (e *Engine) Summarize(expenses []core.Expense) (s Summary, ok bool) {
	snap := e.src.Snapshot()
	if snap.User == nil {
		return Summary{}, false
	}
	return Summarize(*snap.User, expenses), true
}
