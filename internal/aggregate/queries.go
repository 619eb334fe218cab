package aggregate

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"dbudget/internal/core"
)

type SortMode int

const (
	ByDateDesc SortMode = iota
	ByAmountDesc
)

func (m SortMode) String() string {
	if m == ByAmountDesc {
		return "amount"
	}
	return "date"
}

// ParseSortMode accepts "date" (the default for "") and "amount".
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date":
		return ByDateDesc, nil
	case "amount":
		return ByAmountDesc, nil
	default:
		return ByDateDesc, fmt.Errorf("unknown sort mode %q", s)
	}
}

type (
	DayTotal struct {
		Date     core.Date
		Total    core.Money
		Expenses []core.Expense
	}

	MonthTotal struct {
		Year  int
		Month int // 1-12
		Total core.Money
	}

	CategoryTotal struct {
		Category core.Category
		Total    core.Money
		Percent  float64 // share of the overall total
	}

	Summary struct {
		Income         core.Money
		Total          core.Money
		Balance        core.Money
		Count          int
		AverageDaily   core.Money // per distinct day with spending
		AverageMonthly core.Money // per distinct month with spending
	}
)

func FilterDay(expenses []core.Expense, date core.Date) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if e.Date.SameDay(date) {
			out = append(out, e)
		}
	}
	return out
}

func FilterMonth(expenses []core.Expense, month, year int) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if e.Date.Month() == month && e.Date.Year() == year {
			out = append(out, e)
		}
	}
	return out
}

func Sum(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Sorted returns a sorted copy. Ties keep insertion order.
func Sorted(expenses []core.Expense, mode SortMode) []core.Expense {
	out := slices.Clone(expenses)
	switch mode {
	case ByAmountDesc:
		slices.SortStableFunc(out, func(a, b core.Expense) int {
			return cmp.Compare(b.Amount.Cents, a.Amount.Cents)
		})
	default:
		slices.SortStableFunc(out, func(a, b core.Expense) int {
			return b.Date.Compare(a.Date.Time)
		})
	}
	return out
}

// DailyTotals groups by calendar day, oldest first.
func DailyTotals(expenses []core.Expense) []DayTotal {
	index := map[core.Date]int{}
	var out []DayTotal
	for _, e := range expenses {
		day := core.DateOf(e.Date.Time)
		i, ok := index[day]
		if !ok {
			i = len(out)
			index[day] = i
			out = append(out, DayTotal{Date: day})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Expenses = append(out[i].Expenses, e)
	}
	slices.SortStableFunc(out, func(a, b DayTotal) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out
}

// MonthlyTotals groups by calendar month, oldest first.
func MonthlyTotals(expenses []core.Expense) []MonthTotal {
	index := map[[2]int]int{}
	var out []MonthTotal
	for _, e := range expenses {
		k := [2]int{e.Date.Year(), e.Date.Month()}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, MonthTotal{Year: k[0], Month: k[1]})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	slices.SortFunc(out, func(a, b MonthTotal) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	return out
}

// CategoryBreakdown lists categories with spending, in category order.
func CategoryBreakdown(expenses []core.Expense) []CategoryTotal {
	sums := map[core.Category]core.Money{}
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}
	total := Sum(expenses)
	var out []CategoryTotal
	for _, c := range core.Categories() {
		m, ok := sums[c]
		if !ok {
			continue
		}
		ct := CategoryTotal{Category: c, Total: m}
		if total.Cents > 0 {
			ct.Percent = float64(m.Cents) * 100 / float64(total.Cents)
		}
		out = append(out, ct)
	}
	return out
}

// Summarize totals expenses against user's income.
func Summarize(user core.User, expenses []core.Expense) Summary {
	total := Sum(expenses)
	return Summary{
		Income:         user.MonthlyIncome,
		Total:          total,
		Balance:        user.MonthlyIncome.Sub(total),
		Count:          len(expenses),
		AverageDaily:   divide(total, len(DailyTotals(expenses))),
		AverageMonthly: divide(total, len(MonthlyTotals(expenses))),
	}
}

// divide splits a non-negative m into n parts, rounding half up.
func divide(m core.Money, n int) core.Money {
	if n == 0 {
		return core.Money{}
	}
	d := int64(n)
	q, r := m.Cents/d, m.Cents%d
	if r*2 >= d {
		q++
	}
	return core.Money{Cents: q}
}
