package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryTotal is an expense total aggregated by category name.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// ExpensesByCategory groups the window's expense records by category and
// sums their amounts, largest first. Ties keep first-seen order so the
// output is deterministic over unordered input.
func ExpensesByCategory(records []LedgerRecord, start, end Date) []CategoryTotal {
	index := make(map[string]int)
	var totals []CategoryTotal
	for _, r := range sortCanonical(records) {
		if r.Type != Expense {
			continue
		}
		if !start.IsEmpty() && r.Date.Before(start) {
			continue
		}
		if !end.IsEmpty() && r.Date.After(end) {
			continue
		}
		i, ok := index[r.Category]
		if !ok {
			i = len(totals)
			index[r.Category] = i
			totals = append(totals, CategoryTotal{Category: r.Category, Amount: decimal.Zero})
		}
		totals[i].Amount = totals[i].Amount.Add(r.Amount)
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Amount.GreaterThan(totals[j].Amount)
	})
	return totals
}
