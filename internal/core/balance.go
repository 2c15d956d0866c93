package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// BalanceEntry is a ledger record annotated with the running balance
// after applying it, under the canonical ordering.
type BalanceEntry struct {
	Record       LedgerRecord
	BalanceAfter decimal.Decimal
}

// signedAmount maps a record's magnitude to its effect on the balance.
func signedAmount(r LedgerRecord) decimal.Decimal {
	if r.Type == Expense {
		return r.Amount.Neg()
	}
	return r.Amount
}

// sortCanonical orders records ascending by (date, id). The id tie-break
// makes the balance sequence identical regardless of retrieval order.
func sortCanonical(records []LedgerRecord) []LedgerRecord {
	sorted := append([]LedgerRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// ComputeRunningBalances sorts records into the canonical order and tags
// each with the cumulative signed sum up to and including it.
//
// Any view derived from the result (date filter, type filter, keyword
// search, reverse-chronological display) must reuse these balance values;
// recomputing over a filtered subset yields wrong balances.
func ComputeRunningBalances(records []LedgerRecord) []BalanceEntry {
	sorted := sortCanonical(records)
	entries := make([]BalanceEntry, len(sorted))
	balance := decimal.Zero
	for i, r := range sorted {
		balance = balance.Add(signedAmount(r))
		entries[i] = BalanceEntry{Record: r, BalanceAfter: balance}
	}
	return entries
}

// StatementFilter narrows a balance-annotated statement for display.
// Zero values leave the corresponding dimension unfiltered.
type StatementFilter struct {
	From    Date
	To      Date
	Type    EntryType
	Keyword string
	Newest  bool // newest-first display order
}

// FilterStatement applies a view filter to an annotated statement. The
// BalanceAfter values carried by the entries are preserved untouched:
// they were computed over the full record set and stay correct in any
// sub-view.
func FilterStatement(entries []BalanceEntry, f StatementFilter) []BalanceEntry {
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))
	out := make([]BalanceEntry, 0, len(entries))
	for _, e := range entries {
		r := e.Record
		if !f.From.IsEmpty() && r.Date.Before(f.From) {
			continue
		}
		if !f.To.IsEmpty() && r.Date.After(f.To) {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(r.Detail), keyword) &&
			!strings.Contains(strings.ToLower(r.Category), keyword) {
			continue
		}
		out = append(out, e)
	}
	if f.Newest {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
