package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func record(id string, date Date, typ EntryType, category, detail, amount string) LedgerRecord {
	return LedgerRecord{
		ID:       id,
		Date:     date,
		Type:     typ,
		Category: category,
		Detail:   detail,
		Amount:   dec(amount),
	}
}

func sampleRecords() []LedgerRecord {
	return []LedgerRecord{
		record("a", NewDate(2024, 1, 1), Income, "회비", "monthly dues", "1000"),
		record("b", NewDate(2024, 1, 1), Expense, "식대", "dinner", "300"),
		record("c", NewDate(2024, 1, 2), Income, "회비", "monthly dues", "500"),
	}
}

func TestComputeRunningBalances(t *testing.T) {
	entries := ComputeRunningBalances(sampleRecords())
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"1000", "700", "1200"}
	for i, w := range want {
		if !entries[i].BalanceAfter.Equal(dec(w)) {
			t.Fatalf("entry %d: balance %s, want %s", i, entries[i].BalanceAfter, w)
		}
	}
}

func TestComputeRunningBalancesOrderIndependent(t *testing.T) {
	records := sampleRecords()
	shuffled := []LedgerRecord{records[2], records[0], records[1]}

	a := ComputeRunningBalances(records)
	b := ComputeRunningBalances(shuffled)
	for i := range a {
		if a[i].Record.ID != b[i].Record.ID {
			t.Fatalf("entry %d: id %s vs %s", i, a[i].Record.ID, b[i].Record.ID)
		}
		if !a[i].BalanceAfter.Equal(b[i].BalanceAfter) {
			t.Fatalf("entry %d: balance %s vs %s", i, a[i].BalanceAfter, b[i].BalanceAfter)
		}
	}
}

func TestComputeRunningBalancesTieBreakByID(t *testing.T) {
	// Same-day records order by id regardless of input order.
	records := []LedgerRecord{
		record("b", NewDate(2024, 3, 1), Expense, "식대", "lunch", "200"),
		record("a", NewDate(2024, 3, 1), Income, "회비", "dues", "500"),
	}
	entries := ComputeRunningBalances(records)
	if entries[0].Record.ID != "a" || entries[1].Record.ID != "b" {
		t.Fatalf("unexpected order: %s, %s", entries[0].Record.ID, entries[1].Record.ID)
	}
	if !entries[1].BalanceAfter.Equal(dec("300")) {
		t.Fatalf("final balance %s, want 300", entries[1].BalanceAfter)
	}
}

// Conservation: the last entry's balance equals the signed sum of all
// records, regardless of how many records share a date.
func TestComputeRunningBalancesConservation(t *testing.T) {
	records := []LedgerRecord{
		record("r1", NewDate(2024, 1, 5), Income, "회비", "dues", "12000"),
		record("r2", NewDate(2024, 1, 5), Expense, "대관료", "venue", "4500"),
		record("r3", NewDate(2024, 2, 10), Expense, "식대", "snacks", "1500.50"),
		record("r4", NewDate(2024, 2, 11), Income, "후원", "sponsor", "3000"),
	}
	entries := ComputeRunningBalances(records)

	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(signedAmount(r))
	}
	last := entries[len(entries)-1].BalanceAfter
	if !last.Equal(sum) {
		t.Fatalf("final balance %s, want %s", last, sum)
	}
}

func TestComputeRunningBalancesEmpty(t *testing.T) {
	if got := ComputeRunningBalances(nil); len(got) != 0 {
		t.Fatalf("expected empty output, got %d entries", len(got))
	}
}

// Filtering a statement never changes any entry's BalanceAfter.
func TestFilterStatementPreservesBalances(t *testing.T) {
	entries := ComputeRunningBalances(sampleRecords())
	byID := make(map[string]decimal.Decimal)
	for _, e := range entries {
		byID[e.Record.ID] = e.BalanceAfter
	}

	filters := []StatementFilter{
		{},
		{Type: Expense},
		{Type: Income},
		{From: NewDate(2024, 1, 2)},
		{To: NewDate(2024, 1, 1)},
		{Keyword: "dinner"},
		{Newest: true},
		{Type: Income, Newest: true},
	}
	for i, f := range filters {
		for _, e := range FilterStatement(entries, f) {
			if !e.BalanceAfter.Equal(byID[e.Record.ID]) {
				t.Fatalf("filter %d: record %s balance changed to %s", i, e.Record.ID, e.BalanceAfter)
			}
		}
	}
}

func TestFilterStatementSelection(t *testing.T) {
	entries := ComputeRunningBalances(sampleRecords())

	got := FilterStatement(entries, StatementFilter{Type: Expense})
	if len(got) != 1 || got[0].Record.ID != "b" {
		t.Fatalf("expense filter: got %d entries", len(got))
	}
	if !got[0].BalanceAfter.Equal(dec("700")) {
		t.Fatalf("expense entry balance %s, want 700", got[0].BalanceAfter)
	}

	got = FilterStatement(entries, StatementFilter{Keyword: "MONTHLY"})
	if len(got) != 2 {
		t.Fatalf("keyword filter: got %d entries, want 2", len(got))
	}

	got = FilterStatement(entries, StatementFilter{Newest: true})
	if got[0].Record.ID != "c" || got[2].Record.ID != "a" {
		t.Fatalf("newest-first order wrong: %s..%s", got[0].Record.ID, got[2].Record.ID)
	}
}
