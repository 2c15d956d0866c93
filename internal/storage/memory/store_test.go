package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"moim/internal/core"
	"moim/internal/ports"
)

func ledgerRecord(id string, date core.Date, typ core.EntryType, amount int64) core.LedgerRecord {
	return core.LedgerRecord{
		ID:       id,
		Date:     date,
		Type:     typ,
		Category: "회비",
		Detail:   "entry " + id,
		Amount:   decimal.NewFromInt(amount),
	}
}

func TestFetchOrdersCanonically(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, rec := range []core.LedgerRecord{
		ledgerRecord("c", core.NewDate(2024, 1, 2), core.Income, 500),
		ledgerRecord("b", core.NewDate(2024, 1, 1), core.Expense, 300),
		ledgerRecord("a", core.NewDate(2024, 1, 1), core.Income, 1000),
	} {
		if _, err := s.Create(ctx, rec); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := s.Fetch(ctx, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("order %v, want [a b c]", ids)
	}
}

func TestFetchDateRange(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Create(ctx, ledgerRecord("a", core.NewDate(2024, 1, 1), core.Income, 1))
	s.Create(ctx, ledgerRecord("b", core.NewDate(2024, 2, 1), core.Income, 1))
	s.Create(ctx, ledgerRecord("c", core.NewDate(2024, 3, 1), core.Income, 1))

	got, err := s.Fetch(ctx, &ports.DateRange{
		From: core.NewDate(2024, 1, 15),
		To:   core.NewDate(2024, 2, 15),
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("got %d records", len(got))
	}
}

func TestLedgerNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Delete(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Update(ctx, ledgerRecord("missing", core.NewDate(2024, 1, 1), core.Income, 1)); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("update: %v", err)
	}
}

func TestCreateRecordsBatchConflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateEvent(ctx, core.DuesEvent{ID: "evt", Name: "MT", TargetAmount: decimal.NewFromInt(10000)})

	ids, err := s.CreateRecordsBatch(ctx, "evt", []core.DuesRecord{
		{ID: "r1", MemberName: "김철수"},
		{ID: "r2", MemberName: "이영희"},
	})
	if err != nil || len(ids) != 2 {
		t.Fatalf("seed batch: %v, %d ids", err, len(ids))
	}

	// Re-adding an existing member conflicts; the fresh member still lands.
	ids, err = s.CreateRecordsBatch(ctx, "evt", []core.DuesRecord{
		{ID: "r3", MemberName: "김철수"},
		{ID: "r4", MemberName: "박민수"},
	})
	if !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(ids) != 1 || ids[0] != "r4" {
		t.Fatalf("partial batch ids %v", ids)
	}

	records, _ := s.FetchRecords(ctx, "evt")
	if len(records) != 3 {
		t.Fatalf("roster size %d, want 3", len(records))
	}
}

func TestDeleteRecordsBatchMissingIsConflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateEvent(ctx, core.DuesEvent{ID: "evt", Name: "MT", TargetAmount: decimal.NewFromInt(10000)})
	s.CreateRecordsBatch(ctx, "evt", []core.DuesRecord{{ID: "r1", MemberName: "김철수"}})

	deleted, err := s.DeleteRecordsBatch(ctx, []string{"r1", "r1"})
	if !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected conflict for double remove, got %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "r1" {
		t.Fatalf("deleted %v, want [r1]", deleted)
	}
	records, _ := s.FetchRecords(ctx, "evt")
	if len(records) != 0 {
		t.Fatalf("roster size %d, want 0", len(records))
	}
}

func TestDeleteEventCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateEvent(ctx, core.DuesEvent{ID: "evt", Name: "MT", TargetAmount: decimal.NewFromInt(10000)})
	s.CreateRecordsBatch(ctx, "evt", []core.DuesRecord{{ID: "r1", MemberName: "김철수"}})

	if err := s.DeleteEvent(ctx, "evt"); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	records, _ := s.FetchRecords(ctx, "evt")
	if len(records) != 0 {
		t.Fatalf("records not cascaded: %d left", len(records))
	}
}

func TestDirectorySearch(t *testing.T) {
	d := NewDirectory(
		ports.Member{Name: "김철수", Status: "active"},
		ports.Member{Name: "이영희", Status: "inactive"},
		ports.Member{Name: "김영수", Status: "active"},
	)

	got, err := d.Search(context.Background(), "김", "active")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d members, want 2", len(got))
	}
}

func TestAttendanceBook(t *testing.T) {
	ctx := context.Background()
	b := NewAttendanceBook()
	day := core.NewDate(2024, 3, 1)
	b.Record("sched-1", day, "김철수", "이영희")

	got, err := b.FetchAttendees(ctx, "sched-1", day)
	if err != nil || len(got) != 2 {
		t.Fatalf("fetch attendees: %v, %d", err, len(got))
	}

	if _, err := b.FetchAttendees(ctx, "sched-1", core.NewDate(2024, 3, 2)); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
