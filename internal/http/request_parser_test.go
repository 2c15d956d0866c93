package http

import (
	"errors"
	"net/http/httptest"
	"testing"

	"moim/internal/core"
)

func TestParseDay(t *testing.T) {
	d, err := parseDay("2024-03-01")
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	if d.Format(dayLayout) != "2024-03-01" {
		t.Fatalf("got %s", d.Format(dayLayout))
	}

	if _, err := parseDay("01/03/2024"); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
	if _, err := parseDay(""); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected invalid date for empty value, got %v", err)
	}
}

func TestParseOptionalDayEmpty(t *testing.T) {
	d, err := parseOptionalDay("")
	if err != nil {
		t.Fatalf("optional day: %v", err)
	}
	if !d.IsEmpty() {
		t.Fatalf("expected unset date")
	}
}

func TestParseGranularity(t *testing.T) {
	for _, value := range []string{"", "month", "MONTH"} {
		g, err := parseGranularity(value)
		if err != nil || g != core.GranularityMonth {
			t.Fatalf("value %q: got %v, %v", value, g, err)
		}
	}
	if g, err := parseGranularity("day"); err != nil || g != core.GranularityDay {
		t.Fatalf("got %v, %v", g, err)
	}
	if _, err := parseGranularity("week"); !errors.Is(err, core.ErrInvalidGranularity) {
		t.Fatalf("expected invalid granularity, got %v", err)
	}
}

func TestLedgerRecordRequestDateAlias(t *testing.T) {
	req := ledgerRecordRequest{
		OccurredAt: "2024-01-05",
		Type:       "income",
		Category:   "회비",
		Detail:     "1월 회비",
		Amount:     "10000",
	}
	rec, err := req.toCore("rec-1")
	if err != nil {
		t.Fatalf("to core: %v", err)
	}
	if rec.Date.Format(dayLayout) != "2024-01-05" {
		t.Fatalf("alias not normalized: %s", rec.Date.Format(dayLayout))
	}
	if rec.Type != core.Income {
		t.Fatalf("type not normalized: %s", rec.Type)
	}

	// The canonical field wins when both are present.
	req.Date = "2024-02-01"
	rec, err = req.toCore("rec-1")
	if err != nil {
		t.Fatalf("to core: %v", err)
	}
	if rec.Date.Format(dayLayout) != "2024-02-01" {
		t.Fatalf("canonical field must win, got %s", rec.Date.Format(dayLayout))
	}
}

func TestLedgerRecordRequestRejectsSignedAmount(t *testing.T) {
	req := ledgerRecordRequest{
		Date:     "2024-01-05",
		Type:     "EXPENSE",
		Category: "식대",
		Detail:   "저녁",
		Amount:   "-500",
	}
	if _, err := req.toCore(""); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestDuesEventRequestLegacyDateAlias(t *testing.T) {
	req := duesEventRequest{
		Name:         "MT 회비",
		TargetAmount: "30000",
		Date:         "2024-03-01",
		PriceOptions: []priceOptionRequest{{Name: "학생", Amount: "20000"}},
	}
	event, err := req.toCore("")
	if err != nil {
		t.Fatalf("to core: %v", err)
	}
	if event.EventDate.Format(dayLayout) != "2024-03-01" {
		t.Fatalf("legacy date not normalized: %v", event.EventDate)
	}
	if len(event.PriceOptions) != 1 || !event.PriceOptions[0].Amount.Equal(dec("20000")) {
		t.Fatalf("price options not parsed: %+v", event.PriceOptions)
	}
}

func TestDuesRecordRequestOverride(t *testing.T) {
	req := duesRecordRequest{
		EventID:        "evt-1",
		MemberName:     "김철수",
		PaidAmount:     "",
		ExpectedAmount: "20000",
	}
	rec, err := req.toCore("rec-1")
	if err != nil {
		t.Fatalf("to core: %v", err)
	}
	if !rec.PaidAmount.IsZero() {
		t.Fatalf("empty paid amount must default to zero, got %s", rec.PaidAmount)
	}
	if rec.ExpectedOverride == nil || !rec.ExpectedOverride.Equal(dec("20000")) {
		t.Fatalf("override not parsed: %v", rec.ExpectedOverride)
	}
}

func TestStatementFilterFromQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/ledger/statement?from=2024-01-01&to=2024-01-31&type=expense&q=회비&order=desc", nil)
	filter, err := statementFilterFromQuery(r)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if filter.Type != core.Expense || !filter.Newest || filter.Keyword != "회비" {
		t.Fatalf("unexpected filter %+v", filter)
	}

	r = httptest.NewRequest("GET", "/api/ledger/statement?type=transfer", nil)
	if _, err := statementFilterFromQuery(r); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected invalid type, got %v", err)
	}
}
