package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moim/internal/core"
	"moim/internal/log"
	"moim/internal/ports"
	"moim/internal/services"
	"moim/internal/storage/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestServer(t *testing.T) (*Server, *memory.AttendanceBook) {
	t.Helper()
	store := memory.New()
	book := memory.NewAttendanceBook()
	directory := memory.NewDirectory(
		ports.Member{Name: "김철수", Status: "ACTIVE"},
		ports.Member{Name: "이영희", Status: "ACTIVE"},
	)
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})

	ledger := services.NewLedgerService(store, nil, logger, 16, time.Minute)
	dues := services.NewDuesService(store, directory, nil, logger)
	reconcile := services.NewReconcileService(store, book, nil, logger)

	return NewServer(":0", ledger, dues, reconcile, logger), book
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCreateRecordAndStatement(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/ledger/records", map[string]any{
		"date":     "2024-01-05",
		"type":     "INCOME",
		"category": "회비",
		"detail":   "1월 회비",
		"amount":   "10000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[idResponse](t, rec)
	if created.ID == "" {
		t.Fatalf("missing id in %s", rec.Body.String())
	}

	rec = doJSON(t, s, "POST", "/api/ledger/records", map[string]any{
		"date":     "2024-01-10",
		"type":     "EXPENSE",
		"category": "식대",
		"detail":   "회식",
		"amount":   "4000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, "GET", "/api/ledger/statement", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("statement status %d: %s", rec.Code, rec.Body.String())
	}
	statement := decode[struct {
		Entries []statementEntryResponse `json:"entries"`
	}](t, rec)
	if len(statement.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(statement.Entries))
	}
	if !statement.Entries[1].Balance.Equal(dec("6000")) {
		t.Fatalf("terminal balance %s", statement.Entries[1].Balance)
	}

	// Filtering to expenses keeps the annotated balance from the full
	// history instead of recomputing over the subset.
	rec = doJSON(t, s, "GET", "/api/ledger/statement?type=expense", nil)
	filtered := decode[struct {
		Entries []statementEntryResponse `json:"entries"`
	}](t, rec)
	if len(filtered.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(filtered.Entries))
	}
	if !filtered.Entries[0].Balance.Equal(dec("6000")) {
		t.Fatalf("filtered balance %s", filtered.Entries[0].Balance)
	}
}

func TestCreateRecordValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/ledger/records", map[string]any{
		"date":     "2024-01-05",
		"type":     "TRANSFER",
		"category": "회비",
		"detail":   "x",
		"amount":   "100",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteUnknownRecord(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "DELETE", "/api/ledger/records/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPeriodReport(t *testing.T) {
	s, _ := newTestServer(t)

	for _, body := range []map[string]any{
		{"date": "2024-01-05", "type": "INCOME", "category": "회비", "detail": "a", "amount": "3000"},
		{"date": "2024-02-10", "type": "EXPENSE", "category": "식대", "detail": "b", "amount": "1000"},
	} {
		if rec := doJSON(t, s, "POST", "/api/ledger/records", body); rec.Code != http.StatusCreated {
			t.Fatalf("create status %d", rec.Code)
		}
	}

	rec := doJSON(t, s, "GET", "/api/ledger/reports/period?from=2024-01-01&to=2024-03-31&granularity=month", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status %d: %s", rec.Code, rec.Body.String())
	}
	report := decode[struct {
		Buckets []periodBucketResponse `json:"buckets"`
	}](t, rec)
	if len(report.Buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(report.Buckets))
	}
	if !report.Buckets[2].Balance.Equal(dec("2000")) {
		t.Fatalf("terminal balance %s", report.Buckets[2].Balance)
	}

	rec = doJSON(t, s, "GET", "/api/ledger/reports/period?from=2024-01-01&to=2024-03-31&granularity=week", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad granularity, got %d", rec.Code)
	}
}

func TestDuesLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/dues/events", map[string]any{
		"name":         "3월 정기모임",
		"targetAmount": "15000",
		"date":         "2024-03-01", // legacy alias for eventDate
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event status %d: %s", rec.Code, rec.Body.String())
	}
	eventID := decode[idResponse](t, rec).ID

	rec = doJSON(t, s, "GET", "/api/dues/events/"+eventID, nil)
	event := decode[duesEventResponse](t, rec)
	if event.EventDate != "2024-03-01" {
		t.Fatalf("legacy date alias not normalized: %q", event.EventDate)
	}

	rec = doJSON(t, s, "POST", "/api/dues/events/"+eventID+"/roster", map[string]any{
		"memberNames": []string{"김철수", "이영희"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed status %d: %s", rec.Code, rec.Body.String())
	}
	seeded := decode[batchCreateResponse](t, rec)
	if len(seeded.IDs) != 2 {
		t.Fatalf("expected 2 ids, got %v", seeded.IDs)
	}

	// Re-seeding a member conflicts per record; the response still says so.
	rec = doJSON(t, s, "POST", "/api/dues/events/"+eventID+"/roster", map[string]any{
		"memberNames": []string{"김철수"},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, "PUT", "/api/dues/records/"+seeded.IDs[0], map[string]any{
		"eventId":    eventID,
		"memberName": "김철수",
		"paidAmount": "15000",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update status %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, "GET", "/api/dues/events/"+eventID+"/stats", nil)
	stats := decode[duesStatsResponse](t, rec)
	if stats.TotalCount != 2 || stats.PaidCount != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !stats.Collected.Equal(dec("15000")) || !stats.Outstanding.Equal(dec("15000")) {
		t.Fatalf("unexpected amounts %+v", stats)
	}

	rec = doJSON(t, s, "GET", "/api/dues/events/"+eventID+"/roster", nil)
	roster := decode[struct {
		Roster []memberDueResponse `json:"roster"`
	}](t, rec)
	byName := map[string]core.PaymentStatus{}
	for _, due := range roster.Roster {
		byName[due.MemberName] = due.Status
	}
	if byName["김철수"] != core.Paid || byName["이영희"] != core.Unpaid {
		t.Fatalf("unexpected statuses %v", byName)
	}
}

func TestReconcileEndpoints(t *testing.T) {
	s, book := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/dues/events", map[string]any{
		"name":          "MT 회비",
		"targetAmount":  "30000",
		"targetDate":    "2024-03-01",
		"linkedEventId": "sched-77",
	})
	eventID := decode[idResponse](t, rec).ID

	rec = doJSON(t, s, "POST", "/api/dues/events/"+eventID+"/roster", map[string]any{
		"memberNames": []string{"A", "B"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed status %d", rec.Code)
	}
	book.Record("sched-77", core.NewDate(2024, 3, 1), "B", "C")

	rec = doJSON(t, s, "GET", "/api/dues/events/"+eventID+"/reconcile", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status %d: %s", rec.Code, rec.Body.String())
	}
	preview := decode[reconcilePreviewResponse](t, rec)
	if len(preview.ToAdd) != 1 || preview.ToAdd[0] != "C" {
		t.Fatalf("unexpected toAdd %v", preview.ToAdd)
	}
	if len(preview.ToRemove) != 1 || preview.ToRemove[0] != "A" {
		t.Fatalf("unexpected toRemove %v", preview.ToRemove)
	}

	rec = doJSON(t, s, "POST", "/api/dues/events/"+eventID+"/reconcile", map[string]any{
		"add":    []string{"C"},
		"remove": []string{"A"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("commit status %d: %s", rec.Code, rec.Body.String())
	}
	result := decode[reconcileCommitResponse](t, rec)
	if result.Failed || len(result.AddedIDs) != 1 || result.Removed != 1 {
		t.Fatalf("unexpected commit result %+v", result)
	}

	// The roster now matches the attendee list; a second preview is empty.
	rec = doJSON(t, s, "GET", "/api/dues/events/"+eventID+"/reconcile", nil)
	preview = decode[reconcilePreviewResponse](t, rec)
	if len(preview.ToAdd) != 0 || len(preview.ToRemove) != 0 {
		t.Fatalf("expected empty diff, got %+v", preview)
	}
}

func TestReconcilePreviewWithoutLink(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/dues/events", map[string]any{
		"name":         "unlinked",
		"targetAmount": "1000",
	})
	eventID := decode[idResponse](t, rec).ID

	rec = doJSON(t, s, "GET", "/api/dues/events/"+eventID+"/reconcile", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSearchMembers(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/members?q=김", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status %d", rec.Code)
	}
	result := decode[struct {
		Members []struct {
			Name string `json:"name"`
		} `json:"members"`
	}](t, rec)
	if len(result.Members) != 1 || result.Members[0].Name != "김철수" {
		t.Fatalf("unexpected members %+v", result.Members)
	}
}
