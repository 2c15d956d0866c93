// Package memory implements the storage ports in process memory. It is
// the development backend and the substrate for service tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"moim/internal/core"
	"moim/internal/ports"
)

type Store struct {
	mu      sync.Mutex
	records map[string]core.LedgerRecord
	events  map[string]core.DuesEvent
	dues    map[string]core.DuesRecord
}

func New() *Store {
	return &Store{
		records: make(map[string]core.LedgerRecord),
		events:  make(map[string]core.DuesEvent),
		dues:    make(map[string]core.DuesRecord),
	}
}

// Fetch implements ports.RecordSource. Results come back in canonical
// (date, id) order, matching the SQLite backend.
func (s *Store) Fetch(_ context.Context, dr *ports.DateRange) ([]core.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.LedgerRecord
	for _, rec := range s.records {
		if dr != nil {
			if !dr.From.IsEmpty() && rec.Date.Before(dr.From) {
				continue
			}
			if !dr.To.IsEmpty() && rec.Date.After(dr.To) {
				continue
			}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) Create(_ context.Context, rec core.LedgerRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return "", fmt.Errorf("ledger record %s: %w", rec.ID, ports.ErrConflict)
	}
	s.records[rec.ID] = rec
	return rec.ID, nil
}

func (s *Store) Update(_ context.Context, rec core.LedgerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return fmt.Errorf("ledger record %s: %w", rec.ID, ports.ErrNotFound)
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("ledger record %s: %w", id, ports.ErrNotFound)
	}
	delete(s.records, id)
	return nil
}

func (s *Store) CreateBatch(ctx context.Context, recs []core.LedgerRecord) ([]string, error) {
	var ids []string
	var errs []error
	for _, rec := range recs {
		id, err := s.Create(ctx, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// FetchEvents implements ports.DuesSource.
func (s *Store) FetchEvents(_ context.Context) ([]core.DuesEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.DuesEvent
	for _, e := range s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FetchEvent(_ context.Context, id string) (core.DuesEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return core.DuesEvent{}, fmt.Errorf("dues event %s: %w", id, ports.ErrNotFound)
	}
	return event, nil
}

func (s *Store) FetchRecords(_ context.Context, eventID string) ([]core.DuesRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.DuesRecord
	for _, rec := range s.dues {
		if rec.EventID == eventID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MemberName != out[j].MemberName {
			return out[i].MemberName < out[j].MemberName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateEvent(_ context.Context, event core.DuesEvent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok {
		return "", fmt.Errorf("dues event %s: %w", event.ID, ports.ErrConflict)
	}
	s.events[event.ID] = event
	return event.ID, nil
}

func (s *Store) UpdateEvent(_ context.Context, event core.DuesEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; !ok {
		return fmt.Errorf("dues event %s: %w", event.ID, ports.ErrNotFound)
	}
	s.events[event.ID] = event
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("dues event %s: %w", id, ports.ErrNotFound)
	}
	delete(s.events, id)
	for recID, rec := range s.dues {
		if rec.EventID == id {
			delete(s.dues, recID)
		}
	}
	return nil
}

func (s *Store) CreateRecordsBatch(_ context.Context, eventID string, recs []core.DuesRecord) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	var errs []error
	for _, rec := range recs {
		rec.EventID = eventID
		if s.memberExists(eventID, rec.MemberName) {
			errs = append(errs, fmt.Errorf("member %s: %w", rec.MemberName, ports.ErrConflict))
			continue
		}
		s.dues[rec.ID] = rec
		ids = append(ids, rec.ID)
	}
	return ids, errors.Join(errs...)
}

func (s *Store) UpdateRecord(_ context.Context, rec core.DuesRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.dues[rec.ID]
	if !ok {
		return fmt.Errorf("dues record %s: %w", rec.ID, ports.ErrNotFound)
	}
	if rec.MemberName != existing.MemberName && s.memberExists(existing.EventID, rec.MemberName) {
		return fmt.Errorf("member %s: %w", rec.MemberName, ports.ErrConflict)
	}
	rec.EventID = existing.EventID
	s.dues[rec.ID] = rec
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dues[id]; !ok {
		return fmt.Errorf("dues record %s: %w", id, ports.ErrNotFound)
	}
	delete(s.dues, id)
	return nil
}

func (s *Store) DeleteRecordsBatch(ctx context.Context, ids []string) ([]string, error) {
	var deleted []string
	var errs []error
	for _, id := range ids {
		err := s.DeleteRecord(ctx, id)
		switch {
		case errors.Is(err, ports.ErrNotFound):
			errs = append(errs, fmt.Errorf("dues record %s already removed: %w", id, ports.ErrConflict))
		case err != nil:
			errs = append(errs, err)
		default:
			deleted = append(deleted, id)
		}
	}
	return deleted, errors.Join(errs...)
}

// memberExists must be called with the lock held.
func (s *Store) memberExists(eventID, memberName string) bool {
	for _, rec := range s.dues {
		if rec.EventID == eventID && rec.MemberName == memberName {
			return true
		}
	}
	return false
}

// Directory is an in-memory ports.MemberDirectory.
type Directory struct {
	mu      sync.Mutex
	members []ports.Member
}

func NewDirectory(members ...ports.Member) *Directory {
	return &Directory{members: members}
}

func (d *Directory) Search(_ context.Context, keyword, status string) ([]ports.Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	var out []ports.Member
	for _, m := range d.members {
		if keyword != "" && !strings.Contains(strings.ToLower(m.Name), keyword) {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// AttendanceBook is an in-memory ports.AttendeeSource keyed by linked
// event id and target date.
type AttendanceBook struct {
	mu      sync.Mutex
	entries map[string][]ports.Attendee
}

func NewAttendanceBook() *AttendanceBook {
	return &AttendanceBook{entries: make(map[string][]ports.Attendee)}
}

// Record sets the attendee list for an event on a given date.
func (b *AttendanceBook) Record(linkedEventID string, targetDate core.Date, names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	attendees := make([]ports.Attendee, 0, len(names))
	for _, n := range names {
		attendees = append(attendees, ports.Attendee{MemberName: n})
	}
	b.entries[attendanceKey(linkedEventID, targetDate)] = attendees
}

func (b *AttendanceBook) FetchAttendees(_ context.Context, linkedEventID string, targetDate core.Date) ([]ports.Attendee, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	attendees, ok := b.entries[attendanceKey(linkedEventID, targetDate)]
	if !ok {
		return nil, fmt.Errorf("attendance for event %s: %w", linkedEventID, ports.ErrNotFound)
	}
	return append([]ports.Attendee(nil), attendees...), nil
}

func attendanceKey(linkedEventID string, targetDate core.Date) string {
	if targetDate.IsEmpty() {
		return linkedEventID
	}
	return linkedEventID + "@" + targetDate.Format("2006-01-02")
}
