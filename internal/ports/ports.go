// Package ports declares the outbound interfaces the finance engine
// consumes: ledger and dues storage, plus the external attendance and
// member-directory subsystems.
package ports

import (
	"context"
	"errors"

	"moim/internal/core"
)

var (
	// ErrNotFound reports an unknown record or event id.
	ErrNotFound = errors.New("not found")

	// ErrConflict reports a concurrent duplicate add or double remove,
	// surfaced per record during reconciliation commits.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable reports a transport failure talking to an external
	// subsystem (attendance, directory). Callers may retry; the engine
	// itself never does.
	ErrUnavailable = errors.New("upstream unavailable")
)

type (
	// DateRange bounds a fetch. Zero dates leave the bound open.
	DateRange struct {
		From core.Date
		To   core.Date
	}

	// Attendee is one name from the external scheduling subsystem's
	// check-in list.
	Attendee struct {
		MemberName string
	}

	// Member is a directory entry used as the candidate pool for manual
	// roster additions.
	Member struct {
		Name   string
		Status string
	}

	// RecordSource stores ledger records. The engine only reads
	// snapshots; all mutation ordering is the caller's.
	RecordSource interface {
		Fetch(ctx context.Context, r *DateRange) ([]core.LedgerRecord, error)
		Create(ctx context.Context, rec core.LedgerRecord) (string, error)
		Update(ctx context.Context, rec core.LedgerRecord) error
		Delete(ctx context.Context, id string) error
		CreateBatch(ctx context.Context, recs []core.LedgerRecord) ([]string, error)
	}

	// DuesSource stores dues events and their per-member records.
	DuesSource interface {
		FetchEvents(ctx context.Context) ([]core.DuesEvent, error)
		FetchEvent(ctx context.Context, id string) (core.DuesEvent, error)
		FetchRecords(ctx context.Context, eventID string) ([]core.DuesRecord, error)
		CreateEvent(ctx context.Context, event core.DuesEvent) (string, error)
		UpdateEvent(ctx context.Context, event core.DuesEvent) error
		DeleteEvent(ctx context.Context, id string) error
		CreateRecordsBatch(ctx context.Context, eventID string, recs []core.DuesRecord) ([]string, error)
		UpdateRecord(ctx context.Context, rec core.DuesRecord) error
		DeleteRecord(ctx context.Context, id string) error
		DeleteRecordsBatch(ctx context.Context, ids []string) ([]string, error)
	}

	// AttendeeSource supplies the authoritative member set for roster
	// reconciliation.
	AttendeeSource interface {
		FetchAttendees(ctx context.Context, linkedEventID string, targetDate core.Date) ([]Attendee, error)
	}

	// MemberDirectory searches the organization's member list.
	MemberDirectory interface {
		Search(ctx context.Context, keyword, status string) ([]Member, error)
	}
)
