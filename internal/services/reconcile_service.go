package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"moim/internal/amqp"
	"moim/internal/core"
	"moim/internal/log"
	"moim/internal/ports"
)

// ErrNoLinkedEvent means the dues event has no external attendee source
// to reconcile against.
var ErrNoLinkedEvent = errors.New("dues event has no linked attendee source")

type (
	// RosterPreview is an advisory diff between the event's current
	// roster and the attendee list. It carries no lock or version: the
	// world may change before commit, so the caller re-diffs afterwards.
	RosterPreview struct {
		EventID string
		Diff    core.RosterDiff
	}

	// CommitSelection names the subset of a preview the operator chose
	// to apply. Either side may be empty.
	CommitSelection struct {
		Add    []string
		Remove []string
	}

	// CommitResult reports the outcome of the two independent batches.
	// AddErr and RemoveErr carry per-record failures (joined); one batch
	// failing never rolls the other back.
	CommitResult struct {
		AddedIDs  []string
		Removed   int
		AddErr    error
		RemoveErr error
	}
)

// Failed reports whether any part of the commit went wrong.
func (r CommitResult) Failed() bool {
	return r.AddErr != nil || r.RemoveErr != nil
}

// ReconcileService diffs a dues event's roster against the external
// attendee list and applies operator-selected changes.
type ReconcileService struct {
	dues      ports.DuesSource
	attendees ports.AttendeeSource
	publisher ChangePublisher
	logger    *log.Logger
}

func NewReconcileService(dues ports.DuesSource, attendees ports.AttendeeSource, publisher ChangePublisher, logger *log.Logger) *ReconcileService {
	return &ReconcileService{
		dues:      dues,
		attendees: attendees,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentReconcile),
	}
}

// Preview computes the add/remove diff for the event. Calling it again
// without intervening mutation returns an identical result.
func (s *ReconcileService) Preview(ctx context.Context, eventID string) (RosterPreview, error) {
	event, err := s.dues.FetchEvent(ctx, eventID)
	if err != nil {
		return RosterPreview{}, err
	}
	if event.LinkedEventID == "" {
		return RosterPreview{}, fmt.Errorf("dues event %s: %w", eventID, ErrNoLinkedEvent)
	}

	records, err := s.dues.FetchRecords(ctx, eventID)
	if err != nil {
		return RosterPreview{}, fmt.Errorf("fetch dues records: %w", err)
	}
	attendees, err := s.attendees.FetchAttendees(ctx, event.LinkedEventID, event.TargetDate)
	if err != nil {
		return RosterPreview{}, fmt.Errorf("fetch attendees: %w", err)
	}

	current := make([]string, 0, len(records))
	for _, rec := range records {
		current = append(current, rec.MemberName)
	}
	authoritative := make([]string, 0, len(attendees))
	for _, a := range attendees {
		authoritative = append(authoritative, a.MemberName)
	}

	diff := core.DiffRoster(current, authoritative)
	s.logger.InfoContext(ctx, "Roster diff computed",
		log.FieldEventID, eventID,
		"to_add", len(diff.ToAdd),
		"to_remove", len(diff.ToRemove))
	return RosterPreview{EventID: eventID, Diff: diff}, nil
}

// Commit applies the selected subset of a previously previewed diff as
// two independent batches: first the adds, then the removes. Each batch
// can fail alone and there is no cross-batch rollback, so the result
// may describe a partially applied reconciliation. Concurrent commits
// show up as per-record conflicts inside the batch errors, not as a
// systemic fault.
func (s *ReconcileService) Commit(ctx context.Context, eventID string, sel CommitSelection) (CommitResult, error) {
	if _, err := s.dues.FetchEvent(ctx, eventID); err != nil {
		return CommitResult{}, err
	}

	var result CommitResult

	if len(sel.Add) > 0 {
		adds := make([]core.DuesRecord, 0, len(sel.Add))
		for _, name := range sel.Add {
			adds = append(adds, core.DuesRecord{
				ID:         uuid.NewString(),
				EventID:    eventID,
				MemberName: name,
				PaidAmount: decimal.Zero,
			})
		}
		result.AddedIDs, result.AddErr = s.dues.CreateRecordsBatch(ctx, eventID, adds)
		for _, id := range result.AddedIDs {
			s.publish(ctx, eventID, id, log.OpCreate)
		}
	}

	if len(sel.Remove) > 0 {
		ids, staleErr := s.resolveRemoveIDs(ctx, eventID, sel.Remove)
		var deleted []string
		var err error
		if len(ids) > 0 {
			deleted, err = s.dues.DeleteRecordsBatch(ctx, ids)
			for _, id := range deleted {
				s.publish(ctx, eventID, id, log.OpDelete)
			}
		}
		result.Removed = len(deleted)
		result.RemoveErr = errors.Join(staleErr, err)
	}

	if result.Failed() {
		s.logger.WarnContext(ctx, "Reconciliation commit partially failed",
			log.FieldEventID, eventID,
			"added", len(result.AddedIDs),
			"removed", result.Removed,
			"add_error", errString(result.AddErr),
			"remove_error", errString(result.RemoveErr))
	} else {
		s.logger.InfoContext(ctx, "Reconciliation committed",
			log.FieldEventID, eventID,
			"added", len(result.AddedIDs),
			"removed", result.Removed)
	}
	return result, nil
}

// resolveRemoveIDs maps selected member names to their record ids. A
// name no longer on the roster means the diff went stale; that member
// surfaces as a per-record conflict.
func (s *ReconcileService) resolveRemoveIDs(ctx context.Context, eventID string, names []string) ([]string, error) {
	records, err := s.dues.FetchRecords(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("fetch dues records: %w", err)
	}
	byName := make(map[string]string, len(records))
	for _, rec := range records {
		byName[rec.MemberName] = rec.ID
	}

	var ids []string
	var errs []error
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			errs = append(errs, fmt.Errorf("member %s no longer on roster: %w", name, ports.ErrConflict))
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

func (s *ReconcileService) publish(ctx context.Context, eventID, recordID, op string) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewChangeMessage(amqp.EntityDuesRecord, recordID, op)
	msg.EventID = eventID
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			log.FieldError, err,
			log.FieldOperation, op,
			log.FieldRecordID, recordID)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
