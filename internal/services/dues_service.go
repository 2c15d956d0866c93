package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"moim/internal/amqp"
	"moim/internal/core"
	"moim/internal/log"
	"moim/internal/ports"
)

// MemberDue is one roster row with its derived expected amount and
// completion state. Both are recomputed here on every read; neither is
// ever stored.
type MemberDue struct {
	Record   core.DuesRecord
	Expected decimal.Decimal
	Status   core.PaymentStatus
}

// DuesService manages collection campaigns and their rosters.
type DuesService struct {
	dues      ports.DuesSource
	directory ports.MemberDirectory
	publisher ChangePublisher
	logger    *log.Logger
}

func NewDuesService(dues ports.DuesSource, directory ports.MemberDirectory, publisher ChangePublisher, logger *log.Logger) *DuesService {
	return &DuesService{
		dues:      dues,
		directory: directory,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentDues),
	}
}

func (s *DuesService) ListEvents(ctx context.Context) ([]core.DuesEvent, error) {
	events, err := s.dues.FetchEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch dues events: %w", err)
	}
	return events, nil
}

func (s *DuesService) GetEvent(ctx context.Context, id string) (core.DuesEvent, error) {
	return s.dues.FetchEvent(ctx, id)
}

func (s *DuesService) CreateEvent(ctx context.Context, event core.DuesEvent) (string, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err := event.Validate(); err != nil {
		return "", err
	}
	id, err := s.dues.CreateEvent(ctx, event)
	if err != nil {
		return "", fmt.Errorf("create dues event: %w", err)
	}
	s.publish(ctx, amqp.NewChangeMessage(amqp.EntityDuesEvent, id, log.OpCreate))
	return id, nil
}

func (s *DuesService) UpdateEvent(ctx context.Context, event core.DuesEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if err := s.dues.UpdateEvent(ctx, event); err != nil {
		return fmt.Errorf("update dues event: %w", err)
	}
	s.publish(ctx, amqp.NewChangeMessage(amqp.EntityDuesEvent, event.ID, log.OpUpdate))
	return nil
}

func (s *DuesService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.dues.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete dues event: %w", err)
	}
	s.publish(ctx, amqp.NewChangeMessage(amqp.EntityDuesEvent, id, log.OpDelete))
	return nil
}

// ListRoster returns the event's records with their derived expected
// amounts and payment states.
func (s *DuesService) ListRoster(ctx context.Context, eventID string) ([]MemberDue, error) {
	event, err := s.dues.FetchEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	records, err := s.dues.FetchRecords(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("fetch dues records: %w", err)
	}

	roster := make([]MemberDue, len(records))
	for i, rec := range records {
		expected := core.ExpectedAmount(event, rec)
		roster[i] = MemberDue{
			Record:   rec,
			Expected: expected,
			Status:   core.ClassifyPayment(rec.PaidAmount, expected),
		}
	}
	return roster, nil
}

// Stats recomputes the campaign statistics from the current snapshot.
func (s *DuesService) Stats(ctx context.Context, eventID string) (core.DuesStats, error) {
	event, err := s.dues.FetchEvent(ctx, eventID)
	if err != nil {
		return core.DuesStats{}, err
	}
	records, err := s.dues.FetchRecords(ctx, eventID)
	if err != nil {
		return core.DuesStats{}, fmt.Errorf("fetch dues records: %w", err)
	}
	return core.ComputeDuesStats(event, records), nil
}

// SeedRoster adds the named members to the event with nothing paid yet.
// Names already on the roster surface as per-record conflicts; the rest
// of the batch still lands.
func (s *DuesService) SeedRoster(ctx context.Context, eventID string, memberNames []string) ([]string, error) {
	if _, err := s.dues.FetchEvent(ctx, eventID); err != nil {
		return nil, err
	}

	records := make([]core.DuesRecord, 0, len(memberNames))
	for _, name := range memberNames {
		rec := core.DuesRecord{
			ID:         uuid.NewString(),
			EventID:    eventID,
			MemberName: name,
			PaidAmount: decimal.Zero,
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("member %q: %w", name, err)
		}
		records = append(records, rec)
	}

	ids, err := s.dues.CreateRecordsBatch(ctx, eventID, records)
	for _, id := range ids {
		s.publish(ctx, amqp.NewChangeMessage(amqp.EntityDuesRecord, id, log.OpCreate))
	}
	if err != nil {
		return ids, fmt.Errorf("seed roster: %w", err)
	}
	s.logger.InfoContext(ctx, "Roster seeded",
		log.FieldEventID, eventID, log.FieldCount, len(ids))
	return ids, nil
}

// UpdateRecord applies an ordinary payment edit. Moving a member from
// paid back to partial or unpaid is allowed; history stays mutable.
func (s *DuesService) UpdateRecord(ctx context.Context, rec core.DuesRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := s.dues.UpdateRecord(ctx, rec); err != nil {
		return fmt.Errorf("update dues record: %w", err)
	}
	s.publish(ctx, amqp.NewChangeMessage(amqp.EntityDuesRecord, rec.ID, log.OpUpdate))
	return nil
}

func (s *DuesService) DeleteRecord(ctx context.Context, id string) error {
	if err := s.dues.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete dues record: %w", err)
	}
	s.publish(ctx, amqp.NewChangeMessage(amqp.EntityDuesRecord, id, log.OpDelete))
	return nil
}

// SearchMembers queries the external directory for roster candidates.
func (s *DuesService) SearchMembers(ctx context.Context, keyword, status string) ([]ports.Member, error) {
	members, err := s.directory.Search(ctx, keyword, status)
	if err != nil {
		return nil, fmt.Errorf("search member directory: %w", err)
	}
	return members, nil
}

func (s *DuesService) publish(ctx context.Context, msg *amqp.ChangeMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			log.FieldError, err,
			log.FieldOperation, msg.Operation,
			log.FieldRecordID, msg.EntityID)
	}
}
