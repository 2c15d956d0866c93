// Package services orchestrates the pure core computations over the
// storage ports, adds report memoization, and announces mutations on
// the change-event stream.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"moim/internal/amqp"
	"moim/internal/cache"
	"moim/internal/core"
	"moim/internal/log"
	"moim/internal/ports"
)

// ChangePublisher is the slice of the AMQP client the services need.
// A nil publisher disables change events without failing mutations.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// LedgerService owns ledger mutations and the derived reports. Reports
// are recomputed from a fresh snapshot on every read and memoized by
// (window, granularity); any mutation clears the memo, never patches it.
type LedgerService struct {
	records   ports.RecordSource
	publisher ChangePublisher
	logger    *log.Logger

	periodCache   *cache.LRUCache[[]core.PeriodBucket]
	categoryCache *cache.LRUCache[[]core.CategoryTotal]
}

func NewLedgerService(records ports.RecordSource, publisher ChangePublisher, logger *log.Logger, cacheSize int, cacheTTL time.Duration) *LedgerService {
	return &LedgerService{
		records:       records,
		publisher:     publisher,
		logger:        logger.WithComponent(log.ComponentLedger),
		periodCache:   cache.NewLRUCache[[]core.PeriodBucket](cacheSize, cacheTTL),
		categoryCache: cache.NewLRUCache[[]core.CategoryTotal](cacheSize, cacheTTL),
	}
}

// RegisterCaches hooks the report memos into a cache manager's sweep.
func (s *LedgerService) RegisterCaches(m *cache.Manager) {
	m.Register(s.periodCache)
	m.Register(s.categoryCache)
}

// CreateRecord validates and stores a new ledger record.
func (s *LedgerService) CreateRecord(ctx context.Context, rec core.LedgerRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := rec.Validate(); err != nil {
		return "", err
	}
	id, err := s.records.Create(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("create ledger record: %w", err)
	}
	s.invalidateReports()
	s.publish(ctx, amqp.NewChangeMessage(amqp.EntityLedgerRecord, id, log.OpCreate))
	return id, nil
}

func (s *LedgerService) UpdateRecord(ctx context.Context, rec core.LedgerRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := s.records.Update(ctx, rec); err != nil {
		return fmt.Errorf("update ledger record: %w", err)
	}
	s.invalidateReports()
	s.publish(ctx, amqp.NewChangeMessage(amqp.EntityLedgerRecord, rec.ID, log.OpUpdate))
	return nil
}

func (s *LedgerService) DeleteRecord(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete ledger record: %w", err)
	}
	s.invalidateReports()
	s.publish(ctx, amqp.NewChangeMessage(amqp.EntityLedgerRecord, id, log.OpDelete))
	return nil
}

// CreateRecordsBatch validates all records up front and stores them in
// one batch. Storage-level failures within the batch are independent.
func (s *LedgerService) CreateRecordsBatch(ctx context.Context, recs []core.LedgerRecord) ([]string, error) {
	for i := range recs {
		if recs[i].ID == "" {
			recs[i].ID = uuid.NewString()
		}
		if err := recs[i].Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	ids, err := s.records.CreateBatch(ctx, recs)
	if len(ids) > 0 {
		s.invalidateReports()
		for _, id := range ids {
			s.publish(ctx, amqp.NewChangeMessage(amqp.EntityLedgerRecord, id, log.OpCreate))
		}
	}
	if err != nil {
		return ids, fmt.Errorf("create ledger records batch: %w", err)
	}
	return ids, nil
}

// Statement returns the balance-annotated ledger, narrowed by the view
// filter. Balances are always computed over the full unfiltered history
// first; the filter only selects which annotated entries to show.
func (s *LedgerService) Statement(ctx context.Context, filter core.StatementFilter) ([]core.BalanceEntry, error) {
	records, err := s.records.Fetch(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch ledger snapshot: %w", err)
	}
	entries := core.ComputeRunningBalances(records)
	return core.FilterStatement(entries, filter), nil
}

// PeriodReport aggregates the ledger into calendar buckets over
// [start, end], memoized until the next mutation or TTL expiry.
func (s *LedgerService) PeriodReport(ctx context.Context, start, end core.Date, g core.Granularity) ([]core.PeriodBucket, error) {
	if !g.Valid() {
		return nil, core.ErrInvalidGranularity
	}
	key := reportKey(start, end, string(g))
	if buckets, ok := s.periodCache.Get(key); ok {
		return buckets, nil
	}

	records, err := s.records.Fetch(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch ledger snapshot: %w", err)
	}
	buckets := core.AggregateByPeriod(records, start, end, g)
	s.periodCache.Set(key, buckets)
	return buckets, nil
}

// CategoryReport sums the window's expenses per category.
func (s *LedgerService) CategoryReport(ctx context.Context, start, end core.Date) ([]core.CategoryTotal, error) {
	key := reportKey(start, end, "category")
	if totals, ok := s.categoryCache.Get(key); ok {
		return totals, nil
	}

	records, err := s.records.Fetch(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch ledger snapshot: %w", err)
	}
	totals := core.ExpensesByCategory(records, start, end)
	s.categoryCache.Set(key, totals)
	return totals, nil
}

func (s *LedgerService) invalidateReports() {
	s.periodCache.Clear()
	s.categoryCache.Clear()
}

func (s *LedgerService) publish(ctx context.Context, msg *amqp.ChangeMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		// The mutation already committed; a lost event is log-worthy only.
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			log.FieldError, err,
			log.FieldOperation, msg.Operation,
			log.FieldRecordID, msg.EntityID)
	}
}

func reportKey(start, end core.Date, kind string) string {
	const day = "2006-01-02"
	from, to := "", ""
	if !start.IsEmpty() {
		from = start.Format(day)
	}
	if !end.IsEmpty() {
		to = end.Format(day)
	}
	return from + "|" + to + "|" + kind
}
