// Package storage implements the ledger and dues ports on SQLite.
// Rows are normalized into the canonical core types at this boundary;
// nothing above it branches on storage shapes.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moim/internal/core"
	"moim/internal/ports"

	_ "modernc.org/sqlite"
)

const dayFormat = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Fetch implements ports.RecordSource.
func (r *SQLiteRepository) Fetch(ctx context.Context, dr *ports.DateRange) ([]core.LedgerRecord, error) {
	query := `SELECT id, entry_date, entry_type, category, detail, amount, attachments
	          FROM ledger_records`
	var args []any
	var clauses []string
	if dr != nil {
		if !dr.From.IsEmpty() {
			clauses = append(clauses, "entry_date >= ?")
			args = append(args, dr.From.Format(dayFormat))
		}
		if !dr.To.IsEmpty() {
			clauses = append(clauses, "entry_date <= ?")
			args = append(args, dr.To.Format(dayFormat))
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY entry_date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch ledger records: %w", err)
	}
	defer rows.Close()

	var records []core.LedgerRecord
	for rows.Next() {
		var (
			rec                       core.LedgerRecord
			date, amount, attachments string
		)
		if err := rows.Scan(&rec.ID, &date, &rec.Type, &rec.Category, &rec.Detail, &amount, &attachments); err != nil {
			return nil, fmt.Errorf("scan ledger record: %w", err)
		}
		rec.Date, err = parseDay(date)
		if err != nil {
			return nil, err
		}
		rec.Amount, err = parseStoredAmount(amount)
		if err != nil {
			return nil, err
		}
		if attachments != "" && attachments != "[]" {
			if err := json.Unmarshal([]byte(attachments), &rec.Attachments); err != nil {
				return nil, fmt.Errorf("decode attachments for %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Create implements ports.RecordSource.
func (r *SQLiteRepository) Create(ctx context.Context, rec core.LedgerRecord) (string, error) {
	attachments, err := encodeAttachments(rec.Attachments)
	if err != nil {
		return "", err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO ledger_records (id, entry_date, entry_type, category, detail, amount, attachments)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Date.Format(dayFormat), string(rec.Type), rec.Category, rec.Detail,
		rec.Amount.String(), attachments)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("ledger record %s: %w", rec.ID, ports.ErrConflict)
		}
		return "", fmt.Errorf("create ledger record: %w", err)
	}

	slog.InfoContext(ctx, "Ledger record saved",
		"id", rec.ID, "type", rec.Type, "amount", rec.Amount.String())
	return rec.ID, nil
}

// Update implements ports.RecordSource.
func (r *SQLiteRepository) Update(ctx context.Context, rec core.LedgerRecord) error {
	attachments, err := encodeAttachments(rec.Attachments)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_records
		 SET entry_date = ?, entry_type = ?, category = ?, detail = ?, amount = ?, attachments = ?
		 WHERE id = ?`,
		rec.Date.Format(dayFormat), string(rec.Type), rec.Category, rec.Detail,
		rec.Amount.String(), attachments, rec.ID)
	if err != nil {
		return fmt.Errorf("update ledger record: %w", err)
	}
	return requireRow(res, "ledger record", rec.ID)
}

// Delete implements ports.RecordSource.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM ledger_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete ledger record: %w", err)
	}
	return requireRow(res, "ledger record", id)
}

// CreateBatch implements ports.RecordSource. Inserts are independent:
// a failing record does not stop the rest, and all failures come back
// joined into one error.
func (r *SQLiteRepository) CreateBatch(ctx context.Context, recs []core.LedgerRecord) ([]string, error) {
	var ids []string
	var errs []error
	for _, rec := range recs {
		id, err := r.Create(ctx, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// FetchEvents implements ports.DuesSource.
func (r *SQLiteRepository) FetchEvents(ctx context.Context) ([]core.DuesEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, target_amount, event_date, target_date, linked_event_id
		 FROM dues_events ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("fetch dues events: %w", err)
	}
	defer rows.Close()

	var events []core.DuesEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range events {
		if err := r.loadPriceOptions(ctx, &events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// FetchEvent implements ports.DuesSource.
func (r *SQLiteRepository) FetchEvent(ctx context.Context, id string) (core.DuesEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, target_amount, event_date, target_date, linked_event_id
		 FROM dues_events WHERE id = ?`, id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DuesEvent{}, fmt.Errorf("dues event %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.DuesEvent{}, err
	}
	if err := r.loadPriceOptions(ctx, &event); err != nil {
		return core.DuesEvent{}, err
	}
	return event, nil
}

// FetchRecords implements ports.DuesSource.
func (r *SQLiteRepository) FetchRecords(ctx context.Context, eventID string) ([]core.DuesRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, member_name, paid_amount, expected_override, payment_method, payment_date, note
		 FROM dues_records WHERE event_id = ? ORDER BY member_name, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("fetch dues records: %w", err)
	}
	defer rows.Close()

	var records []core.DuesRecord
	for rows.Next() {
		var (
			rec               core.DuesRecord
			paid              string
			override, payDate sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.MemberName, &paid, &override,
			&rec.PaymentMethod, &payDate, &rec.Note); err != nil {
			return nil, fmt.Errorf("scan dues record: %w", err)
		}
		rec.PaidAmount, err = parseStoredAmount(paid)
		if err != nil {
			return nil, err
		}
		if override.Valid {
			d, err := parseStoredAmount(override.String)
			if err != nil {
				return nil, err
			}
			rec.ExpectedOverride = &d
		}
		if payDate.Valid && payDate.String != "" {
			rec.PaymentDate, err = parseDay(payDate.String)
			if err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CreateEvent implements ports.DuesSource.
func (r *SQLiteRepository) CreateEvent(ctx context.Context, event core.DuesEvent) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin create event: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO dues_events (id, name, target_amount, event_date, target_date, linked_event_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.Name, event.TargetAmount.String(),
		nullableDay(event.EventDate), nullableDay(event.TargetDate), event.LinkedEventID)
	if err != nil {
		return "", fmt.Errorf("create dues event: %w", err)
	}
	if err := insertPriceOptions(ctx, tx, event); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit create event: %w", err)
	}

	slog.InfoContext(ctx, "Dues event saved", "id", event.ID, "name", event.Name)
	return event.ID, nil
}

// UpdateEvent implements ports.DuesSource.
func (r *SQLiteRepository) UpdateEvent(ctx context.Context, event core.DuesEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update event: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE dues_events
		 SET name = ?, target_amount = ?, event_date = ?, target_date = ?, linked_event_id = ?
		 WHERE id = ?`,
		event.Name, event.TargetAmount.String(),
		nullableDay(event.EventDate), nullableDay(event.TargetDate), event.LinkedEventID, event.ID)
	if err != nil {
		return fmt.Errorf("update dues event: %w", err)
	}
	if err := requireRow(res, "dues event", event.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM dues_price_options WHERE event_id = ?", event.ID); err != nil {
		return fmt.Errorf("replace price options: %w", err)
	}
	if err := insertPriceOptions(ctx, tx, event); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update event: %w", err)
	}
	return nil
}

// DeleteEvent implements ports.DuesSource. Records and price options go
// with it via ON DELETE CASCADE.
func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM dues_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete dues event: %w", err)
	}
	return requireRow(res, "dues event", id)
}

// CreateRecordsBatch implements ports.DuesSource. A duplicate member in
// the event surfaces as a per-record conflict without blocking the rest
// of the batch.
func (r *SQLiteRepository) CreateRecordsBatch(ctx context.Context, eventID string, recs []core.DuesRecord) ([]string, error) {
	var ids []string
	var errs []error
	for _, rec := range recs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO dues_records (id, event_id, member_name, paid_amount, expected_override, payment_method, payment_date, note)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, eventID, rec.MemberName, rec.PaidAmount.String(),
			nullableAmount(rec.ExpectedOverride), rec.PaymentMethod,
			nullableDay(rec.PaymentDate), rec.Note)
		if err != nil {
			if isUniqueViolation(err) {
				errs = append(errs, fmt.Errorf("member %s: %w", rec.MemberName, ports.ErrConflict))
			} else {
				errs = append(errs, fmt.Errorf("member %s: %w", rec.MemberName, err))
			}
			continue
		}
		ids = append(ids, rec.ID)
	}
	return ids, errors.Join(errs...)
}

// UpdateRecord implements ports.DuesSource.
func (r *SQLiteRepository) UpdateRecord(ctx context.Context, rec core.DuesRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE dues_records
		 SET member_name = ?, paid_amount = ?, expected_override = ?, payment_method = ?, payment_date = ?, note = ?
		 WHERE id = ?`,
		rec.MemberName, rec.PaidAmount.String(), nullableAmount(rec.ExpectedOverride),
		rec.PaymentMethod, nullableDay(rec.PaymentDate), rec.Note, rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("member %s: %w", rec.MemberName, ports.ErrConflict)
		}
		return fmt.Errorf("update dues record: %w", err)
	}
	return requireRow(res, "dues record", rec.ID)
}

// DeleteRecord implements ports.DuesSource.
func (r *SQLiteRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM dues_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete dues record: %w", err)
	}
	return requireRow(res, "dues record", id)
}

// DeleteRecordsBatch implements ports.DuesSource. Deletes are
// independent; a missing id (already removed concurrently) surfaces as a
// per-record conflict. Returns the ids that were actually deleted.
func (r *SQLiteRepository) DeleteRecordsBatch(ctx context.Context, ids []string) ([]string, error) {
	var deleted []string
	var errs []error
	for _, id := range ids {
		err := r.DeleteRecord(ctx, id)
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

// AppendAudit records one change event; used by the audit worker.
func (r *SQLiteRepository) AppendAudit(ctx context.Context, occurredAt time.Time, entity, entityID, operation, payload string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (occurred_at, entity, entity_id, operation, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		occurredAt.UTC().Format(time.RFC3339), entity, entityID, operation, payload)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (core.DuesEvent, error) {
	var (
		event                core.DuesEvent
		target               string
		eventDate, targetDay sql.NullString
	)
	err := row.Scan(&event.ID, &event.Name, &target, &eventDate, &targetDay, &event.LinkedEventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.DuesEvent{}, err
		}
		return core.DuesEvent{}, fmt.Errorf("scan dues event: %w", err)
	}
	event.TargetAmount, err = parseStoredAmount(target)
	if err != nil {
		return core.DuesEvent{}, err
	}
	if eventDate.Valid && eventDate.String != "" {
		if event.EventDate, err = parseDay(eventDate.String); err != nil {
			return core.DuesEvent{}, err
		}
	}
	if targetDay.Valid && targetDay.String != "" {
		if event.TargetDate, err = parseDay(targetDay.String); err != nil {
			return core.DuesEvent{}, err
		}
	}
	return event, nil
}

func (r *SQLiteRepository) loadPriceOptions(ctx context.Context, event *core.DuesEvent) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name, amount FROM dues_price_options WHERE event_id = ? ORDER BY position", event.ID)
	if err != nil {
		return fmt.Errorf("fetch price options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt core.PriceOption
		var amount string
		if err := rows.Scan(&opt.Name, &amount); err != nil {
			return fmt.Errorf("scan price option: %w", err)
		}
		if opt.Amount, err = parseStoredAmount(amount); err != nil {
			return err
		}
		event.PriceOptions = append(event.PriceOptions, opt)
	}
	return rows.Err()
}

func insertPriceOptions(ctx context.Context, tx *sql.Tx, event core.DuesEvent) error {
	for i, opt := range event.PriceOptions {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO dues_price_options (event_id, position, name, amount) VALUES (?, ?, ?, ?)",
			event.ID, i, opt.Name, opt.Amount.String())
		if err != nil {
			return fmt.Errorf("insert price option: %w", err)
		}
	}
	return nil
}

func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ports.ErrNotFound)
	}
	return nil
}

func parseDay(s string) (core.Date, error) {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func parseStoredAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return d, nil
}

func nullableDay(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.Format(dayFormat)
}

func nullableAmount(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func encodeAttachments(refs []string) (string, error) {
	if len(refs) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return "", fmt.Errorf("encode attachments: %w", err)
	}
	return string(b), nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
