// Package worker consumes finance change events and appends them to the
// durable audit log.
package worker

import (
	"context"
	"fmt"
	"time"

	"moim/internal/amqp"
	"moim/internal/log"
)

// AuditSink is where audit entries land; the SQLite repository
// implements it.
type AuditSink interface {
	AppendAudit(ctx context.Context, occurredAt time.Time, entity, entityID, operation, payload string) error
}

// AuditWorker turns change events into audit-log rows.
type AuditWorker struct {
	sink   AuditSink
	logger *log.Logger
}

func NewAuditWorker(sink AuditSink, logger *log.Logger) *AuditWorker {
	return &AuditWorker{
		sink:   sink,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange records one change event. Returning an error makes the
// consumer requeue the delivery.
func (w *AuditWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	payload, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}
	if err := w.sink.AppendAudit(ctx, msg.Timestamp, msg.Entity, msg.EntityID, msg.Operation, string(payload)); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	w.logger.InfoContext(ctx, "Audit entry recorded",
		"entity", msg.Entity,
		log.FieldRecordID, msg.EntityID,
		log.FieldOperation, msg.Operation)
	return nil
}
