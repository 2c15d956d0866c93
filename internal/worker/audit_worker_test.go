package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"moim/internal/amqp"
	"moim/internal/log"
)

type fakeSink struct {
	entries []string
	fail    bool
}

func (f *fakeSink) AppendAudit(_ context.Context, _ time.Time, entity, entityID, operation, _ string) error {
	if f.fail {
		return errors.New("sink down")
	}
	f.entries = append(f.entries, entity+"/"+entityID+"/"+operation)
	return nil
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func TestHandleChange(t *testing.T) {
	sink := &fakeSink{}
	w := NewAuditWorker(sink, testLogger())

	msg := amqp.NewChangeMessage(amqp.EntityLedgerRecord, "rec-1", "create")
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("handle change: %v", err)
	}
	if len(sink.entries) != 1 || sink.entries[0] != "ledger_record/rec-1/create" {
		t.Fatalf("unexpected entries %v", sink.entries)
	}
}

func TestHandleChangeSinkFailure(t *testing.T) {
	w := NewAuditWorker(&fakeSink{fail: true}, testLogger())

	msg := amqp.NewChangeMessage(amqp.EntityDuesRecord, "rec-2", "delete")
	if err := w.HandleChange(context.Background(), msg); err == nil {
		t.Fatalf("expected error so the delivery is requeued")
	}
}
