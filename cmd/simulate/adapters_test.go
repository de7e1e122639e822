package main

import (
	"context"
	"errors"
	"testing"

	"goldtrader/internal/broadcast"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCronLoggerRoutesErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := cronLogger{log: zap.New(core).Sugar()}
	l.Info("schedule", "entry", 1)
	l.Error(errors.New("boom"), "job panicked", "entry", 1)

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	errEntry := logs.FilterMessage("job panicked").All()
	if len(errEntry) != 1 || errEntry[0].Level != zapcore.ErrorLevel {
		t.Fatalf("unexpected error entry: %#v", errEntry)
	}
	if errEntry[0].ContextMap()["error"] != "boom" {
		t.Fatalf("error field missing: %#v", errEntry[0].ContextMap())
	}
}

func TestDiscardPublisherNeverFails(t *testing.T) {
	p := discardPublisher{log: zap.NewNop()}
	if err := p.PublishPrice(context.Background(), broadcast.PriceUpdate{PricePerGram: "2850.00"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.PublishAlert(context.Background(), "user-1", broadcast.AlertEvent{AlertID: "a-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
