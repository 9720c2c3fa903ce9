package logger_test

import (
	"context"
	"testing"

	"github.com/Gunvolt24/queue-consumer/pkg/ctxmeta"
	"github.com/Gunvolt24/queue-consumer/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_DebugHiddenAtNormalVerbosity(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := logger.NewFromZap(zap.New(core), 0)

	l.Debugf(context.Background(), "hidden %d", 1)
	l.Infof(context.Background(), "shown %d", 2)

	if logs.Len() != 1 {
		t.Fatalf("want 1 entry, got %d", logs.Len())
	}
	if got := logs.All()[0].Message; got != "shown 2" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestZapLogger_ContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logger.NewFromZap(zap.New(core), 1)

	ctx := ctxmeta.WithQueue(context.Background(), "orders")
	ctx = ctxmeta.WithMessageID(ctx, "m-7")
	l.Debugf(ctx, "processing")

	entries := logs.FilterField(zap.String("message_id", "m-7")).All()
	if len(entries) != 1 {
		t.Fatalf("want message_id field, got %v", logs.All())
	}
	if entries[0].ContextMap()["queue"] != "orders" {
		t.Fatalf("want queue field, got %v", entries[0].ContextMap())
	}
}

func TestNewZapLogger_Verbosity(t *testing.T) {
	l, cleanup, err := logger.NewZapLogger(true, 2)
	if err != nil {
		t.Fatalf("NewZapLogger: %v", err)
	}
	defer func() { _ = cleanup() }()

	if l.Verbosity() != 2 {
		t.Fatalf("verbosity: want 2, got %d", l.Verbosity())
	}
	if !l.Base().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level must be enabled for verbosity 2")
	}
}
