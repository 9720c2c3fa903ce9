package logger

import (
	"context"
	"fmt"

	"github.com/Gunvolt24/queue-consumer/pkg/ctxmeta"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger — реализация ports.Logger поверх zap.
// Уровень задаётся уровнем подробности CLI: 0 — info, >=1 — debug.
type ZapLogger struct {
	base      *zap.Logger
	isProd    bool
	verbosity int
}

func NewZapLogger(isProd bool, verbosity int) (*ZapLogger, func() error, error) {
	var cfg zap.Config
	if isProd {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(levelFor(verbosity))

	logger, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, nil, err
	}

	loggerWrap := &ZapLogger{
		base:      logger,
		isProd:    isProd,
		verbosity: verbosity,
	}

	cleanup := func() error { return loggerWrap.base.Sync() }
	return loggerWrap, cleanup, nil
}

// NewFromZap — обёртка над готовым *zap.Logger (тесты, zaptest/observer).
func NewFromZap(base *zap.Logger, verbosity int) *ZapLogger {
	return &ZapLogger{base: base, verbosity: verbosity}
}

func levelFor(verbosity int) zapcore.Level {
	if verbosity > 0 {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func (z *ZapLogger) Debugf(ctx context.Context, format string, args ...any) {
	z.log(ctx, zapcore.DebugLevel, format, args...)
}
func (z *ZapLogger) Infof(ctx context.Context, format string, args ...any) {
	z.log(ctx, zapcore.InfoLevel, format, args...)
}
func (z *ZapLogger) Warnf(ctx context.Context, format string, args ...any) {
	z.log(ctx, zapcore.WarnLevel, format, args...)
}
func (z *ZapLogger) Errorf(ctx context.Context, format string, args ...any) {
	z.log(ctx, zapcore.ErrorLevel, format, args...)
}

// log — форматирует сообщение только если уровень включён.
func (z *ZapLogger) log(ctx context.Context, lvl zapcore.Level, format string, args ...any) {
	ce := z.base.Check(lvl, "")
	if ce == nil {
		return
	}
	ce.Message = fmt.Sprintf(format, args...)
	ce.Write(fieldsFrom(ctx)...)
}

// fieldsFrom — поля из контекста (queue, message_id, request_id, trace/span).
func fieldsFrom(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 5)
	if v, ok := ctxmeta.QueueFromContext(ctx); ok {
		fields = append(fields, zap.String("queue", v))
	}
	if v, ok := ctxmeta.MessageIDFromContext(ctx); ok {
		fields = append(fields, zap.String("message_id", v))
	}
	if v, ok := ctxmeta.RequestIDFromContext(ctx); ok {
		fields = append(fields, zap.String("request_id", v))
	}
	if ids, ok := ctxmeta.SpanFromContext(ctx); ok {
		fields = append(fields, zap.String("trace_id", ids.TraceID), zap.String("span_id", ids.SpanID))
	}
	return fields
}

// Verbosity — уровень подробности, с которым создан логгер.
func (z *ZapLogger) Verbosity() int { return z.verbosity }

func (z *ZapLogger) Base() *zap.Logger           { return z.base }
func (z *ZapLogger) Sugared() *zap.SugaredLogger { return z.base.Sugar() }
