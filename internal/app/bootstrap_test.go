package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gunvolt24/queue-consumer/config"
	"github.com/Gunvolt24/queue-consumer/internal/app"
	"github.com/Gunvolt24/queue-consumer/internal/consumer"
)

// логгер-заглушка
type nopLogger struct{}

func (nopLogger) Debugf(context.Context, string, ...any) {}
func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

// фейковый цикл, который ждёт отмены контекста
type fakeLoop struct {
	runCalls int32
	err      error
}

func (f *fakeLoop) Run(ctx context.Context) (consumer.Report, error) {
	atomic.AddInt32(&f.runCalls, 1)
	if f.err != nil {
		return consumer.Report{}, f.err
	}
	<-ctx.Done()
	return consumer.Report{Reason: consumer.StopContextCancel}, ctx.Err()
}

type fakeOps struct {
	startErr  error
	serveErr  error
	started   int32
	shutdowns int32
}

func (f *fakeOps) Start(_ context.Context, errCh chan<- error) error {
	atomic.AddInt32(&f.started, 1)
	if f.startErr != nil {
		return f.startErr
	}
	if f.serveErr != nil {
		errCh <- f.serveErr
	}
	return nil
}

func (f *fakeOps) Shutdown(context.Context) { atomic.AddInt32(&f.shutdowns, 1) }

func TestAppRun_StopsWithLoopAndShutsDownOps(t *testing.T) {
	loop := &fakeLoop{}
	ops := &fakeOps{serveErr: errors.New("listener closed")}
	a := &app.App{Logger: nopLogger{}, Loop: loop, Ops: ops}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	report, err := a.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want loop error, got %v", err)
	}
	if report.Reason != consumer.StopContextCancel {
		t.Fatalf("unexpected reason %q", report.Reason)
	}
	if atomic.LoadInt32(&loop.runCalls) != 1 {
		t.Fatalf("loop.Run should be called once")
	}
	if atomic.LoadInt32(&ops.shutdowns) != 1 {
		t.Fatalf("ops server should be shut down once")
	}
}

func TestAppRun_OpsStartFailureIsNotFatal(t *testing.T) {
	fault := errors.New("fatal fault")
	loop := &fakeLoop{err: fault}
	ops := &fakeOps{startErr: errors.New("address in use")}
	a := &app.App{Logger: nopLogger{}, Loop: loop, Ops: ops}

	_, err := a.Run(context.Background())
	if !errors.Is(err, fault) {
		t.Fatalf("want loop fault, got %v", err)
	}
	if atomic.LoadInt32(&ops.shutdowns) != 0 {
		t.Fatalf("server that did not start must not be shut down")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadWithPrefix("QUEUE_APP_TEST")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.HTTP.Enabled = false
	cfg.Consumer.MinRuntime = 0
	return &cfg
}

func TestBootstrap_MemoryQueueRunsToLimit(t *testing.T) {
	cfg := testConfig(t)

	limits := consumer.DefaultLimits()
	limits.MaxDuration = 50 * time.Millisecond

	a, cleanup, err := app.Bootstrap(context.Background(), cfg, app.Options{Queue: "emails", Limits: limits})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer cleanup()

	report, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Reason != consumer.StopTimeLimit {
		t.Fatalf("want time limit, got %q", report.Reason)
	}
}

func TestBootstrap_StartupFaults(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"unknown transport", func(c *config.Config) { c.Routing.DefaultTransport = "carrier-pigeon" }, app.ErrUnknownTransport},
		{"unknown processor", func(c *config.Config) { c.Routing.DefaultProcessor = "magic" }, app.ErrUnknownProcessor},
		{"unknown publisher", func(c *config.Config) { c.Routing.Publishers = map[string]string{"emails": "fax"} }, app.ErrUnknownTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			_, cleanup, err := app.Bootstrap(context.Background(), cfg, app.Options{Queue: "emails", Limits: consumer.DefaultLimits()})
			defer cleanup()
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBootstrap_InvalidLimits(t *testing.T) {
	cfg := testConfig(t)
	_, cleanup, err := app.Bootstrap(context.Background(), cfg, app.Options{Queue: "emails"})
	defer cleanup()
	if !errors.Is(err, consumer.ErrInvalidLimits) {
		t.Fatalf("want invalid limits, got %v", err)
	}
}
