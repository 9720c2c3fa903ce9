package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/queue-consumer/config"
	"github.com/Gunvolt24/queue-consumer/internal/consumer"
	"github.com/Gunvolt24/queue-consumer/internal/hooks"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/internal/registry"
	"github.com/Gunvolt24/queue-consumer/internal/repo/postgres"
	rest "github.com/Gunvolt24/queue-consumer/internal/transport/http"
	"github.com/Gunvolt24/queue-consumer/pkg/logger"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
	"github.com/Gunvolt24/queue-consumer/pkg/procmem"
	"github.com/Gunvolt24/queue-consumer/pkg/telemetry"
	"github.com/Gunvolt24/queue-consumer/pkg/termsize"
)

// Runner — цикл потребления.
type Runner interface {
	Run(ctx context.Context) (consumer.Report, error)
}

// OpsServer — служебный HTTP-сервер.
type OpsServer interface {
	Start(ctx context.Context, errCh chan<- error) error
	Shutdown(ctx context.Context)
}

// App — собранное приложение: цикл одной очереди и служебный сервер.
type App struct {
	Logger ports.Logger
	Loop   Runner
	Ops    OpsServer // nil — сервер выключен
}

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// Options — то, что приходит из командной строки.
type Options struct {
	Queue     string
	Limits    consumer.Limits
	Verbosity int // 0 — обычный вывод, 1 — подробный, 2+ — полные payload
}

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → release и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to release", mode)
	}
}

// Bootstrap — собирает зависимости цикла очереди opts.Queue.
// Отсутствующий источник или обработчик — ошибка старта.
func Bootstrap(ctx context.Context, cfg *config.Config, opts Options) (*App, Cleanup, error) {
	logg, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd, opts.Verbosity)
	if err != nil {
		return nil, func() {}, err
	}

	// Шаги очистки копятся по мере сборки и выполняются в обратном порядке.
	var steps []func()
	cleanup := func() {
		for i := len(steps) - 1; i >= 0; i-- {
			steps[i]()
		}
		if cerr := cleanupLogger(); cerr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cerr)
		}
	}
	fail := func(err error) (*App, Cleanup, error) {
		cleanup()
		return nil, func() {}, err
	}

	metrics.MustRegister()

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию — no-op.
	if cfg.Tracing.Enabled {
		shutdownTrace, tErr := telemetry.SetupTracing(ctx, telemetry.Options{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
			Queue:       opts.Queue,
		})
		if tErr != nil {
			logg.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			steps = append(steps, func() {
				if terr := shutdownTrace(context.Background()); terr != nil {
					logg.Warnf(ctx, "shutdown tracing: %v", terr)
				}
			})
		}
	}

	// Транспорты и обработчик по конфигурации маршрутизации.
	ts := newTransports(cfg, logg)
	steps = append(steps, func() {
		if cerr := ts.Close(); cerr != nil {
			logg.Warnf(ctx, "close transports: %v", cerr)
		}
	})

	reg, err := buildRegistry(ctx, cfg.Routing, opts.Queue, ts)
	if err != nil {
		return fail(err)
	}

	// Наблюдатели: метрики всегда, журнал — по конфигурации.
	observers := consumer.Observers{hooks.NewTiming(opts.Queue)}
	if cfg.Postgres.JournalEnabled {
		pool, pErr := postgres.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if pErr != nil {
			return fail(fmt.Errorf("journal pool: %w", pErr))
		}
		steps = append(steps, pool.Close)

		if mErr := postgres.Migrate(ctx, pool); mErr != nil {
			return fail(fmt.Errorf("journal migrate: %w", mErr))
		}
		observers = append(observers, hooks.NewJournal(opts.Queue, postgres.NewJournalRepository(pool), logg))
	}

	collab, err := reg.Resolve(opts.Queue, observers)
	if err != nil {
		return fail(err)
	}

	loopOpts := []consumer.Option{
		consumer.WithPayloadFormatter(consumer.PayloadFormatter{Full: opts.Verbosity >= 2, Width: termsize.Width}),
		consumer.WithMinRuntime(cfg.Consumer.MinRuntime),
		consumer.WithFetchBackoff(cfg.Consumer.RetryInitial, cfg.Consumer.RetryMax, cfg.Consumer.RetryAttempts),
	}
	if probe, prErr := procmem.NewProbe(); prErr != nil {
		logg.Warnf(ctx, "memory probe unavailable, memory limit disabled: %v", prErr)
	} else {
		loopOpts = append(loopOpts, consumer.WithMemoryProbe(probe))
	}

	loop, err := consumer.New(opts.Queue, collab, opts.Limits, logg, loopOpts...)
	if err != nil {
		return fail(err)
	}

	a := &App{Logger: logg, Loop: loop}

	if cfg.HTTP.Enabled {
		applyGinMode(ctx, cfg.HTTP.GinMode, logg)

		// Имя сервиса для otelgin (только при включённом трейсинге).
		otelServiceName := ""
		if cfg.Tracing.Enabled {
			otelServiceName = cfg.Tracing.ServiceName
		}

		var enq rest.Enqueuer
		if q, ok := ts.enqueuer(opts.Queue); ok {
			enq = q
		}
		h := rest.NewHandler(loop, enq, logg)
		a.Ops = rest.NewServer(cfg.HTTP, rest.NewRouter(h, otelServiceName), logg)
	}

	return a, cleanup, nil
}

// buildRegistry — регистрирует коллабораторов очереди по маршрутизации.
func buildRegistry(ctx context.Context, routing config.Routing, queue string, ts *transports) (*registry.Registry, error) {
	reg := registry.New()

	provider, err := ts.provider(ctx, routing.TransportFor(queue), queue)
	if err != nil {
		return nil, err
	}
	reg.RegisterProvider(queue, provider)

	proc, err := ts.processor(routing.ProcessorFor(queue))
	if err != nil {
		return nil, err
	}
	reg.RegisterProcessor(queue, proc)

	if name := routing.PublisherFor(queue); name != "" {
		pub, err := ts.publisher(name, queue)
		if err != nil {
			return nil, err
		}
		reg.RegisterPublisher(queue, pub)
	}

	return reg, nil
}

// Run — поднимает служебный сервер и крутит цикл до его остановки.
// Возвращает итог и ошибку цикла; сбой служебного сервера цикл не прерывает.
func (a *App) Run(ctx context.Context) (consumer.Report, error) {
	errCh := make(chan error, 1)

	if a.Ops != nil {
		if err := a.Ops.Start(ctx, errCh); err != nil {
			a.Logger.Warnf(ctx, "ops http server not started: %v", err)
		} else {
			defer a.Ops.Shutdown(ctx)
		}
	}

	type result struct {
		report consumer.Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := a.Loop.Run(ctx)
		done <- result{report, err}
	}()

	for {
		select {
		case res := <-done:
			return res.report, res.err
		case err := <-errCh:
			a.Logger.Warnf(ctx, "ops http server failed: %v", err)
		}
	}
}
