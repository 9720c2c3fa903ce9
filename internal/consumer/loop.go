package consumer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/pkg/ctxmeta"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
)

const tracerName = "github.com/Gunvolt24/queue-consumer/internal/consumer"

var (
	ErrAlreadyRunning = errors.New("consumer: loop already started")
	errExtraDelivery  = errors.New("consumer: provider delivered more than one message per consume call")
)

// Collaborators — внешние зависимости цикла, найденные по имени очереди.
type Collaborators struct {
	Provider  ports.MessageProvider
	Processor ports.Processor
	Publisher ports.Publisher // nil — переотправка в хвост очереди недоступна
	Observer  ports.Observer  // nil — без хуков
}

// Option — настройка цикла.
type Option func(*Loop)

func WithClock(c Clock) Option { return func(l *Loop) { l.clock = c } }

func WithMemoryProbe(p MemoryProbe) Option { return func(l *Loop) { l.memory = p } }

func WithPayloadFormatter(f PayloadFormatter) Option { return func(l *Loop) { l.payload = f } }

func WithMinRuntime(d time.Duration) Option { return func(l *Loop) { l.minRuntime = d } }

func WithTracer(t trace.Tracer) Option { return func(l *Loop) { l.tracer = t } }

// WithFetchBackoff — пауза между ошибками получения сообщения и лимит
// подряд идущих ошибок, после которого сбой становится фатальным (0 — без лимита).
func WithFetchBackoff(initial, maxDelay time.Duration, maxAttempts int) Option {
	return func(l *Loop) { l.backoff = newFetchBackoff(initial, maxDelay, maxAttempts) }
}

// Loop — однопоточный цикл потребления одной очереди.
// Состояния: RUNNING → STOPPING → TERMINATED.
type Loop struct {
	queue     string
	provider  ports.MessageProvider
	processor ports.Processor
	publisher ports.Publisher
	hooks     dispatcher
	limits    Limits
	log       ports.Logger

	clock      Clock
	memory     MemoryProbe
	payload    PayloadFormatter
	tracer     trace.Tracer
	backoff    *fetchBackoff
	minRuntime time.Duration

	started   *atomic.Bool
	state     *atomic.Int32
	processed *atomic.Uint64
	startedAt *atomic.Time
}

// New — конструктор. Provider и Processor обязательны.
func New(queue string, c Collaborators, limits Limits, log ports.Logger, opts ...Option) (*Loop, error) {
	if c.Provider == nil || c.Processor == nil {
		return nil, fmt.Errorf("%w (queue %q)", ErrMissingCollab, queue)
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	l := &Loop{
		queue:      queue,
		provider:   c.Provider,
		processor:  c.Processor,
		publisher:  c.Publisher,
		hooks:      dispatcher{observer: c.Observer, log: log},
		limits:     limits,
		log:        log,
		clock:      SystemClock(),
		minRuntime: DefaultMinRuntime,
		backoff:    newFetchBackoff(0, 0, 5),
		started:    atomic.NewBool(false),
		state:      atomic.NewInt32(int32(StateRunning)),
		processed:  atomic.NewUint64(0),
		startedAt:  atomic.NewTime(time.Time{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.tracer == nil {
		l.tracer = otel.Tracer(tracerName)
	}
	return l, nil
}

// Run — основной цикл:
// 1) получаем не более одного сообщения;
// 2) pre-хук → обработка → ack (или nack+переотправка при сбое) → post-хук;
// 3) каждые BatchSize сообщений — flush;
// 4) проверяем лимиты, иначе пауза PollInterval.
// Финальный flush и минимальное время работы выполняются на любом выходе.
// Штатная остановка по лимиту — (Report, nil); фатальный сбой — *Fault.
func (l *Loop) Run(ctx context.Context) (report Report, err error) {
	if !l.started.CompareAndSwap(false, true) {
		return Report{}, ErrAlreadyRunning
	}

	ctx = ctxmeta.WithQueue(ctx, l.queue)
	start := l.clock.Now()
	l.startedAt.Store(start)
	l.state.Store(int32(StateRunning))
	report.StartedAt = start

	l.log.Infof(ctx, "Consuming from %s queue", l.queue)

	defer func() {
		l.shutdown(ctx, start, &report)
	}()

	retry := l.backoff.initial
	failures := 0

	for {
		delivered, fetchErr, fault := l.iterate(ctx)
		if fault != nil {
			l.recordFault(ctx, fault)
			return report, fault
		}

		// Пачка завершена — сигнал коллабораторам зафиксировать буферы.
		if delivered && l.limits.batchCompleted(l.processed.Load()) {
			l.flush(ctx, &report)
		}

		if reason := l.checkStop(ctx, start); reason != StopNone {
			report.Reason = reason
			l.log.Debugf(ctx, "%s", l.limits.describe(reason))
			return report, nil
		}
		if ctx.Err() != nil {
			report.Reason = StopContextCancel
			return report, ctx.Err()
		}

		wait := l.limits.PollInterval
		if fetchErr != nil {
			failures++
			metrics.FetchErrors.WithLabelValues(l.queue).Inc()
			if l.backoff.exhausted(failures) {
				fault := &Fault{
					Queue: l.queue,
					Kind:  FaultFetch,
					Err:   fmt.Errorf("%w after %d attempts: %w", ErrFetchFailed, failures, fetchErr),
				}
				l.recordFault(ctx, fault)
				return report, fault
			}
			wait = l.backoff.withJitterEqual(retry)
			l.log.Warnf(ctx, "fetch failed: %v (will retry in %s)", fetchErr, wait)
			retry = l.backoff.next(retry)
		} else {
			failures = 0
			retry = l.backoff.initial
		}

		// Пауза против холостого опроса.
		if !l.clock.Sleep(ctx, wait) {
			report.Reason = StopContextCancel
			return report, ctx.Err()
		}
	}
}

// iterate — один вызов Consume: не более одного сообщения.
func (l *Loop) iterate(ctx context.Context) (delivered bool, fetchErr, fault error) {
	var handleErr error
	err := l.provider.Consume(ctx, func(ctx context.Context, msg domain.Message) error {
		if delivered {
			handleErr = &Fault{Queue: l.queue, MessageID: msg.ID(), Kind: FaultFetch, Err: errExtraDelivery}
			return handleErr
		}
		delivered = true
		handleErr = l.handle(ctx, msg)
		return handleErr
	})

	switch {
	case handleErr != nil:
		return delivered, nil, handleErr
	case err != nil:
		return delivered, err, nil
	default:
		return delivered, nil, nil
	}
}

// handle — жизненный цикл одного сообщения.
func (l *Loop) handle(ctx context.Context, msg domain.Message) error {
	ctx = ctxmeta.WithMessageID(ctx, msg.ID())
	ctx, span := l.tracer.Start(ctx, "consumer.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", l.queue),
			attribute.String("messaging.message.id", msg.ID()),
		),
	)
	defer span.End()

	metrics.MessagesConsumed.WithLabelValues(l.queue).Inc()
	l.hooks.preConsume(ctx, msg)

	l.log.Debugf(ctx, "[%s] Processing payload %s", msg.ID(), l.payload.Format(msg.Body()))

	res, err := l.invoke(ctx, msg)
	if err != nil {
		fault := l.requeue(ctx, msg, err)
		span.RecordError(fault)
		span.SetStatus(codes.Error, string(fault.Kind))
		return fault
	}

	ok, isBool := res.(bool)
	if !isBool {
		fault := &Fault{
			Queue:     l.queue,
			MessageID: msg.ID(),
			Kind:      FaultContract,
			Err: fmt.Errorf("%w: did you forget to return a boolean value in the %T processor? got %T",
				ErrContractViolation, l.processor, res),
		}
		span.SetStatus(codes.Error, string(fault.Kind))
		return fault
	}

	if err := l.provider.Ack(ctx, msg); err != nil {
		fault := &Fault{Queue: l.queue, MessageID: msg.ID(), Kind: FaultAck, Err: fmt.Errorf("%w: %w", ErrAckFailed, err)}
		span.RecordError(fault)
		span.SetStatus(codes.Error, string(fault.Kind))
		return fault
	}

	result := strconv.FormatBool(ok)
	span.SetAttributes(attribute.Bool("consumer.result", ok))
	l.log.Debugf(ctx, "[%s] processed with result: %s", msg.ID(), result)
	metrics.MessagesAcked.WithLabelValues(l.queue, result).Inc()

	l.hooks.postConsume(ctx, msg)

	n := l.processed.Inc()
	metrics.ProcessedGauge.WithLabelValues(l.queue).Set(float64(n))
	return nil
}

// invoke — вызов обработчика; паника превращается в ошибку.
func (l *Loop) invoke(ctx context.Context, msg domain.Message) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return l.processor.Process(ctx, msg)
}

// requeue — при наличии publisher снимаем сообщение с позиции (nack без requeue)
// и публикуем в хвост, чтобы оно не блокировало остальные. Сбой эскалируется всегда.
func (l *Loop) requeue(ctx context.Context, msg domain.Message, cause error) *Fault {
	fault := &Fault{
		Queue:     l.queue,
		MessageID: msg.ID(),
		Kind:      FaultProcessor,
		Recovery:  RecoveryNone,
		Err:       fmt.Errorf("%w: %w", ErrProcessorFault, cause),
	}
	if l.publisher == nil {
		return fault
	}

	// Восстановление доводим до конца даже при отменённом контексте.
	rctx := context.WithoutCancel(ctx)

	if err := l.provider.Nack(rctx, msg, false); err != nil {
		fault.Recovery = RecoveryFailed
		fault.RecoveryErr = fmt.Errorf("nack: %w", err)
		return fault
	}
	if err := l.publisher.Publish(rctx, msg); err != nil {
		fault.Recovery = RecoveryFailed
		fault.RecoveryErr = fmt.Errorf("republish: %w", err)
		return fault
	}

	fault.Recovery = RecoveryRequeued
	metrics.MessagesRepublished.WithLabelValues(l.queue).Inc()
	l.log.Warnf(ctx, "[%s] nacked and republished to the end of the queue", msg.ID())
	return fault
}

func (l *Loop) recordFault(ctx context.Context, fault error) {
	kind := "unknown"
	if f, ok := AsFault(fault); ok {
		kind = string(f.Kind)
	}
	metrics.ConsumerFaults.WithLabelValues(l.queue, kind).Inc()
	l.log.Errorf(ctx, "consumer fault: %v", fault)
}

func (l *Loop) flush(ctx context.Context, report *Report) {
	l.log.Debugf(ctx, "Batch completed")
	l.hooks.flush(ctx)
	report.Flushes++
	metrics.BatchFlushes.WithLabelValues(l.queue).Inc()
}

func (l *Loop) checkStop(ctx context.Context, start time.Time) StopReason {
	return l.limits.stopReason(limitCheck{
		processed: l.processed.Load(),
		elapsed:   l.clock.Now().Sub(start),
		resident: func() (uint64, bool) {
			if l.memory == nil {
				return 0, false
			}
			rss, err := l.memory.ResidentBytes()
			if err != nil {
				l.log.Warnf(ctx, "memory probe failed: %v", err)
				return 0, false
			}
			return rss, true
		},
	})
}

// shutdown — STOPPING: финальный flush, минимальное время работы, TERMINATED.
func (l *Loop) shutdown(ctx context.Context, start time.Time, report *Report) {
	l.state.Store(int32(StateStopping))

	// Буферы фиксируем и при отменённом контексте.
	l.flush(context.WithoutCancel(ctx), report)

	if report.Reason != StopNone {
		metrics.ConsumerStops.WithLabelValues(l.queue, string(report.Reason)).Inc()
	}

	l.holdMinRuntime(ctx, start)

	report.Processed = l.processed.Load()
	report.Duration = l.clock.Now().Sub(start)
	l.state.Store(int32(StateTerminated))
	l.log.Infof(ctx, "Shutting down consumer")
}

// holdMinRuntime — не даём процессу завершиться раньше minRuntime от старта.
func (l *Loop) holdMinRuntime(ctx context.Context, start time.Time) {
	elapsed := l.clock.Now().Sub(start)
	if l.minRuntime <= 0 || elapsed >= l.minRuntime {
		return
	}
	wait := l.minRuntime - elapsed
	l.log.Debugf(ctx, "Sleeping for %d seconds so consumer has run for %d seconds",
		int64(math.Ceil(wait.Seconds())), int64(l.minRuntime/time.Second))
	l.clock.Sleep(ctx, wait)
}

// Snapshot — текущее состояние запуска.
func (l *Loop) Snapshot() RunState {
	return RunState{
		Queue:     l.queue,
		State:     State(l.state.Load()).String(),
		Processed: l.processed.Load(),
		StartedAt: l.startedAt.Load(),
	}
}

// Queue — имя очереди цикла.
func (l *Loop) Queue() string { return l.queue }
