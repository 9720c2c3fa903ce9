package hooks

import (
	"context"
	"time"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
	"go.uber.org/atomic"
)

var _ ports.Observer = (*Timing)(nil)

// Timing — гистограмма времени между pre- и post-хуком.
type Timing struct {
	queue   string
	started *atomic.Time
	now     func() time.Time
}

func NewTiming(queue string) *Timing {
	return &Timing{queue: queue, started: atomic.NewTime(time.Time{}), now: time.Now}
}

func (t *Timing) PreConsume(context.Context, domain.Message) { t.started.Store(t.now()) }

func (t *Timing) PostConsume(context.Context, domain.Message) {
	start := t.started.Load()
	t.started.Store(time.Time{})
	if start.IsZero() {
		return
	}
	metrics.ProcessingDuration.WithLabelValues(t.queue).Observe(t.now().Sub(start).Seconds())
}

func (t *Timing) Flush(context.Context) {}
