// Package memory — очередь в памяти процесса (FIFO), для локального запуска и тестов.
package memory

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/internal/transport/inflight"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
)

var (
	_ ports.MessageProvider = (*Queue)(nil)
	_ ports.Publisher       = (*Queue)(nil)
)

var ErrQueueFull = errors.New("memory: queue is full")

const transportName = "memory"

type entry struct {
	msg       domain.Message
	expiresAt time.Time
}

// Queue — FIFO: голова списка выдаётся первой, Publish кладёт в хвост.
type Queue struct {
	name     string
	capacity int           // 0 — без ограничения
	ttl      time.Duration // 0 — сообщения не устаревают

	ll       *list.List
	inflight *inflight.Table[domain.Message]
	now      func() time.Time

	mu sync.Mutex
}

func NewQueue(name string, capacity int, ttl time.Duration) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		name:     name,
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		inflight: inflight.New[domain.Message](),
		now:      time.Now,
	}
}

// Enqueue — новое сообщение с uuid в хвост очереди.
func (q *Queue) Enqueue(body string, metadata map[string]any) (domain.Message, error) {
	msg := domain.NewMessage(uuid.NewString(), body, metadata)
	if err := q.push(msg, false); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (q *Queue) Consume(ctx context.Context, handle ports.Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, ok := q.pop()
	metrics.TransportOps.WithLabelValues(transportName, "fetch", "ok").Inc()
	if !ok {
		return nil
	}
	q.inflight.Put(msg.ID(), msg)
	return handle(ctx, msg)
}

func (q *Queue) Ack(_ context.Context, msg domain.Message) error {
	_, err := q.inflight.Take(msg.ID())
	metrics.TransportOps.WithLabelValues(transportName, "ack", metrics.Status(err)).Inc()
	return err
}

// Nack — requeue=true возвращает сообщение в голову очереди.
func (q *Queue) Nack(_ context.Context, msg domain.Message, requeue bool) error {
	held, err := q.inflight.Take(msg.ID())
	if err == nil && requeue {
		err = q.push(held, true)
	}
	metrics.TransportOps.WithLabelValues(transportName, "nack", metrics.Status(err)).Inc()
	return err
}

func (q *Queue) Publish(ctx context.Context, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := q.push(msg, false)
	metrics.TransportOps.WithLabelValues(transportName, "publish", metrics.Status(err)).Inc()
	return err
}

// Len — число сообщений, готовых к выдаче.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ll.Len()
}

// InFlight — выданные и ещё не подтверждённые сообщения.
func (q *Queue) InFlight() int { return q.inflight.Len() }

// ------вспомогательные функции------

func (q *Queue) push(msg domain.Message, front bool) error {
	now := q.now()

	q.mu.Lock()
	defer q.mu.Unlock()

	q.pruneExpiredFromFront(now)

	if q.capacity > 0 && q.ll.Len() >= q.capacity {
		return ErrQueueFull
	}

	e := &entry{msg: msg, expiresAt: q.expiryFrom(now)}
	if front {
		q.ll.PushFront(e)
	} else {
		q.ll.PushBack(e)
	}
	metrics.MemoryQueueDepth.WithLabelValues(q.name).Set(float64(q.ll.Len()))
	return nil
}

func (q *Queue) pop() (domain.Message, bool) {
	now := q.now()

	q.mu.Lock()
	defer q.mu.Unlock()

	q.pruneExpiredFromFront(now)

	front := q.ll.Front()
	if front == nil {
		return domain.Message{}, false
	}
	q.ll.Remove(front)
	metrics.MemoryQueueDepth.WithLabelValues(q.name).Set(float64(q.ll.Len()))
	return front.Value.(*entry).msg, true
}

// pruneExpiredFromFront — удаляет устаревшие сообщения из головы до первого актуального.
func (q *Queue) pruneExpiredFromFront(now time.Time) {
	if q.ttl <= 0 {
		return
	}
	for {
		front := q.ll.Front()
		if front == nil {
			return
		}
		if now.After(front.Value.(*entry).expiresAt) {
			q.ll.Remove(front)
			continue
		}
		return
	}
}

func (q *Queue) expiryFrom(now time.Time) time.Time {
	if q.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(q.ttl)
}
