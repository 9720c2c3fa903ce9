// Package redis — надёжная очередь на списках Redis: BLMOVE в список
// обработки, подтверждение — удаление из него.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/internal/transport/inflight"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
)

var (
	_ ports.MessageProvider = (*Queue)(nil)
	_ ports.Publisher       = (*Queue)(nil)
)

const (
	transportName    = "redis"
	processingSuffix = ":processing"
)

// lists — команды списков, которые использует очередь (*redis.Client их реализует).
type lists interface {
	BLMove(ctx context.Context, source, destination, srcpos, destpos string, timeout time.Duration) *redis.StringCmd
	LMove(ctx context.Context, source, destination, srcpos, destpos string) *redis.StringCmd
	LRem(ctx context.Context, key string, count int64, value interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// envelope — формат элемента списка.
type envelope struct {
	ID       string         `json:"id"`
	Body     string         `json:"body"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Config struct {
	Addr      string
	Password  string
	DB        int
	FetchWait time.Duration
}

func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Queue — голова списка выдаётся первой, Publish кладёт в хвост.
type Queue struct {
	rdb        lists
	key        string
	processing string
	wait       time.Duration
	inflight   *inflight.Table[string] // id → исходный элемент списка для LREM
	reclaimed  bool
}

func NewQueue(rdb lists, queue string, wait time.Duration) *Queue {
	if wait <= 0 {
		wait = time.Second
	}
	return &Queue{
		rdb:        rdb,
		key:        queue,
		processing: queue + processingSuffix,
		wait:       wait,
		inflight:   inflight.New[string](),
	}
}

func (q *Queue) Consume(ctx context.Context, handle ports.Handler) error {
	if !q.reclaimed {
		if err := q.reclaim(ctx); err != nil {
			return err
		}
		q.reclaimed = true
	}

	raw, err := q.rdb.BLMove(ctx, q.key, q.processing, "LEFT", "RIGHT", q.wait).Result()
	if errors.Is(err, redis.Nil) {
		metrics.TransportOps.WithLabelValues(transportName, "fetch", "ok").Inc()
		return nil
	}
	metrics.TransportOps.WithLabelValues(transportName, "fetch", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("redis: blmove %q: %w", q.key, err)
	}

	msg := decode(raw)
	q.inflight.Put(msg.ID(), raw)
	return handle(ctx, msg)
}

func (q *Queue) Ack(ctx context.Context, msg domain.Message) error {
	_, err := q.release(ctx, msg)
	metrics.TransportOps.WithLabelValues(transportName, "ack", metrics.Status(err)).Inc()
	return err
}

// Nack — requeue=true возвращает элемент в голову основного списка.
func (q *Queue) Nack(ctx context.Context, msg domain.Message, requeue bool) error {
	raw, err := q.release(ctx, msg)
	if err == nil && requeue {
		if perr := q.rdb.LPush(ctx, q.key, raw).Err(); perr != nil {
			err = fmt.Errorf("redis: lpush %q: %w", q.key, perr)
		}
	}
	metrics.TransportOps.WithLabelValues(transportName, "nack", metrics.Status(err)).Inc()
	return err
}

func (q *Queue) Publish(ctx context.Context, msg domain.Message) error {
	raw, err := encode(msg)
	if err == nil {
		if perr := q.rdb.RPush(ctx, q.key, raw).Err(); perr != nil {
			err = fmt.Errorf("redis: rpush %q: %w", q.key, perr)
		}
	}
	metrics.TransportOps.WithLabelValues(transportName, "publish", metrics.Status(err)).Inc()
	return err
}

// reclaim — при первом Consume элементы, оставшиеся в списке обработки
// от прошлого процесса, возвращаются в голову основного списка
// в исходном порядке. Список обработки принадлежит одному потребителю.
func (q *Queue) reclaim(ctx context.Context) error {
	var moved int
	for {
		err := q.rdb.LMove(ctx, q.processing, q.key, "RIGHT", "LEFT").Err()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			metrics.TransportOps.WithLabelValues(transportName, "reclaim", "error").Inc()
			return fmt.Errorf("redis: reclaim %q: %w", q.processing, err)
		}
		moved++
	}
	if moved > 0 {
		metrics.TransportOps.WithLabelValues(transportName, "reclaim", "ok").Add(float64(moved))
	}
	return nil
}

// release — удаляет элемент из списка обработки.
func (q *Queue) release(ctx context.Context, msg domain.Message) (string, error) {
	raw, err := q.inflight.Take(msg.ID())
	if err != nil {
		return "", err
	}
	if err := q.rdb.LRem(ctx, q.processing, 1, raw).Err(); err != nil {
		return "", fmt.Errorf("redis: lrem %q: %w", q.processing, err)
	}
	return raw, nil
}

func encode(msg domain.Message) (string, error) {
	b, err := json.Marshal(envelope{ID: msg.ID(), Body: msg.Body(), Metadata: msg.Metadata()})
	if err != nil {
		return "", fmt.Errorf("redis: encode %s: %w", msg.ID(), err)
	}
	return string(b), nil
}

// decode — элементы не в формате конверта принимаются как тело с новым id.
func decode(raw string) domain.Message {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.ID == "" {
		return domain.NewMessage(uuid.NewString(), raw, nil)
	}
	return domain.NewMessage(env.ID, env.Body, env.Metadata)
}
