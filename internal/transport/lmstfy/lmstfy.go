// Package lmstfy — очередь задач lmstfy: неподтверждённая задача
// возвращается сервером после истечения TTR.
package lmstfy

import (
	"context"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
)

var (
	_ ports.MessageProvider = (*Queue)(nil)
	_ ports.Publisher       = (*Queue)(nil)
	_ api                   = (*clientAdapter)(nil)
)

const transportName = "lmstfy"

// Ключи метаданных сообщения.
const (
	MetaNamespace = "lmstfy.namespace"
	MetaElapsedMS = "lmstfy.elapsed_ms"
	MetaTTL       = "lmstfy.ttl"
)

type Config struct {
	Host      string
	Port      int
	Namespace string
	Token     string
	TTR       uint32 // секунды до повторной выдачи неподтверждённой задачи
	TTL       uint32 // время жизни задачи, 0 — бессрочно
	Tries     uint16
	FetchWait time.Duration
}

// api — методы *client.LmstfyClient, которые использует очередь.
type api interface {
	Consume(queue string, ttrSecond, timeoutSecond uint32) (*client.Job, error)
	Ack(queue, jobID string) error
	Publish(queue string, data []byte, ttlSecond uint32, tries uint16, delaySecond uint32) (string, error)
}

// clientAdapter — *client.LmstfyClient под api: Ack клиента возвращает
// *client.APIError, nil-указатель нельзя отдавать как error.
type clientAdapter struct {
	cli *client.LmstfyClient
}

func (c *clientAdapter) Consume(queue string, ttrSecond, timeoutSecond uint32) (*client.Job, error) {
	return c.cli.Consume(queue, ttrSecond, timeoutSecond)
}

func (c *clientAdapter) Ack(queue, jobID string) error {
	if e := c.cli.Ack(queue, jobID); e != nil {
		return e
	}
	return nil
}

func (c *clientAdapter) Publish(queue string, data []byte, ttlSecond uint32, tries uint16, delaySecond uint32) (string, error) {
	return c.cli.Publish(queue, data, ttlSecond, tries, delaySecond)
}

func NewClient(cfg Config) *client.LmstfyClient {
	return client.NewLmstfyClient(cfg.Host, cfg.Port, cfg.Namespace, cfg.Token)
}

// Queue — Ack и Nack(requeue=false) удаляют задачу; Nack(requeue=true)
// ничего не делает: задача вернётся после TTR.
type Queue struct {
	cli     api
	queue   string
	ttr     uint32
	ttl     uint32
	tries   uint16
	timeout uint32
}

func NewQueue(cli *client.LmstfyClient, queue string, cfg Config) *Queue {
	return newQueue(&clientAdapter{cli: cli}, queue, cfg)
}

func newQueue(cli api, queue string, cfg Config) *Queue {
	tries := cfg.Tries
	if tries == 0 {
		tries = 1
	}
	return &Queue{
		cli:     cli,
		queue:   queue,
		ttr:     cfg.TTR,
		ttl:     cfg.TTL,
		tries:   tries,
		timeout: uint32(cfg.FetchWait / time.Second),
	}
}

// Consume — ожидание задачи ограничено timeout (секунды; 0 — без ожидания).
func (q *Queue) Consume(ctx context.Context, handle ports.Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	job, err := q.cli.Consume(q.queue, q.ttr, q.timeout)
	metrics.TransportOps.WithLabelValues(transportName, "fetch", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("lmstfy: consume %q: %w", q.queue, err)
	}
	if job == nil {
		return nil
	}

	msg := domain.NewMessage(job.ID, string(job.Data), map[string]any{
		MetaNamespace: job.Namespace,
		MetaElapsedMS: job.ElapsedMS,
		MetaTTL:       job.TTL,
	})
	return handle(ctx, msg)
}

func (q *Queue) Ack(_ context.Context, msg domain.Message) error {
	err := q.cli.Ack(q.queue, msg.ID())
	metrics.TransportOps.WithLabelValues(transportName, "ack", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("lmstfy: ack %s: %w", msg.ID(), err)
	}
	return nil
}

func (q *Queue) Nack(_ context.Context, msg domain.Message, requeue bool) error {
	var err error
	if !requeue {
		err = q.cli.Ack(q.queue, msg.ID())
	}
	metrics.TransportOps.WithLabelValues(transportName, "nack", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("lmstfy: drop %s: %w", msg.ID(), err)
	}
	return nil
}

// Publish — новая задача в хвост очереди (id выдаёт сервер).
func (q *Queue) Publish(_ context.Context, msg domain.Message) error {
	_, err := q.cli.Publish(q.queue, []byte(msg.Body()), q.ttl, q.tries, 0)
	metrics.TransportOps.WithLabelValues(transportName, "publish", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("lmstfy: publish to %q: %w", q.queue, err)
	}
	return nil
}
