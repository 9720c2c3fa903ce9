// Package rabbitmq — очередь RabbitMQ: выборка по одному сообщению через basic.get.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/internal/transport/inflight"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
)

var (
	_ ports.MessageProvider = (*Provider)(nil)
	_ ports.Publisher       = (*Publisher)(nil)
)

const transportName = "rabbitmq"

// Ключи метаданных сообщения.
const (
	MetaRoutingKey  = "amqp.routing_key"
	MetaRedelivered = "amqp.redelivered"
	MetaHeaders     = "amqp.headers"
	MetaContentType = "amqp.content_type"
)

// channel — минимальный контракт над *amqp.Channel.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple, requeue bool) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Client — одно соединение на процесс, канал на каждого участника.
type Client struct {
	conn *amqp.Connection
	log  ports.Logger
}

func Dial(url string, log ports.Logger) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	return &Client{conn: conn, log: log}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// Provider — канал с объявленной durable-очередью.
func (c *Client) Provider(queue string) (*Provider, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	p, err := newProvider(ch, queue, c.log)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func (c *Client) Publisher(queue string) (*Publisher, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	return &Publisher{ch: ch, queue: queue}, nil
}

// Provider — Consume = basic.get без авто-ack; пустая очередь не ошибка.
type Provider struct {
	ch        channel
	queue     string
	log       ports.Logger
	inflight  *inflight.Table[uint64]
	closeOnce sync.Once
}

func newProvider(ch channel, queue string, log ports.Logger) (*Provider, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("rabbitmq: declare queue %q: %w", queue, err)
	}
	return &Provider{ch: ch, queue: queue, log: log, inflight: inflight.New[uint64]()}, nil
}

func (p *Provider) Consume(ctx context.Context, handle ports.Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, ok, err := p.ch.Get(p.queue, false)
	metrics.TransportOps.WithLabelValues(transportName, "fetch", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("rabbitmq: get %q: %w", p.queue, err)
	}
	if !ok {
		return nil
	}

	msg := toDomain(p.queue, &d)
	p.inflight.Put(msg.ID(), d.DeliveryTag)
	return handle(ctx, msg)
}

func (p *Provider) Ack(_ context.Context, msg domain.Message) error {
	tag, err := p.inflight.Take(msg.ID())
	if err == nil {
		err = p.ch.Ack(tag, false)
	}
	metrics.TransportOps.WithLabelValues(transportName, "ack", metrics.Status(err)).Inc()
	return err
}

// Nack — requeue=false без DLX просто удаляет сообщение из очереди.
func (p *Provider) Nack(_ context.Context, msg domain.Message, requeue bool) error {
	tag, err := p.inflight.Take(msg.ID())
	if err == nil {
		err = p.ch.Nack(tag, false, requeue)
	}
	metrics.TransportOps.WithLabelValues(transportName, "nack", metrics.Status(err)).Inc()
	return err
}

func (p *Provider) Close() (retErr error) {
	p.closeOnce.Do(func() {
		if err := p.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			retErr = err
		}
	})
	return retErr
}

// Publisher — default exchange, routing key = имя очереди, persistent.
type Publisher struct {
	ch    channel
	queue string
}

func (p *Publisher) Publish(ctx context.Context, msg domain.Message) error {
	pub := amqp.Publishing{
		MessageId:    msg.ID(),
		DeliveryMode: amqp.Persistent,
		Body:         []byte(msg.Body()),
	}
	if ct, ok := msg.Meta(MetaContentType); ok {
		if s, ok := ct.(string); ok {
			pub.ContentType = s
		}
	}
	if h, ok := msg.Meta(MetaHeaders); ok {
		if table, ok := h.(amqp.Table); ok {
			pub.Headers = table
		}
	}

	err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub)
	metrics.TransportOps.WithLabelValues(transportName, "publish", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("rabbitmq: publish to %q: %w", p.queue, err)
	}
	return nil
}

func (p *Publisher) Close() error { return p.ch.Close() }

// toDomain — MessageId, если задан продюсером, иначе очередь и delivery tag.
func toDomain(queue string, d *amqp.Delivery) domain.Message {
	id := d.MessageId
	if id == "" {
		id = queue + "#" + strconv.FormatUint(d.DeliveryTag, 10)
	}
	meta := map[string]any{
		MetaRoutingKey:  d.RoutingKey,
		MetaRedelivered: d.Redelivered,
	}
	if d.ContentType != "" {
		meta[MetaContentType] = d.ContentType
	}
	if len(d.Headers) > 0 {
		meta[MetaHeaders] = d.Headers
	}
	return domain.NewMessage(id, string(d.Body), meta)
}
