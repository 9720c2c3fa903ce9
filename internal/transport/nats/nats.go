// Package nats — очередь поверх JetStream: durable pull-consumer, выборка Fetch(1).
package nats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/internal/transport/inflight"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
)

var (
	_ ports.MessageProvider = (*Provider)(nil)
	_ ports.Publisher       = (*Publisher)(nil)
)

const transportName = "nats"

// Ключи метаданных сообщения.
const (
	MetaSubject    = "nats.subject"
	MetaStreamSeq  = "nats.stream_seq"
	MetaDelivered  = "nats.num_delivered"
	MetaHeaders    = "nats.headers"
	HeaderOriginID = "X-Republished-From"
)

type Config struct {
	URL       string
	Stream    string // префикс имени стрима; стрим создаётся на очередь
	Durable   string
	AckWait   time.Duration
	FetchWait time.Duration
}

// Client — соединение и контекст JetStream.
type Client struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	cfg Config
	log ports.Logger
}

func Connect(cfg Config, log ports.Logger) (*Client, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("queue-consumer"))
	if err != nil {
		return nil, fmt.Errorf("nats: connect %q: %w", cfg.URL, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats: init jetstream: %w", err)
	}
	return &Client{nc: nc, js: js, cfg: cfg, log: log}, nil
}

func (c *Client) Close() error {
	return c.nc.Drain()
}

// Provider — стрим с subject = имя очереди (work-queue retention) и durable-консьюмер.
func (c *Client) Provider(ctx context.Context, queue string) (*Provider, error) {
	stream, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName(c.cfg.Stream, queue),
		Subjects:  []string{queue},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("nats: create stream for %q: %w", queue, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       sanitize(c.cfg.Durable + "-" + queue),
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.cfg.AckWait,
		FilterSubject: queue,
	})
	if err != nil {
		return nil, fmt.Errorf("nats: create consumer for %q: %w", queue, err)
	}

	wait := c.cfg.FetchWait
	if wait <= 0 {
		wait = time.Second
	}
	return newProvider(&consumerFetcher{cons: cons, wait: wait}, c.log), nil
}

func (c *Client) Publisher(queue string) *Publisher {
	return &Publisher{js: c.js, subject: queue}
}

// delivery — подмножество jetstream.Msg, которое нужно провайдеру.
type delivery interface {
	Data() []byte
	Subject() string
	Headers() nats.Header
	Metadata() (*jetstream.MsgMetadata, error)
	Ack() error
	Nak() error
	Term() error
}

// fetcher — выборка не более одного сообщения.
type fetcher interface {
	fetchOne(ctx context.Context) (delivery, bool, error)
}

type consumerFetcher struct {
	cons jetstream.Consumer
	wait time.Duration
}

func (f *consumerFetcher) fetchOne(ctx context.Context) (delivery, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	batch, err := f.cons.Fetch(1, jetstream.FetchMaxWait(f.wait))
	if err != nil {
		return nil, false, err
	}
	if msg, ok := <-batch.Messages(); ok {
		return msg, true, nil
	}
	if err := batch.Error(); err != nil && !isEmpty(err) {
		return nil, false, err
	}
	return nil, false, nil
}

func isEmpty(err error) bool {
	return errors.Is(err, nats.ErrTimeout) || errors.Is(err, jetstream.ErrNoMessages)
}

// Provider — Ack = Ack, Nack(false) = Term, Nack(true) = Nak.
type Provider struct {
	fetcher  fetcher
	log      ports.Logger
	inflight *inflight.Table[delivery]
}

func newProvider(f fetcher, log ports.Logger) *Provider {
	return &Provider{fetcher: f, log: log, inflight: inflight.New[delivery]()}
}

func (p *Provider) Consume(ctx context.Context, handle ports.Handler) error {
	d, ok, err := p.fetcher.fetchOne(ctx)
	metrics.TransportOps.WithLabelValues(transportName, "fetch", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("nats: fetch: %w", err)
	}
	if !ok {
		return nil
	}

	msg := toDomain(d)
	p.inflight.Put(msg.ID(), d)
	return handle(ctx, msg)
}

func (p *Provider) Ack(_ context.Context, msg domain.Message) error {
	d, err := p.inflight.Take(msg.ID())
	if err == nil {
		err = d.Ack()
	}
	metrics.TransportOps.WithLabelValues(transportName, "ack", metrics.Status(err)).Inc()
	return err
}

func (p *Provider) Nack(_ context.Context, msg domain.Message, requeue bool) error {
	d, err := p.inflight.Take(msg.ID())
	if err == nil {
		if requeue {
			err = d.Nak()
		} else {
			err = d.Term()
		}
	}
	metrics.TransportOps.WithLabelValues(transportName, "nack", metrics.Status(err)).Inc()
	return err
}

// publisher — подмножество jetstream.JetStream для публикации.
type publisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher — публикация в subject очереди. Nats-Msg-Id не выставляется:
// дедупликация стрима отбросила бы переотправку.
type Publisher struct {
	js      publisher
	subject string
}

func (p *Publisher) Publish(ctx context.Context, msg domain.Message) error {
	nm := &nats.Msg{
		Subject: p.subject,
		Data:    []byte(msg.Body()),
		Header:  nats.Header{},
	}
	if h, ok := msg.Meta(MetaHeaders); ok {
		if hdr, ok := h.(nats.Header); ok {
			for k, vs := range hdr {
				if k == jetstream.MsgIDHeader {
					continue
				}
				for _, v := range vs {
					nm.Header.Add(k, v)
				}
			}
		}
	}
	nm.Header.Set(HeaderOriginID, msg.ID())

	_, err := p.js.PublishMsg(ctx, nm)
	metrics.TransportOps.WithLabelValues(transportName, "publish", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("nats: publish to %q: %w", p.subject, err)
	}
	return nil
}

// toDomain — id = стрим/последовательность, они уникальны в пределах стрима.
func toDomain(d delivery) domain.Message {
	meta := map[string]any{MetaSubject: d.Subject()}
	id := ""
	if md, err := d.Metadata(); err == nil && md != nil {
		id = md.Stream + "/" + strconv.FormatUint(md.Sequence.Stream, 10)
		meta[MetaStreamSeq] = md.Sequence.Stream
		meta[MetaDelivered] = md.NumDelivered
	}
	if hdr := d.Headers(); len(hdr) > 0 {
		meta[MetaHeaders] = hdr
		if id == "" {
			id = hdr.Get(jetstream.MsgIDHeader)
		}
	}
	return domain.NewMessage(id, string(d.Data()), meta)
}

func streamName(prefix, queue string) string {
	return sanitize(prefix + "_" + queue)
}

// sanitize — имена стримов и консьюмеров не допускают точек, пробелов и wildcard.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '/', '\\':
			return '_'
		}
		return r
	}, s)
}
