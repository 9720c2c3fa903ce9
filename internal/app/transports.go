package app

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Gunvolt24/queue-consumer/config"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/internal/processor"
	"github.com/Gunvolt24/queue-consumer/internal/transport/kafka"
	"github.com/Gunvolt24/queue-consumer/internal/transport/lmstfy"
	"github.com/Gunvolt24/queue-consumer/internal/transport/memory"
	inats "github.com/Gunvolt24/queue-consumer/internal/transport/nats"
	"github.com/Gunvolt24/queue-consumer/internal/transport/rabbitmq"
	iredis "github.com/Gunvolt24/queue-consumer/internal/transport/redis"
)

// Имена транспортов и обработчиков в конфигурации маршрутизации.
const (
	TransportMemory = "memory"
	TransportKafka  = "kafka"
	TransportRabbit = "rabbitmq"
	TransportNATS   = "nats"
	TransportRedis  = "redis"
	TransportLmstfy = "lmstfy"

	ProcessorLog     = "log"
	ProcessorWebhook = "webhook"
)

var (
	ErrUnknownTransport = errors.New("app: unknown transport")
	ErrUnknownProcessor = errors.New("app: unknown processor")
)

// transports — открытые по требованию соединения; одно соединение
// на транспорт обслуживает и источник, и publisher.
type transports struct {
	cfg *config.Config
	log ports.Logger

	memory map[string]*memory.Queue
	rabbit *rabbitmq.Client
	nats   *inats.Client
	redis  *goredis.Client

	closers []func() error
}

func newTransports(cfg *config.Config, log ports.Logger) *transports {
	return &transports{cfg: cfg, log: log, memory: make(map[string]*memory.Queue)}
}

func (t *transports) kafkaConfig(queue string) *kafka.Config {
	return &kafka.Config{
		Brokers:       t.cfg.Kafka.Brokers,
		Topic:         queue,
		GroupID:       t.cfg.Kafka.GroupID,
		StartOffset:   t.cfg.Kafka.StartOffset,
		MinBytes:      t.cfg.Kafka.MinBytes,
		MaxBytes:      t.cfg.Kafka.MaxBytes,
		FetchWait:     t.cfg.Consumer.FetchWait,
		CommitTimeout: t.cfg.Kafka.CommitTimeout,
	}
}

func (t *transports) lmstfyConfig() lmstfy.Config {
	c := t.cfg.Lmstfy
	return lmstfy.Config{
		Host: c.Host, Port: c.Port, Namespace: c.Namespace, Token: c.Token,
		TTR: c.TTR, TTL: c.TTL, Tries: c.Tries,
		FetchWait: t.cfg.Consumer.FetchWait,
	}
}

func (t *transports) memoryQueue(queue string) *memory.Queue {
	q, ok := t.memory[queue]
	if !ok {
		q = memory.NewQueue(queue, t.cfg.Memory.Capacity, t.cfg.Memory.TTL)
		t.memory[queue] = q
	}
	return q
}

func (t *transports) rabbitClient() (*rabbitmq.Client, error) {
	if t.rabbit == nil {
		c, err := rabbitmq.Dial(t.cfg.Rabbit.URL, t.log)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		t.rabbit = c
		t.closers = append(t.closers, c.Close)
	}
	return t.rabbit, nil
}

func (t *transports) natsClient() (*inats.Client, error) {
	if t.nats == nil {
		c, err := inats.Connect(inats.Config{
			URL:       t.cfg.NATS.URL,
			Stream:    t.cfg.NATS.Stream,
			Durable:   t.cfg.NATS.Durable,
			AckWait:   t.cfg.NATS.AckWait,
			FetchWait: t.cfg.Consumer.FetchWait,
		}, t.log)
		if err != nil {
			return nil, fmt.Errorf("nats connect: %w", err)
		}
		t.nats = c
		t.closers = append(t.closers, c.Close)
	}
	return t.nats, nil
}

func (t *transports) redisClient() *goredis.Client {
	if t.redis == nil {
		t.redis = iredis.NewClient(iredis.Config{
			Addr:     t.cfg.Redis.Addr,
			Password: t.cfg.Redis.Password,
			DB:       t.cfg.Redis.DB,
		})
		t.closers = append(t.closers, t.redis.Close)
	}
	return t.redis
}

// provider — источник сообщений очереди по имени транспорта.
func (t *transports) provider(ctx context.Context, name, queue string) (ports.MessageProvider, error) {
	switch name {
	case TransportMemory:
		return t.memoryQueue(queue), nil
	case TransportKafka:
		p := kafka.NewProvider(t.kafkaConfig(queue), t.log)
		t.closers = append(t.closers, p.Close)
		return p, nil
	case TransportRabbit:
		c, err := t.rabbitClient()
		if err != nil {
			return nil, err
		}
		p, err := c.Provider(queue)
		if err != nil {
			return nil, err
		}
		t.closers = append(t.closers, p.Close)
		return p, nil
	case TransportNATS:
		c, err := t.natsClient()
		if err != nil {
			return nil, err
		}
		p, err := c.Provider(ctx, queue)
		if err != nil {
			return nil, err
		}
		return p, nil
	case TransportRedis:
		return iredis.NewQueue(t.redisClient(), queue, t.cfg.Consumer.FetchWait), nil
	case TransportLmstfy:
		cfg := t.lmstfyConfig()
		return lmstfy.NewQueue(lmstfy.NewClient(cfg), queue, cfg), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownTransport, name)
	}
}

// publisher — хвост очереди для переотправки после сбоя.
func (t *transports) publisher(name, queue string) (ports.Publisher, error) {
	switch name {
	case TransportMemory:
		return t.memoryQueue(queue), nil
	case TransportKafka:
		p := kafka.NewPublisher(t.kafkaConfig(queue))
		t.closers = append(t.closers, p.Close)
		return p, nil
	case TransportRabbit:
		c, err := t.rabbitClient()
		if err != nil {
			return nil, err
		}
		p, err := c.Publisher(queue)
		if err != nil {
			return nil, err
		}
		t.closers = append(t.closers, p.Close)
		return p, nil
	case TransportNATS:
		c, err := t.natsClient()
		if err != nil {
			return nil, err
		}
		return c.Publisher(queue), nil
	case TransportRedis:
		return iredis.NewQueue(t.redisClient(), queue, t.cfg.Consumer.FetchWait), nil
	case TransportLmstfy:
		cfg := t.lmstfyConfig()
		return lmstfy.NewQueue(lmstfy.NewClient(cfg), queue, cfg), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownTransport, name)
	}
}

// processor — обработчик по имени.
func (t *transports) processor(name string) (ports.Processor, error) {
	switch name {
	case ProcessorLog:
		return processor.NewLog(t.log), nil
	case ProcessorWebhook:
		return processor.NewWebhook(t.cfg.Webhook.URL, t.cfg.Webhook.Timeout), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownProcessor, name)
	}
}

// enqueuer — in-memory очередь для POST /messages, если она обслуживает queue.
func (t *transports) enqueuer(queue string) (*memory.Queue, bool) {
	q, ok := t.memory[queue]
	return q, ok
}

// Close — закрывает соединения в обратном порядке открытия.
func (t *transports) Close() error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	t.closers = nil
	return errors.Join(errs...)
}
