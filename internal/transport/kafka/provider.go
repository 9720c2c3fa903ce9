package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/internal/transport/inflight"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
)

// Проверка, что Provider удовлетворяет порту источника сообщений.
var _ ports.MessageProvider = (*Provider)(nil)

const transportName = "kafka"

// Ключи метаданных сообщения.
const (
	MetaTopic     = "kafka.topic"
	MetaPartition = "kafka.partition"
	MetaOffset    = "kafka.offset"
	MetaKey       = "kafka.key"
	MetaTime      = "kafka.time"
	MetaHeaders   = "kafka.headers"
)

// reader — минимальный контракт над kafka.Reader, чтобы подменять его в тестах.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// Provider — источник сообщений поверх consumer group.
// Ack и Nack(requeue=false) коммитят оффсет; Nack(requeue=true) оставляет
// оффсет незакоммиченным — сообщение придёт снова после ребаланса или рестарта.
type Provider struct {
	reader        reader
	log           ports.Logger
	fetchWait     time.Duration
	commitTimeout time.Duration
	inflight      *inflight.Table[kafka.Message]
	closeOnce     sync.Once
}

// NewProvider — конструктор; readerConfig настроен на ручной коммит оффсетов.
func NewProvider(cfg *Config, log ports.Logger) *Provider {
	return newProvider(kafka.NewReader(cfg.readerConfig()), cfg, log)
}

func newProvider(r reader, cfg *Config, log ports.Logger) *Provider {
	return &Provider{
		reader:        r,
		log:           log,
		fetchWait:     cfg.fetchWait(),
		commitTimeout: cfg.commitTimeout(),
		inflight:      inflight.New[kafka.Message](),
	}
}

// Consume — ждёт сообщение не дольше fetchWait; тишина в топике не ошибка.
func (p *Provider) Consume(ctx context.Context, handle ports.Handler) error {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchWait)
	km, err := p.reader.FetchMessage(fetchCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil
		}
		metrics.TransportOps.WithLabelValues(transportName, "fetch", "error").Inc()
		return err
	}
	metrics.TransportOps.WithLabelValues(transportName, "fetch", "ok").Inc()

	msg := toDomain(&km)
	p.inflight.Put(msg.ID(), km)
	return handle(ctx, msg)
}

func (p *Provider) Ack(ctx context.Context, msg domain.Message) error {
	err := p.commit(ctx, msg)
	metrics.TransportOps.WithLabelValues(transportName, "ack", metrics.Status(err)).Inc()
	return err
}

func (p *Provider) Nack(ctx context.Context, msg domain.Message, requeue bool) error {
	var err error
	if requeue {
		_, err = p.inflight.Take(msg.ID())
		if err == nil {
			p.log.Warnf(ctx, "kafka nack with requeue: offset of %s left uncommitted", msg.ID())
		}
	} else {
		// снимаем с позиции: коммит сдвигает оффсет группы за сообщение
		err = p.commit(ctx, msg)
	}
	metrics.TransportOps.WithLabelValues(transportName, "nack", metrics.Status(err)).Inc()
	return err
}

// Close - закрывает reader. Вызывается при остановке приложения.
func (p *Provider) Close() (retErr error) {
	p.closeOnce.Do(func() {
		retErr = p.reader.Close()
	})
	return retErr
}

func (p *Provider) commit(ctx context.Context, msg domain.Message) error {
	km, err := p.inflight.Take(msg.ID())
	if err != nil {
		return err
	}
	// коммит доводим до конца и при отменённом контексте цикла
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.commitTimeout)
	defer cancel()
	if err := p.reader.CommitMessages(cctx, km); err != nil {
		return fmt.Errorf("kafka commit offset=%d: %w", km.Offset, err)
	}
	return nil
}

// messageID — топик/партиция/оффсет однозначно адресуют сообщение.
func messageID(km *kafka.Message) string {
	return km.Topic + "/" + strconv.Itoa(km.Partition) + "/" + strconv.FormatInt(km.Offset, 10)
}

func toDomain(km *kafka.Message) domain.Message {
	meta := map[string]any{
		MetaTopic:     km.Topic,
		MetaPartition: km.Partition,
		MetaOffset:    km.Offset,
		MetaTime:      km.Time,
	}
	if len(km.Key) > 0 {
		meta[MetaKey] = string(km.Key)
	}
	if len(km.Headers) > 0 {
		headers := make(map[string]string, len(km.Headers))
		for _, h := range km.Headers {
			headers[h.Key] = string(h.Value)
		}
		meta[MetaHeaders] = headers
	}
	return domain.NewMessage(messageID(km), string(km.Value), meta)
}
