package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
)

var _ ports.Publisher = (*Publisher)(nil)

// HeaderRepublishedFrom — заголовок с исходным адресом переотправленного сообщения.
const HeaderRepublishedFrom = "x-republished-from"

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher — переотправка в хвост того же топика.
type Publisher struct {
	writer    writer
	closeOnce sync.Once
}

func NewPublisher(cfg *Config) *Publisher {
	return &Publisher{writer: cfg.writer()}
}

func (p *Publisher) Publish(ctx context.Context, msg domain.Message) error {
	km := kafka.Message{
		Value:   []byte(msg.Body()),
		Headers: []kafka.Header{{Key: HeaderRepublishedFrom, Value: []byte(msg.ID())}},
	}
	if key, ok := msg.Meta(MetaKey); ok {
		if s, ok := key.(string); ok {
			km.Key = []byte(s)
		}
	}
	if headers, ok := msg.Meta(MetaHeaders); ok {
		if hm, ok := headers.(map[string]string); ok {
			for k, v := range hm {
				if k == HeaderRepublishedFrom {
					continue
				}
				km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
			}
		}
	}

	err := p.writer.WriteMessages(ctx, km)
	metrics.TransportOps.WithLabelValues(transportName, "publish", metrics.Status(err)).Inc()
	return err
}

func (p *Publisher) Close() (retErr error) {
	p.closeOnce.Do(func() {
		retErr = p.writer.Close()
	})
	return retErr
}
