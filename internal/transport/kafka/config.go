package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config — подключение к Kafka; имя очереди — это топик.
type Config struct {
	Brokers       []string
	Topic         string
	GroupID       string
	StartOffset   string
	MinBytes      int
	MaxBytes      int
	FetchWait     time.Duration // сколько ждать сообщения за один Consume
	CommitTimeout time.Duration
}

func (c *Config) readerConfig() kafka.ReaderConfig {
	rc := kafka.ReaderConfig{
		Brokers:        c.Brokers,
		GroupID:        c.GroupID,
		Topic:          c.Topic,
		MinBytes:       c.MinBytes,
		MaxBytes:       c.MaxBytes,
		CommitInterval: 0, // коммит только явный, по ack
	}

	switch strings.ToLower(strings.TrimSpace(c.StartOffset)) {
	case "first":
		rc.StartOffset = kafka.FirstOffset
	default:
		rc.StartOffset = kafka.LastOffset
	}

	return rc
}

func (c *Config) writer() *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        c.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

func (c *Config) fetchWait() time.Duration {
	if c.FetchWait <= 0 {
		return time.Second
	}
	return c.FetchWait
}

func (c *Config) commitTimeout() time.Duration {
	if c.CommitTimeout <= 0 {
		return 5 * time.Second
	}
	return c.CommitTimeout
}
