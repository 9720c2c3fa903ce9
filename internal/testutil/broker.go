//go:build integration

package testutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

var unsafeTopicChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// NewQueue — свежий топик с одной партицией и имя группы для него.
// Имя строится из имени теста, так что параллельные тесты не пересекаются.
func (b *Broker) NewQueue(t testing.TB) (topic, group string) {
	t.Helper()
	topic = fmt.Sprintf("%s-%d", unsafeTopicChars.ReplaceAllString(t.Name(), "-"), time.Now().UnixNano())
	group = topic + "-group"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, b.createTopic(ctx, topic), "create topic %s", topic)
	return topic, group
}

// Group — ещё одна группа для уже созданного топика.
func (b *Broker) Group(topic, suffix string) string {
	return topic + "-" + suffix
}

func (b *Broker) createTopic(ctx context.Context, topic string) error {
	conn, err := kafka.DialContext(ctx, "tcp", b.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctrl, err := conn.Controller()
	if err != nil {
		return err
	}
	admin, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(ctrl.Host, strconv.Itoa(ctrl.Port)))
	if err != nil {
		return err
	}
	defer admin.Close()

	err = admin.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return err
	}
	return b.awaitPartitions(ctx, topic)
}

// awaitPartitions — ждёт, пока топик появится в метаданных брокера.
func (b *Broker) awaitPartitions(ctx context.Context, topic string) error {
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		conn, err := kafka.DialContext(ctx, "tcp", b.Addr)
		if err == nil {
			var parts []kafka.Partition
			parts, err = conn.ReadPartitions(topic)
			_ = conn.Close()
			if err == nil && len(parts) > 0 {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("topic %q not ready: %w", topic, errors.Join(ctx.Err(), err))
		case <-tick.C:
		}
	}
}
