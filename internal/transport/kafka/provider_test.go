package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/transport/inflight"
)

type nopLogger struct{}

func (nopLogger) Debugf(context.Context, string, ...any) {}
func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

// fakeReader — очередь сообщений; пустая очередь блокирует FetchMessage до дедлайна.
type fakeReader struct {
	msgs      []kafka.Message
	fetchErr  error
	commitErr error
	committed []kafka.Message
	closed    int
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	if r.commitErr != nil {
		return r.commitErr
	}
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Config() kafka.ReaderConfig { return kafka.ReaderConfig{Topic: "emails"} }
func (r *fakeReader) Close() error               { r.closed++; return nil }

func newTestProvider(r reader) *Provider {
	return newProvider(r, &Config{FetchWait: 10 * time.Millisecond}, nopLogger{})
}

func consumeOne(t *testing.T, p *Provider) (domain.Message, bool) {
	t.Helper()
	var (
		got domain.Message
		ok  bool
	)
	err := p.Consume(context.Background(), func(_ context.Context, msg domain.Message) error {
		got, ok = msg, true
		return nil
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	return got, ok
}

func TestProvider_ConsumeMapsMessage(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{
		Topic: "emails", Partition: 2, Offset: 41, Key: []byte("k"), Value: []byte("hello"),
		Headers: []kafka.Header{{Key: "trace", Value: []byte("t1")}},
	}}}
	p := newTestProvider(r)

	msg, ok := consumeOne(t, p)
	if !ok {
		t.Fatalf("expected delivery")
	}
	if msg.ID() != "emails/2/41" || msg.Body() != "hello" {
		t.Fatalf("unexpected message: id=%s body=%s", msg.ID(), msg.Body())
	}
	if key, _ := msg.Meta(MetaKey); key != "k" {
		t.Fatalf("key not mapped: %v", key)
	}
	if h, _ := msg.Meta(MetaHeaders); h.(map[string]string)["trace"] != "t1" {
		t.Fatalf("headers not mapped: %v", h)
	}
}

func TestProvider_EmptyTopicIsNotAnError(t *testing.T) {
	p := newTestProvider(&fakeReader{})
	if _, ok := consumeOne(t, p); ok {
		t.Fatalf("nothing must be delivered")
	}
}

func TestProvider_FetchErrorReturned(t *testing.T) {
	boom := errors.New("broker gone")
	p := newTestProvider(&fakeReader{fetchErr: boom})

	err := p.Consume(context.Background(), func(context.Context, domain.Message) error {
		t.Fatalf("handler must not be called")
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want fetch error, got %v", err)
	}
}

func TestProvider_AckCommits(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Topic: "emails", Offset: 1}}}
	p := newTestProvider(r)

	msg, _ := consumeOne(t, p)
	if err := p.Ack(context.Background(), msg); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(r.committed) != 1 || r.committed[0].Offset != 1 {
		t.Fatalf("want offset 1 committed, got %+v", r.committed)
	}
	if err := p.Ack(context.Background(), msg); !errors.Is(err, inflight.ErrUnknownMessage) {
		t.Fatalf("double ack must fail, got %v", err)
	}
}

func TestProvider_Nack(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Topic: "emails", Offset: 1}, {Topic: "emails", Offset: 2}}}
	p := newTestProvider(r)
	ctx := context.Background()

	first, _ := consumeOne(t, p)
	if err := p.Nack(ctx, first, false); err != nil {
		t.Fatalf("nack: %v", err)
	}
	second, _ := consumeOne(t, p)
	if err := p.Nack(ctx, second, true); err != nil {
		t.Fatalf("nack requeue: %v", err)
	}

	// requeue=false коммитит, requeue=true — нет
	if len(r.committed) != 1 || r.committed[0].Offset != 1 {
		t.Fatalf("unexpected commits: %+v", r.committed)
	}
}

func TestProvider_CommitErrorWrapped(t *testing.T) {
	boom := errors.New("rebalance")
	r := &fakeReader{msgs: []kafka.Message{{Topic: "emails", Offset: 5}}, commitErr: boom}
	p := newTestProvider(r)

	msg, _ := consumeOne(t, p)
	if err := p.Ack(context.Background(), msg); !errors.Is(err, boom) {
		t.Fatalf("want commit error, got %v", err)
	}
}

func TestProvider_CloseOnce(t *testing.T) {
	r := &fakeReader{}
	p := newTestProvider(r)
	_ = p.Close()
	_ = p.Close()
	if r.closed != 1 {
		t.Fatalf("reader must be closed once, got %d", r.closed)
	}
}
