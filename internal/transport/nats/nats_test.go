package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debugf(context.Context, string, ...any) {}
func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

type fakeDelivery struct {
	seq     uint64
	data    string
	headers nats.Header
	acked   int
	naked   int
	termed  int
}

func (d *fakeDelivery) Data() []byte         { return []byte(d.data) }
func (d *fakeDelivery) Subject() string      { return "emails" }
func (d *fakeDelivery) Headers() nats.Header { return d.headers }
func (d *fakeDelivery) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{Stream: "QUEUES_emails", Sequence: jetstream.SequencePair{Stream: d.seq}, NumDelivered: 1}, nil
}
func (d *fakeDelivery) Ack() error  { d.acked++; return nil }
func (d *fakeDelivery) Nak() error  { d.naked++; return nil }
func (d *fakeDelivery) Term() error { d.termed++; return nil }

type fakeFetcher struct {
	ready []*fakeDelivery
	err   error
}

func (f *fakeFetcher) fetchOne(context.Context) (delivery, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if len(f.ready) == 0 {
		return nil, false, nil
	}
	d := f.ready[0]
	f.ready = f.ready[1:]
	return d, true, nil
}

func consumeOne(t *testing.T, p *Provider) domain.Message {
	t.Helper()
	var got domain.Message
	if err := p.Consume(context.Background(), func(_ context.Context, msg domain.Message) error {
		got = msg
		return nil
	}); err != nil {
		t.Fatalf("consume: %v", err)
	}
	return got
}

func TestProvider_AckNakTerm(t *testing.T) {
	a := &fakeDelivery{seq: 1, data: "a"}
	b := &fakeDelivery{seq: 2, data: "b"}
	c := &fakeDelivery{seq: 3, data: "c"}
	p := newProvider(&fakeFetcher{ready: []*fakeDelivery{a, b, c}}, nopLogger{})
	ctx := context.Background()

	ma := consumeOne(t, p)
	if ma.ID() != "QUEUES_emails/1" || ma.Body() != "a" {
		t.Fatalf("unexpected message: %s %s", ma.ID(), ma.Body())
	}
	if err := p.Ack(ctx, ma); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := p.Nack(ctx, consumeOne(t, p), true); err != nil {
		t.Fatalf("nack requeue: %v", err)
	}
	if err := p.Nack(ctx, consumeOne(t, p), false); err != nil {
		t.Fatalf("nack: %v", err)
	}

	if a.acked != 1 || b.naked != 1 || c.termed != 1 {
		t.Fatalf("unexpected calls: ack=%d nak=%d term=%d", a.acked, b.naked, c.termed)
	}
}

func TestProvider_Empty(t *testing.T) {
	p := newProvider(&fakeFetcher{}, nopLogger{})
	called := false
	if err := p.Consume(context.Background(), func(context.Context, domain.Message) error {
		called = true
		return nil
	}); err != nil || called {
		t.Fatalf("empty fetch must be silent, err=%v called=%v", err, called)
	}
}

func TestProvider_FetchError(t *testing.T) {
	boom := errors.New("no responders")
	p := newProvider(&fakeFetcher{err: boom}, nopLogger{})
	if err := p.Consume(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("want fetch error, got %v", err)
	}
}

type fakeJS struct {
	msgs []*nats.Msg
}

func (f *fakeJS) PublishMsg(_ context.Context, msg *nats.Msg, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.msgs = append(f.msgs, msg)
	return &jetstream.PubAck{}, nil
}

func TestPublisher_DropsMsgIDHeader(t *testing.T) {
	js := &fakeJS{}
	p := &Publisher{js: js, subject: "emails"}

	hdr := nats.Header{}
	hdr.Set(jetstream.MsgIDHeader, "dup")
	hdr.Set("Trace", "t1")

	if err := p.Publish(context.Background(), domain.NewMessage("QUEUES_emails/7", "body", map[string]any{MetaHeaders: hdr})); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := js.msgs[0]
	if got.Subject != "emails" || string(got.Data) != "body" {
		t.Fatalf("unexpected msg: %+v", got)
	}
	if got.Header.Get(jetstream.MsgIDHeader) != "" {
		t.Fatalf("dedup header must not be forwarded")
	}
	if got.Header.Get("Trace") != "t1" || got.Header.Get(HeaderOriginID) != "QUEUES_emails/7" {
		t.Fatalf("unexpected headers: %v", got.Header)
	}
}

func TestSanitize(t *testing.T) {
	if got := streamName("QUEUES", "orders.created"); got != "QUEUES_orders_created" {
		t.Fatalf("unexpected stream name %q", got)
	}
}
