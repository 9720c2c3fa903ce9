package consumer_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Gunvolt24/queue-consumer/internal/consumer"
)

func TestFault_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	recErr := errors.New("nack refused")

	f := &consumer.Fault{
		Queue:       "emails",
		MessageID:   "m-1",
		Kind:        consumer.FaultProcessor,
		Recovery:    consumer.RecoveryFailed,
		Err:         cause,
		RecoveryErr: recErr,
	}

	msg := f.Error()
	for _, part := range []string{"emails", "m-1", "boom", "requeue failed", "nack refused"} {
		if !strings.Contains(msg, part) {
			t.Fatalf("error %q must mention %q", msg, part)
		}
	}
	if !errors.Is(f, cause) || !errors.Is(f, recErr) {
		t.Fatalf("fault must unwrap to both errors")
	}
	if f.Requeued() {
		t.Fatalf("failed recovery is not requeued")
	}
}

func TestAsFault(t *testing.T) {
	f := &consumer.Fault{Kind: consumer.FaultAck, Err: consumer.ErrAckFailed}
	wrapped := errors.Join(errors.New("outer"), f)

	got, ok := consumer.AsFault(wrapped)
	if !ok || got != f {
		t.Fatalf("want fault extracted from chain")
	}
	if _, ok := consumer.AsFault(errors.New("plain")); ok {
		t.Fatalf("plain error is not a fault")
	}
}
