package consumer

import (
	"testing"
	"time"
)

func TestFetchBackoff_NextCapped(t *testing.T) {
	b := newFetchBackoff(time.Second, 5*time.Second, 0)
	d := b.initial
	for _, want := range []time.Duration{2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second} {
		d = b.next(d)
		if d != want {
			t.Fatalf("want %s, got %s", want, d)
		}
	}
}

func TestFetchBackoff_EqualJitterRange(t *testing.T) {
	b := newFetchBackoff(0, 0, 0)
	for i := 0; i < 100; i++ {
		got := b.withJitterEqual(4 * time.Second)
		if got < 2*time.Second || got > 4*time.Second {
			t.Fatalf("jitter out of [d/2, d]: %s", got)
		}
	}
	if b.withJitterEqual(0) != 0 {
		t.Fatalf("zero delay must stay zero")
	}
}

func TestFetchBackoff_Exhausted(t *testing.T) {
	if newFetchBackoff(0, 0, 0).exhausted(1000) {
		t.Fatalf("zero attempts means unlimited")
	}
	b := newFetchBackoff(0, 0, 3)
	if b.exhausted(3) || !b.exhausted(4) {
		t.Fatalf("want exhaustion strictly after 3 failures")
	}
}
