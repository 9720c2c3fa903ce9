package inflight_test

import (
	"errors"
	"testing"

	"github.com/Gunvolt24/queue-consumer/internal/transport/inflight"
)

func TestTable_TakeOnce(t *testing.T) {
	tbl := inflight.New[int]()
	tbl.Put("a", 7)

	if tbl.Len() != 1 {
		t.Fatalf("want 1 in flight, got %d", tbl.Len())
	}
	v, err := tbl.Take("a")
	if err != nil || v != 7 {
		t.Fatalf("want 7, got %d err=%v", v, err)
	}
	if _, err := tbl.Take("a"); !errors.Is(err, inflight.ErrUnknownMessage) {
		t.Fatalf("second take must fail, got %v", err)
	}
}
