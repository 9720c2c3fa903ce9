package domain_test

import (
	"testing"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
)

func TestNewMessage_CopiesMetadata(t *testing.T) {
	meta := map[string]any{"attempt": 1}
	msg := domain.NewMessage("m-1", "payload", meta)

	// изменение исходной карты не должно влиять на сообщение
	meta["attempt"] = 2
	if v, _ := msg.Meta("attempt"); v != 1 {
		t.Fatalf("metadata leaked from caller: got %v", v)
	}

	// изменение возвращённой копии тоже
	got := msg.Metadata()
	got["attempt"] = 3
	if v, _ := msg.Meta("attempt"); v != 1 {
		t.Fatalf("metadata leaked from accessor: got %v", v)
	}
}

func TestMessage_Accessors(t *testing.T) {
	msg := domain.NewMessage("m-2", "body", nil)
	if msg.ID() != "m-2" || msg.Body() != "body" {
		t.Fatalf("unexpected message: id=%q body=%q", msg.ID(), msg.Body())
	}
	if _, ok := msg.Meta("missing"); ok {
		t.Fatalf("missing key must not be found")
	}
	if msg.IsZero() {
		t.Fatalf("message with id must not be zero")
	}
	if !(domain.Message{}).IsZero() {
		t.Fatalf("empty message must be zero")
	}
}
