package consumer

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestPayloadFormatter_Truncates(t *testing.T) {
	f := PayloadFormatter{Width: func() int { return 60 }}
	body := strings.Repeat("x", 100)

	got := f.Format(body)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("want ellipsis, got %q", got)
	}
	// 60-20 колонок, из них 10 уходят под запас
	if w := runewidth.StringWidth(got); w != 33 {
		t.Fatalf("want width 33, got %d (%q)", w, got)
	}
}

func TestPayloadFormatter_ShortBodyUntouched(t *testing.T) {
	f := PayloadFormatter{Width: func() int { return 80 }}
	if got := f.Format("hello"); got != "hello" {
		t.Fatalf("want untouched body, got %q", got)
	}
}

func TestPayloadFormatter_Full(t *testing.T) {
	body := strings.Repeat("y", 500)
	f := PayloadFormatter{Full: true, Width: func() int { return 40 }}
	if got := f.Format(body); got != body {
		t.Fatalf("full mode must not truncate")
	}
}

func TestPayloadFormatter_WideRunes(t *testing.T) {
	f := PayloadFormatter{Width: func() int { return 30 }}
	got := f.Format(strings.Repeat("界", 20))
	if w := runewidth.StringWidth(got); w > 10 {
		t.Fatalf("wide runes must be measured in cells, got width %d", w)
	}
}
