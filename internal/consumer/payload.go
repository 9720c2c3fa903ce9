package consumer

import "github.com/mattn/go-runewidth"

const (
	// payloadOffset — колонки под префикс строки "[id] Processing payload".
	payloadOffset = 20
	// payloadKeep — насколько короче ширины обрезается тело (место под "...").
	payloadKeep = 10
)

// PayloadFormatter — вывод тела сообщения в диагностике.
// Full — тело целиком (-vv); иначе усечение по ширине терминала.
type PayloadFormatter struct {
	Full  bool
	Width func() int
}

func (p PayloadFormatter) Format(body string) string {
	if p.Full || p.Width == nil {
		return body
	}
	width := p.Width() - payloadOffset
	if width <= 0 || runewidth.StringWidth(body) <= width {
		return body
	}
	keep := width - payloadKeep
	if keep < 0 {
		keep = 0
	}
	return runewidth.Truncate(body, keep+3, "...")
}
