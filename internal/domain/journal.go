package domain

import "time"

// JournalEntry — запись журнала обработанных сообщений (пишется пачками по FLUSH).
type JournalEntry struct {
	Queue      string
	MessageID  string
	BodySize   int
	Duration   time.Duration
	ConsumedAt time.Time
}
