package ports

import (
	"context"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
)

// JournalWriter — пакетная запись журнала обработанных сообщений.
type JournalWriter interface {
	WriteBatch(ctx context.Context, entries []domain.JournalEntry) error
}
