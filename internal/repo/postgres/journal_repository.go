package postgres

import (
	"context"
	"fmt"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/jackc/pgx/v5"
)

// Проверка, что JournalRepository удовлетворяет интерфейсу JournalWriter.
var _ ports.JournalWriter = (*JournalRepository)(nil)

var journalColumns = []string{"queue", "message_id", "body_size", "duration_us", "consumed_at"}

// copier — часть pgxpool.Pool, которой достаточно журналу.
type copier interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// JournalRepository — журнал обработанных сообщений на Postgres.
// Пачка уходит одним COPY.
type JournalRepository struct {
	db copier
}

// NewJournalRepository - конструктор JournalRepository (принимает *pgxpool.Pool).
func NewJournalRepository(db copier) *JournalRepository { return &JournalRepository{db: db} }

// WriteBatch — записывает пачку. Пустая пачка в БД не идёт.
func (r *JournalRepository) WriteBatch(ctx context.Context, entries []domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			e.Queue,
			e.MessageID,
			int32(e.BodySize),
			e.Duration.Microseconds(),
			e.ConsumedAt.UTC(),
		})
	}

	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"consumed_messages"}, journalColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy journal: %w", err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copy journal: wrote %d of %d rows", n, len(rows))
	}
	return nil
}
