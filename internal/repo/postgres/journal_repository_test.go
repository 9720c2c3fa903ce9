package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type fakeCopier struct {
	calls int
	table pgx.Identifier
	cols  []string
	rows  [][]any
	err   error
}

func (f *fakeCopier) CopyFrom(_ context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	f.calls++
	f.table, f.cols = table, cols
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.rows = append(f.rows, vals)
	}
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.rows)), nil
}

func TestJournalRepository_WriteBatch(t *testing.T) {
	db := &fakeCopier{}
	repo := NewJournalRepository(db)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	err := repo.WriteBatch(context.Background(), []domain.JournalEntry{
		{Queue: "orders", MessageID: "m-1", BodySize: 7, Duration: 1500 * time.Microsecond, ConsumedAt: at},
		{Queue: "orders", MessageID: "m-2", BodySize: 0, Duration: 0, ConsumedAt: at},
	})
	require.NoError(t, err)

	require.Equal(t, pgx.Identifier{"consumed_messages"}, db.table)
	require.Equal(t, journalColumns, db.cols)
	require.Len(t, db.rows, 2)
	require.Equal(t, []any{"orders", "m-1", int32(7), int64(1500), at.UTC()}, db.rows[0])
}

func TestJournalRepository_EmptyBatchSkipsCopy(t *testing.T) {
	db := &fakeCopier{}
	require.NoError(t, NewJournalRepository(db).WriteBatch(context.Background(), nil))
	require.Zero(t, db.calls)
}

func TestJournalRepository_CopyError(t *testing.T) {
	boom := errors.New("conn reset")
	db := &fakeCopier{err: boom}
	err := NewJournalRepository(db).WriteBatch(context.Background(), []domain.JournalEntry{{Queue: "q", MessageID: "m"}})
	require.ErrorIs(t, err, boom)
}
