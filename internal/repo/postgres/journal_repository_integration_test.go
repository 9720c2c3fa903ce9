//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	pgrepo "github.com/Gunvolt24/queue-consumer/internal/repo/postgres"
	"github.com/Gunvolt24/queue-consumer/internal/testutil"
)

func TestJournal_MigrateAndWriteBatch_TC(t *testing.T) {
	t.Parallel()

	pg := testutil.StartJournalDB(t)

	ctxTest, cancelTest := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelTest()

	require.NoError(t, pgrepo.Migrate(ctxTest, pg.Pool))
	// повторный прогон миграций — без изменений и без ошибок
	require.NoError(t, pgrepo.Migrate(ctxTest, pg.Pool))

	repo := pgrepo.NewJournalRepository(pg.Pool)
	now := time.Now().UTC().Truncate(time.Microsecond)
	entries := []domain.JournalEntry{
		{Queue: "orders", MessageID: "m-1", BodySize: 10, Duration: 2 * time.Millisecond, ConsumedAt: now},
		{Queue: "orders", MessageID: "m-2", BodySize: 20, Duration: 3 * time.Millisecond, ConsumedAt: now},
		{Queue: "billing", MessageID: "m-3", BodySize: 30, Duration: time.Millisecond, ConsumedAt: now},
	}
	require.NoError(t, repo.WriteBatch(ctxTest, entries))

	var count int
	require.NoError(t, pg.Pool.QueryRow(ctxTest,
		`SELECT count(*) FROM consumed_messages WHERE queue = $1`, "orders").Scan(&count))
	require.Equal(t, 2, count)

	var durUS int64
	require.NoError(t, pg.Pool.QueryRow(ctxTest,
		`SELECT duration_us FROM consumed_messages WHERE message_id = $1`, "m-2").Scan(&durUS))
	require.Equal(t, int64(3000), durUS)
}
