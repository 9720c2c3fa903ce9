//go:build integration

// Package testutil — окружение интеграционных тестов потребителя:
// Postgres для журнала обработанных сообщений и Redpanda как Kafka-брокер.
package testutil

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	redpandaImage = "docker.redpanda.com/redpandadata/redpanda:v23.3.8"
	startTimeout  = 2 * time.Minute
)

var tcLog = log.New(os.Stdout, "[itest] ", log.LstdFlags)

// lifecycle — одна строка в лог на каждый этап жизни контейнера.
func lifecycle(name string) tc.ContainerLifecycleHooks {
	step := func(stage string) tc.ContainerHook {
		return func(_ context.Context, c tc.Container) error {
			id := c.GetContainerID()
			if len(id) > 12 {
				id = id[:12]
			}
			tcLog.Printf("%s %s id=%s", name, stage, id)
			return nil
		}
	}
	return tc.ContainerLifecycleHooks{
		PostStarts:     []tc.ContainerHook{step("started")},
		PostReadies:    []tc.ContainerHook{step("ready")},
		PostTerminates: []tc.ContainerHook{step("terminated")},
	}
}

// JournalDB — пустая БД журнала; схему создаёт Migrate.
type JournalDB struct {
	Pool *pgxpool.Pool
	DSN  string
}

// StartJournalDB — контейнер Postgres на время теста, останавливается в t.Cleanup.
func StartJournalDB(t testing.TB) *JournalDB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	pg, err := postgres.Run(ctx, postgresImage,
		tc.WithLifecycleHooks(lifecycle("postgres")),
		postgres.WithDatabase("journal"),
		postgres.WithUsername("consumer"),
		postgres.WithPassword("consumer"),
		tc.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(time.Minute),
		),
	)
	require.NoError(t, err, "run postgres")
	t.Cleanup(func() { _ = tc.TerminateContainer(pg) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres dsn")

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err, "parse dsn")
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err, "journal pool")
	t.Cleanup(pool.Close)

	return &JournalDB{Pool: pool, DSN: dsn}
}

// Broker — Kafka-совместимый брокер с автосозданием топиков.
type Broker struct {
	Addr string
}

// StartBroker — контейнер Redpanda на время теста.
func StartBroker(t testing.TB) *Broker {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	rp, err := redpanda.Run(ctx, redpandaImage,
		tc.WithLifecycleHooks(lifecycle("redpanda")),
		redpanda.WithAutoCreateTopics(),
	)
	require.NoError(t, err, "run redpanda")
	t.Cleanup(func() { _ = tc.TerminateContainer(rp) })

	addr, err := rp.KafkaSeedBroker(ctx)
	require.NoError(t, err, "seed broker")

	return &Broker{Addr: addr}
}
