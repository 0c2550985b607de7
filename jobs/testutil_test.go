package jobs

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/remiges-tech/logharbour/logharbour"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startTestDatabase spins up a throwaway PostgreSQL container, runs the
// migrations, and returns a connection pool. Cleanup is registered on t.
func startTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := pgx.Connect(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, MigrateDatabase(ctx, conn))
	conn.Close(ctx)

	pool, err := NewPool(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// startTestRedis runs an in-process miniredis and returns a client for it.
func startTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func newTestLogger() *logharbour.Logger {
	loggerCtx := &logharbour.LoggerContext{}
	return logharbour.NewLogger(loggerCtx, "test", log.Writer())
}

// newTestDispatcher builds a Dispatcher on the given pool with an empty
// poster filter so workers claim regardless of who submitted.
func newTestDispatcher(t *testing.T, pool *pgxpool.Pool, redisClient *redis.Client, config *DispatcherConfig) *Dispatcher {
	t.Helper()
	if config == nil {
		config = &DispatcherConfig{}
	}
	d := NewDispatcher(pool, redisClient, NewRegistry(), newTestLogger(), config)
	d.Config.Poster = ""
	return d
}
