package jobs

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProcessGuardHooks drives the pool ownership hooks directly: a
// connection opened by this process is handed out, a connection owned by
// another pid (the state a forked child finds itself in) is rejected, and
// closing forgets the ownership entry.
func TestProcessGuardHooks(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://guard@localhost:5432/guard")
	require.NoError(t, err)
	installProcessGuards(cfg)

	ctx := context.Background()
	conn := &pgx.Conn{}
	defer connOwners.Delete(conn)

	// A connection with no recorded owner is never handed out.
	assert.False(t, cfg.BeforeAcquire(ctx, conn))

	require.NoError(t, cfg.AfterConnect(ctx, conn))
	assert.True(t, cfg.BeforeAcquire(ctx, conn))

	// A forked child inherits connections recorded under the parent's pid.
	connOwners.Store(conn, os.Getpid()+1)
	assert.False(t, cfg.BeforeAcquire(ctx, conn))

	cfg.BeforeClose(conn)
	_, ok := connOwners.Load(conn)
	assert.False(t, ok)
}
