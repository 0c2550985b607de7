package jobs

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// connOwners records which process opened each pooled connection. A child
// process created by fork inherits its parent's sockets; using one from the
// child interleaves wire protocol traffic from two processes on a single
// TCP stream and corrupts both sessions. The guard detects the pid change
// and destroys the inherited connection instead of handing it out.
var connOwners sync.Map // *pgx.Conn -> int (owning pid)

// NewPool opens a pgx connection pool whose connections refuse to be used
// from a process other than the one that opened them.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	installProcessGuards(cfg)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

// installProcessGuards wires the ownership hooks into a pool config.
func installProcessGuards(cfg *pgxpool.Config) {
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		connOwners.Store(conn, os.Getpid())
		return nil
	}
	cfg.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		owner, ok := connOwners.Load(conn)
		// Returning false makes the pool destroy the connection and
		// acquire a fresh one, which the current process then owns.
		return ok && owner.(int) == os.Getpid()
	}
	cfg.BeforeClose = func(conn *pgx.Conn) {
		connOwners.Delete(conn)
	}
}
