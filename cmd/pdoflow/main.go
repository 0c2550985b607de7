package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"github.com/remiges-tech/logharbour/logharbour"
	"github.com/spf13/cobra"

	"github.com/pdoflow/pdoflow/jobs"
)

var verbose bool

const pollInterval = time.Second

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "pdoflow",
		Short: "Operate a PDOFlow job queue backed by PostgreSQL",
		Long: `pdoflow drives a PostgreSQL-backed distributed job queue: run worker
pools, submit and inspect postings, and manage the schema.

Database access is configured through the POSTGRES_HOST, POSTGRES_PORT,
POSTGRES_DB, POSTGRES_USER and POSTGRES_PASSWORD environment variables.
Set REDIS_ADDR to enable the posting status cache.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug detail")

	rootCmd.AddCommand(poolCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(histogramCmd())
	rootCmd.AddCommand(runJobCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger() *logharbour.Logger {
	priority := logharbour.Info
	if verbose {
		priority = logharbour.Debug0
	}
	lctx := logharbour.NewLoggerContext(priority)
	return logharbour.NewLogger(lctx, "pdoflow", os.Stdout)
}

// openDispatcher wires a Dispatcher from the environment. The caller owns
// the returned pool and must Close it.
func openDispatcher(ctx context.Context) (*jobs.Dispatcher, func(), error) {
	pool, err := jobs.NewPoolFromEnv(ctx)
	if err != nil {
		return nil, nil, err
	}

	var redisClient *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
	}

	d := jobs.NewDispatcher(pool, redisClient, nil, newLogger(), nil)
	cleanup := func() {
		if redisClient != nil {
			redisClient.Close()
		}
		pool.Close()
	}
	return d, cleanup, nil
}
