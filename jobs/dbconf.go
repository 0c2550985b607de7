package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConfigured indicates the POSTGRES_* environment is absent. Callers
// that can run without a database (CLI help paths, library consumers with
// their own pool) check for it with errors.Is.
var ErrNotConfigured = errors.New("database not configured: POSTGRES_HOST is not set")

// ConnStringFromEnv assembles a PostgreSQL connection URL from the
// POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER and
// POSTGRES_PASSWORD environment variables. Only the host is mandatory;
// port, database and user default to 5432/postgres/postgres.
func ConnStringFromEnv() (string, error) {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return "", ErrNotConfigured
	}

	port := envOr("POSTGRES_PORT", "5432")
	db := envOr("POSTGRES_DB", "postgres")
	user := envOr("POSTGRES_USER", "postgres")
	password := os.Getenv("POSTGRES_PASSWORD")

	u := url.URL{
		Scheme: "postgres",
		Host:   host + ":" + port,
		Path:   "/" + db,
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	return u.String(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewPoolFromEnv opens a guarded connection pool against the POSTGRES_*
// environment.
func NewPoolFromEnv(ctx context.Context) (*pgxpool.Pool, error) {
	connString, err := ConnStringFromEnv()
	if err != nil {
		return nil, err
	}
	pool, err := NewPool(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", os.Getenv("POSTGRES_HOST"), err)
	}
	return pool, nil
}
