package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/remiges-tech/logharbour/logharbour"

	"github.com/pdoflow/pdoflow/jobs/pg/flowsqlc"
	"github.com/pdoflow/pdoflow/metrics"
)

// Error types for submission and polling failures.
var (
	ErrUnknownEntryPoint           = errors.New("entry point not present in the local registry")
	ErrEntryPointAlreadyRegistered = errors.New("entry point already registered")
	ErrPostingNotFound             = errors.New("job posting not found")
	ErrJobRecordNotFound           = errors.New("job record not found")
	ErrAwaitTimeout                = errors.New("timed out waiting on job posting")
)

// UnknownEntryPointError wraps ErrUnknownEntryPoint with the offending path.
// Workers treat it as a user-code failure: the record consumes a try and
// eventually errors out, because no peer can resolve a path that was never
// compiled into the binary either.
type UnknownEntryPointError struct {
	EntryPoint string
}

func (e UnknownEntryPointError) Error() string {
	return fmt.Sprintf("no function registered for entry point %q", e.EntryPoint)
}

func (e UnknownEntryPointError) Unwrap() error {
	return ErrUnknownEntryPoint
}

const PDOFLOW_BATCHSIZE = 10
const PDOFLOW_FAILURE_THRESHOLD = 10
const PDOFLOW_IDLE_SLEEP_SEC = 5
const PDOFLOW_STATUSCACHE_DUR_SEC = 60

// DispatcherConfig holds tunables shared by workers spawned from one Dispatcher.
type DispatcherConfig struct {
	BatchSize           int           // rows claimed per claim query
	FailureThreshold    int           // tolerated failures per posting before a worker blacklists it
	IdleSleep           time.Duration // worker sleep when a claim comes back empty
	StatusCacheDurSec   int           // seconds to cache posting status in Redis
	Poster              string        // poster filter on claim; empty serves any submitter
	DefaultTries        int32         // tries_remaining assigned to submitted jobs that don't specify one
}

// Dispatcher is the process-wide handle on a PDOFlow deployment: it owns the
// database pool, the generated query layer, the entry-point registry, and the
// optional Redis status cache. Workers, pools, pollers, and submissions all
// hang off one Dispatcher.
type Dispatcher struct {
	Db          *pgxpool.Pool
	Queries     flowsqlc.Querier
	RedisClient *redis.Client
	Registry    *Registry
	Logger      *logharbour.Logger
	Metrics     metrics.Metrics
	Config      DispatcherConfig
}

// NewDispatcher creates a new Dispatcher. Zero-value config fields are
// replaced with package defaults. The registry may be nil, in which case the
// process-wide DefaultRegistry is used.
func NewDispatcher(db *pgxpool.Pool, redisClient *redis.Client, registry *Registry, logger *logharbour.Logger, config *DispatcherConfig) *Dispatcher {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if config == nil {
		config = &DispatcherConfig{}
	}
	if config.BatchSize == 0 {
		config.BatchSize = PDOFLOW_BATCHSIZE
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = PDOFLOW_FAILURE_THRESHOLD
	}
	if config.IdleSleep == 0 {
		config.IdleSleep = PDOFLOW_IDLE_SLEEP_SEC * time.Second
	}
	if config.StatusCacheDurSec == 0 {
		config.StatusCacheDurSec = PDOFLOW_STATUSCACHE_DUR_SEC
	}
	if config.Poster == "" {
		config.Poster = currentUser()
	}
	if config.DefaultTries == 0 {
		config.DefaultTries = 3
	}
	if registry == nil {
		registry = DefaultRegistry
	}

	return &Dispatcher{
		Db:          db,
		Queries:     flowsqlc.New(db),
		RedisClient: redisClient,
		Registry:    registry,
		Logger:      logger,
		Config:      *config,
	}
}
