package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdoflow/pdoflow/jobs/pg/flowsqlc"
)

// TestWorkerExecutesSingleJob posts one job and runs a single worker
// iteration: the record must come back done with exited_ok set and a
// completion timestamp.
func TestWorkerExecutesSingleJob(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}
	ctx := context.Background()
	pool := startTestDatabase(t)
	d := newTestDispatcher(t, pool, nil, nil)

	var got atomic.Int64
	require.NoError(t, d.Registry.Register("test.work.add", func(ctx context.Context, args []any, kwargs map[string]any) error {
		// JSON numbers decode as float64.
		got.Store(int64(args[0].(float64)) + int64(args[1].(float64)))
		return nil
	}))

	postingID, err := d.PostWork(ctx, "test.work.add", []WorkUnit{
		{Args: []any{2, 3}},
	}, nil)
	require.NoError(t, err)

	w := d.NewWorker()
	n, err := w.RunOneIteration(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(5), got.Load())

	records, err := d.Queries.GetPostingRecords(ctx, postingID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, flowsqlc.JobStatusEnumDone, records[0].Status)
	assert.True(t, records[0].ExitedOk.Bool)
	assert.True(t, records[0].WorkStartedOn.Valid)
	assert.True(t, records[0].CompletedOn.Valid)
}

// TestWorkerRetriesFailingJob submits a job that always fails with 3 tries.
// Each failed execution consumes one try and returns the record to the
// queue; after the third failure the record errors out terminally.
func TestWorkerRetriesFailingJob(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}
	ctx := context.Background()
	pool := startTestDatabase(t)
	d := newTestDispatcher(t, pool, nil, nil)

	var attempts atomic.Int64
	require.NoError(t, d.Registry.Register("test.work.alwaysfail", func(ctx context.Context, args []any, kwargs map[string]any) error {
		attempts.Add(1)
		return errors.New("deterministic failure")
	}))

	postingID, err := d.PostWork(ctx, "test.work.alwaysfail", []WorkUnit{
		{Tries: 3},
	}, nil)
	require.NoError(t, err)

	w := d.NewWorker()

	// First two iterations consume a try each and requeue the record.
	for i := 1; i <= 2; i++ {
		n, err := w.RunOneIteration(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		records, err := d.Queries.GetPostingRecords(ctx, postingID)
		require.NoError(t, err)
		assert.Equal(t, flowsqlc.JobStatusEnumWaiting, records[0].Status)
		assert.Equal(t, int32(3-i), records[0].TriesRemaining)
	}

	// Third failure is terminal.
	n, err := w.RunOneIteration(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, int64(3), attempts.Load())

	records, err := d.Queries.GetPostingRecords(ctx, postingID)
	require.NoError(t, err)
	assert.Equal(t, flowsqlc.JobStatusEnumErroredOut, records[0].Status)
	assert.Equal(t, int32(0), records[0].TriesRemaining)
	assert.False(t, records[0].ExitedOk.Bool)

	// A further iteration has nothing left to claim.
	n, err = w.RunOneIteration(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// TestWorkerBlacklistsErroneousPosting runs a posting that fails constantly
// against a failure threshold of 2. Once the threshold is exhausted the
// worker errors out the whole posting and fails its remaining records
// without executing them.
func TestWorkerBlacklistsErroneousPosting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}
	ctx := context.Background()
	pool := startTestDatabase(t)
	d := newTestDispatcher(t, pool, nil, &DispatcherConfig{
		FailureThreshold: 2,
		BatchSize:        1,
	})

	var attempts atomic.Int64
	require.NoError(t, d.Registry.Register("test.work.poison", func(ctx context.Context, args []any, kwargs map[string]any) error {
		attempts.Add(1)
		return errors.New("poisoned posting")
	}))

	units := make([]WorkUnit, 10)
	for i := range units {
		units[i] = WorkUnit{Tries: 1}
	}
	postingID, err := d.PostWork(ctx, "test.work.poison", units, nil)
	require.NoError(t, err)

	w := d.NewWorker()
	for i := 0; i < 20; i++ {
		n, err := w.RunOneIteration(ctx)
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}

	// Threshold 2 and one-try jobs: two executions consume the tolerance,
	// the third claim hits remaining <= 0 and blacklists the posting.
	assert.LessOrEqual(t, attempts.Load(), int64(3))

	posting, err := d.Queries.GetPostingByID(ctx, postingID)
	require.NoError(t, err)
	assert.Equal(t, flowsqlc.PostingStatusEnumErroredOut, posting.Status)

	// The blacklist is worker-local, so this worker claims nothing more
	// even though waiting records may remain.
	n, err := w.RunOneIteration(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// TestWorkerRevertsOnConnectivityError drops the database connection (from
// the job's point of view) during the first execution. The record must go
// back to waiting with its tries untouched, then succeed on the next claim.
func TestWorkerRevertsOnConnectivityError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}
	ctx := context.Background()
	pool := startTestDatabase(t)
	d := newTestDispatcher(t, pool, nil, nil)

	var attempts atomic.Int64
	require.NoError(t, d.Registry.Register("test.work.flaky", func(ctx context.Context, args []any, kwargs map[string]any) error {
		if attempts.Add(1) == 1 {
			return fmt.Errorf("store result: %w", syscall.ECONNRESET)
		}
		return nil
	}))

	postingID, err := d.PostWork(ctx, "test.work.flaky", []WorkUnit{{Tries: 3}}, nil)
	require.NoError(t, err)

	// The first iteration hits the connectivity fault; the worker backs off
	// (up to two seconds) and reverts the record rather than retrying it.
	w := d.NewWorker()
	n, err := w.RunOneIteration(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	records, err := d.Queries.GetPostingRecords(ctx, postingID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, flowsqlc.JobStatusEnumWaiting, records[0].Status)
	assert.Equal(t, int32(3), records[0].TriesRemaining, "a connectivity fault must not consume a try")
	assert.False(t, records[0].WorkStartedOn.Valid, "revert clears the work_started_on stamp")

	// The record is claimable again and completes normally.
	n, err = w.RunOneIteration(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, int64(2), attempts.Load())

	records, err = d.Queries.GetPostingRecords(ctx, postingID)
	require.NoError(t, err)
	assert.Equal(t, flowsqlc.JobStatusEnumDone, records[0].Status)
	assert.Equal(t, int32(3), records[0].TriesRemaining)
}

// TestWorkerFailsUnknownEntryPoint exercises a record whose entry point is
// not registered on the executing side: the record consumes tries like any
// other failure.
func TestWorkerFailsUnknownEntryPoint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}
	ctx := context.Background()
	pool := startTestDatabase(t)
	d := newTestDispatcher(t, pool, nil, nil)

	require.NoError(t, d.Registry.Register("test.work.transient", func(ctx context.Context, args []any, kwargs map[string]any) error {
		return nil
	}))

	postingID, err := d.PostWork(ctx, "test.work.transient", []WorkUnit{{Tries: 1}}, nil)
	require.NoError(t, err)

	// Simulate a worker process that never linked this entry point.
	d.Registry.Clear()

	w := d.NewWorker()
	n, err := w.RunOneIteration(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	records, err := d.Queries.GetPostingRecords(ctx, postingID)
	require.NoError(t, err)
	assert.Equal(t, flowsqlc.JobStatusEnumErroredOut, records[0].Status)
}

// TestWorkerRecoversFromPanic makes sure a panicking job function is treated
// as a failure instead of killing the worker.
func TestWorkerRecoversFromPanic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}
	ctx := context.Background()
	pool := startTestDatabase(t)
	d := newTestDispatcher(t, pool, nil, nil)

	require.NoError(t, d.Registry.Register("test.work.panics", func(ctx context.Context, args []any, kwargs map[string]any) error {
		panic("boom")
	}))

	postingID, err := d.PostWork(ctx, "test.work.panics", []WorkUnit{{Tries: 1}}, nil)
	require.NoError(t, err)

	w := d.NewWorker()
	n, err := w.RunOneIteration(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	records, err := d.Queries.GetPostingRecords(ctx, postingID)
	require.NoError(t, err)
	assert.Equal(t, flowsqlc.JobStatusEnumErroredOut, records[0].Status)
}
