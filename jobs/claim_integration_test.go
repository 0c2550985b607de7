package jobs

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdoflow/pdoflow/jobs/pg/flowsqlc"
)

// TestClaimOrdersByPriority posts records with mixed priorities and claims
// them in two batches: the higher priorities must come out first, ties
// broken by insertion order.
func TestClaimOrdersByPriority(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}
	ctx := context.Background()
	pool := startTestDatabase(t)
	d := newTestDispatcher(t, pool, nil, &DispatcherConfig{BatchSize: 3})

	require.NoError(t, d.Registry.Register("test.claim.noop", func(ctx context.Context, args []any, kwargs map[string]any) error {
		return nil
	}))

	_, err := d.PostWork(ctx, "test.claim.noop", []WorkUnit{
		{Args: []any{"low-1"}, Priority: 1},
		{Args: []any{"high-1"}, Priority: 9},
		{Args: []any{"mid"}, Priority: 5},
		{Args: []any{"low-2"}, Priority: 1},
		{Args: []any{"high-2"}, Priority: 9},
	}, nil)
	require.NoError(t, err)

	w := d.NewWorker()

	first, err := w.claimBatch(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, []int32{9, 9, 5}, priorities(first))

	second, err := w.claimBatch(ctx)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, []int32{1, 1}, priorities(second))
}

func priorities(records []flowsqlc.JobRecord) []int32 {
	out := make([]int32, len(records))
	for i, rec := range records {
		out[i] = rec.Priority
	}
	return out
}

// TestConcurrentClaimsAreDisjoint has several workers claim from the same
// posting at once. SKIP LOCKED must hand every record to exactly one worker.
func TestConcurrentClaimsAreDisjoint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}
	const (
		numWorkers = 4
		numRecords = 40
	)
	ctx := context.Background()
	pool := startTestDatabase(t)
	d := newTestDispatcher(t, pool, nil, &DispatcherConfig{BatchSize: 10})

	require.NoError(t, d.Registry.Register("test.claim.noop", func(ctx context.Context, args []any, kwargs map[string]any) error {
		return nil
	}))

	units := make([]WorkUnit, numRecords)
	for i := range units {
		units[i] = WorkUnit{Args: []any{i}}
	}
	_, err := d.PostWork(ctx, "test.claim.noop", units, nil)
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		claimed = make(map[uuid.UUID]int)
		wg      sync.WaitGroup
	)
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := d.NewWorker()
			for {
				records, err := w.claimBatch(ctx)
				assert.NoError(t, err)
				if len(records) == 0 {
					return
				}
				mu.Lock()
				for _, rec := range records {
					claimed[rec.ID]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, claimed, numRecords, "every record should be claimed")
	for id, n := range claimed {
		assert.Equal(t, 1, n, "record %s claimed %d times", id, n)
	}
}

// TestClaimSkipsPausedPostings verifies that records of a paused posting
// are invisible to the claim query until the posting resumes.
func TestClaimSkipsPausedPostings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}
	ctx := context.Background()
	pool := startTestDatabase(t)
	d := newTestDispatcher(t, pool, nil, nil)

	require.NoError(t, d.Registry.Register("test.claim.noop", func(ctx context.Context, args []any, kwargs map[string]any) error {
		return nil
	}))

	postingID, err := d.PostWork(ctx, "test.claim.noop", []WorkUnit{{}},
		&PostingOptions{Paused: true})
	require.NoError(t, err)

	w := d.NewWorker()
	records, err := w.claimBatch(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, d.ResumePosting(ctx, postingID))

	records, err = w.claimBatch(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

// TestClaimHonorsPosterFilter checks that a worker configured with a poster
// only claims that submitter's records, and an unfiltered worker claims any.
func TestClaimHonorsPosterFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}
	ctx := context.Background()
	pool := startTestDatabase(t)
	d := newTestDispatcher(t, pool, nil, nil)

	require.NoError(t, d.Registry.Register("test.claim.noop", func(ctx context.Context, args []any, kwargs map[string]any) error {
		return nil
	}))

	_, err := d.PostWork(ctx, "test.claim.noop", []WorkUnit{{}},
		&PostingOptions{Poster: "alice"})
	require.NoError(t, err)
	_, err = d.PostWork(ctx, "test.claim.noop", []WorkUnit{{}},
		&PostingOptions{Poster: "bob"})
	require.NoError(t, err)

	d.Config.Poster = "alice"
	aliceWorker := d.NewWorker()
	records, err := aliceWorker.claimBatch(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	d.Config.Poster = "carol"
	carolWorker := d.NewWorker()
	records, err = carolWorker.claimBatch(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	d.Config.Poster = ""
	anyWorker := d.NewWorker()
	records, err = anyWorker.claimBatch(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1, "unfiltered worker picks up bob's record")
}
