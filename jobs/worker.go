package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/remiges-tech/logharbour/logharbour"

	"github.com/pdoflow/pdoflow/jobs/pg/flowsqlc"
)

// Worker is one claim/execute loop. It competes with peer workers (in this
// process or on other machines) for waiting job records through the
// SKIP LOCKED claim query; all coordination happens through the database.
// The failure cache and blacklist are strictly local to one worker.
type Worker struct {
	d           *Dispatcher
	batchSize   int32
	poster      string
	idleSleep   time.Duration
	failures    *failureCache
	badPostings map[uuid.UUID]struct{}
	entryPoints map[uuid.UUID]string // posting id -> entry point, immutable once posted
}

// NewWorker creates a worker bound to this dispatcher. Each worker gets its
// own failure cache and blacklist; peers do not observe either until a
// blacklisting flips the posting's status in the database.
func (d *Dispatcher) NewWorker() *Worker {
	return &Worker{
		d:           d,
		batchSize:   int32(d.Config.BatchSize),
		poster:      d.Config.Poster,
		idleSleep:   d.Config.IdleSleep,
		failures:    newFailureCache(d.Config.FailureThreshold),
		badPostings: make(map[uuid.UUID]struct{}),
		entryPoints: make(map[uuid.UUID]string),
	}
}

// Run is the worker main loop: claim a batch, execute it, sleep when the
// queue is empty. It returns when the context is cancelled; any record left
// in 'executing' at that point is operator-driven cleanup, per the queue's
// at-least-once contract.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := w.RunOneIteration(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.d.Logger.Error(err).LogActivity("Worker iteration failed", nil)
		}
		if n == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.idleSleep):
			}
		}
	}
}

// RunOneIteration claims one batch of records and executes it. It returns
// the number of records claimed. Useful both for the Run loop and for tests.
func (w *Worker) RunOneIteration(ctx context.Context) (int, error) {
	records, err := w.claimBatch(ctx)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	w.d.Logger.Info().LogActivity("Worker claimed records", map[string]any{
		"count": len(records),
	})

	for _, rec := range records {
		if ctx.Err() != nil {
			// Interrupted mid-batch: remaining records stay in 'executing'
			// for the operator (or a reaper) to deal with.
			return len(records), ctx.Err()
		}
		w.processRecord(ctx, rec)
	}
	return len(records), nil
}

// claimBatch runs the claim protocol: select+lock a priority-ordered batch
// of waiting records, flip them to 'executing', and commit. The commit both
// releases the row locks and durably hands the rows to this worker; after
// it, peers can no longer claim them even though the locks are gone.
// Transient connection failures are retried with exponential backoff.
func (w *Worker) claimBatch(ctx context.Context) ([]flowsqlc.JobRecord, error) {
	const maxRetries = 3
	retryDelay := time.Second

	var records []flowsqlc.JobRecord
	for attempt := 0; ; attempt++ {
		var err error
		records, err = w.claimOnce(ctx)
		if err == nil {
			break
		}
		if attempt < maxRetries-1 && isConnectivityError(err) {
			w.d.Logger.Warn().LogActivity("Claim failed, retrying", map[string]any{
				"attempt": attempt + 1,
				"error":   err.Error(),
			})
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
			continue
		}
		return nil, err
	}
	return records, nil
}

func (w *Worker) claimOnce(ctx context.Context) ([]flowsqlc.JobRecord, error) {
	t0 := time.Now()
	tx, err := w.d.Db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txQueries := flowsqlc.New(tx)

	records, err := txQueries.ClaimJobRecords(ctx, flowsqlc.ClaimJobRecordsParams{
		Poster:    w.poster,
		Blacklist: w.blacklistIDs(),
		Batchsize: w.batchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("claim query failed: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	if err := txQueries.MarkRecordsExecuting(ctx, ids); err != nil {
		return nil, fmt.Errorf("failed to mark records executing: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	w.d.Logger.LogDataChange("Job records claimed", logharbour.ChangeInfo{
		Entity: "JobRecord",
		Op:     "StatusUpdated",
		Changes: []logharbour.ChangeDetail{
			{Field: "status", OldVal: flowsqlc.JobStatusEnumWaiting, NewVal: flowsqlc.JobStatusEnumExecuting},
		},
	})
	w.d.recordMetric(MetricJobsClaimed, float64(len(records)))
	w.d.recordMetric(MetricClaimSeconds, time.Since(t0).Seconds())
	return records, nil
}

func (w *Worker) blacklistIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(w.badPostings))
	for id := range w.badPostings {
		ids = append(ids, id)
	}
	return ids
}

// processRecord runs one claimed record through the execution lifecycle:
// blacklist check, work_started stamp, entry-point resolution, invocation,
// and outcome classification.
func (w *Worker) processRecord(ctx context.Context, rec flowsqlc.JobRecord) {
	if _, bad := w.badPostings[rec.PostingID]; bad {
		if err := w.d.Queries.MarkRecordBad(ctx, rec.ID); err != nil {
			w.d.Logger.Error(err).LogActivity("Failed to fail record of blacklisted posting", map[string]any{
				"recordId":  rec.ID.String(),
				"postingId": rec.PostingID.String(),
			})
		}
		w.d.recordMetric(MetricJobsFailed, 1)
		return
	}

	if err := w.d.Queries.StampWorkStarted(ctx, rec.ID); err != nil {
		w.d.Logger.Error(err).LogActivity("Failed to stamp work_started_on", map[string]any{
			"recordId": rec.ID.String(),
		})
	}

	t0 := time.Now()
	err := w.executeRecord(ctx, rec)
	if err == nil {
		if err := w.d.Queries.MarkRecordDone(ctx, rec.ID); err != nil {
			w.d.Logger.Error(err).LogActivity("Failed to mark record done", map[string]any{
				"recordId": rec.ID.String(),
			})
			return
		}
		w.d.Logger.Info().LogActivity("Executed job record", map[string]any{
			"recordId": rec.ID.String(),
			"seconds":  time.Since(t0).Seconds(),
		})
		w.d.recordMetric(MetricJobsDone, 1)
		return
	}

	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		// Operator interruption: commit nothing. The record stays in
		// 'executing'; the pool replaces the worker slot.
		w.d.Logger.Warn().LogActivity("Interrupted, releasing job", map[string]any{
			"recordId": rec.ID.String(),
		})
		return
	}

	if isConnectivityError(err) {
		w.d.Logger.Error(err).LogActivity("Database error during execution, backing off", map[string]any{
			"recordId": rec.ID.String(),
		})
		// Uniform back-off over [0, 2) seconds, then return the record
		// without consuming a try.
		sleepCtx(ctx, time.Duration(2*rand.Float64()*float64(time.Second)))
		if err := w.d.Queries.RevertRecordToWaiting(ctx, rec.ID); err != nil {
			w.d.Logger.Error(err).LogActivity("Failed to revert record to waiting", map[string]any{
				"recordId": rec.ID.String(),
			})
		}
		return
	}

	w.handleFailure(ctx, rec, err)
}

// executeRecord resolves the posting's entry point and invokes it with the
// record's arguments. A missing entry point, an argument decoding problem,
// a returned error, and a panic all count as execution failures.
func (w *Worker) executeRecord(ctx context.Context, rec flowsqlc.JobRecord) (err error) {
	entryPoint, ok := w.entryPoints[rec.PostingID]
	if !ok {
		posting, perr := w.d.Queries.GetPostingByID(ctx, rec.PostingID)
		if perr != nil {
			return fmt.Errorf("failed to load posting %s: %w", rec.PostingID, perr)
		}
		entryPoint = posting.EntryPoint
		w.entryPoints[rec.PostingID] = entryPoint
	}

	fn, ok := w.d.Registry.Resolve(entryPoint)
	if !ok {
		return &UnknownEntryPointError{EntryPoint: entryPoint}
	}

	var args []any
	if err := json.Unmarshal(rec.PositionalArguments, &args); err != nil {
		return fmt.Errorf("failed to decode positional arguments: %w", err)
	}
	kwargs := map[string]any{}
	if len(rec.KeywordArguments) > 0 {
		if err := json.Unmarshal(rec.KeywordArguments, &kwargs); err != nil {
			return fmt.Errorf("failed to decode keyword arguments: %w", err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx, args, kwargs)
}

// handleFailure applies the per-worker failure accounting to a non-transient
// execution failure: consume a try, fail the record terminally, or give up
// on the whole posting. The blacklist is local; flipping the posting status
// to 'errored_out' is the cross-worker signal.
func (w *Worker) handleFailure(ctx context.Context, rec flowsqlc.JobRecord, execErr error) {
	w.d.Logger.Warn().LogActivity("Worker encountered execution failure", map[string]any{
		"recordId":  rec.ID.String(),
		"postingId": rec.PostingID.String(),
		"error":     execErr.Error(),
	})
	w.d.recordMetric(MetricJobsFailed, 1)

	remaining := w.failures.Remaining(rec.PostingID)

	if remaining <= 0 {
		w.d.Logger.Warn().LogActivity("Posting deemed too erroneous to continue", map[string]any{
			"postingId": rec.PostingID.String(),
		})
		w.badPostings[rec.PostingID] = struct{}{}
		if err := w.d.Queries.UpdatePostingStatus(ctx, flowsqlc.UpdatePostingStatusParams{
			ID:     rec.PostingID,
			Status: flowsqlc.PostingStatusEnumErroredOut,
		}); err != nil {
			w.d.Logger.Error(err).LogActivity("Failed to error out posting", map[string]any{
				"postingId": rec.PostingID.String(),
			})
		}
		w.d.cachePostingStatus(rec.PostingID, flowsqlc.PostingStatusEnumErroredOut)
		if err := w.d.Queries.MarkRecordBad(ctx, rec.ID); err != nil {
			w.d.Logger.Error(err).LogActivity("Failed to fail record terminally", map[string]any{
				"recordId": rec.ID.String(),
			})
		}
		w.failures.Decrement(rec.PostingID)
		w.d.recordMetric(MetricPostingsBlacklisted, 1)
		return
	}

	if rec.TriesRemaining <= 1 {
		w.d.Logger.Warn().LogActivity("Record deemed too erroneous to try again", map[string]any{
			"recordId": rec.ID.String(),
		})
		if err := w.d.Queries.MarkRecordBad(ctx, rec.ID); err != nil {
			w.d.Logger.Error(err).LogActivity("Failed to fail record terminally", map[string]any{
				"recordId": rec.ID.String(),
			})
		}
		w.failures.Decrement(rec.PostingID)
		return
	}

	w.d.Logger.Warn().LogActivity("Returning record to queue", map[string]any{
		"recordId":       rec.ID.String(),
		"triesRemaining": rec.TriesRemaining - 1,
	})
	if err := w.d.Queries.ReturnRecordToWaiting(ctx, rec.ID); err != nil {
		w.d.Logger.Error(err).LogActivity("Failed to return record to waiting", map[string]any{
			"recordId": rec.ID.String(),
		})
	}
}

// isConnectivityError reports whether err looks like a transient database
// connectivity fault rather than a user-code or data problem.
func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if pgconn.Timeout(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
