package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pdoflow/pdoflow/jobs/pg/flowsqlc"
)

// PostingProgress is one sample of a posting's completion state. Done counts
// records in a terminal status, successful or not.
type PostingProgress struct {
	QueryTime time.Time
	Total     int64
	Done      int64
	Status    flowsqlc.PostingStatusEnum
}

// Percent computes the completion percentage from this sample, NaN for a
// posting with no records. Agrees with the SQL behind PercentDone.
func (p PostingProgress) Percent() float64 {
	if p.Total == 0 {
		return math.NaN()
	}
	return float64(p.Done) / float64(p.Total) * 100.0
}

// PostingPoller samples a posting's progress until it completes. Next
// returns false once the posting has finished, errored out, left
// 'executing', or disappeared; when the last sample shows every record done,
// the poller finalizes the posting to 'finished'. Intended use:
//
//	poller := d.NewPostingPoller(postingID, time.Second)
//	for {
//		progress, ok, err := poller.Next(ctx)
//		...
//	}
type PostingPoller struct {
	d        *Dispatcher
	id       uuid.UUID
	interval time.Duration
	first    bool
	stopped  bool
}

func (d *Dispatcher) NewPostingPoller(postingID uuid.UUID, interval time.Duration) *PostingPoller {
	return &PostingPoller{d: d, id: postingID, interval: interval, first: true}
}

// Next blocks for the poll interval (except on the first call) and returns
// the next progress sample. ok is false when polling has ended; err is
// non-nil only for database or context failures, not for normal completion.
func (p *PostingPoller) Next(ctx context.Context) (PostingProgress, bool, error) {
	if p.stopped {
		return PostingProgress{}, false, nil
	}
	if !p.first {
		select {
		case <-ctx.Done():
			return PostingProgress{}, false, ctx.Err()
		case <-time.After(p.interval):
		}
	}
	p.first = false

	row, err := p.d.Queries.GetPostingProgress(ctx, p.id)
	if err != nil {
		p.stopped = true
		if errors.Is(err, pgx.ErrNoRows) {
			return PostingProgress{}, false, nil
		}
		return PostingProgress{}, false, fmt.Errorf("failed to poll posting %s: %w", p.id, err)
	}

	progress := PostingProgress{
		QueryTime: row.QueryTime.Time,
		Total:     row.TotalJobs,
		Done:      row.TotalJobsDone,
		Status:    row.Status,
	}

	if row.Status != flowsqlc.PostingStatusEnumExecuting {
		p.stopped = true
		return progress, false, nil
	}
	if row.TotalJobsDone >= row.TotalJobs {
		// Every record reached a terminal status while the posting still
		// says 'executing'. The observer finalizes it; workers never do.
		// A posting with no records at all counts as complete.
		p.stopped = true
		if err := p.d.Queries.UpdatePostingStatus(ctx, flowsqlc.UpdatePostingStatusParams{
			ID:     p.id,
			Status: flowsqlc.PostingStatusEnumFinished,
		}); err != nil {
			return progress, false, fmt.Errorf("failed to finalize posting %s: %w", p.id, err)
		}
		p.d.cachePostingStatus(p.id, flowsqlc.PostingStatusEnumFinished)
		progress.Status = flowsqlc.PostingStatusEnumFinished
		return progress, false, nil
	}
	return progress, true, nil
}

// PercentPoller samples a posting's completion percentage indefinitely; the
// caller decides when to stop. A missing posting reads as 0 rather than an
// error, so a poller can outlive a posting that gets deleted.
type PercentPoller struct {
	d        *Dispatcher
	id       uuid.UUID
	interval time.Duration
	first    bool
}

func (d *Dispatcher) NewPercentPoller(postingID uuid.UUID, interval time.Duration) *PercentPoller {
	return &PercentPoller{d: d, id: postingID, interval: interval, first: true}
}

func (p *PercentPoller) Next(ctx context.Context) (float64, error) {
	if !p.first {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(p.interval):
		}
	}
	p.first = false

	pct, err := p.d.Queries.GetPostingPercent(ctx, p.id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to poll percent done for %s: %w", p.id, err)
	}
	return pct, nil
}

// StatusCountPoller samples how many of a posting's records sit in one
// status, indefinitely.
type StatusCountPoller struct {
	d        *Dispatcher
	id       uuid.UUID
	status   flowsqlc.JobStatusEnum
	interval time.Duration
	first    bool
}

func (d *Dispatcher) NewStatusCountPoller(postingID uuid.UUID, status flowsqlc.JobStatusEnum, interval time.Duration) *StatusCountPoller {
	return &StatusCountPoller{d: d, id: postingID, status: status, interval: interval, first: true}
}

func (p *StatusCountPoller) Next(ctx context.Context) (int64, error) {
	if !p.first {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(p.interval):
		}
	}
	p.first = false

	n, err := p.d.Queries.CountJobsByStatus(ctx, flowsqlc.CountJobsByStatusParams{
		PostingID: p.id,
		Status:    p.status,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s records of %s: %w", p.status, p.id, err)
	}
	return n, nil
}

// PercentDone returns how far along a posting is, 0 to 100. A posting with
// no records reports NaN, matching the underlying SQL.
func (d *Dispatcher) PercentDone(ctx context.Context, postingID uuid.UUID) (float64, error) {
	pct, err := d.Queries.GetPostingPercent(ctx, postingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPostingNotFound
		}
		return 0, fmt.Errorf("failed to compute percent done for %s: %w", postingID, err)
	}
	return pct, nil
}

// AwaitPostingCompletion polls until the posting leaves 'executing' or until
// maxWait elapses, whichever comes first. The deadline is monotonic, so a
// wall-clock jump cannot extend or truncate the wait. Returns
// ErrPostingNotFound when the posting does not exist, ErrAwaitTimeout when
// the deadline passes.
func (d *Dispatcher) AwaitPostingCompletion(ctx context.Context, postingID uuid.UUID, pollInterval, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)

	if _, err := d.Queries.GetPostingByID(ctx, postingID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostingNotFound
		}
		return fmt.Errorf("failed to load posting %s: %w", postingID, err)
	}

	poller := d.NewPostingPoller(postingID, pollInterval)
	for {
		_, ok, err := poller.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: posting %s still executing after %s", ErrAwaitTimeout, postingID, maxWait)
		}
	}
}

// AwaitStatusThreshold polls the count of the posting's records in the given
// status until pred(count) is true or maxWait elapses. A nil pred waits for
// the count to drain to zero. Like AwaitPostingCompletion the deadline is
// monotonic.
func (d *Dispatcher) AwaitStatusThreshold(ctx context.Context, postingID uuid.UUID, status flowsqlc.JobStatusEnum, pollInterval, maxWait time.Duration, pred func(int64) bool) error {
	if pred == nil {
		pred = func(n int64) bool { return n <= 0 }
	}
	deadline := time.Now().Add(maxWait)

	if _, err := d.Queries.GetPostingByID(ctx, postingID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostingNotFound
		}
		return fmt.Errorf("failed to load posting %s: %w", postingID, err)
	}

	for {
		n, err := d.Queries.CountJobsByStatus(ctx, flowsqlc.CountJobsByStatusParams{
			PostingID: postingID,
			Status:    status,
		})
		if err != nil {
			return fmt.Errorf("failed to count %s records of %s: %w", status, postingID, err)
		}
		if pred(n) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s count still %d after %s", ErrAwaitTimeout, status, n, maxWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
