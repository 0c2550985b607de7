package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/remiges-tech/logharbour/logharbour"

	"github.com/pdoflow/pdoflow/jobs/pg/flowsqlc"
)

// WorkUnit is one job to be queued under a posting: the arguments it will
// receive, its claim priority, and how many execution attempts it gets.
// Zero Tries means the dispatcher default applies.
type WorkUnit struct {
	Args     []any
	Kwargs   map[string]any
	Priority int32
	Tries    int32
}

// PostingOptions tunes a submission. Poster overrides the dispatcher's
// configured identity; Paused inserts the posting in 'paused' so no worker
// claims its records until ResumePosting is called.
type PostingOptions struct {
	Poster string
	Paused bool
}

// PostWork inserts a posting and its job records in a single transaction, so
// concurrently polling workers either see the whole posting or none of it.
// The entry point must be resolvable in the local registry; refusing unknown
// paths at submission keeps records that can never run out of the queue.
func (d *Dispatcher) PostWork(ctx context.Context, entryPoint string, units []WorkUnit, opts *PostingOptions) (uuid.UUID, error) {
	if !d.Registry.Contains(entryPoint) {
		return uuid.Nil, &UnknownEntryPointError{EntryPoint: entryPoint}
	}
	if len(units) == 0 {
		return uuid.Nil, fmt.Errorf("no work units to post for %q", entryPoint)
	}
	if opts == nil {
		opts = &PostingOptions{}
	}
	poster := opts.Poster
	if poster == "" {
		poster = d.Config.Poster
	}
	status := flowsqlc.PostingStatusEnumExecuting
	if opts.Paused {
		status = flowsqlc.PostingStatusEnumPaused
	}

	tx, err := d.Db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin posting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txQueries := flowsqlc.New(tx)

	posting, err := txQueries.InsertPosting(ctx, flowsqlc.InsertPostingParams{
		Poster:         pgtype.Text{String: poster, Valid: poster != ""},
		Status:         status,
		TargetFunction: entryPoint,
		EntryPoint:     entryPoint,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert job posting: %w", err)
	}

	bulk := flowsqlc.BulkInsertJobRecordsParams{
		PostingID:           make([]uuid.UUID, len(units)),
		Priority:            make([]int32, len(units)),
		PositionalArguments: make([][]byte, len(units)),
		KeywordArguments:    make([][]byte, len(units)),
		TriesRemaining:      make([]int32, len(units)),
	}
	for i, unit := range units {
		args := unit.Args
		if args == nil {
			args = []any{}
		}
		kwargs := unit.Kwargs
		if kwargs == nil {
			kwargs = map[string]any{}
		}
		argsJSON, err := json.Marshal(args)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to encode positional arguments of unit %d: %w", i, err)
		}
		kwargsJSON, err := json.Marshal(kwargs)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to encode keyword arguments of unit %d: %w", i, err)
		}
		tries := unit.Tries
		if tries == 0 {
			tries = d.Config.DefaultTries
		}
		bulk.PostingID[i] = posting.ID
		bulk.Priority[i] = unit.Priority
		bulk.PositionalArguments[i] = argsJSON
		bulk.KeywordArguments[i] = kwargsJSON
		bulk.TriesRemaining[i] = tries
	}

	if _, err := txQueries.BulkInsertJobRecords(ctx, bulk); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert job records: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit posting: %w", err)
	}

	d.Logger.LogDataChange("Job posting created", logharbour.ChangeInfo{
		Entity: "JobPosting",
		Op:     "Created",
		Changes: []logharbour.ChangeDetail{
			{Field: "postingId", OldVal: nil, NewVal: posting.ID.String()},
			{Field: "entryPoint", OldVal: nil, NewVal: entryPoint},
			{Field: "jobs", OldVal: nil, NewVal: len(units)},
		},
	})
	d.cachePostingStatus(posting.ID, status)
	return posting.ID, nil
}

// PausePosting flips a posting to 'paused' so workers stop claiming its
// waiting records. Records already claimed finish normally.
func (d *Dispatcher) PausePosting(ctx context.Context, postingID uuid.UUID) error {
	return d.setPostingStatus(ctx, postingID, flowsqlc.PostingStatusEnumPaused)
}

// ResumePosting returns a paused posting to 'executing'.
func (d *Dispatcher) ResumePosting(ctx context.Context, postingID uuid.UUID) error {
	return d.setPostingStatus(ctx, postingID, flowsqlc.PostingStatusEnumExecuting)
}

func (d *Dispatcher) setPostingStatus(ctx context.Context, postingID uuid.UUID, status flowsqlc.PostingStatusEnum) error {
	if _, err := d.Queries.GetPostingByID(ctx, postingID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostingNotFound
		}
		return fmt.Errorf("failed to load posting %s: %w", postingID, err)
	}
	if err := d.Queries.UpdatePostingStatus(ctx, flowsqlc.UpdatePostingStatusParams{
		ID:     postingID,
		Status: status,
	}); err != nil {
		return fmt.Errorf("failed to update posting status: %w", err)
	}
	d.cachePostingStatus(postingID, status)
	return nil
}

// PostingStatus returns the posting's current status, consulting the Redis
// cache first when one is configured. Terminal statuses are cached with a
// much longer expiry since they never change again.
func (d *Dispatcher) PostingStatus(ctx context.Context, postingID uuid.UUID) (flowsqlc.PostingStatusEnum, error) {
	if status, ok := d.cachedPostingStatus(ctx, postingID); ok {
		return status, nil
	}

	posting, err := d.Queries.GetPostingByID(ctx, postingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrPostingNotFound
		}
		return "", fmt.Errorf("failed to load posting %s: %w", postingID, err)
	}
	d.cachePostingStatus(postingID, posting.Status)
	return posting.Status, nil
}

// ExecuteJob runs a single job record synchronously through a throwaway
// worker, regardless of its queue state. Intended for debugging via the CLI.
func (d *Dispatcher) ExecuteJob(ctx context.Context, jobID uuid.UUID) error {
	rec, err := d.Queries.GetJobRecordByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrJobRecordNotFound
		}
		return fmt.Errorf("failed to load job record %s: %w", jobID, err)
	}

	w := d.NewWorker()
	if err := d.Queries.StampWorkStarted(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to stamp work_started_on: %w", err)
	}
	if err := w.executeRecord(ctx, rec); err != nil {
		if markErr := d.Queries.MarkRecordBad(ctx, rec.ID); markErr != nil {
			d.Logger.Error(markErr).LogActivity("Failed to fail record terminally", map[string]any{
				"recordId": rec.ID.String(),
			})
		}
		return err
	}
	return d.Queries.MarkRecordDone(ctx, rec.ID)
}

// currentUser resolves the submitting identity: the OS account name, falling
// back to $USER when user lookup is unavailable (static binaries, scratch
// containers).
func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
