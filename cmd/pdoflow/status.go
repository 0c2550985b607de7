package main

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdoflow/pdoflow/jobs"
	"github.com/pdoflow/pdoflow/jobs/pg/flowsqlc"
)

func statusCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status <posting-id> [new-status]",
		Short: "Show a posting's status, or set it",
		Long: `Show a posting's status and completion percentage. With a second
argument (paused, executing, finished or errored_out) the posting is moved
to that status instead; pausing stops workers from claiming its records.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postingID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid posting id %q: %w", args[0], err)
			}

			ctx, stop := signalContext()
			defer stop()

			d, cleanup, err := openDispatcher(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 2 {
				return setPostingStatus(ctx, d, postingID, args[1])
			}

			progress, err := d.Queries.GetPostingProgress(ctx, postingID)
			if err != nil {
				if errors.Is(err, jobs.ErrPostingNotFound) || isNoRows(err) {
					return fmt.Errorf("posting %s not found", postingID)
				}
				return fmt.Errorf("failed to load posting progress: %w", err)
			}

			pct, err := d.PercentDone(ctx, postingID)
			if err != nil {
				return err
			}

			fmt.Printf("Posting:  %s\n", postingID)
			fmt.Printf("Status:   %s\n", progress.Status)
			if math.IsNaN(pct) {
				fmt.Printf("Progress: no job records\n")
			} else {
				fmt.Printf("Progress: %d/%d (%.1f%%)\n", progress.TotalJobsDone, progress.TotalJobs, pct)
			}

			if !watch {
				return nil
			}
			poller := d.NewPostingPoller(postingID, pollInterval)
			for {
				p, ok, err := poller.Next(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%s  %s  %d/%d\n", p.QueryTime.Format("15:04:05"), p.Status, p.Done, p.Total)
				if !ok {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep polling until the posting completes")
	return cmd
}

func setPostingStatus(ctx context.Context, d *jobs.Dispatcher, postingID uuid.UUID, arg string) error {
	status := flowsqlc.PostingStatusEnum(arg)
	if !status.Valid() {
		return fmt.Errorf("invalid status %q (want paused, executing, finished or errored_out)", arg)
	}

	var err error
	switch status {
	case flowsqlc.PostingStatusEnumPaused:
		err = d.PausePosting(ctx, postingID)
	case flowsqlc.PostingStatusEnumExecuting:
		err = d.ResumePosting(ctx, postingID)
	default:
		if _, err := d.Queries.GetPostingByID(ctx, postingID); err != nil {
			if isNoRows(err) {
				return fmt.Errorf("posting %s not found", postingID)
			}
			return fmt.Errorf("failed to load posting: %w", err)
		}
		err = d.Queries.UpdatePostingStatus(ctx, flowsqlc.UpdatePostingStatusParams{
			ID:     postingID,
			Status: status,
		})
	}
	if err != nil {
		if errors.Is(err, jobs.ErrPostingNotFound) {
			return fmt.Errorf("posting %s not found", postingID)
		}
		return err
	}
	fmt.Printf("Posting %s is now %s.\n", postingID, status)
	return nil
}
