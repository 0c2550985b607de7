package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdoflow/pdoflow/jobs"
)

func runJobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-job <job-id>",
		Short: "Execute a single job record synchronously",
		Long: `Execute one job record in the foreground, regardless of its queue
state. Meant for debugging a failing job with a registered entry point.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid job id %q: %w", args[0], err)
			}

			ctx, stop := signalContext()
			defer stop()

			d, cleanup, err := openDispatcher(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := d.ExecuteJob(ctx, jobID); err != nil {
				if errors.Is(err, jobs.ErrJobRecordNotFound) {
					return fmt.Errorf("job record %s not found", jobID)
				}
				return fmt.Errorf("job %s failed: %w", jobID, err)
			}
			fmt.Printf("Job %s completed.\n", jobID)
			return nil
		},
	}
}
