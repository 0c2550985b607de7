package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func histogramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "histogram <posting-id>",
		Short: "Show the priority distribution of a posting's job records",
		Args:  cobra.ExactArgs(1),
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

			rows, err := d.Queries.PriorityHistogram(ctx, postingID)
			if err != nil {
				return fmt.Errorf("failed to load priority histogram: %w", err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("posting %s has no job records", postingID)
			}

			var max int64
			for _, row := range rows {
				if row.NJobs > max {
					max = row.NJobs
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRIORITY\tJOBS\t")
			for _, row := range rows {
				bar := strings.Repeat("#", int(row.NJobs*40/max))
				fmt.Fprintf(w, "%d\t%d\t%s\n", row.Priority, row.NJobs, bar)
			}
			return w.Flush()
		},
	}
}
