package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List job postings with their progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			d, cleanup, err := openDispatcher(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			postings, err := d.Queries.ListPostings(ctx)
			if err != nil {
				return fmt.Errorf("failed to list postings: %w", err)
			}
			if len(postings) == 0 {
				fmt.Println("No job postings.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPOSTER\tSTATUS\tENTRY POINT\tDONE/TOTAL")
			for _, p := range postings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\n",
					p.ID,
					p.CreatedOn.Time.Format("2006-01-02 15:04:05"),
					p.Poster.String,
					p.Status,
					p.EntryPoint,
					p.TotalJobsDone,
					p.TotalJobs,
				)
			}
			return w.Flush()
		},
	}
}
