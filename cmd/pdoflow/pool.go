package main

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pdoflow/pdoflow/metrics"
)

func poolCmd() *cobra.Command {
	var (
		workers     int
		batchSize   int
		poster      string
		anyPoster   bool
		upkeepRate  float64
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Run a pool of workers until interrupted",
		Long: `Run a pool of workers that claim and execute jobs until SIGINT or
SIGTERM. Dead workers are replaced continuously.

Entry points must be registered by the binary embedding the jobs package;
this stock CLI serves whatever was linked in via side-effect imports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			d, cleanup, err := openDispatcher(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if anyPoster {
				d.Config.Poster = ""
			} else if poster != "" {
				d.Config.Poster = poster
			}
			if batchSize > 0 {
				d.Config.BatchSize = batchSize
			}

			if metricsAddr != "" {
				pm := metrics.NewPrometheusMetrics()
				d.RegisterWorkerMetrics(pm)
				go http.ListenAndServe(metricsAddr, pm.Handler())
			}

			pool := d.NewWorkerPool(workers)
			pool.Start(ctx)
			pool.RunUpkeep(ctx, upkeepRate)
			pool.Stop()
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "n", runtime.NumCPU(), "Number of workers in the pool")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Records claimed per claim query")
	cmd.Flags().StringVar(&poster, "poster", "", "Only serve postings from this submitter (default: current user)")
	cmd.Flags().BoolVar(&anyPoster, "any-poster", false, "Serve postings from every submitter")
	cmd.Flags().Float64Var(&upkeepRate, "upkeep-rate", 1.0, "Dead-worker checks per second")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if workers < 1 {
			return fmt.Errorf("--workers must be at least 1")
		}
		return nil
	}
	return cmd
}
