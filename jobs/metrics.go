package jobs

import "github.com/pdoflow/pdoflow/metrics"

// Metric names published by workers and pools.
const (
	MetricJobsClaimed         = "pdoflow_jobs_claimed_total"
	MetricJobsDone            = "pdoflow_jobs_done_total"
	MetricJobsFailed          = "pdoflow_jobs_failed_total"
	MetricPostingsBlacklisted = "pdoflow_postings_blacklisted_total"
	MetricWorkersReplaced     = "pdoflow_workers_replaced_total"
	MetricClaimSeconds        = "pdoflow_claim_duration_seconds"
)

// RegisterWorkerMetrics registers the dispatch metrics on m and attaches it
// to the dispatcher. Dispatchers without metrics skip all recording.
func (d *Dispatcher) RegisterWorkerMetrics(m metrics.Metrics) {
	m.Register(MetricJobsClaimed, metrics.KindCounter, "Job records claimed from the queue")
	m.Register(MetricJobsDone, metrics.KindCounter, "Job records executed successfully")
	m.Register(MetricJobsFailed, metrics.KindCounter, "Job record executions that failed")
	m.Register(MetricPostingsBlacklisted, metrics.KindCounter, "Postings errored out after exceeding the failure threshold")
	m.Register(MetricWorkersReplaced, metrics.KindCounter, "Dead workers replaced by pool upkeep")
	m.Register(MetricClaimSeconds, metrics.KindHistogram, "Latency of the claim transaction in seconds")
	d.Metrics = m
}

func (d *Dispatcher) recordMetric(name string, value float64) {
	if d.Metrics != nil {
		d.Metrics.Record(name, value)
	}
}
