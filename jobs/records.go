package jobs

import (
	"time"

	"github.com/pdoflow/pdoflow/jobs/pg/flowsqlc"
)

// RecordWaitingTime returns how long a record sat in the queue before a
// worker picked it up. For records never started, "now" stands in for the
// missing endpoint.
func RecordWaitingTime(rec flowsqlc.JobRecord) time.Duration {
	started := time.Now()
	if rec.WorkStartedOn.Valid {
		started = rec.WorkStartedOn.Time
	}
	return started.Sub(rec.CreatedOn.Time)
}

// RecordTimeElapsed returns how long a record has been (or was) executing.
// Zero for records never started; "now" stands in for a missing completion.
func RecordTimeElapsed(rec flowsqlc.JobRecord) time.Duration {
	if !rec.WorkStartedOn.Valid {
		return 0
	}
	completed := time.Now()
	if rec.CompletedOn.Valid {
		completed = rec.CompletedOn.Time
	}
	return completed.Sub(rec.WorkStartedOn.Time)
}
