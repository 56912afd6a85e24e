package model

import "time"

// JobRunOutcome classifies a single firing of a scheduled job.
type JobRunOutcome string

const (
	JobRunSucceeded JobRunOutcome = "succeeded"
	JobRunFailed    JobRunOutcome = "failed"
	JobRunSkipped   JobRunOutcome = "skipped" // previous run still in flight or lock held elsewhere
)

// JobRun is one recorded firing of a named scheduler job. Persisted to Mongo
// as an append-only history for observability.
type JobRun struct {
	Job        string        `bson:"job"`
	StartedAt  time.Time     `bson:"startedAt"`
	DurationMs int64         `bson:"durationMs"`
	Outcome    JobRunOutcome `bson:"outcome"`
	Error      string        `bson:"error,omitempty"`
}
