// Package queue implements the durable dispatch queue decoupling "posting
// created" events from the match-persist-deliver pipeline. Jobs live in the
// notification_jobs table; workers claim them with FOR UPDATE SKIP LOCKED,
// retry with exponential backoff and park exhausted jobs as DEAD.
package queue

import (
	"time"
)

// Status values mirror the notification_job_status enum in PostgreSQL.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusDead       Status = "DEAD" // terminal: retries exhausted, manual requeue only
)

// MaxAttempts is how many times a job runs before it is dead-lettered.
const MaxAttempts = 3

// Job is one dispatch unit: match a posting against all subscriptions and
// notify the matched subscribers. UnitName and PositionName are carried for
// message rendering so a job can be processed without re-reading the
// posting row.
type Job struct {
	ID           int64
	WorkPostID   string
	UnitName     string
	PositionName string
	Status       Status
	Attempts     int
	MaxAttempts  int
	RunAt        time.Time
	LastError    *string
	CreatedAt    time.Time
}

// Backoff returns the delay before the next attempt. Exponential from one
// second, capped at ten minutes.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Second << (attempt - 1)
	if d > 10*time.Minute {
		return 10 * time.Minute
	}
	return d
}
