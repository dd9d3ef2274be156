package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo persists jobs in the notification_jobs table.
//
// Expected shape:
//
//	id            bigserial primary key
//	work_post_id  text not null
//	unit_name     text not null default ''
//	position_name text not null default ''
//	status        notification_job_status not null default 'PENDING'
//	attempts      int not null default 0
//	max_attempts  int not null default 3
//	run_at        timestamptz not null default now()
//	locked_by     text
//	locked_at     timestamptz
//	last_error    text
//	created_at    timestamptz not null default now()
//	updated_at    timestamptz not null default now()
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo returns a Repo backed by pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Enqueue inserts a PENDING job and returns immediately. Two jobs for the
// same posting are allowed; duplicate-tolerant persistence downstream makes
// reprocessing safe.
func (r *Repo) Enqueue(ctx context.Context, workPostID, unitName, positionName string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notification_jobs (work_post_id, unit_name, position_name, status, max_attempts)
		 VALUES ($1, $2, $3, 'PENDING', $4)`,
		workPostID, unitName, positionName, MaxAttempts,
	)
	if err != nil {
		return fmt.Errorf("enqueue job for post %s: %w", workPostID, err)
	}
	return nil
}

// Claim atomically takes one due PENDING job, marking it PROCESSING and
// bumping its attempt count. Returns nil when no job is due. Jobs stuck in
// PROCESSING for over five minutes (a worker died mid-job) are requeued
// first.
func (r *Repo) Claim(ctx context.Context, workerID string) (*Job, error) {
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_jobs
		 SET status = 'PENDING', locked_by = NULL, locked_at = NULL, updated_at = NOW()
		 WHERE status = 'PROCESSING' AND locked_at < NOW() - INTERVAL '5 minutes'`,
	)
	if err != nil {
		return nil, fmt.Errorf("requeue stuck jobs: %w", err)
	}

	var job Job
	err = r.pool.QueryRow(ctx,
		`WITH due AS (
		   SELECT id FROM notification_jobs
		   WHERE status = 'PENDING' AND run_at <= NOW()
		   ORDER BY run_at
		   FOR UPDATE SKIP LOCKED
		   LIMIT 1
		 )
		 UPDATE notification_jobs j
		 SET status = 'PROCESSING', locked_by = $1, locked_at = NOW(),
		     attempts = attempts + 1, updated_at = NOW()
		 FROM due
		 WHERE j.id = due.id
		 RETURNING j.id, j.work_post_id, j.unit_name, j.position_name,
		           j.attempts, j.max_attempts, j.run_at, j.created_at`,
		workerID,
	).Scan(
		&job.ID, &job.WorkPostID, &job.UnitName, &job.PositionName,
		&job.Attempts, &job.MaxAttempts, &job.RunAt, &job.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	job.Status = StatusProcessing
	return &job, nil
}

// Complete marks a job COMPLETED.
func (r *Repo) Complete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_jobs
		 SET status = 'COMPLETED', locked_by = NULL, locked_at = NULL, updated_at = NOW()
		 WHERE id = $1`,
		id,
	)
	return err
}

// RetryLater reschedules a failed job.
func (r *Repo) RetryLater(ctx context.Context, id int64, runAt time.Time, lastErr string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_jobs
		 SET status = 'PENDING', run_at = $2, last_error = $3,
		     locked_by = NULL, locked_at = NULL, updated_at = NOW()
		 WHERE id = $1`,
		id, runAt, lastErr,
	)
	return err
}

// MarkDead parks a job in the DEAD terminal state. Dead jobs are never
// retried automatically; Requeue starts a fresh job for the same posting.
func (r *Repo) MarkDead(ctx context.Context, id int64, lastErr string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_jobs
		 SET status = 'DEAD', last_error = $2,
		     locked_by = NULL, locked_at = NULL, updated_at = NOW()
		 WHERE id = $1`,
		id, lastErr,
	)
	return err
}

// Requeue enqueues a fresh job for a posting whose earlier job was
// dead-lettered, copying the render context from the dead row. Returns
// false when no dead job exists for the posting.
func (r *Repo) Requeue(ctx context.Context, workPostID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO notification_jobs (work_post_id, unit_name, position_name, status, max_attempts)
		 SELECT work_post_id, unit_name, position_name, 'PENDING', max_attempts
		 FROM notification_jobs
		 WHERE work_post_id = $1 AND status = 'DEAD'
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		workPostID,
	)
	if err != nil {
		return false, fmt.Errorf("requeue post %s: %w", workPostID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// PurgeCompleted deletes COMPLETED jobs older than the retention window.
// Runs from a periodic sweep; bounded DELETE so it never starves claims.
func (r *Repo) PurgeCompleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notification_jobs
		 WHERE id IN (
		   SELECT id FROM notification_jobs
		   WHERE status = 'COMPLETED' AND updated_at < NOW() - make_interval(secs => $1)
		   LIMIT 1000
		 )`,
		olderThan.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge completed jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
