package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Store is the queue persistence used by the worker pool. Satisfied by
// *Repo; faked in tests.
type Store interface {
	Claim(ctx context.Context, workerID string) (*Job, error)
	Complete(ctx context.Context, id int64) error
	RetryLater(ctx context.Context, id int64, runAt time.Time, lastErr string) error
	MarkDead(ctx context.Context, id int64, lastErr string) error
}

// Processor runs one job. An error triggers retry/backoff; panic is caught
// at the worker boundary and treated the same way.
type Processor interface {
	Process(ctx context.Context, job Job) error
}

// jobTimeout bounds one job run so a stalled downstream dependency cannot
// pin a worker slot.
const jobTimeout = 30 * time.Second

// Pool drains the queue with a fixed number of workers sharing one pacing
// ticker, capping both concurrency and throughput.
type Pool struct {
	store       Store
	proc        Processor
	concurrency int
	pace        time.Duration
}

// NewPool builds a pool of `concurrency` workers rate-limited to
// jobsPerMinute claims across the whole pool.
func NewPool(store Store, proc Processor, concurrency, jobsPerMinute int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if jobsPerMinute < 1 {
		jobsPerMinute = 1
	}
	return &Pool{
		store:       store,
		proc:        proc,
		concurrency: concurrency,
		pace:        time.Minute / time.Duration(jobsPerMinute),
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) {
	ticker := time.NewTicker(p.pace)
	defer ticker.Stop()

	done := make(chan struct{})
	for i := 0; i < p.concurrency; i++ {
		workerID := fmt.Sprintf("worker-%s", uuid.NewString()[:8])
		go func() {
			defer func() { done <- struct{}{} }()
			p.drain(ctx, workerID, ticker.C)
		}()
	}

	log.Printf("[queue] Pool started — %d worker(s), 1 claim per %s", p.concurrency, p.pace)
	for i := 0; i < p.concurrency; i++ {
		<-done
	}
	log.Println("[queue] Pool stopped")
}

// drain claims and runs jobs until ctx is cancelled. The shared ticker
// paces claims across all workers.
func (p *Pool) drain(ctx context.Context, workerID string, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		}

		job, err := p.store.Claim(ctx, workerID)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[queue] %s claim error: %v", workerID, err)
			}
			continue
		}
		if job == nil {
			continue
		}
		p.runOne(ctx, workerID, *job)
	}
}

// runOne executes a single claimed job and records the outcome. Failures
// stay inside the worker: the loop keeps draining regardless.
func (p *Pool) runOne(ctx context.Context, workerID string, job Job) {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	err := p.process(jobCtx, job)
	if err == nil {
		if cErr := p.store.Complete(ctx, job.ID); cErr != nil {
			log.Printf("[queue] %s complete job %d: %v", workerID, job.ID, cErr)
		}
		return
	}

	if job.Attempts >= job.MaxAttempts {
		log.Printf("[queue] %s job %d (post %s) dead after %d attempt(s): %v",
			workerID, job.ID, job.WorkPostID, job.Attempts, err)
		if dErr := p.store.MarkDead(ctx, job.ID, err.Error()); dErr != nil {
			log.Printf("[queue] %s mark dead job %d: %v", workerID, job.ID, dErr)
		}
		return
	}

	delay := Backoff(job.Attempts)
	log.Printf("[queue] %s job %d (post %s) attempt %d failed, retry in %s: %v",
		workerID, job.ID, job.WorkPostID, job.Attempts, delay, err)
	if rErr := p.store.RetryLater(ctx, job.ID, time.Now().Add(delay), err.Error()); rErr != nil {
		log.Printf("[queue] %s retry job %d: %v", workerID, job.ID, rErr)
	}
}

// process invokes the Processor with panic protection so one bad job can
// never take a worker down.
func (p *Pool) process(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return p.proc.Process(ctx, job)
}
