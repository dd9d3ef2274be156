package recommend

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// TopN is how many previously-unseen documents one run surfaces per
// subscriber.
const TopN = 5

// ProfileSource supplies the subscriber population and each subscriber's
// preference profile. Implemented by the subscription repository.
type ProfileSource interface {
	ListHelperProfileIDs(ctx context.Context) ([]string, error)
	// FirstFilter returns the subscriber's preference profile, or nil when
	// the subscriber has no subscription to derive one from.
	FirstFilter(ctx context.Context, helperProfileID string) (*model.Filter, error)
}

// Corpus supplies the eligible document set for one run.
type Corpus interface {
	Eligible(now time.Time) []model.WorkDocument
}

// Entries is the surfaced-document history edge. Satisfied by *EntryStore.
type Entries interface {
	Seen(ctx context.Context, helperProfileID string) (map[string]struct{}, error)
	Add(ctx context.Context, helperProfileID string, docIDs []string, now time.Time) error
}

// Runner executes one full recommendation pass over all subscribers.
type Runner struct {
	profiles ProfileSource
	corpus   Corpus
	entries  Entries
	scorer   *Scorer
	pace     time.Duration // delay between subscribers, backpressure on the stores
}

// NewRunner wires a recommendation Runner.
func NewRunner(profiles ProfileSource, corpus Corpus, entries Entries, pace time.Duration) *Runner {
	return &Runner{
		profiles: profiles,
		corpus:   corpus,
		entries:  entries,
		scorer:   NewScorer(),
		pace:     pace,
	}
}

// Run processes every subscriber independently: one subscriber's failure is
// logged and the batch continues.
func (r *Runner) Run(ctx context.Context) error {
	helperIDs, err := r.profiles.ListHelperProfileIDs(ctx)
	if err != nil {
		return fmt.Errorf("list helper profiles: %w", err)
	}
	docs := r.corpus.Eligible(time.Now())

	log.Printf("[recommend] Run started — %d subscriber(s), %d eligible document(s)",
		len(helperIDs), len(docs))

	surfaced := 0
	for _, helperID := range helperIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := r.runOne(ctx, helperID, docs)
		if err != nil {
			log.Printf("[recommend] Subscriber %s failed: %v — continuing", helperID, err)
		}
		surfaced += n

		if r.pace > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.pace):
			}
		}
	}

	log.Printf("[recommend] Run complete — %d document(s) surfaced", surfaced)
	return nil
}

// runOne ranks the corpus for one subscriber and appends the top unseen
// documents to their entry set.
func (r *Runner) runOne(ctx context.Context, helperID string, docs []model.WorkDocument) (int, error) {
	profile, err := r.profiles.FirstFilter(ctx, helperID)
	if err != nil {
		return 0, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return 0, nil // nothing to recommend against
	}

	seen, err := r.entries.Seen(ctx, helperID)
	if err != nil {
		return 0, fmt.Errorf("load surfaced set: %w", err)
	}

	picked := make([]string, 0, TopN)
	for _, sd := range r.scorer.Rank(*profile, docs) {
		if _, ok := seen[sd.Doc.ID]; ok {
			continue
		}
		picked = append(picked, sd.Doc.ID)
		if len(picked) == TopN {
			break
		}
	}
	if len(picked) == 0 {
		return 0, nil
	}

	if err := r.entries.Add(ctx, helperID, picked, time.Now()); err != nil {
		return 0, fmt.Errorf("record surfaced documents: %w", err)
	}
	return len(picked), nil
}

// Scheduler triggers the Runner on a cron spec. SkipIfStillRunning
// guarantees runs never overlap: a slow pass delays the next tick instead
// of racing it.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	spec   string
}

// NewScheduler wraps runner in a cron schedule.
func NewScheduler(runner *Runner, spec string) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		runner: runner,
		spec:   spec,
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.runner.Run(ctx); err != nil {
			log.Printf("[recommend] Scheduled run error: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	log.Printf("[recommend] Cron started — spec: %s", s.spec)
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running pass.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[recommend] Cron stopped")
}
