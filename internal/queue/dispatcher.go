package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// Matcher evaluates a document against all indexed predicates.
type Matcher interface {
	Match(doc model.WorkDocument) []model.MatchResult
}

// DocumentSource resolves a posting id to its matching document.
type DocumentSource interface {
	Get(id string) (model.WorkDocument, bool)
}

// MatchStore persists match results. InsertBulk must ignore duplicates so a
// reprocessed job cannot create a second row per (document, subscription)
// pair.
type MatchStore interface {
	InsertBulk(ctx context.Context, matches []model.MatchResult) (int64, error)
}

// Deliverer fans a notification out to the matched recipients. It isolates
// per-recipient failures internally and never returns an error: persistence
// of matches is the job's success criterion, delivery is best-effort.
type Deliverer interface {
	Deliver(ctx context.Context, helperProfileIDs []string, input model.NotificationInput)
}

// Dispatcher is the queue Processor: match → persist matches → fan out.
type Dispatcher struct {
	docs     DocumentSource
	matcher  Matcher
	matches  MatchStore
	delivery Deliverer
}

// NewDispatcher wires the dispatch pipeline.
func NewDispatcher(docs DocumentSource, matcher Matcher, matches MatchStore, delivery Deliverer) *Dispatcher {
	return &Dispatcher{docs: docs, matcher: matcher, matches: matches, delivery: delivery}
}

// Process runs one dispatch job. Matches are persisted before any delivery
// is attempted: a crash after the insert leaves recoverable state.
func (d *Dispatcher) Process(ctx context.Context, job Job) error {
	doc, ok := d.docs.Get(job.WorkPostID)
	if !ok {
		return fmt.Errorf("post %s not in document index", job.WorkPostID)
	}

	matches := d.matcher.Match(doc)
	if len(matches) == 0 {
		log.Printf("[dispatch] Post %s matched no subscriptions", job.WorkPostID)
		return nil
	}

	inserted, err := d.matches.InsertBulk(ctx, matches)
	if err != nil {
		return fmt.Errorf("persist %d match(es) for post %s: %w", len(matches), job.WorkPostID, err)
	}
	log.Printf("[dispatch] Post %s — %d match(es), %d new", job.WorkPostID, len(matches), inserted)

	recipients := uniqueRecipients(matches)
	d.delivery.Deliver(ctx, recipients, model.NotificationInput{
		Title:   "新商家符合您的條件！",
		Message: fmt.Sprintf("%s 發佈了新貼文：%s", job.UnitName, job.PositionName),
		Data: model.NotificationData{
			WorkPostID:   job.WorkPostID,
			UnitName:     job.UnitName,
			PositionName: job.PositionName,
		},
	})
	return nil
}

// uniqueRecipients collapses matches to one entry per helper profile while
// keeping first-seen order.
func uniqueRecipients(matches []model.MatchResult) []string {
	seen := make(map[string]bool, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m.HelperProfileID] {
			continue
		}
		seen[m.HelperProfileID] = true
		ids = append(ids, m.HelperProfileID)
	}
	return ids
}
