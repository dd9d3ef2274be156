package percolator

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// SubscriptionSource pages through stored subscriptions. Implemented by the
// subscription repository; paging keeps the bootstrap from holding every
// row in a single unbounded read.
type SubscriptionSource interface {
	ListPage(ctx context.Context, limit, offset int) ([]model.Subscription, error)
}

// Index is the in-memory predicate index. Candidate predicates for a
// document are gathered from an inverted tag index (category, value →
// subscription ids) plus the set of predicates without tag clauses; each
// candidate is then fully evaluated. A predicate whose tag clauses share no
// value with the document can never match (the tag-OR clause fails), so the
// candidate set is exact, not approximate.
//
// Reads run concurrently under an RWMutex; Upsert replaces a subscription's
// predicate atomically.
type Index struct {
	mu         sync.RWMutex
	predicates map[string]*Predicate                     // subscription id → predicate
	byTag      map[Category]map[string]map[string]bool   // category → tag value → subscription ids
	untagged   map[string]bool                           // predicates with no tag clauses
}

// NewIndex returns an empty predicate index.
func NewIndex() *Index {
	byTag := make(map[Category]map[string]map[string]bool, len(Categories))
	for _, cat := range Categories {
		byTag[cat] = make(map[string]map[string]bool)
	}
	return &Index{
		predicates: make(map[string]*Predicate),
		byTag:      byTag,
		untagged:   make(map[string]bool),
	}
}

// Upsert installs p, replacing any previous predicate for the same
// subscription id.
func (ix *Index) Upsert(p *Predicate) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(p.SubscriptionID)

	ix.predicates[p.SubscriptionID] = p
	if len(p.TagClauses) == 0 {
		ix.untagged[p.SubscriptionID] = true
		return
	}
	for cat, values := range p.TagClauses {
		for _, v := range values {
			ids := ix.byTag[cat][v]
			if ids == nil {
				ids = make(map[string]bool)
				ix.byTag[cat][v] = ids
			}
			ids[p.SubscriptionID] = true
		}
	}
}

// Delete removes the predicate for a subscription id, if present.
func (ix *Index) Delete(subscriptionID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(subscriptionID)
}

func (ix *Index) removeLocked(subscriptionID string) {
	old, ok := ix.predicates[subscriptionID]
	if !ok {
		return
	}
	delete(ix.predicates, subscriptionID)
	delete(ix.untagged, subscriptionID)
	for cat, values := range old.TagClauses {
		for _, v := range values {
			if ids := ix.byTag[cat][v]; ids != nil {
				delete(ids, subscriptionID)
				if len(ids) == 0 {
					delete(ix.byTag[cat], v)
				}
			}
		}
	}
}

// Len returns the number of indexed predicates.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.predicates)
}

// Match evaluates doc against every indexed predicate and returns the
// matching subscriptions.
func (ix *Index) Match(doc model.WorkDocument) []model.MatchResult {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	candidates := make(map[string]bool, len(ix.untagged))
	for id := range ix.untagged {
		candidates[id] = true
	}
	for _, cat := range Categories {
		for _, v := range docTags(doc, cat) {
			for id := range ix.byTag[cat][v] {
				candidates[id] = true
			}
		}
	}

	results := make([]model.MatchResult, 0, len(candidates))
	for id := range candidates {
		p := ix.predicates[id]
		if p == nil || !p.Matches(doc) {
			continue
		}
		results = append(results, model.MatchResult{
			WorkPostID:      doc.ID,
			SubscriptionID:  p.SubscriptionID,
			HelperProfileID: p.HelperProfileID,
		})
	}
	return results
}

// bootstrapPageSize bounds how many subscription rows are read per page
// while rebuilding the index.
const bootstrapPageSize = 100

// Bootstrap rebuilds the index from the subscription store in fixed-size
// pages. Rows whose filters fail compilation are skipped with a log line —
// a malformed stored filter must never be treated as match-everything.
func (ix *Index) Bootstrap(ctx context.Context, src SubscriptionSource) error {
	total, skipped := 0, 0
	for offset := 0; ; offset += bootstrapPageSize {
		subs, err := src.ListPage(ctx, bootstrapPageSize, offset)
		if err != nil {
			return fmt.Errorf("list subscriptions page (offset %d): %w", offset, err)
		}
		if len(subs) == 0 {
			break
		}
		for _, sub := range subs {
			p, err := Compile(sub.ID, sub.HelperProfileID, sub.Filter)
			if err != nil {
				log.Printf("[percolator] Skipping subscription %s: %v", sub.ID, err)
				skipped++
				continue
			}
			ix.Upsert(p)
			total++
		}
		if len(subs) < bootstrapPageSize {
			break
		}
	}
	log.Printf("[percolator] Index rebuilt — %d predicate(s), %d skipped", total, skipped)
	return nil
}
