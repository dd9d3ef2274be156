package posting

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Ke1ly/haloop-match-service/internal/docindex"
	"github.com/Ke1ly/haloop-match-service/internal/document"
	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// ErrNotInFeed is returned by Reindex when no feed snapshot exists for the
// posting.
var ErrNotInFeed = errors.New("posting not in feed")

// Enqueuer schedules a dispatch job for a posting. Implemented by the
// queue repository.
type Enqueuer interface {
	Enqueue(ctx context.Context, workPostID, unitName, positionName string) error
}

// ingestTimeout bounds the slow tail of one ingest call. The caller already
// got its HTTP response by then; this only protects the goroutine budget.
const ingestTimeout = 10 * time.Second

// Service handles posting lifecycle events. Every step is best-effort from
// the caller's point of view: the CRUD service fires the event and moves
// on, so errors here are logged, never returned upstream.
type Service struct {
	feed  *FeedStore
	docs  *docindex.Index
	queue Enqueuer
}

// NewService wires a posting ingest Service.
func NewService(feed *FeedStore, docs *docindex.Index, queue Enqueuer) *Service {
	return &Service{feed: feed, docs: docs, queue: queue}
}

// OnCreated records a new posting: persist it to the feed, index its
// matching document and enqueue one dispatch job. Indexing and enqueueing
// proceed even when the feed write fails — the in-memory state is what
// matching reads, and the feed self-heals on the next ingest or resync.
func (s *Service) OnCreated(post model.RawWorkPost) {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	if err := s.feed.Put(ctx, post); err != nil {
		log.Printf("[posting] Feed write for %s failed: %v", post.ID, err)
	}

	doc := document.Transform(post)
	s.docs.Upsert(doc)

	if err := s.queue.Enqueue(ctx, doc.ID, doc.UnitName, doc.PositionName); err != nil {
		log.Printf("[posting] Enqueue dispatch for %s failed: %v", post.ID, err)
		return
	}
	log.Printf("[posting] Posting %s ingested and queued for dispatch", post.ID)
}

// OnUpdated refreshes the stored snapshot and the matching document. No
// dispatch job is enqueued: subscribers are notified about new postings
// only, edits just keep future matching current.
func (s *Service) OnUpdated(post model.RawWorkPost) {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	if err := s.feed.Put(ctx, post); err != nil {
		log.Printf("[posting] Feed write for %s failed: %v", post.ID, err)
	}
	s.docs.Upsert(document.Transform(post))
	log.Printf("[posting] Posting %s re-indexed", post.ID)
}

// Reindex rebuilds one matching document from the stored feed snapshot.
// Used to recover an index entry that drifted from the feed.
func (s *Service) Reindex(ctx context.Context, id string) error {
	post, err := s.feed.Get(ctx, id)
	if err == pgx.ErrNoRows {
		return ErrNotInFeed
	}
	if err != nil {
		return fmt.Errorf("load posting %s: %w", id, err)
	}
	s.docs.Upsert(document.Transform(post))
	log.Printf("[posting] Posting %s rebuilt from feed", id)
	return nil
}

// OnDeleted removes the posting from the live corpus and the feed, so a
// later resync cannot resurrect it.
func (s *Service) OnDeleted(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	s.docs.Delete(id)
	if err := s.feed.Delete(ctx, id); err != nil {
		log.Printf("[posting] Feed delete for %s failed: %v", id, err)
	}
	log.Printf("[posting] Posting %s removed", id)
}
