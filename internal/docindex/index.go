// Package docindex keeps the in-memory corpus of matching documents,
// indexed by posting id. Writes replace the whole document atomically
// (upsert-by-id), so concurrent readers never observe a partial update.
package docindex

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// Source pages through raw posting records for the initial corpus sync.
// Implemented by the posting feed store.
type Source interface {
	ListPage(ctx context.Context, limit, offset int) ([]model.RawWorkPost, error)
}

// Transformer converts a raw posting into its matching document. Wired to
// document.Transform so the sync path and the event path project fields
// identically.
type Transformer func(model.RawWorkPost) model.WorkDocument

// Index holds the document corpus.
type Index struct {
	mu   sync.RWMutex
	docs map[string]model.WorkDocument
}

// NewIndex returns an empty document index.
func NewIndex() *Index {
	return &Index{docs: make(map[string]model.WorkDocument)}
}

// Upsert installs doc, replacing any previous snapshot with the same id.
func (ix *Index) Upsert(doc model.WorkDocument) {
	ix.mu.Lock()
	ix.docs[doc.ID] = doc
	ix.mu.Unlock()
}

// Delete removes a document by id.
func (ix *Index) Delete(id string) {
	ix.mu.Lock()
	delete(ix.docs, id)
	ix.mu.Unlock()
}

// Get returns the document for id, if indexed.
func (ix *Index) Get(id string) (model.WorkDocument, bool) {
	ix.mu.RLock()
	doc, ok := ix.docs[id]
	ix.mu.RUnlock()
	return doc, ok
}

// Len returns the corpus size.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Eligible returns every document whose posting window has not ended before
// now, ordered by start date descending (most recent first). The slice is a
// copy; callers may keep it across lock boundaries.
func (ix *Index) Eligible(now time.Time) []model.WorkDocument {
	ix.mu.RLock()
	docs := make([]model.WorkDocument, 0, len(ix.docs))
	for _, doc := range ix.docs {
		if doc.EndDate.Before(now) {
			continue
		}
		docs = append(docs, doc)
	}
	ix.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].StartDate.After(docs[j].StartDate)
	})
	return docs
}

// syncPageSize bounds how many posting rows are read per page during Sync.
const syncPageSize = 100

// Sync rebuilds the corpus from the posting feed in fixed-size pages.
func (ix *Index) Sync(ctx context.Context, src Source, transform Transformer) error {
	total := 0
	for offset := 0; ; offset += syncPageSize {
		posts, err := src.ListPage(ctx, syncPageSize, offset)
		if err != nil {
			return fmt.Errorf("list postings page (offset %d): %w", offset, err)
		}
		if len(posts) == 0 {
			break
		}
		for _, post := range posts {
			ix.Upsert(transform(post))
			total++
		}
		if len(posts) < syncPageSize {
			break
		}
	}
	log.Printf("[docindex] Corpus synced — %d document(s)", total)
	return nil
}
