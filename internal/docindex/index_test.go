package docindex_test

import (
	"context"
	"testing"
	"time"

	"github.com/Ke1ly/haloop-match-service/internal/docindex"
	"github.com/Ke1ly/haloop-match-service/internal/document"
	"github.com/Ke1ly/haloop-match-service/internal/model"
)

func day(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func TestIndex_UpsertReplacesByID(t *testing.T) {
	ix := docindex.NewIndex()
	ix.Upsert(model.WorkDocument{ID: "p1", City: "臺北市"})
	ix.Upsert(model.WorkDocument{ID: "p1", City: "高雄市"})

	if ix.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ix.Len())
	}
	doc, ok := ix.Get("p1")
	if !ok || doc.City != "高雄市" {
		t.Errorf("Get(p1) = %+v, %v — want replaced snapshot", doc, ok)
	}
}

func TestIndex_EligibleExcludesExpiredAndSortsByStartDesc(t *testing.T) {
	ix := docindex.NewIndex()
	ix.Upsert(model.WorkDocument{ID: "old", StartDate: day(1), EndDate: day(5)})
	ix.Upsert(model.WorkDocument{ID: "mid", StartDate: day(8), EndDate: day(30)})
	ix.Upsert(model.WorkDocument{ID: "new", StartDate: day(12), EndDate: day(30)})

	docs := ix.Eligible(day(10))
	if len(docs) != 2 {
		t.Fatalf("got %d eligible docs, want 2", len(docs))
	}
	if docs[0].ID != "new" || docs[1].ID != "mid" {
		t.Errorf("order = [%s %s], want [new mid]", docs[0].ID, docs[1].ID)
	}
}

type fakeFeed struct {
	posts []model.RawWorkPost
}

func (f *fakeFeed) ListPage(_ context.Context, limit, offset int) ([]model.RawWorkPost, error) {
	if offset >= len(f.posts) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.posts) {
		end = len(f.posts)
	}
	return f.posts[offset:end], nil
}

func TestIndex_SyncLoadsWholeFeed(t *testing.T) {
	feed := &fakeFeed{}
	for i := 0; i < 3; i++ {
		feed.posts = append(feed.posts, model.RawWorkPost{
			ID:   string(rune('a' + i)),
			Unit: model.Unit{City: "花蓮縣"},
		})
	}

	ix := docindex.NewIndex()
	if err := ix.Sync(context.Background(), feed, document.Transform); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if ix.Len() != 3 {
		t.Errorf("Len = %d, want 3", ix.Len())
	}
	if doc, ok := ix.Get("a"); !ok || doc.City != "花蓮縣" {
		t.Errorf("Get(a) = %+v, %v", doc, ok)
	}
}
