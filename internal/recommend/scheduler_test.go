package recommend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ke1ly/haloop-match-service/internal/model"
	"github.com/Ke1ly/haloop-match-service/internal/recommend"
)

type fakeProfiles struct {
	ids     []string
	filters map[string]*model.Filter
	fail    map[string]error
}

func (f *fakeProfiles) ListHelperProfileIDs(ctx context.Context) ([]string, error) {
	return f.ids, nil
}

func (f *fakeProfiles) FirstFilter(ctx context.Context, helperProfileID string) (*model.Filter, error) {
	if err := f.fail[helperProfileID]; err != nil {
		return nil, err
	}
	return f.filters[helperProfileID], nil
}

type fakeCorpus struct{ docs []model.WorkDocument }

func (f *fakeCorpus) Eligible(now time.Time) []model.WorkDocument { return f.docs }

type fakeEntries struct {
	seen  map[string]map[string]struct{}
	added map[string][]string
}

func newFakeEntries() *fakeEntries {
	return &fakeEntries{
		seen:  make(map[string]map[string]struct{}),
		added: make(map[string][]string),
	}
}

func (f *fakeEntries) Seen(ctx context.Context, helperProfileID string) (map[string]struct{}, error) {
	s := f.seen[helperProfileID]
	if s == nil {
		s = map[string]struct{}{}
	}
	return s, nil
}

func (f *fakeEntries) Add(ctx context.Context, helperProfileID string, docIDs []string, now time.Time) error {
	f.added[helperProfileID] = append(f.added[helperProfileID], docIDs...)
	return nil
}

func corpusOf(n int) []model.WorkDocument {
	docs := make([]model.WorkDocument, n)
	for i := range docs {
		doc := hualienDoc()
		doc.ID = "post-" + string(rune('a'+i))
		doc.StartDate = doc.StartDate.AddDate(0, 0, i)
		docs[i] = doc
	}
	return docs
}

func TestRunnerSurfacesTopUnseen(t *testing.T) {
	docs := corpusOf(recommend.TopN + 2)
	entries := newFakeEntries()
	entries.seen["helper-1"] = map[string]struct{}{
		docs[len(docs)-1].ID: {}, // newest document already surfaced
	}
	profiles := &fakeProfiles{
		ids:     []string{"helper-1"},
		filters: map[string]*model.Filter{"helper-1": {City: strPtr("花蓮縣")}},
	}

	runner := recommend.NewRunner(profiles, &fakeCorpus{docs: docs}, entries, 0)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := entries.added["helper-1"]
	if len(got) != recommend.TopN {
		t.Fatalf("surfaced %d document(s), want %d", len(got), recommend.TopN)
	}
	for _, id := range got {
		if id == docs[len(docs)-1].ID {
			t.Fatalf("already-surfaced document %s was surfaced again", id)
		}
	}
}

func TestRunnerSkipsSubscribersWithoutProfile(t *testing.T) {
	entries := newFakeEntries()
	profiles := &fakeProfiles{
		ids:     []string{"helper-1"},
		filters: map[string]*model.Filter{}, // no subscription, no profile
	}

	runner := recommend.NewRunner(profiles, &fakeCorpus{docs: corpusOf(3)}, entries, 0)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries.added) != 0 {
		t.Fatalf("surfaced documents for a profile-less subscriber: %v", entries.added)
	}
}

func TestRunnerContinuesAfterSubscriberFailure(t *testing.T) {
	entries := newFakeEntries()
	profiles := &fakeProfiles{
		ids: []string{"helper-bad", "helper-good"},
		filters: map[string]*model.Filter{
			"helper-good": {City: strPtr("花蓮縣")},
		},
		fail: map[string]error{"helper-bad": errors.New("profile store down")},
	}

	runner := recommend.NewRunner(profiles, &fakeCorpus{docs: corpusOf(2)}, entries, 0)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries.added["helper-good"]) == 0 {
		t.Fatal("healthy subscriber got no recommendations after a peer failed")
	}
}
