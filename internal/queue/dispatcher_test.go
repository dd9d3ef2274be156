package queue_test

import (
	"context"
	"testing"

	"github.com/Ke1ly/haloop-match-service/internal/model"
	"github.com/Ke1ly/haloop-match-service/internal/queue"
)

type fakeDocs map[string]model.WorkDocument

func (f fakeDocs) Get(id string) (model.WorkDocument, bool) {
	doc, ok := f[id]
	return doc, ok
}

type fakeMatcher []model.MatchResult

func (f fakeMatcher) Match(doc model.WorkDocument) []model.MatchResult { return f }

// fakeMatchStore counts only first-time (document, subscription) pairs,
// mirroring the ON CONFLICT DO NOTHING insert.
type fakeMatchStore struct {
	rows map[[2]string]bool
}

func (s *fakeMatchStore) InsertBulk(ctx context.Context, matches []model.MatchResult) (int64, error) {
	if s.rows == nil {
		s.rows = make(map[[2]string]bool)
	}
	var inserted int64
	for _, m := range matches {
		key := [2]string{m.WorkPostID, m.SubscriptionID}
		if s.rows[key] {
			continue
		}
		s.rows[key] = true
		inserted++
	}
	return inserted, nil
}

type fakeDeliverer struct {
	calls [][]string
	input model.NotificationInput
}

func (d *fakeDeliverer) Deliver(ctx context.Context, ids []string, input model.NotificationInput) {
	d.calls = append(d.calls, ids)
	d.input = input
}

func TestDispatcher_PersistsMatchesThenDelivers(t *testing.T) {
	docs := fakeDocs{"p1": {ID: "p1"}}
	matcher := fakeMatcher{
		{WorkPostID: "p1", SubscriptionID: "s1", HelperProfileID: "h1"},
		{WorkPostID: "p1", SubscriptionID: "s2", HelperProfileID: "h1"}, // same subscriber twice
		{WorkPostID: "p1", SubscriptionID: "s3", HelperProfileID: "h2"},
	}
	store := &fakeMatchStore{}
	delivery := &fakeDeliverer{}

	d := queue.NewDispatcher(docs, matcher, store, delivery)
	job := queue.Job{ID: 1, WorkPostID: "p1", UnitName: "山上果園", PositionName: "果園幫手"}

	if err := d.Process(context.Background(), job); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(store.rows) != 3 {
		t.Errorf("persisted %d match rows, want 3", len(store.rows))
	}
	if len(delivery.calls) != 1 {
		t.Fatalf("Deliver called %d time(s), want 1", len(delivery.calls))
	}
	if got := delivery.calls[0]; len(got) != 2 || got[0] != "h1" || got[1] != "h2" {
		t.Errorf("recipients = %v, want [h1 h2] (deduplicated)", got)
	}
	if delivery.input.Data.WorkPostID != "p1" || delivery.input.Data.UnitName != "山上果園" {
		t.Errorf("notification data = %+v", delivery.input.Data)
	}
}

func TestDispatcher_ReprocessingInsertsNothingNew(t *testing.T) {
	docs := fakeDocs{"p1": {ID: "p1"}}
	matcher := fakeMatcher{{WorkPostID: "p1", SubscriptionID: "s1", HelperProfileID: "h1"}}
	store := &fakeMatchStore{}
	delivery := &fakeDeliverer{}
	d := queue.NewDispatcher(docs, matcher, store, delivery)
	job := queue.Job{ID: 1, WorkPostID: "p1"}

	for i := 0; i < 2; i++ {
		if err := d.Process(context.Background(), job); err != nil {
			t.Fatalf("Process run %d: %v", i+1, err)
		}
	}

	if len(store.rows) != 1 {
		t.Errorf("persisted %d match rows after double drain, want 1", len(store.rows))
	}
}

func TestDispatcher_MissingDocumentFailsForRetry(t *testing.T) {
	d := queue.NewDispatcher(fakeDocs{}, fakeMatcher{}, &fakeMatchStore{}, &fakeDeliverer{})
	err := d.Process(context.Background(), queue.Job{ID: 1, WorkPostID: "ghost"})
	if err == nil {
		t.Error("expected error when the document is not indexed")
	}
}

func TestDispatcher_NoMatchesIsSuccess(t *testing.T) {
	docs := fakeDocs{"p1": {ID: "p1"}}
	delivery := &fakeDeliverer{}
	d := queue.NewDispatcher(docs, fakeMatcher{}, &fakeMatchStore{}, delivery)

	if err := d.Process(context.Background(), queue.Job{ID: 1, WorkPostID: "p1"}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(delivery.calls) != 0 {
		t.Error("Deliver should not run when nothing matched")
	}
}
