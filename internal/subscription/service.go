package subscription

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/Ke1ly/haloop-match-service/internal/model"
	"github.com/Ke1ly/haloop-match-service/internal/percolator"
)

// ErrNotFound is returned when a subscription does not exist or is not
// owned by the requesting helper. The two cases are deliberately
// indistinguishable to callers.
var ErrNotFound = errors.New("subscription not found")

// Service coordinates subscription writes with the live predicate index:
// a subscription becomes matchable in the same call that stores it.
type Service struct {
	repo    *Repo
	matches *MatchStore
	index   *percolator.Index
}

// NewService wires a subscription Service.
func NewService(repo *Repo, matches *MatchStore, index *percolator.Index) *Service {
	return &Service{repo: repo, matches: matches, index: index}
}

// Create validates, stores and indexes a new subscription. A filter with
// no effective constraints fails with percolator.ValidationError before
// anything is written.
func (s *Service) Create(ctx context.Context, helperProfileID string, name *string, f model.Filter) (model.Subscription, error) {
	// Compile up front so an unusable filter is rejected before the insert.
	if _, err := percolator.Compile("pending", helperProfileID, f); err != nil {
		return model.Subscription{}, err
	}

	sub, err := s.repo.Create(ctx, helperProfileID, name, f)
	if err != nil {
		return model.Subscription{}, err
	}

	p, err := percolator.Compile(sub.ID, sub.HelperProfileID, sub.Filter)
	if err != nil {
		// Cannot happen after the pre-check; the row still exists and the
		// next bootstrap will report it.
		return sub, fmt.Errorf("index subscription %s: %w", sub.ID, err)
	}
	s.index.Upsert(p)

	log.Printf("[subscription] Created %s for helper %s", sub.ID, helperProfileID)
	return sub, nil
}

// List returns the helper's subscriptions, newest first.
func (s *Service) List(ctx context.Context, helperProfileID string) ([]model.Subscription, error) {
	return s.repo.ListByHelper(ctx, helperProfileID)
}

// ListMatches returns the match history of one of the helper's
// subscriptions. A subscription owned by someone else reads as absent.
func (s *Service) ListMatches(ctx context.Context, helperProfileID, subscriptionID string) ([]MatchedPost, error) {
	sub, err := s.repo.Get(ctx, subscriptionID)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription %s: %w", subscriptionID, err)
	}
	if sub.HelperProfileID != helperProfileID {
		return nil, ErrNotFound
	}
	return s.matches.ListBySubscription(ctx, subscriptionID)
}
