// Package subscription manages stored filter subscriptions and their match
// records.
package subscription

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// Repo persists subscriptions in Postgres.
//
//	CREATE TABLE filter_subscriptions (
//	    id                TEXT PRIMARY KEY DEFAULT gen_random_uuid(),
//	    helper_profile_id TEXT NOT NULL,
//	    name              TEXT,
//	    filters           JSONB NOT NULL,
//	    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//	CREATE INDEX idx_filter_subscriptions_helper
//	    ON filter_subscriptions (helper_profile_id);
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo returns a Repo backed by pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a subscription row and returns it with the generated id
// and creation time filled in.
func (r *Repo) Create(ctx context.Context, helperProfileID string, name *string, f model.Filter) (model.Subscription, error) {
	filters, err := json.Marshal(f)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("marshal filters: %w", err)
	}

	sub := model.Subscription{HelperProfileID: helperProfileID, Name: name, Filter: f}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO filter_subscriptions (helper_profile_id, name, filters)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		helperProfileID, name, filters,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}
	return sub, nil
}

// Get returns one subscription by id; pgx.ErrNoRows is passed through for
// the caller to translate.
func (r *Repo) Get(ctx context.Context, id string) (model.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, helper_profile_id, name, filters, created_at
		FROM filter_subscriptions
		WHERE id = $1`, id)
	return scanSubscription(row)
}

// ListByHelper returns the helper's subscriptions, newest first.
func (r *Repo) ListByHelper(ctx context.Context, helperProfileID string) ([]model.Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, helper_profile_id, name, filters, created_at
		FROM filter_subscriptions
		WHERE helper_profile_id = $1
		ORDER BY created_at DESC`, helperProfileID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for %s: %w", helperProfileID, err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// ListPage returns one page of all subscriptions in stable order, for
// rebuilding the predicate index at startup.
func (r *Repo) ListPage(ctx context.Context, limit, offset int) ([]model.Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, helper_profile_id, name, filters, created_at
		FROM filter_subscriptions
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions page: %w", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// ListHelperProfileIDs returns every helper profile that owns at least one
// subscription. This is the recommendation subscriber population.
func (r *Repo) ListHelperProfileIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT helper_profile_id FROM filter_subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("list subscribed helpers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan helper id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FirstFilter returns the helper's oldest subscription filter, used as
// their soft preference profile, or nil when they own none.
func (r *Repo) FirstFilter(ctx context.Context, helperProfileID string) (*model.Filter, error) {
	var filters []byte
	err := r.pool.QueryRow(ctx, `
		SELECT filters FROM filter_subscriptions
		WHERE helper_profile_id = $1
		ORDER BY created_at, id
		LIMIT 1`, helperProfileID).Scan(&filters)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load first filter for %s: %w", helperProfileID, err)
	}

	var f model.Filter
	if err := json.Unmarshal(filters, &f); err != nil {
		return nil, fmt.Errorf("decode stored filter for %s: %w", helperProfileID, err)
	}
	return &f, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (model.Subscription, error) {
	var sub model.Subscription
	var filters []byte
	if err := row.Scan(&sub.ID, &sub.HelperProfileID, &sub.Name, &filters, &sub.CreatedAt); err != nil {
		return model.Subscription{}, err
	}
	if err := json.Unmarshal(filters, &sub.Filter); err != nil {
		return model.Subscription{}, fmt.Errorf("decode stored filter for %s: %w", sub.ID, err)
	}
	return sub, nil
}

func collectSubscriptions(rows pgx.Rows) ([]model.Subscription, error) {
	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
