package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// MatchStore persists match records.
//
//	CREATE TABLE matched_work_posts (
//	    work_post_id           TEXT NOT NULL,
//	    filter_subscription_id TEXT NOT NULL,
//	    helper_profile_id      TEXT NOT NULL,
//	    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (work_post_id, filter_subscription_id)
//	);
type MatchStore struct {
	pool *pgxpool.Pool
}

// NewMatchStore returns a MatchStore backed by pool.
func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

// InsertBulk records matches in one statement. Pairs already present are
// skipped, so replaying a delivery job inserts nothing new. Returns the
// number of rows actually written.
func (s *MatchStore) InsertBulk(ctx context.Context, matches []model.MatchResult) (int64, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	postIDs := make([]string, len(matches))
	subIDs := make([]string, len(matches))
	helperIDs := make([]string, len(matches))
	for i, m := range matches {
		postIDs[i] = m.WorkPostID
		subIDs[i] = m.SubscriptionID
		helperIDs[i] = m.HelperProfileID
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO matched_work_posts (work_post_id, filter_subscription_id, helper_profile_id)
		SELECT * FROM unnest($1::text[], $2::text[], $3::text[])
		ON CONFLICT (work_post_id, filter_subscription_id) DO NOTHING`,
		postIDs, subIDs, helperIDs)
	if err != nil {
		return 0, fmt.Errorf("insert matches: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MatchedPost is one match record for a subscription, newest first in
// listings.
type MatchedPost struct {
	WorkPostID string    `json:"workPostId"`
	MatchedAt  time.Time `json:"matchedAt"`
}

// ListBySubscription returns the subscription's match history, newest
// first.
func (s *MatchStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]MatchedPost, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT work_post_id, created_at
		FROM matched_work_posts
		WHERE filter_subscription_id = $1
		ORDER BY created_at DESC`, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list matches for subscription %s: %w", subscriptionID, err)
	}
	defer rows.Close()

	var posts []MatchedPost
	for rows.Next() {
		var p MatchedPost
		if err := rows.Scan(&p.WorkPostID, &p.MatchedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
