// Package posting ingests posting events from the CRUD service and keeps
// the durable posting feed the document index is rebuilt from.
package posting

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// FeedStore persists raw posting records as JSONB.
//
//	CREATE TABLE work_post_feed (
//	    work_post_id TEXT PRIMARY KEY,
//	    raw_data     JSONB NOT NULL,
//	    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type FeedStore struct {
	pool *pgxpool.Pool
}

// NewFeedStore returns a FeedStore backed by pool.
func NewFeedStore(pool *pgxpool.Pool) *FeedStore {
	return &FeedStore{pool: pool}
}

// Put stores the posting, replacing any previous snapshot with the same id.
func (s *FeedStore) Put(ctx context.Context, post model.RawWorkPost) error {
	raw, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal posting %s: %w", post.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO work_post_feed (work_post_id, raw_data)
		VALUES ($1, $2)
		ON CONFLICT (work_post_id)
		DO UPDATE SET raw_data = EXCLUDED.raw_data, updated_at = NOW()`,
		post.ID, raw)
	if err != nil {
		return fmt.Errorf("store posting %s: %w", post.ID, err)
	}
	return nil
}

// Get returns one raw posting by id; pgx.ErrNoRows is passed through.
func (s *FeedStore) Get(ctx context.Context, id string) (model.RawWorkPost, error) {
	var raw []byte
	if err := s.pool.QueryRow(ctx,
		`SELECT raw_data FROM work_post_feed WHERE work_post_id = $1`, id,
	).Scan(&raw); err != nil {
		return model.RawWorkPost{}, err
	}

	var post model.RawWorkPost
	if err := json.Unmarshal(raw, &post); err != nil {
		return model.RawWorkPost{}, fmt.Errorf("decode posting %s: %w", id, err)
	}
	return post, nil
}

// Delete removes a posting from the feed. Missing rows are not an error.
func (s *FeedStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM work_post_feed WHERE work_post_id = $1`, id); err != nil {
		return fmt.Errorf("delete posting %s: %w", id, err)
	}
	return nil
}

// ListPage returns one page of the feed in stable order, for rebuilding the
// document index at startup.
func (s *FeedStore) ListPage(ctx context.Context, limit, offset int) ([]model.RawWorkPost, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT raw_data FROM work_post_feed
		ORDER BY work_post_id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posting feed page: %w", err)
	}
	defer rows.Close()

	var posts []model.RawWorkPost
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan posting row: %w", err)
		}
		var post model.RawWorkPost
		if err := json.Unmarshal(raw, &post); err != nil {
			return nil, fmt.Errorf("decode posting row: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
