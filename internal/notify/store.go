// Package notify persists notifications and fans them out to live
// connections. Persistence is authoritative; realtime delivery is
// best-effort on top of it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// Store reads and writes the notifications table.
//
// The (helper_profile_id, work_post_id) unique constraint is what makes the
// whole pipeline idempotent: a reprocessed job re-inserts, conflicts, and
// skips — no duplicate rows, no double-counted unread totals.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Insert persists one notification for a recipient. Returns false when the
// (recipient, posting) pair already exists.
func (s *Store) Insert(ctx context.Context, helperProfileID string, input model.NotificationInput) (bool, error) {
	data, err := json.Marshal(input.Data)
	if err != nil {
		return false, fmt.Errorf("marshal notification data: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (helper_profile_id, work_post_id, title, message, data, is_read)
		 VALUES ($1, $2, $3, $4, $5::jsonb, false)
		 ON CONFLICT (helper_profile_id, work_post_id) DO NOTHING`,
		helperProfileID, input.Data.WorkPostID, input.Title, input.Message, string(data),
	)
	if err != nil {
		return false, fmt.Errorf("insert notification for helper %s: %w", helperProfileID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UnreadCount returns the recipient's current unread total.
func (s *Store) UnreadCount(ctx context.Context, helperProfileID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE helper_profile_id = $1 AND is_read = false`,
		helperProfileID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unread count for helper %s: %w", helperProfileID, err)
	}
	return count, nil
}

// MarkAllRead flips every unread notification of the recipient.
func (s *Store) MarkAllRead(ctx context.Context, helperProfileID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true
		 WHERE helper_profile_id = $1 AND is_read = false`,
		helperProfileID,
	)
	if err != nil {
		return fmt.Errorf("mark notifications read for helper %s: %w", helperProfileID, err)
	}
	return nil
}

// List returns the recipient's notifications, newest first.
func (s *Store) List(ctx context.Context, helperProfileID string, limit, offset int) ([]model.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, message, data, is_read, created_at
		 FROM notifications
		 WHERE helper_profile_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		helperProfileID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications for helper %s: %w", helperProfileID, err)
	}
	defer rows.Close()

	notifications := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
