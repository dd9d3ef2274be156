package notify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileDirectory reads the helper_profiles table owned by the profile
// CRUD service. Only the id ↔ user id mapping is consumed here.
type ProfileDirectory struct {
	pool *pgxpool.Pool
}

// NewProfileDirectory returns a directory backed by pool.
func NewProfileDirectory(pool *pgxpool.Pool) *ProfileDirectory {
	return &ProfileDirectory{pool: pool}
}

// UserIDs maps helper profile ids to their owning user ids. Unknown ids are
// simply absent from the result.
func (d *ProfileDirectory) UserIDs(ctx context.Context, helperProfileIDs []string) (map[string]string, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, user_id FROM helper_profiles WHERE id = ANY($1)`,
		helperProfileIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query helper profiles: %w", err)
	}
	defer rows.Close()

	users := make(map[string]string, len(helperProfileIDs))
	for rows.Next() {
		var helperID, userID string
		if err := rows.Scan(&helperID, &userID); err != nil {
			return nil, fmt.Errorf("scan helper profile: %w", err)
		}
		users[helperID] = userID
	}
	return users, rows.Err()
}

// HelperProfileID resolves the helper profile owned by a user. Returns
// empty string when the user has no helper profile.
func (d *ProfileDirectory) HelperProfileID(ctx context.Context, userID string) (string, error) {
	var id string
	err := d.pool.QueryRow(ctx,
		`SELECT id FROM helper_profiles WHERE user_id = $1`,
		userID,
	).Scan(&id)
	if err == pgx.ErrNoRows {
		return "", nil // no profile — caller decides how to respond
	}
	if err != nil {
		return "", fmt.Errorf("resolve helper profile for user %s: %w", userID, err)
	}
	return id, nil
}
