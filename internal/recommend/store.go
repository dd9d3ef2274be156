package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// entryTTL is the retention window: an entry older than this expires
	// and the document may be surfaced again.
	entryTTL = 30 * 24 * time.Hour

	// entryCap bounds each subscriber's set; oldest entries are trimmed.
	entryCap = 100
)

// EntryStore keeps each subscriber's surfaced-document history in a Redis
// sorted set scored by surface time. Losing it is acceptable — the next
// scheduled run rebuilds recommendations; it only widens what counts as
// "new" once.
type EntryStore struct {
	rdb *redis.Client
}

// NewEntryStore returns an EntryStore backed by rdb.
func NewEntryStore(rdb *redis.Client) *EntryStore {
	return &EntryStore{rdb: rdb}
}

func entryKey(helperProfileID string) string {
	return "recommended:helper:" + helperProfileID
}

// Seen returns every document id currently in the subscriber's set.
func (s *EntryStore) Seen(ctx context.Context, helperProfileID string) (map[string]struct{}, error) {
	ids, err := s.rdb.ZRange(ctx, entryKey(helperProfileID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recommendation entries for %s: %w", helperProfileID, err)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// Add appends newly surfaced documents with the current timestamp, trims
// the set to its cap and refreshes the retention TTL.
func (s *EntryStore) Add(ctx context.Context, helperProfileID string, docIDs []string, now time.Time) error {
	if len(docIDs) == 0 {
		return nil
	}
	key := entryKey(helperProfileID)

	members := make([]redis.Z, len(docIDs))
	for i, id := range docIDs {
		members[i] = redis.Z{Score: float64(now.UnixMilli()), Member: id}
	}

	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-(entryCap + 1)))
	pipe.Expire(ctx, key, entryTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append recommendation entries for %s: %w", helperProfileID, err)
	}
	return nil
}

// Recent returns the subscriber's most recently surfaced document ids,
// newest first, capped at n.
func (s *EntryStore) Recent(ctx context.Context, helperProfileID string, n int64) ([]string, error) {
	ids, err := s.rdb.ZRevRange(ctx, entryKey(helperProfileID), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent recommendations for %s: %w", helperProfileID, err)
	}
	return ids, nil
}
