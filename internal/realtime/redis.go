package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBroker routes events through Redis pub/sub so a message published
// from the dispatch worker reaches connections accepted by any web process.
type RedisBroker struct {
	rdb *redis.Client
}

// NewRedisBroker returns a Broker backed by rdb.
func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func userChannel(userID string) string {
	return "notify:user:" + userID
}

// Publish marshals the event envelope and publishes it to the user's
// channel. Zero subscribers is a normal outcome (user offline).
func (b *RedisBroker) Publish(ctx context.Context, userID, event string, payload any) error {
	raw, err := json.Marshal(Event{Name: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal event %q: %w", event, err)
	}
	if err := b.rdb.Publish(ctx, userChannel(userID), raw).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", userChannel(userID), err)
	}
	return nil
}

// Subscribe opens a Redis subscription on the user's channel and pumps
// decoded events until cancel is called or ctx ends.
func (b *RedisBroker) Subscribe(ctx context.Context, userID string) (<-chan Event, func(), error) {
	sub := b.rdb.Subscribe(ctx, userChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", userChannel(userID), err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("realtime broker: bad event payload", "userId", userID, "err", err)
				continue
			}
			select {
			case out <- ev:
			default:
				slog.Warn("realtime buffer full, event dropped", "userId", userID, "event", ev.Name)
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}
