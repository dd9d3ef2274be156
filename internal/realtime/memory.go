package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// subscriberBuffer is the per-connection event buffer. A connection that
// falls this far behind starts losing events; persisted notifications are
// the authoritative record either way.
const subscriberBuffer = 16

// MemoryBroker is the single-process Broker: a map from user id to that
// user's live connection channels. Suitable for development and tests; a
// multi-process deployment needs the Redis broker so a worker process can
// reach connections held by a web process.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]bool
}

// NewMemoryBroker returns an empty in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[chan Event]bool)}
}

// Publish delivers to every live channel of userID without blocking: a slow
// consumer drops events rather than stalling the fan-out.
func (b *MemoryBroker) Publish(_ context.Context, userID, event string, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[userID] {
		select {
		case ch <- Event{Name: event, Payload: payload}:
		default:
			slog.Warn("realtime buffer full, event dropped", "userId", userID, "event", event)
		}
	}
	return nil
}

// Subscribe registers a new live connection for userID.
func (b *MemoryBroker) Subscribe(_ context.Context, userID string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan Event]bool)
	}
	b.subs[userID][ch] = true
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set := b.subs[userID]; set != nil {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, userID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel, nil
}

// Connected reports whether userID has at least one live connection.
func (b *MemoryBroker) Connected(userID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID]) > 0
}
