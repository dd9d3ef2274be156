package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// NotificationStore is the persistence edge of the fan-out. Satisfied by
// *Store; faked in tests.
type NotificationStore interface {
	Insert(ctx context.Context, helperProfileID string, input model.NotificationInput) (bool, error)
	UnreadCount(ctx context.Context, helperProfileID string) (int, error)
}

// Publisher pushes an event to a subscriber's live connections.
type Publisher interface {
	Publish(ctx context.Context, userID, event string, payload any) error
}

// Directory resolves helper profile ids to the user ids that live
// connections are addressed by. A narrow read of externally-owned profile
// data.
type Directory interface {
	UserIDs(ctx context.Context, helperProfileIDs []string) (map[string]string, error)
}

// deliveryParallelism bounds concurrent per-recipient work so a large match
// set cannot saturate the notification store.
const deliveryParallelism = 4

// Fanout delivers one notification to every matched recipient: persist,
// recount unread, then push to live connections. An offline recipient's
// persisted row is the sole record; the next poll reads it.
type Fanout struct {
	store     NotificationStore
	publisher Publisher
	directory Directory
}

// NewFanout wires the delivery fan-out.
func NewFanout(store NotificationStore, publisher Publisher, directory Directory) *Fanout {
	return &Fanout{store: store, publisher: publisher, directory: directory}
}

// Deliver processes every recipient with bounded parallelism. One
// recipient's failure is logged and never aborts the rest, so Deliver has
// no error to return.
func (f *Fanout) Deliver(ctx context.Context, helperProfileIDs []string, input model.NotificationInput) {
	if len(helperProfileIDs) == 0 {
		return
	}

	users, err := f.directory.UserIDs(ctx, helperProfileIDs)
	if err != nil {
		slog.Error("fanout: resolve recipients", "workPostId", input.Data.WorkPostID, "err", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deliveryParallelism)
	for _, helperID := range helperProfileIDs {
		helperID := helperID
		g.Go(func() error {
			f.deliverOne(gctx, helperID, users[helperID], input)
			return nil
		})
	}
	_ = g.Wait()
}

// deliverOne persists first, then attempts realtime delivery. A duplicate
// insert means this (recipient, posting) pair was already handled — skip
// entirely so reprocessing cannot re-notify. Publish failures are logged
// and dropped: the persisted row is already durable.
func (f *Fanout) deliverOne(ctx context.Context, helperID, userID string, input model.NotificationInput) {
	created, err := f.store.Insert(ctx, helperID, input)
	if err != nil {
		slog.Warn("fanout: persist notification", "helperId", helperID, "workPostId", input.Data.WorkPostID, "err", err)
		return
	}
	if !created {
		return
	}

	count, err := f.store.UnreadCount(ctx, helperID)
	if err != nil {
		slog.Warn("fanout: unread count", "helperId", helperID, "err", err)
		return
	}

	if userID == "" {
		slog.Warn("fanout: no user for helper profile", "helperId", helperID)
		return
	}

	event := map[string]any{
		"id":        uuid.NewString(),
		"title":     input.Title,
		"message":   input.Message,
		"data":      input.Data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := f.publisher.Publish(ctx, userID, "new_notification", event); err != nil {
		slog.Warn("fanout: publish new_notification", "userId", userID, "err", err)
		return
	}
	if err := f.publisher.Publish(ctx, userID, "unread_count", map[string]int{"count": count}); err != nil {
		slog.Warn("fanout: publish unread_count", "userId", userID, "err", err)
	}
}
