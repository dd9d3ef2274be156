package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/Ke1ly/haloop-match-service/internal/realtime"
)

func TestMemoryBroker_PublishReachesAllConnections(t *testing.T) {
	b := realtime.NewMemoryBroker()
	ctx := context.Background()

	ch1, cancel1, _ := b.Subscribe(ctx, "user-1")
	ch2, cancel2, _ := b.Subscribe(ctx, "user-1")
	defer cancel1()
	defer cancel2()

	if err := b.Publish(ctx, "user-1", "new_notification", map[string]string{"id": "n1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for i, ch := range []<-chan realtime.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Name != "new_notification" {
				t.Errorf("connection %d got event %q, want new_notification", i+1, ev.Name)
			}
		case <-time.After(time.Second):
			t.Fatalf("connection %d never received the event", i+1)
		}
	}
}

func TestMemoryBroker_EventsAreSubscriberAddressed(t *testing.T) {
	b := realtime.NewMemoryBroker()
	ctx := context.Background()

	other, cancel, _ := b.Subscribe(ctx, "user-2")
	defer cancel()

	_ = b.Publish(ctx, "user-1", "unread_count", map[string]int{"count": 3})

	select {
	case ev := <-other:
		t.Errorf("user-2 received user-1's event %q", ev.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBroker_PublishToOfflineUserIsNoop(t *testing.T) {
	b := realtime.NewMemoryBroker()
	if err := b.Publish(context.Background(), "ghost", "new_notification", nil); err != nil {
		t.Errorf("Publish to offline user returned error: %v", err)
	}
}

func TestMemoryBroker_CancelRemovesConnection(t *testing.T) {
	b := realtime.NewMemoryBroker()
	ctx := context.Background()

	ch, cancel, _ := b.Subscribe(ctx, "user-1")
	if !b.Connected("user-1") {
		t.Fatal("user-1 should be connected after Subscribe")
	}

	cancel()
	if b.Connected("user-1") {
		t.Error("user-1 should be disconnected after cancel")
	}

	_ = b.Publish(ctx, "user-1", "new_notification", nil)
	select {
	case ev := <-ch:
		t.Errorf("cancelled connection received %q", ev.Name)
	case <-time.After(50 * time.Millisecond):
	}
}
