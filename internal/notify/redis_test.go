package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisNotifierPublishSubscribe(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)

	notifier, err := NewRedisNotifier("redis://" + srv.Addr())
	if err != nil {
		t.Fatalf("failed to build redis notifier: %v", err)
	}
	defer notifier.Close()

	ctx := context.Background()
	events, cancel, err := notifier.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	want := Event{Table: TableOrders, EntityID: "ord-42", Op: OpUpdate}
	if err := notifier.Publish(ctx, want); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-events:
		if got.Table != want.Table || got.EntityID != want.EntityID || got.Op != want.Op {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive published event")
	}
}

func TestRedisNotifierRejectsBadConnectionString(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisNotifier("not-a-url"); err == nil {
		t.Fatal("expected error for invalid connection string")
	}
}
