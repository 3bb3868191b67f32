package eventbus

import (
	"context"
	"errors"
	"testing"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewBatchEventBus()
	calledA := false
	calledB := false

	bus.Subscribe(BatchEventProgress, func(ctx context.Context, event BatchEvent) error {
		calledA = true
		return nil
	})
	bus.Subscribe(BatchEventProgress, func(ctx context.Context, event BatchEvent) error {
		calledB = event.Processed == 5
		return nil
	})

	if err := bus.Publish(context.Background(), BatchEvent{Type: BatchEventProgress, Processed: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledA || !calledB {
		t.Fatalf("expected handlers to be called")
	}
}

func TestBusRoutesByType(t *testing.T) {
	bus := NewNotificationBus()
	var warnings, errs int
	bus.Subscribe(NotificationWarning, func(ctx context.Context, n Notification) error {
		warnings++
		return nil
	})
	bus.Subscribe(NotificationError, func(ctx context.Context, n Notification) error {
		errs++
		return nil
	})

	_ = bus.Publish(context.Background(), Notification{Level: NotificationError, Message: "Kunci API tidak valid."})

	if errs != 1 || warnings != 0 {
		t.Fatalf("expected only the error handler, got errors=%d warnings=%d", errs, warnings)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBatchEventBus()
	called := false
	unsubscribe := bus.Subscribe(BatchEventCompleted, func(ctx context.Context, event BatchEvent) error {
		called = true
		return nil
	})
	unsubscribe()

	if err := bus.Publish(context.Background(), BatchEvent{Type: BatchEventCompleted}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewBatchEventBus()
	bus.Subscribe(BatchEventStarted, func(ctx context.Context, event BatchEvent) error {
		return errors.New("err-a")
	})
	bus.Subscribe(BatchEventStarted, func(ctx context.Context, event BatchEvent) error {
		return errors.New("err-b")
	})

	if err := bus.Publish(context.Background(), BatchEvent{Type: BatchEventStarted}); err == nil {
		t.Fatalf("expected error")
	}
}
