package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppsgen/backend/internal/eventbus"
	"github.com/ppsgen/backend/internal/model"
)

type mockSnapshotRepo struct {
	puts   int32
	PutErr error
}

func (m *mockSnapshotRepo) Get(ctx context.Context, ownerID, datasetName string) (*model.Snapshot, error) {
	return nil, errors.New("not used")
}

func (m *mockSnapshotRepo) Put(ctx context.Context, snapshot *model.Snapshot) error {
	atomic.AddInt32(&m.puts, 1)
	return m.PutErr
}

func (m *mockSnapshotRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Snapshot, error) {
	return nil, nil
}

func (m *mockSnapshotRepo) Delete(ctx context.Context, ownerID, datasetName string) error {
	return nil
}

func TestFlusherDebounces(t *testing.T) {
	var saves int32
	f := newFlusher(30*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&saves, 1)
		return nil
	}, nil)

	for i := 0; i < 5; i++ {
		f.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&saves) != 0 {
		t.Fatalf("save should wait for the quiet period")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && atomic.LoadInt32(&saves) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&saves); got != 1 {
		t.Fatalf("expected exactly one save, got %d", got)
	}
}

func TestFlusherFlushDisarms(t *testing.T) {
	var saves int32
	f := newFlusher(20*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&saves, 1)
		return nil
	}, nil)

	f.Trigger()
	if err := f.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if f.Pending() {
		t.Fatalf("Flush should disarm the timer")
	}
	time.Sleep(60 * time.Millisecond)
	if got := atomic.LoadInt32(&saves); got != 1 {
		t.Fatalf("expected one save, got %d", got)
	}
}

func TestFlusherStopIgnoresTrigger(t *testing.T) {
	f := newFlusher(time.Millisecond, func(ctx context.Context) error { return nil }, nil)
	f.Stop()
	f.Trigger()
	if f.Pending() {
		t.Fatalf("stopped flusher must not arm")
	}
}

func TestSessionPersistSkipsEmpty(t *testing.T) {
	repo := &mockSnapshotRepo{}
	sess := newSession(sessionKey{owner: "u1", dataset: "rs"}, model.Tree{}, "")

	if err := sess.persist(context.Background(), repo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.puts != 0 {
		t.Fatalf("empty session must not be written")
	}

	sess.SetSummary("ringkasan")
	if err := sess.persist(context.Background(), repo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.puts != 1 {
		t.Fatalf("summary alone should be written, got %d puts", repo.puts)
	}
}

func TestPersistFailurePublishesWarning(t *testing.T) {
	env := newTestEnv(t, okGenerator("ok"))
	repo := &mockSnapshotRepo{PutErr: errors.New("disk full")}
	env.svc.snapshots = repo
	ctx := context.Background()

	key := sessionKey{owner: "u1", dataset: "rs"}
	sess := newSession(key, model.Tree{"1": {Title: "BAB 1"}}, "")
	env.svc.attachFlusher(sess)
	env.svc.sessions[key] = sess

	if err := env.svc.Flush(ctx, "u1", "rs"); err == nil {
		t.Fatalf("expected flush error")
	}
	notes := env.svc.Notifications("u1", "rs")
	if len(notes) != 1 || notes[0].Level != eventbus.NotificationWarning {
		t.Fatalf("expected one warning notification, got %+v", notes)
	}
	if len(sess.Tree()) != 1 {
		t.Fatalf("in-memory state must survive a failed write")
	}
}

func TestNotificationLogKeepsLatest(t *testing.T) {
	log := newNotificationLog()
	for i := 0; i < notificationLimit+7; i++ {
		_ = log.record(context.Background(), eventbus.Notification{OwnerID: "u1", DatasetName: "rs", Message: fmt.Sprintf("m%d", i)})
	}
	list := log.list(sessionKey{owner: "u1", dataset: "rs"})
	if len(list) != notificationLimit {
		t.Fatalf("expected %d notifications, got %d", notificationLimit, len(list))
	}
	if list[0].Message != "m7" || list[len(list)-1].Message != fmt.Sprintf("m%d", notificationLimit+6) {
		t.Fatalf("unexpected window: first=%s last=%s", list[0].Message, list[len(list)-1].Message)
	}
}
