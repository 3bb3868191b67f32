package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeExecutor struct {
	err   error
	calls int32
	mu    sync.Mutex
	seen  []string
	block chan struct{}
}

func (f *fakeExecutor) ExecuteRun(ctx context.Context, runID string) error {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.seen = append(f.seen, runID)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.err
}

func waitCalls(t *testing.T, f *fakeExecutor, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&f.calls) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("executor calls = %d, want %d", atomic.LoadInt32(&f.calls), want)
}

func TestEnqueueRunsJob(t *testing.T) {
	executor := &fakeExecutor{}
	o, err := NewOrchestrator(2, executor)
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}
	o.Start()
	defer o.Stop()

	if err := o.EnqueueJob(NewRunJob("run-1")); err != nil {
		t.Fatalf("EnqueueJob failed: %v", err)
	}
	waitCalls(t, executor, 1)

	executor.mu.Lock()
	defer executor.mu.Unlock()
	if executor.seen[0] != "run-1" {
		t.Fatalf("unexpected run id: %v", executor.seen)
	}
}

func TestExecutorErrorIsNotRetried(t *testing.T) {
	executor := &fakeExecutor{err: errors.New("boom")}
	o, _ := NewOrchestrator(1, executor)
	o.retryTicker.Stop()
	defer o.pool.Release()

	o.executeJob(NewRunJob("run-2"))

	if atomic.LoadInt32(&executor.calls) != 1 {
		t.Fatalf("executor should be called once, got %d", executor.calls)
	}
}

func TestTryDispatchPoolFullGoesToRetryQueue(t *testing.T) {
	executor := &fakeExecutor{block: make(chan struct{})}
	o, _ := NewOrchestrator(1, executor)
	o.retryTicker.Stop()
	defer o.pool.Release()

	o.tryDispatch(NewRunJob("busy"))
	waitCalls(t, executor, 1)

	job := NewRunJob("waiting")
	o.tryDispatch(job)
	if got := o.retryQueue.Len(); got != 1 {
		t.Fatalf("retry queue should hold the job, got %d", got)
	}
	if job.SubmitTries != 1 {
		t.Fatalf("submit tries should be 1, got %d", job.SubmitTries)
	}
	close(executor.block)
}

func TestTryDispatchGivesUpAfterMaxSubmits(t *testing.T) {
	executor := &fakeExecutor{block: make(chan struct{})}
	o, _ := NewOrchestrator(1, executor)
	o.retryTicker.Stop()
	defer o.pool.Release()

	o.tryDispatch(NewRunJob("busy"))
	waitCalls(t, executor, 1)

	job := &Job{RunID: "exhausted", SubmitTries: 2, MaxSubmits: 2}
	o.tryDispatch(job)
	if got := o.retryQueue.Len(); got != 0 {
		t.Fatalf("retry queue should be empty, got %d", got)
	}
	close(executor.block)
}

func TestEnqueueAfterStop(t *testing.T) {
	o, _ := NewOrchestrator(1, &fakeExecutor{})
	o.Start()
	o.Stop()

	if err := o.EnqueueJob(NewRunJob("late")); !errors.Is(err, ErrOrchestratorStopped) {
		t.Fatalf("expected ErrOrchestratorStopped, got %v", err)
	}
}

func TestStopWaitsForRunningRun(t *testing.T) {
	executor := &fakeExecutor{block: make(chan struct{})}
	o, _ := NewOrchestrator(1, executor)
	o.Start()

	if err := o.EnqueueJob(NewRunJob("long")); err != nil {
		t.Fatalf("EnqueueJob failed: %v", err)
	}
	waitCalls(t, executor, 1)

	stopped := make(chan struct{})
	go func() {
		o.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatalf("Stop returned while a run was still executing")
	case <-time.After(50 * time.Millisecond):
	}
	close(executor.block)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not return after the run finished")
	}
}
