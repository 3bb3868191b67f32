package service

import (
	"context"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

const flushTimeout = 30 * time.Second

// flusher 防抖写入：窗口内多次 Trigger 只写一次，写入的是触发时刻之后的最新状态
type flusher struct {
	delay   time.Duration
	save    func(ctx context.Context) error
	onError func(err error)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newFlusher(delay time.Duration, save func(ctx context.Context) error, onError func(err error)) *flusher {
	return &flusher{delay: delay, save: save, onError: onError}
}

// Trigger 重新计时
func (f *flusher) Trigger() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.delay, f.fire)
}

func (f *flusher) fire() {
	f.mu.Lock()
	f.timer = nil
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	f.run(ctx)
}

// Flush 取消计时并立即写入
func (f *flusher) Flush(ctx context.Context) error {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.mu.Unlock()
	return f.run(ctx)
}

// Stop 取消计时，之后的 Trigger 无效
func (f *flusher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// Pending 是否有待写入的计时
func (f *flusher) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timer != nil
}

func (f *flusher) run(ctx context.Context) error {
	err := f.save(ctx)
	if err != nil {
		klog.Warningf("快照写入失败: %v", err)
		if f.onError != nil {
			f.onError(err)
		}
	}
	return err
}
