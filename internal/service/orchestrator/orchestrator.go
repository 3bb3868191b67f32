package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// Job 一次异步批量运行
type Job struct {
	RunID       string
	EnqueuedAt  time.Time
	SubmitTries int           // 提交协程池失败后的重试次数
	MaxSubmits  int           // 提交重试上限
	Timeout     time.Duration // 单次运行的最长时间
}

// RunExecutor 执行批量运行。运行本身不重试，失败写入运行记录
type RunExecutor interface {
	ExecuteRun(ctx context.Context, runID string) error
}

// RunExecutorFunc 函数适配
type RunExecutorFunc func(ctx context.Context, runID string) error

func (f RunExecutorFunc) ExecuteRun(ctx context.Context, runID string) error {
	return f(ctx, runID)
}

// Orchestrator 有界协程池上的批量运行调度器，运行开始后不支持取消
type Orchestrator struct {
	jobQueue    *jobQueue
	retryQueue  *jobQueue
	retryTicker *time.Ticker

	pool *ants.Pool

	executor RunExecutor

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

var (
	ErrOrchestratorStopped = errors.New("orchestrator is stopped")
	ErrQueueFull           = errors.New("job queue is full")
)

const (
	defaultQueueSize  = 120
	defaultMaxSubmits = 5
	defaultRunTimeout = 30 * time.Minute
)

// NewRunJob 创建批量运行任务
func NewRunJob(runID string) *Job {
	return &Job{
		RunID:      runID,
		EnqueuedAt: time.Now(),
		MaxSubmits: defaultMaxSubmits,
		Timeout:    defaultRunTimeout,
	}
}

func NewOrchestrator(maxWorkers int, executor RunExecutor) (*Orchestrator, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	pool, err := ants.NewPool(maxWorkers,
		ants.WithNonblocking(true),
		ants.WithExpiryDuration(5*time.Minute),
	)
	if err != nil {
		cancel()
		klog.Errorf("ants pool initialization failed: %v", err)
		return nil, err
	}

	return &Orchestrator{
		jobQueue:    newJobQueue(defaultQueueSize),
		retryQueue:  newJobQueue(defaultQueueSize),
		retryTicker: time.NewTicker(500 * time.Millisecond),
		pool:        pool,
		executor:    executor,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

func (o *Orchestrator) Start() {
	o.wg.Add(2)
	go o.dispatchLoop()
	go o.processRetryQueue()
}

// Stop 停止接收新任务，等待运行中的批量任务结束
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		klog.V(6).Infof("Orchestrator stopping...")

		o.cancel()
		o.jobQueue.Close()
		o.retryQueue.Close()
		o.wg.Wait()

		if pending := o.jobQueue.Len() + o.retryQueue.Len(); pending > 0 {
			klog.Warningf("Orchestrator stopped with %d undispatched runs", pending)
		}

		running := o.pool.Running()
		if running > 0 {
			klog.V(6).Infof("Waiting for %d running batch runs to complete", running)
		}
		timeout := defaultRunTimeout + 5*time.Minute
		if err := o.pool.ReleaseTimeout(timeout); err != nil {
			klog.Warningf("Timeout after %v: some batch runs may be forced to stop", timeout)
		}
		klog.V(6).Infof("Orchestrator stopped completely")
	})
}

func (o *Orchestrator) EnqueueJob(job *Job) error {
	select {
	case <-o.ctx.Done():
		return ErrOrchestratorStopped
	default:
	}

	if err := o.jobQueue.Enqueue(job); err != nil {
		if errors.Is(err, ErrQueueFull) {
			klog.Warningf("Job queue full: runID=%s", job.RunID)
		}
		return err
	}
	klog.V(6).Infof("Job enqueued: runID=%s", job.RunID)
	return nil
}

func (o *Orchestrator) dispatchLoop() {
	defer o.wg.Done()
	for {
		job, ok := o.jobQueue.Dequeue()
		if !ok {
			return
		}
		o.tryDispatch(job)
	}
}

func (o *Orchestrator) processRetryQueue() {
	defer o.wg.Done()
	defer o.retryTicker.Stop()
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("Retry queue loop panic recovered: %v", r)
		}
	}()
	for {
		select {
		case <-o.ctx.Done():
			return
		case <-o.retryTicker.C:
			for range 10 {
				job, ok := o.retryQueue.TryDequeue()
				if !ok {
					break
				}
				o.tryDispatch(job)
			}
		}
	}
}

// tryDispatch 提交到协程池；池满时进入重试队列，超过上限则放弃
func (o *Orchestrator) tryDispatch(job *Job) {
	err := o.pool.Submit(func() {
		o.executeJob(job)
	})
	if err == nil {
		return
	}
	klog.V(6).Infof("提交批量运行到协程池失败: runID=%s, err=%v", job.RunID, err)

	if job.SubmitTries >= job.MaxSubmits {
		klog.Warningf("批量运行提交重试已达上限，放弃: runID=%s, tries=%d/%d", job.RunID, job.SubmitTries, job.MaxSubmits)
		return
	}
	job.SubmitTries++
	if err := o.retryQueue.Enqueue(job); err != nil {
		klog.Errorf("批量运行重试入队失败: runID=%s, err=%v", job.RunID, err)
	}
}

func (o *Orchestrator) executeJob(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("Batch run panic recovered: runID=%s, err=%v", job.RunID, r)
		}
	}()

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	// 运行不随 Stop 取消，只受超时约束
	ctx, cancel := context.WithTimeout(context.WithoutCancel(o.ctx), timeout)
	defer cancel()

	if err := o.executor.ExecuteRun(ctx, job.RunID); err != nil {
		klog.Warningf("批量运行失败: runID=%s, err=%v", job.RunID, err)
		return
	}
	klog.V(6).Infof("Batch run completed: runID=%s, waited=%v", job.RunID, time.Since(job.EnqueuedAt))
}

type QueueStatus struct {
	QueueLength   int `json:"queue_length"`
	RetryLength   int `json:"retry_length"`
	ActiveWorkers int `json:"active_workers"`
}

func (o *Orchestrator) GetQueueStatus() *QueueStatus {
	return &QueueStatus{
		QueueLength:   o.jobQueue.Len(),
		RetryLength:   o.retryQueue.Len(),
		ActiveWorkers: o.pool.Running(),
	}
}

// jobQueue 有界 FIFO，满时拒绝新任务
type jobQueue struct {
	maxSize int
	items   []*Job
	mutex   sync.Mutex
	cond    *sync.Cond
	closed  bool
}

func newJobQueue(maxSize int) *jobQueue {
	q := &jobQueue{
		maxSize: maxSize,
		items:   make([]*Job, 0, maxSize),
	}
	q.cond = sync.NewCond(&q.mutex)
	return q
}

func (q *jobQueue) Enqueue(job *Job) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.closed {
		return ErrOrchestratorStopped
	}
	if q.maxSize > 0 && len(q.items) >= q.maxSize {
		return ErrQueueFull
	}
	q.items = append(q.items, job)
	q.cond.Signal()
	return nil
}

// Dequeue 阻塞直到有任务；队列关闭后返回 false
func (q *jobQueue) Dequeue() (*Job, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return nil, false
	}
	return q.pop(), true
}

// TryDequeue 非阻塞出队
func (q *jobQueue) TryDequeue() (*Job, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if len(q.items) == 0 || q.closed {
		return nil, false
	}
	return q.pop(), true
}

func (q *jobQueue) pop() *Job {
	job := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return job
}

func (q *jobQueue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}

func (q *jobQueue) Close() {
	q.mutex.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mutex.Unlock()
}
