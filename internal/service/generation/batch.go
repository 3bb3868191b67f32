package generation

import (
	"context"
	"time"

	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/model"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

const (
	DefaultChunkSize  = 5
	DefaultChunkDelay = 1500 * time.Millisecond
)

// Result 批量生成汇总
type Result struct {
	Total        int `json:"total"` // 符合条件的条目数
	Processed    int `json:"processed"`
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

// Progress 每个分块结束后的累计进度
type Progress struct {
	Processed    int
	Total        int
	Chunk        int // 从 1 开始
	Chunks       int
	SuccessCount int
	FailureCount int
}

// ProgressFunc 进度回调
type ProgressFunc func(Progress)

// Batch 分块并发驱动 Handler：块内并发，块间串行并间隔固定时长
type Batch struct {
	handler    *Handler
	chunkSize  int
	chunkDelay time.Duration
	sleep      Sleeper
}

// BatchOption 批量选项
type BatchOption func(*Batch)

func WithChunkSize(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.chunkSize = n
		}
	}
}

func WithChunkDelay(d time.Duration) BatchOption {
	return func(b *Batch) { b.chunkDelay = d }
}

func WithChunkSleeper(s Sleeper) BatchOption {
	return func(b *Batch) {
		if s != nil {
			b.sleep = s
		}
	}
}

// NewBatch 创建批量编排器
func NewBatch(handler *Handler, opts ...BatchOption) *Batch {
	b := &Batch{
		handler:    handler,
		chunkSize:  DefaultChunkSize,
		chunkDelay: DefaultChunkDelay,
		sleep:      ContextSleep,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SelectEligible 前置条件成立且目标字段（清洗后）为空的条目；已有内容的条目被跳过
func SelectEligible(items []*model.Item, cfg *domain.FieldConfig) []*model.Item {
	var eligible []*model.Item
	for _, item := range items {
		if cfg.Precondition != nil && !cfg.Precondition(item) {
			continue
		}
		if domain.CleanAIInput(item.Field(cfg.Field)) != "" {
			continue
		}
		eligible = append(eligible, item)
	}
	return eligible
}

// Chunk 按固定大小切分
func Chunk(items []*model.Item, size int) [][]*model.Item {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]*model.Item
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// RunAll 对条目集合的某个字段执行批量生成
// 同一时刻最多 chunkSize 个远程调用在途；块 N+1 必须等块 N 全部结束才开始
func (b *Batch) RunAll(ctx context.Context, items []*model.Item, cfg *domain.FieldConfig, onProgress ProgressFunc) Result {
	eligible := SelectEligible(items, cfg)
	result := Result{Total: len(eligible)}
	if len(eligible) == 0 {
		klog.V(6).Infof("批量生成无可处理条目: field=%s", cfg.Field)
		return result
	}

	chunks := Chunk(eligible, b.chunkSize)
	klog.V(6).Infof("批量生成开始: field=%s, eligible=%d, chunks=%d", cfg.Field, len(eligible), len(chunks))

	for i, chunk := range chunks {
		outcomes, chunkErr := b.runChunk(ctx, chunk, cfg)
		for _, o := range outcomes {
			result.Processed++
			if o.Success {
				result.SuccessCount++
			} else {
				result.FailureCount++
			}
		}

		if onProgress != nil {
			onProgress(Progress{
				Processed:    result.Processed,
				Total:        result.Total,
				Chunk:        i + 1,
				Chunks:       len(chunks),
				SuccessCount: result.SuccessCount,
				FailureCount: result.FailureCount,
			})
		}

		if chunkErr != nil {
			klog.Warningf("批量生成被中断: field=%s, chunk=%d/%d, err=%v", cfg.Field, i+1, len(chunks), chunkErr)
			break
		}
		if i < len(chunks)-1 {
			if err := b.sleep(ctx, b.chunkDelay); err != nil {
				klog.Warningf("批量生成等待被中断: field=%s, err=%v", cfg.Field, err)
				break
			}
		}
	}

	klog.V(6).Infof("批量生成结束: field=%s, processed=%d, success=%d, failure=%d",
		cfg.Field, result.Processed, result.SuccessCount, result.FailureCount)
	return result
}

// runChunk 块内所有条目并发执行并等待全部结束；ctx 结束导致的失败作为错误返回
func (b *Batch) runChunk(ctx context.Context, chunk []*model.Item, cfg *domain.FieldConfig) ([]Outcome, error) {
	outcomes := make([]Outcome, len(chunk))
	var g errgroup.Group
	for i, item := range chunk {
		g.Go(func() error {
			outcomes[i] = b.handler.Generate(ctx, item, cfg)
			if outcomes[i].Err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	return outcomes, g.Wait()
}
