package generation

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/model"
	"github.com/ppsgen/backend/internal/pkg/llm"
	"github.com/ppsgen/backend/internal/service/statemachine"
	"k8s.io/klog/v2"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// Outcome 一次字段生成的结果
type Outcome struct {
	ItemID   string
	Field    model.FieldName
	Success  bool
	Calls    int   // 实际发起的远程调用次数
	Err      error // 终止性错误；前置条件失败与限流耗尽时为 nil
	Value    string
	Trail    []statemachine.GenerationState
	Rejected bool // 前置条件不满足，未发起调用
}

// ErrorNotifier 终止性错误的全局通知
type ErrorNotifier func(ctx context.Context, item *model.Item, field model.FieldName, err error)

// Sleeper 可替换的等待函数，ctx 结束时提前返回错误
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep 默认等待实现
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Handler 包装单次远程生成调用：前置条件检查、限流重试、终止性错误短路
type Handler struct {
	gen         llm.Generator
	busy        *BusyFlags
	maxAttempts int
	retryDelay  time.Duration
	sleep       Sleeper
	notify      ErrorNotifier
}

// HandlerOption 处理器选项
type HandlerOption func(*Handler)

func WithMaxAttempts(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxAttempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) HandlerOption {
	return func(h *Handler) { h.retryDelay = d }
}

func WithBusyFlags(b *BusyFlags) HandlerOption {
	return func(h *Handler) {
		if b != nil {
			h.busy = b
		}
	}
}

func WithSleeper(s Sleeper) HandlerOption {
	return func(h *Handler) {
		if s != nil {
			h.sleep = s
		}
	}
}

func WithErrorNotifier(n ErrorNotifier) HandlerOption {
	return func(h *Handler) { h.notify = n }
}

// NewHandler 创建生成处理器
func NewHandler(gen llm.Generator, opts ...HandlerOption) *Handler {
	h := &Handler{
		gen:         gen,
		busy:        NewBusyFlags(),
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		sleep:       ContextSleep,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Busy 返回处理器使用的忙碌标记
func (h *Handler) Busy() *BusyFlags {
	return h.busy
}

// Generate 为条目的目标字段生成内容。字段最终一定被写入真实内容或诊断文本
func (h *Handler) Generate(ctx context.Context, item *model.Item, cfg *domain.FieldConfig) Outcome {
	tracker := statemachine.NewGenerationTracker()
	out := Outcome{ItemID: item.ID, Field: cfg.Field}
	finish := func(value string, success bool) Outcome {
		item.SetField(cfg.Field, value)
		h.move(tracker, statemachine.StateDone, item.ID)
		out.Value = value
		out.Success = success
		out.Trail = tracker.Trail()
		return out
	}

	if cfg.Precondition != nil && !cfg.Precondition(item) {
		out.Rejected = true
		klog.V(6).Infof("前置条件不满足，跳过生成: item=%s, field=%s", item.ID, cfg.Field)
		return finish(cfg.PreconditionFailureText, false)
	}

	key := BusyKey(item.ID, cfg.LoadingSuffix)
	h.busy.Set(key)
	defer h.busy.Clear(key)

	prompt := cfg.BuildPrompt(item)
	for attempt := 1; ; attempt++ {
		h.move(tracker, statemachine.StateCalling, item.ID)
		out.Calls++
		text, err := h.gen.Generate(ctx, prompt)
		if err == nil {
			if value := Sanitize(text); value != "" {
				return finish(value, true)
			}
			err = &llm.UnexpectedStatusError{StatusCode: http.StatusOK, Message: "empty completion"}
			klog.Warningf("模型返回内容为空: item=%s, field=%s", item.ID, cfg.Field)
			out.Err = err
			if h.notify != nil {
				h.notify(ctx, item, cfg.Field, err)
			}
			return finish(domain.FailedStatus(err), false)
		}

		if !llm.IsRateLimited(err) {
			klog.Warningf("字段生成失败: item=%s, field=%s, err=%v", item.ID, cfg.Field, err)
			out.Err = err
			if h.notify != nil {
				h.notify(ctx, item, cfg.Field, err)
			}
			return finish(domain.FailedStatus(err), false)
		}

		h.move(tracker, statemachine.StateBackoff, item.ID)
		item.SetField(cfg.Field, domain.RetryingStatus(attempt, h.maxAttempts))
		if attempt >= h.maxAttempts {
			klog.Warningf("限流重试耗尽: item=%s, field=%s, attempts=%d", item.ID, cfg.Field, attempt)
			return finish(domain.RetriesExhaustedStatus(), false)
		}
		klog.V(6).Infof("触发限流，等待重试: item=%s, field=%s, attempt=%d/%d", item.ID, cfg.Field, attempt, h.maxAttempts)
		if err := h.sleep(ctx, h.retryDelay); err != nil {
			out.Err = err
			return finish(domain.FailedStatus(err), false)
		}
	}
}

func (h *Handler) move(tracker *statemachine.GenerationTracker, next statemachine.GenerationState, itemID string) {
	if err := tracker.To(next); err != nil {
		klog.Errorf("生成状态迁移异常: item=%s, err=%v", itemID, err)
	}
}

var quotePairs = [][2]string{
	{`"`, `"`},
	{"“", "”"},
}

// Sanitize 去除首尾空白以及一对包裹引号
func Sanitize(text string) string {
	s := strings.TrimSpace(text)
	for _, q := range quotePairs {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			return strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
		}
	}
	return s
}
