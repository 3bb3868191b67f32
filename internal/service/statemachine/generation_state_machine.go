package statemachine

// GenerationState 单次字段生成的状态
type GenerationState string

const (
	StateGating  GenerationState = "gating"  // 检查前置条件
	StateCalling GenerationState = "calling" // 远程调用中
	StateBackoff GenerationState = "backoff" // 限流后等待重试
	StateDone    GenerationState = "done"    // 结束（成功或失败）
)

type generationTransition struct {
	From GenerationState
	To   GenerationState
}

var generationTransitions = map[generationTransition]bool{
	{StateGating, StateCalling}:  true,
	{StateGating, StateDone}:     true, // 前置条件不满足
	{StateCalling, StateBackoff}: true, // 限流
	{StateCalling, StateDone}:    true, // 成功或终止性错误
	{StateBackoff, StateCalling}: true,
	{StateBackoff, StateDone}:    true, // 重试次数耗尽
}

// GenerationTracker 记录一次生成调用的状态，非并发安全（每次调用各自持有）
type GenerationTracker struct {
	state GenerationState
	trail []GenerationState
}

// NewGenerationTracker 从 Gating 开始
func NewGenerationTracker() *GenerationTracker {
	return &GenerationTracker{state: StateGating, trail: []GenerationState{StateGating}}
}

// State 当前状态
func (t *GenerationTracker) State() GenerationState {
	return t.state
}

// Trail 经过的全部状态
func (t *GenerationTracker) Trail() []GenerationState {
	return append([]GenerationState(nil), t.trail...)
}

// To 迁移到下一状态，非法迁移返回错误且状态不变
func (t *GenerationTracker) To(next GenerationState) error {
	if !generationTransitions[generationTransition{From: t.state, To: next}] {
		return &InvalidStateTransitionError{Kind: "generation", From: string(t.state), To: string(next)}
	}
	t.state = next
	t.trail = append(t.trail, next)
	return nil
}
