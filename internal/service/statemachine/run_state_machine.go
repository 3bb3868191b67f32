package statemachine

import (
	"fmt"

	"k8s.io/klog/v2"
)

// RunStatus 批量生成运行的状态
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"    // 已入队等待
	RunStatusRunning   RunStatus = "running"   // 正在执行
	RunStatusSucceeded RunStatus = "succeeded" // 所有分块处理完毕（单条失败不影响）
	RunStatusFailed    RunStatus = "failed"    // 运行本身无法继续，例如数据集未加载
)

// RunTransition 定义运行状态迁移
type RunTransition struct {
	From RunStatus
	To   RunStatus
}

// RunStateMachine 运行状态机
type RunStateMachine struct {
	allowedTransitions map[RunTransition]bool
}

// NewRunStateMachine 创建运行状态机
// queued -> running -> succeeded/failed；queued -> failed（入队后无法执行）
func NewRunStateMachine() *RunStateMachine {
	sm := &RunStateMachine{
		allowedTransitions: make(map[RunTransition]bool),
	}
	transitions := []RunTransition{
		{RunStatusQueued, RunStatusRunning},
		{RunStatusQueued, RunStatusFailed},
		{RunStatusRunning, RunStatusSucceeded},
		{RunStatusRunning, RunStatusFailed},
	}
	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}
	return sm
}

// CanTransition 检查状态迁移是否合法
func (sm *RunStateMachine) CanTransition(from, to RunStatus) bool {
	if from == to {
		return false
	}
	return sm.allowedTransitions[RunTransition{From: from, To: to}]
}

// Transition 执行状态迁移（带日志）
func (sm *RunStateMachine) Transition(from, to RunStatus, runID string) error {
	if !sm.CanTransition(from, to) {
		err := &InvalidStateTransitionError{Kind: "run", From: string(from), To: string(to)}
		klog.V(6).Infof("运行状态迁移被拒绝: runID=%s, %s -> %s", runID, from, to)
		return err
	}
	klog.V(6).Infof("运行状态迁移成功: runID=%s, %s -> %s", runID, from, to)
	return nil
}

// InvalidStateTransitionError 无效的状态迁移错误
type InvalidStateTransitionError struct {
	Kind string
	From string
	To   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition: %s -> %s", e.Kind, e.From, e.To)
}

// IsTerminal 判断运行是否已结束
func IsTerminal(status RunStatus) bool {
	return status == RunStatusSucceeded || status == RunStatusFailed
}
