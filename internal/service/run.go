package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/eventbus"
	"github.com/ppsgen/backend/internal/model"
	"github.com/ppsgen/backend/internal/service/generation"
	"github.com/ppsgen/backend/internal/service/orchestrator"
	"github.com/ppsgen/backend/internal/service/statemachine"
	"k8s.io/klog/v2"
)

// StartBatch 创建批量运行记录并提交到编排器，立即返回
func (s *DatasetService) StartBatch(ctx context.Context, owner, dataset string, field model.FieldName, apiKey string) (*model.BatchRun, error) {
	if _, ok := domain.LookupFieldConfig(field); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if _, err := s.session(owner, dataset); err != nil {
		return nil, err
	}
	if s.orchestrator == nil {
		return nil, orchestrator.ErrOrchestratorStopped
	}

	run := &model.BatchRun{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		DatasetName: dataset,
		Field:       string(field),
		Status:      string(statemachine.RunStatusQueued),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("创建批量运行记录失败: %w", err)
	}
	if apiKey != "" {
		s.runKeys.Store(run.ID, apiKey)
	}

	if err := s.orchestrator.EnqueueJob(orchestrator.NewRunJob(run.ID)); err != nil {
		s.runKeys.Delete(run.ID)
		s.finishRun(ctx, run, statemachine.RunStatusFailed, err)
		return nil, fmt.Errorf("批量运行入队失败: %w", err)
	}
	klog.V(6).Infof("批量运行已入队: runID=%s, dataset=%s, field=%s", run.ID, dataset, field)
	return run, nil
}

// ExecuteRun 由编排器在协程池中调用
func (s *DatasetService) ExecuteRun(ctx context.Context, runID string) error {
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("获取批量运行记录失败: %w", err)
	}
	apiKey := ""
	if v, ok := s.runKeys.LoadAndDelete(runID); ok {
		apiKey = v.(string)
	}

	if err := s.runStateMachine.Transition(statemachine.RunStatus(run.Status), statemachine.RunStatusRunning, run.ID); err != nil {
		return err
	}
	run.Status = string(statemachine.RunStatusRunning)
	if err := s.runs.Save(ctx, run); err != nil {
		return fmt.Errorf("更新批量运行状态失败: %w", err)
	}

	field := model.FieldName(run.Field)
	cfg, ok := domain.LookupFieldConfig(field)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownField, field)
		s.finishRun(ctx, run, statemachine.RunStatusFailed, err)
		return err
	}
	sess, err := s.session(run.OwnerID, run.DatasetName)
	if err != nil {
		s.finishRun(ctx, run, statemachine.RunStatusFailed, err)
		return err
	}

	s.publishBatch(ctx, eventbus.BatchEvent{Type: eventbus.BatchEventStarted}, run)
	result := s.runBatch(ctx, sess, cfg, apiKey, func(p generation.Progress) {
		s.publishBatch(ctx, eventbus.BatchEvent{
			Type:         eventbus.BatchEventProgress,
			Processed:    p.Processed,
			Total:        p.Total,
			SuccessCount: p.SuccessCount,
			FailureCount: p.FailureCount,
		}, run)
	})

	run.Total = result.Total
	run.Processed = result.Processed
	run.SuccessCount = result.SuccessCount
	run.FailureCount = result.FailureCount
	if err := sess.flusher.Flush(ctx); err != nil {
		klog.Warningf("批量运行结束后保存快照失败: runID=%s, err=%v", run.ID, err)
	}
	s.finishRun(ctx, run, statemachine.RunStatusSucceeded, nil)
	return nil
}

func (s *DatasetService) finishRun(ctx context.Context, run *model.BatchRun, status statemachine.RunStatus, runErr error) {
	if err := s.runStateMachine.Transition(statemachine.RunStatus(run.Status), status, run.ID); err != nil {
		klog.Errorf("批量运行状态迁移失败: runID=%s, err=%v", run.ID, err)
		return
	}
	now := time.Now()
	run.Status = string(status)
	run.CompletedAt = &now
	if runErr != nil {
		run.ErrorMsg = runErr.Error()
	}
	if err := s.runs.Save(ctx, run); err != nil {
		klog.Errorf("保存批量运行结果失败: runID=%s, err=%v", run.ID, err)
	}
	s.publishBatch(ctx, eventbus.BatchEvent{
		Type:         eventbus.BatchEventCompleted,
		Processed:    run.Processed,
		Total:        run.Total,
		SuccessCount: run.SuccessCount,
		FailureCount: run.FailureCount,
		Err:          runErr,
	}, run)
}

func (s *DatasetService) publishBatch(ctx context.Context, event eventbus.BatchEvent, run *model.BatchRun) {
	event.RunID = run.ID
	event.OwnerID = run.OwnerID
	event.DatasetName = run.DatasetName
	event.Field = run.Field
	if err := s.batchBus.Publish(ctx, event); err != nil {
		klog.Warningf("发布批量运行事件失败: runID=%s, err=%v", run.ID, err)
	}
}

// recordProgress 把分块进度写入运行记录
func (s *DatasetService) recordProgress(ctx context.Context, event eventbus.BatchEvent) error {
	run, err := s.runs.Get(ctx, event.RunID)
	if err != nil {
		return err
	}
	run.Total = event.Total
	run.Processed = event.Processed
	run.SuccessCount = event.SuccessCount
	run.FailureCount = event.FailureCount
	return s.runs.Save(ctx, run)
}

// GetRun 查询批量运行
func (s *DatasetService) GetRun(ctx context.Context, runID string) (*model.BatchRun, error) {
	return s.runs.Get(ctx, runID)
}

// ListRuns 数据集最近的批量运行
func (s *DatasetService) ListRuns(ctx context.Context, owner, dataset string) ([]model.BatchRun, error) {
	return s.runs.ListByDataset(ctx, owner, dataset, 20)
}
