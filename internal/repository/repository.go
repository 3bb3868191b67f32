package repository

import (
	"context"
	"errors"

	"github.com/ppsgen/backend/internal/model"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

// SnapshotRepository 数据集快照存取，按 (ownerID, datasetName) 定位
type SnapshotRepository interface {
	Get(ctx context.Context, ownerID, datasetName string) (*model.Snapshot, error)
	Put(ctx context.Context, snapshot *model.Snapshot) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Snapshot, error)
	Delete(ctx context.Context, ownerID, datasetName string) error
}

// BatchRunRepository 批量运行记录存取
type BatchRunRepository interface {
	Create(ctx context.Context, run *model.BatchRun) error
	Save(ctx context.Context, run *model.BatchRun) error
	Get(ctx context.Context, id string) (*model.BatchRun, error)
	ListByDataset(ctx context.Context, ownerID, datasetName string, limit int) ([]model.BatchRun, error)
	GetByStatus(ctx context.Context, status string) ([]model.BatchRun, error)
	FailStale(ctx context.Context, reason string) (int64, error)
}
