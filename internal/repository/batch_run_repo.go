package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ppsgen/backend/internal/model"
	"gorm.io/gorm"
)

type batchRunRepository struct {
	db *gorm.DB
}

func NewBatchRunRepository(db *gorm.DB) BatchRunRepository {
	return &batchRunRepository{db: db}
}

func (r *batchRunRepository) Create(ctx context.Context, run *model.BatchRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *batchRunRepository) Save(ctx context.Context, run *model.BatchRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *batchRunRepository) Get(ctx context.Context, id string) (*model.BatchRun, error) {
	var run model.BatchRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// ListByDataset 最近的运行在前，limit <= 0 表示不限制
func (r *batchRunRepository) ListByDataset(ctx context.Context, ownerID, datasetName string, limit int) ([]model.BatchRun, error) {
	var runs []model.BatchRun
	q := r.db.WithContext(ctx).
		Where("owner_id = ? AND dataset_name = ?", ownerID, datasetName).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&runs).Error
	return runs, err
}

func (r *batchRunRepository) GetByStatus(ctx context.Context, status string) ([]model.BatchRun, error) {
	var runs []model.BatchRun
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at").Find(&runs).Error
	return runs, err
}

// FailStale 进程重启后，未结束的运行无法恢复，统一标记为失败
func (r *batchRunRepository) FailStale(ctx context.Context, reason string) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.BatchRun{}).
		Where("status IN ?", []string{"queued", "running"}).
		Updates(map[string]interface{}{
			"status":       "failed",
			"error_msg":    reason,
			"completed_at": &now,
		})
	return result.RowsAffected, result.Error
}
