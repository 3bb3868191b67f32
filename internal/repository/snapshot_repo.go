package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ppsgen/backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Get(ctx context.Context, ownerID, datasetName string) (*model.Snapshot, error) {
	var snap model.Snapshot
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND dataset_name = ?", ownerID, datasetName).
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}

// Put 按 (owner_id, dataset_name) 覆盖写入
func (r *snapshotRepository) Put(ctx context.Context, snapshot *model.Snapshot) error {
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = time.Now()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "dataset_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"tree", "summary_text", "saved_at", "updated_at"}),
	}).Create(snapshot).Error
}

func (r *snapshotRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Snapshot, error) {
	var snaps []model.Snapshot
	err := r.db.WithContext(ctx).
		Select("id", "owner_id", "dataset_name", "saved_at", "created_at", "updated_at").
		Where("owner_id = ?", ownerID).
		Order("dataset_name").
		Find(&snaps).Error
	return snaps, err
}

func (r *snapshotRepository) Delete(ctx context.Context, ownerID, datasetName string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND dataset_name = ?", ownerID, datasetName).
		Delete(&model.Snapshot{}).Error
}
