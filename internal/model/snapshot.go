package model

import (
	"time"
)

// Snapshot 数据集持久化快照，按 (OwnerID, DatasetName) 唯一
type Snapshot struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OwnerID     string    `json:"owner_id" gorm:"size:128;not null;uniqueIndex:idx_snapshots_owner_dataset"`
	DatasetName string    `json:"dataset_name" gorm:"size:255;not null;uniqueIndex:idx_snapshots_owner_dataset"`
	Tree        Tree      `json:"tree" gorm:"type:text;serializer:json"`
	SummaryText string    `json:"summary_text" gorm:"type:text"`
	SavedAt     time.Time `json:"saved_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Snapshot) TableName() string {
	return "snapshots"
}
