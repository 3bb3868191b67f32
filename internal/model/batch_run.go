package model

import (
	"time"
)

// BatchRun 一次批量生成运行记录
type BatchRun struct {
	ID           string     `json:"id" gorm:"primaryKey;size:64"` // UUID
	OwnerID      string     `json:"owner_id" gorm:"size:128;index:idx_batch_runs_dataset"`
	DatasetName  string     `json:"dataset_name" gorm:"size:255;index:idx_batch_runs_dataset"`
	Field        string     `json:"field" gorm:"size:64;not null"`
	Status       string     `json:"status" gorm:"size:20;default:queued"` // queued, running, succeeded, failed
	Total        int        `json:"total"`
	Processed    int        `json:"processed"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	ErrorMsg     string     `json:"error_msg" gorm:"size:1000"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// TableName 指定表名
func (BatchRun) TableName() string {
	return "batch_runs"
}
