package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppsgen/backend/config"
	"github.com/ppsgen/backend/internal/pkg/database"
	"github.com/ppsgen/backend/internal/repository"
	"github.com/ppsgen/backend/internal/service"
	"k8s.io/klog/v2"
)

// app 命令共享的依赖
type app struct {
	cfg      *config.Config
	runs     repository.BatchRunRepository
	datasets *service.DatasetService
}

func newApp() (*app, error) {
	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	if cfg.Database.Type != "mysql" {
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("创建数据库目录失败: %w", err)
			}
		}
	}

	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	snapshots := repository.NewSnapshotRepository(db)
	runs := repository.NewBatchRunRepository(db)
	return &app{
		cfg:      cfg,
		runs:     runs,
		datasets: service.NewDatasetService(cfg, snapshots, runs),
	}, nil
}

// failStaleRuns 上次进程退出时未结束的运行无法恢复
func (a *app) failStaleRuns(ctx context.Context) {
	affected, err := a.runs.FailStale(ctx, "服务重启，运行已中断")
	if err != nil {
		klog.Warningf("清理未结束的批量运行失败: %v", err)
		return
	}
	if affected > 0 {
		klog.V(6).Infof("启动时标记了 %d 个中断的批量运行", affected)
	}
}
