package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/ppsgen/backend/internal/model"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// 内存库每个连接独立，固定单连接
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.Snapshot{}, &model.BatchRun{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func sampleTree(description string) model.Tree {
	item := model.NewItem("1.1.1.a-0", "1.1.1.a", map[model.FieldName]string{
		model.FieldDescription: description,
	})
	return model.Tree{
		"1": {Title: "BAB 1", Standards: map[string]*model.Standard{
			"1.1": {Title: "Standar 1.1", Criteria: map[string]*model.Criterion{
				"1.1.1": {Title: "Kriteria 1.1.1", Items: []*model.Item{item}},
			}},
		}},
	}
}

func TestSnapshotRepository_GetMissing(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))

	_, err := repo.Get(context.Background(), "owner", "dataset")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotRepository_PutOverwrites(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, &model.Snapshot{OwnerID: "u1", DatasetName: "ds", Tree: sampleTree("lama"), SummaryText: "ringkasan"}); err != nil {
		t.Fatalf("first put failed: %v", err)
	}
	if err := repo.Put(ctx, &model.Snapshot{OwnerID: "u1", DatasetName: "ds", Tree: sampleTree("baru")}); err != nil {
		t.Fatalf("second put failed: %v", err)
	}

	snap, err := repo.Get(ctx, "u1", "ds")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	item := snap.Tree["1"].Standards["1.1"].Criteria["1.1.1"].Items[0]
	if got := item.Field(model.FieldDescription); got != "baru" {
		t.Errorf("expected overwritten description, got %q", got)
	}
	if snap.SummaryText != "" {
		t.Errorf("summary should be replaced, got %q", snap.SummaryText)
	}
	if snap.SavedAt.IsZero() {
		t.Errorf("SavedAt should be set")
	}

	list, err := repo.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected exactly one snapshot row, got %d", len(list))
	}
}

func TestSnapshotRepository_OwnersAreIsolated(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, &model.Snapshot{OwnerID: "u1", DatasetName: "ds", Tree: sampleTree("satu")}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, err := repo.Get(ctx, "u2", "ds"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other owner must not see snapshot, got %v", err)
	}

	if err := repo.Delete(ctx, "u1", "ds"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, "u1", "ds"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestBatchRunRepository_Lifecycle(t *testing.T) {
	repo := NewBatchRunRepository(setupTestDB(t))
	ctx := context.Background()

	run := &model.BatchRun{ID: "run-1", OwnerID: "u1", DatasetName: "ds", Field: "indicator", Status: "queued"}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := repo.Create(ctx, &model.BatchRun{ID: "run-2", OwnerID: "u1", DatasetName: "ds", Field: "target", Status: "running"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	run.Status = "succeeded"
	run.Total, run.Processed, run.SuccessCount = 4, 4, 4
	if err := repo.Save(ctx, run); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != "succeeded" || got.SuccessCount != 4 {
		t.Errorf("unexpected run: %+v", got)
	}

	runs, err := repo.ListByDataset(ctx, "u1", "ds", 0)
	if err != nil {
		t.Fatalf("ListByDataset failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" {
		t.Errorf("expected newest first, got %+v", runs)
	}

	n, err := repo.FailStale(ctx, "restart")
	if err != nil {
		t.Fatalf("FailStale failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 stale run, got %d", n)
	}
	stale, _ := repo.Get(ctx, "run-2")
	if stale.Status != "failed" || stale.ErrorMsg != "restart" || stale.CompletedAt == nil {
		t.Errorf("stale run not failed: %+v", stale)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
