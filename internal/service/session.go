package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ppsgen/backend/internal/model"
	"github.com/ppsgen/backend/internal/repository"
	"github.com/ppsgen/backend/internal/service/generation"
)

type sessionKey struct {
	owner   string
	dataset string
}

// session 一个已加载数据集的内存状态
// tree 的结构在导入后不再变化，只有条目字段会被修改
type session struct {
	key sessionKey

	mu      sync.RWMutex
	tree    model.Tree
	summary string
	savedAt time.Time

	busy       *generation.BusyFlags
	flusher    *flusher
	activeRuns atomic.Int32
}

func newSession(key sessionKey, tree model.Tree, summary string) *session {
	return &session{
		key:     key,
		tree:    tree,
		summary: summary,
		busy:    generation.NewBusyFlags(),
	}
}

func (s *session) Tree() model.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

func (s *session) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

func (s *session) SetSummary(text string) {
	s.mu.Lock()
	s.summary = text
	s.mu.Unlock()
}

// persist 写入最新状态；空树且没有摘要时跳过
func (s *session) persist(ctx context.Context, repo repository.SnapshotRepository) error {
	s.mu.RLock()
	tree, summary := s.tree, s.summary
	s.mu.RUnlock()
	if len(tree) == 0 && summary == "" {
		return nil
	}

	snap := &model.Snapshot{
		OwnerID:     s.key.owner,
		DatasetName: s.key.dataset,
		Tree:        tree,
		SummaryText: summary,
		SavedAt:     time.Now(),
	}
	if err := repo.Put(ctx, snap); err != nil {
		return err
	}
	s.mu.Lock()
	s.savedAt = snap.SavedAt
	s.mu.Unlock()
	return nil
}

func (s *session) SavedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savedAt
}
