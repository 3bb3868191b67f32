package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/ppsgen/backend/config"
	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/eventbus"
	"github.com/ppsgen/backend/internal/model"
	"github.com/ppsgen/backend/internal/pkg/llm"
	"github.com/ppsgen/backend/internal/repository"
	"github.com/ppsgen/backend/internal/service/export"
	"github.com/ppsgen/backend/internal/service/generation"
	"github.com/ppsgen/backend/internal/service/hierarchy"
	"github.com/ppsgen/backend/internal/service/inventory"
	"github.com/ppsgen/backend/internal/service/orchestrator"
	"github.com/ppsgen/backend/internal/service/statemachine"
	"github.com/ppsgen/backend/internal/utils"
	"k8s.io/klog/v2"
)

var (
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	ErrItemNotFound     = errors.New("item not found")
	ErrUnknownField     = errors.New("unknown field")
	ErrBatchInProgress  = errors.New("a batch run is in progress for this dataset")
)

// GeneratorFactory 按请求携带的 API Key 创建生成器，空 Key 使用配置
type GeneratorFactory func(apiKey string) llm.Generator

// DatasetView 数据集当前状态
type DatasetView struct {
	OwnerID     string          `json:"owner_id"`
	DatasetName string          `json:"dataset_name"`
	Tree        model.Tree      `json:"tree"`
	SummaryText string          `json:"summary_text"`
	Busy        map[string]bool `json:"busy"`
	SavedAt     *time.Time      `json:"saved_at,omitempty"`
}

// DatasetService 管理每个 (owner, dataset) 的内存会话：导入合并、编辑、AI 生成、持久化
type DatasetService struct {
	cfg          *config.Config
	snapshots    repository.SnapshotRepository
	runs         repository.BatchRunRepository
	newGenerator GeneratorFactory

	batchBus        *eventbus.BatchEventBus
	notificationBus *eventbus.NotificationBus
	notifications   *notificationLog
	runStateMachine *statemachine.RunStateMachine
	orchestrator    *orchestrator.Orchestrator
	retrySleeper    generation.Sleeper
	chunkSleeper    generation.Sleeper

	// runID -> 请求携带的 API Key，仅保存在内存
	runKeys sync.Map

	sessionsMu sync.RWMutex
	sessions   map[sessionKey]*session
}

// DatasetOption 服务选项
type DatasetOption func(*DatasetService)

// WithGeneratorFactory 替换生成器创建方式
func WithGeneratorFactory(f GeneratorFactory) DatasetOption {
	return func(s *DatasetService) {
		if f != nil {
			s.newGenerator = f
		}
	}
}

// WithSleepers 替换限流重试与分块间隔的等待函数
func WithSleepers(retry, chunk generation.Sleeper) DatasetOption {
	return func(s *DatasetService) {
		s.retrySleeper = retry
		s.chunkSleeper = chunk
	}
}

func NewDatasetService(cfg *config.Config, snapshots repository.SnapshotRepository, runs repository.BatchRunRepository, opts ...DatasetOption) *DatasetService {
	s := &DatasetService{
		cfg:             cfg,
		snapshots:       snapshots,
		runs:            runs,
		batchBus:        eventbus.NewBatchEventBus(),
		notificationBus: eventbus.NewNotificationBus(),
		notifications:   newNotificationLog(),
		runStateMachine: statemachine.NewRunStateMachine(),
		sessions:        map[sessionKey]*session{},
	}
	s.newGenerator = func(apiKey string) llm.Generator {
		return llm.NewGenerator(cfg.LLM, apiKey)
	}
	for _, opt := range opts {
		opt(s)
	}

	s.notificationBus.Subscribe(eventbus.NotificationError, s.notifications.record)
	s.notificationBus.Subscribe(eventbus.NotificationWarning, s.notifications.record)
	s.batchBus.Subscribe(eventbus.BatchEventProgress, s.recordProgress)
	return s
}

// SetOrchestrator 设置批量运行编排器
func (s *DatasetService) SetOrchestrator(o *orchestrator.Orchestrator) {
	s.orchestrator = o
}

// BatchEvents 批量运行事件总线
func (s *DatasetService) BatchEvents() *eventbus.BatchEventBus {
	return s.batchBus
}

func (s *DatasetService) session(owner, dataset string) (*session, error) {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	sess, ok := s.sessions[sessionKey{owner: owner, dataset: dataset}]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotLoaded, dataset)
	}
	return sess, nil
}

// Import 构建新树，与已有状态合并后替换当前会话
// 会话已加载时以内存中的树为准（包含尚未写入的编辑），否则读取保存的快照
// 持久化读取失败时中止导入，避免随后的写入覆盖已保存的内容
func (s *DatasetService) Import(ctx context.Context, owner, dataset string, records []hierarchy.Record) (*DatasetView, error) {
	key := sessionKey{owner: owner, dataset: dataset}

	tree, err := hierarchy.BuildChecked(records)
	if err != nil {
		return nil, err
	}

	s.sessionsMu.RLock()
	_, loaded := s.sessions[key]
	s.sessionsMu.RUnlock()

	var snap *model.Snapshot
	if !loaded {
		snap, err = s.snapshots.Get(ctx, owner, dataset)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("读取快照失败: %w", err)
		}
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	summary := ""
	var savedAt time.Time
	if old, ok := s.sessions[key]; ok {
		if old.activeRuns.Load() > 0 {
			return nil, ErrBatchInProgress
		}
		old.flusher.Stop()
		tree = hierarchy.Merge(tree, old.Tree())
		summary = old.Summary()
		savedAt = old.SavedAt()
		klog.V(6).Infof("已合并当前会话: owner=%s, dataset=%s", owner, dataset)
	} else if snap != nil {
		tree = hierarchy.Merge(tree, snap.Tree)
		summary = snap.SummaryText
		savedAt = snap.SavedAt
		klog.V(6).Infof("已合并保存的快照: owner=%s, dataset=%s, savedAt=%s", owner, dataset, snap.SavedAt.Format(time.RFC3339))
	}

	sess := newSession(key, tree, summary)
	sess.savedAt = savedAt
	s.attachFlusher(sess)
	s.sessions[key] = sess

	sess.flusher.Trigger()
	klog.V(6).Infof("数据集导入完成: owner=%s, dataset=%s, items=%d", owner, dataset, len(hierarchy.Items(tree)))
	return s.view(sess), nil
}

// DatasetInfo 数据集列表项
type DatasetInfo struct {
	DatasetName string     `json:"dataset_name"`
	SavedAt     *time.Time `json:"saved_at,omitempty"`
	Loaded      bool       `json:"loaded"`
}

// List 列出 owner 已保存或已加载的数据集，按名称排序
func (s *DatasetService) List(ctx context.Context, owner string) ([]DatasetInfo, error) {
	snaps, err := s.snapshots.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("查询快照列表失败: %w", err)
	}

	infos := make(map[string]*DatasetInfo, len(snaps))
	for i := range snaps {
		saved := snaps[i].SavedAt
		infos[snaps[i].DatasetName] = &DatasetInfo{DatasetName: snaps[i].DatasetName, SavedAt: &saved}
	}

	s.sessionsMu.RLock()
	for key, sess := range s.sessions {
		if key.owner != owner {
			continue
		}
		info, ok := infos[key.dataset]
		if !ok {
			info = &DatasetInfo{DatasetName: key.dataset}
			infos[key.dataset] = info
		}
		info.Loaded = true
		if saved := sess.SavedAt(); !saved.IsZero() {
			info.SavedAt = &saved
		}
	}
	s.sessionsMu.RUnlock()

	out := make([]DatasetInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DatasetName < out[j].DatasetName })
	return out, nil
}

// Delete 卸载会话并删除保存的快照；批量运行进行中时拒绝
func (s *DatasetService) Delete(ctx context.Context, owner, dataset string) error {
	key := sessionKey{owner: owner, dataset: dataset}

	s.sessionsMu.Lock()
	if sess, ok := s.sessions[key]; ok {
		if sess.activeRuns.Load() > 0 {
			s.sessionsMu.Unlock()
			return ErrBatchInProgress
		}
		sess.flusher.Stop()
		delete(s.sessions, key)
	}
	s.sessionsMu.Unlock()

	s.notifications.clear(key)
	if err := s.snapshots.Delete(ctx, owner, dataset); err != nil {
		return fmt.Errorf("删除快照失败: %w", err)
	}
	klog.V(6).Infof("数据集已删除: owner=%s, dataset=%s", owner, dataset)
	return nil
}

// Load 从快照恢复会话（不重新导入表格）
func (s *DatasetService) Load(ctx context.Context, owner, dataset string) (*DatasetView, error) {
	if sess, err := s.session(owner, dataset); err == nil {
		return s.view(sess), nil
	}
	snap, err := s.snapshots.Get(ctx, owner, dataset)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotLoaded, dataset)
		}
		return nil, err
	}

	key := sessionKey{owner: owner, dataset: dataset}
	sess := newSession(key, snap.Tree, snap.SummaryText)
	sess.savedAt = snap.SavedAt
	s.attachFlusher(sess)

	s.sessionsMu.Lock()
	if existing, ok := s.sessions[key]; ok {
		s.sessionsMu.Unlock()
		return s.view(existing), nil
	}
	s.sessions[key] = sess
	s.sessionsMu.Unlock()
	return s.view(sess), nil
}

func (s *DatasetService) attachFlusher(sess *session) {
	sess.flusher = newFlusher(s.cfg.Persist.Debounce,
		func(ctx context.Context) error { return sess.persist(ctx, s.snapshots) },
		func(err error) {
			s.notify(context.Background(), sess.key, eventbus.NotificationWarning, fmt.Sprintf("Gagal menyimpan data: %v", err))
		},
	)
}

// Get 返回数据集当前状态
func (s *DatasetService) Get(owner, dataset string) (*DatasetView, error) {
	sess, err := s.session(owner, dataset)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *DatasetService) view(sess *session) *DatasetView {
	v := &DatasetView{
		OwnerID:     sess.key.owner,
		DatasetName: sess.key.dataset,
		Tree:        sess.Tree(),
		SummaryText: sess.Summary(),
		Busy:        sess.busy.Snapshot(),
	}
	if saved := sess.SavedAt(); !saved.IsZero() {
		v.SavedAt = &saved
	}
	return v
}

// UpdateItemField 用户直接编辑条目字段
func (s *DatasetService) UpdateItemField(ctx context.Context, owner, dataset, itemID string, field model.FieldName, value string) (*model.Item, error) {
	if !model.IsNarrativeField(field) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	sess, err := s.session(owner, dataset)
	if err != nil {
		return nil, err
	}
	item, ok := hierarchy.FindItem(sess.Tree(), itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	item.SetField(field, value)
	sess.flusher.Trigger()
	return item, nil
}

// GenerateItem 为单个条目生成字段
func (s *DatasetService) GenerateItem(ctx context.Context, owner, dataset, itemID string, field model.FieldName, apiKey string) (generation.Outcome, error) {
	cfg, ok := domain.LookupFieldConfig(field)
	if !ok {
		return generation.Outcome{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	sess, err := s.session(owner, dataset)
	if err != nil {
		return generation.Outcome{}, err
	}
	item, ok := hierarchy.FindItem(sess.Tree(), itemID)
	if !ok {
		return generation.Outcome{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	out := s.newHandler(sess, apiKey).Generate(ctx, item, cfg)
	sess.flusher.Trigger()
	return out, nil
}

func (s *DatasetService) newHandler(sess *session, apiKey string) *generation.Handler {
	return generation.NewHandler(s.newGenerator(apiKey),
		generation.WithBusyFlags(sess.busy),
		generation.WithMaxAttempts(s.cfg.Batch.MaxAttempts),
		generation.WithRetryDelay(s.cfg.Batch.RetryDelay),
		generation.WithSleeper(s.retrySleeper),
		generation.WithErrorNotifier(func(ctx context.Context, item *model.Item, field model.FieldName, err error) {
			s.notify(ctx, sess.key, eventbus.NotificationError, llm.NotificationText(err))
		}),
	)
}

func (s *DatasetService) newBatch(handler *generation.Handler) *generation.Batch {
	return generation.NewBatch(handler,
		generation.WithChunkSize(s.cfg.Batch.ChunkSize),
		generation.WithChunkDelay(s.cfg.Batch.ChunkDelay),
		generation.WithChunkSleeper(s.chunkSleeper),
	)
}

// RunBatch 同步执行批量生成，结束后立即写入快照
func (s *DatasetService) RunBatch(ctx context.Context, owner, dataset string, field model.FieldName, apiKey string, onProgress generation.ProgressFunc) (generation.Result, error) {
	cfg, ok := domain.LookupFieldConfig(field)
	if !ok {
		return generation.Result{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	sess, err := s.session(owner, dataset)
	if err != nil {
		return generation.Result{}, err
	}

	result := s.runBatch(ctx, sess, cfg, apiKey, onProgress)
	if err := sess.flusher.Flush(ctx); err != nil {
		return result, fmt.Errorf("保存快照失败: %w", err)
	}
	return result, nil
}

func (s *DatasetService) runBatch(ctx context.Context, sess *session, cfg *domain.FieldConfig, apiKey string, onProgress generation.ProgressFunc) generation.Result {
	sess.activeRuns.Add(1)
	defer sess.activeRuns.Add(-1)

	batch := s.newBatch(s.newHandler(sess, apiKey))
	return batch.RunAll(ctx, hierarchy.Items(sess.Tree()), cfg, func(p generation.Progress) {
		sess.flusher.Trigger()
		if onProgress != nil {
			onProgress(p)
		}
	})
}

// GenerateSummary 基于当前数据集生成整体摘要
func (s *DatasetService) GenerateSummary(ctx context.Context, owner, dataset, apiKey string) (string, error) {
	sess, err := s.session(owner, dataset)
	if err != nil {
		return "", err
	}
	text, err := s.newGenerator(apiKey).Generate(ctx, BuildSummaryPrompt(sess.Tree()))
	if err != nil {
		s.notify(ctx, sess.key, eventbus.NotificationError, llm.NotificationText(err))
		return "", err
	}
	summary := generation.Sanitize(utils.StripCodeFence(text))
	sess.SetSummary(summary)
	sess.flusher.Trigger()
	return summary, nil
}

// Notifications 最近的提示
func (s *DatasetService) Notifications(owner, dataset string) []eventbus.Notification {
	return s.notifications.list(sessionKey{owner: owner, dataset: dataset})
}

// Flush 立即写入快照
func (s *DatasetService) Flush(ctx context.Context, owner, dataset string) error {
	sess, err := s.session(owner, dataset)
	if err != nil {
		return err
	}
	return sess.flusher.Flush(ctx)
}

// FlushAll 关闭前写入所有会话
func (s *DatasetService) FlushAll(ctx context.Context) {
	s.sessionsMu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessionsMu.RUnlock()

	for _, sess := range sessions {
		if err := sess.flusher.Flush(ctx); err != nil {
			klog.Errorf("关闭前保存快照失败: owner=%s, dataset=%s, err=%v", sess.key.owner, sess.key.dataset, err)
		}
		sess.flusher.Stop()
	}
}

// Inventory 证据文档清单
func (s *DatasetService) Inventory(owner, dataset string) ([]inventory.Entry, error) {
	sess, err := s.session(owner, dataset)
	if err != nil {
		return nil, err
	}
	return inventory.Build(sess.Tree()), nil
}

// GroupedInventory 按文档类型分组的清单
func (s *DatasetService) GroupedInventory(owner, dataset string) ([]inventory.Group, error) {
	entries, err := s.Inventory(owner, dataset)
	if err != nil {
		return nil, err
	}
	return inventory.GroupByType(entries), nil
}

// Export 导出条目表或清单
func (s *DatasetService) Export(w io.Writer, owner, dataset string, kind export.Kind, format export.Format) error {
	sess, err := s.session(owner, dataset)
	if err != nil {
		return err
	}
	return export.Write(w, sess.Tree(), kind, format)
}

func (s *DatasetService) notify(ctx context.Context, key sessionKey, level eventbus.NotificationLevel, message string) {
	err := s.notificationBus.Publish(ctx, eventbus.Notification{
		Level:       level,
		OwnerID:     key.owner,
		DatasetName: key.dataset,
		Message:     message,
		At:          time.Now(),
	})
	if err != nil {
		klog.Warningf("发布提示失败: %v", err)
	}
}
