package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"transfer-eval/backend/internal/model"
	"transfer-eval/backend/internal/repository"
	"transfer-eval/backend/internal/upstream"
)

func newSyncFixture(q upstream.Querier, ttl time.Duration) (*courseSyncService, *mockCourseRepo) {
	courseRepo := newMockCourseRepo()
	repo := &repository.Repository{
		Course:           courseRepo,
		DepartmentConfig: newMockDeptConfigRepo(),
		Evaluator:        newMockEvaluatorRepo(),
	}
	svc := NewCourseSyncService(repo, q, ttl, zap.NewNop()).(*courseSyncService)
	return svc, courseRepo
}

func upstreamRow(term, coll, collName, tSubj, tNumb, iSubj, iNumb string) upstream.Row {
	return upstream.Row{
		upstream.FieldTermCode:    term,
		upstream.FieldCollegeCode: coll,
		upstream.FieldCollegeName: collName,
		upstream.FieldTransSubj:   tSubj,
		upstream.FieldTransNumb:   tNumb,
		upstream.FieldInstSubj:    iSubj,
		upstream.FieldInstNumb:    iNumb,
	}
}

func TestListForTermNormalizesUpstreamRows(t *testing.T) {
	q := &mockQuerier{rows: []upstream.Row{
		upstreamRow("202410", "US01", "某学院", "MATH", "101", "MATH", "1910"),
		upstreamRow("202410", "US01", "某学院", "PHYS", "301", "PHYS", "3200"),
	}}
	svc, _ := newSyncFixture(q, 2*time.Hour)

	records, err := svc.ListForTerm(context.Background(), "202410")
	if err != nil {
		t.Fatalf("ListForTerm 失败: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("期望 2 条记录，实际=%d", len(records))
	}

	for _, r := range records {
		if r.Status != model.StatusImported {
			t.Errorf("期望状态 %s，实际=%s", model.StatusImported, r.Status)
		}
		if r.Source != model.SourceUpstream {
			t.Errorf("期望来源 %s，实际=%s", model.SourceUpstream, r.Source)
		}
		if r.CourseID == "" {
			t.Error("期望记录持有非空 ID")
		}
	}

	// 哨兵课号推导 Lower，其余 Higher
	if records[0].InstNumb != "1910" || records[0].Standard != model.StandardLower {
		t.Errorf("期望 1910 推导为 %s，实际=%s", model.StandardLower, records[0].Standard)
	}
	if records[1].Standard != model.StandardHigher {
		t.Errorf("期望 3200 推导为 %s，实际=%s", model.StandardHigher, records[1].Standard)
	}
}

func TestListForTermSkipsIncompleteRows(t *testing.T) {
	q := &mockQuerier{rows: []upstream.Row{
		upstreamRow("202410", "US01", "某学院", "MATH", "101", "MATH", "1910"),
		upstreamRow("202410", "", "某学院", "PHYS", "301", "PHYS", "3200"), // 学院代码缺失
		upstreamRow("202410", "US01", "某学院", "CHEM", "", "CHEM", "2100"), // 转入课号缺失
	}}
	svc, _ := newSyncFixture(q, 2*time.Hour)

	records, err := svc.ListForTerm(context.Background(), "202410")
	if err != nil {
		t.Fatalf("ListForTerm 失败: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("期望跳过身份不完整的行，仅剩 1 条，实际=%d", len(records))
	}
	if records[0].TransSubj != "MATH" {
		t.Errorf("期望保留 MATH 记录，实际=%s", records[0].TransSubj)
	}
}

func TestListForTermInsertOnlyPreservesLocalEdits(t *testing.T) {
	q := &mockQuerier{rows: []upstream.Row{
		upstreamRow("202410", "US01", "旧学院名", "MATH", "101", "MATH", "1910"),
	}}
	svc, courseRepo := newSyncFixture(q, 2*time.Hour)
	ctx := context.Background()

	first, err := svc.ListForTerm(ctx, "202410")
	if err != nil {
		t.Fatalf("首次 ListForTerm 失败: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("期望 1 条记录，实际=%d", len(first))
	}

	// 模拟本地人工修正与退回操作
	stored := courseRepo.records[first[0].CourseID]
	stored.CollegeName = "修正后学院名"
	stored.Status = model.StatusReturned

	// 上游同一行换了名称：仅插入管道不得推入已有记录
	q.mu.Lock()
	q.rows = []upstream.Row{
		upstreamRow("202410", "US01", "上游新名称", "MATH", "101", "MATH", "1910"),
	}
	q.mu.Unlock()

	svc.Invalidate("202410")
	second, err := svc.ListForTerm(ctx, "202410")
	if err != nil {
		t.Fatalf("再次 ListForTerm 失败: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("期望重同步不产生重复，实际=%d 条", len(second))
	}
	if second[0].CollegeName != "修正后学院名" {
		t.Errorf("期望本地修正保留，实际=%s", second[0].CollegeName)
	}
	if second[0].Status != model.StatusReturned {
		t.Errorf("期望状态保留 %s，实际=%s", model.StatusReturned, second[0].Status)
	}
}

func TestListForTermCacheTTL(t *testing.T) {
	q := &mockQuerier{rows: []upstream.Row{
		upstreamRow("202410", "US01", "某学院", "MATH", "101", "MATH", "1910"),
	}}
	svc, _ := newSyncFixture(q, 2*time.Hour)
	ctx := context.Background()

	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	if _, err := svc.ListForTerm(ctx, "202410"); err != nil {
		t.Fatalf("首次 ListForTerm 失败: %v", err)
	}
	if q.callCount() != 1 {
		t.Fatalf("期望上游调用 1 次，实际=%d", q.callCount())
	}

	// TTL 内重复读取：不触发上游
	current = base.Add(1*time.Hour + 59*time.Minute)
	if _, err := svc.ListForTerm(ctx, "202410"); err != nil {
		t.Fatalf("TTL 内 ListForTerm 失败: %v", err)
	}
	if q.callCount() != 1 {
		t.Errorf("TTL 内期望不触发刷新，实际上游调用=%d", q.callCount())
	}

	// 超出 TTL：恰好触发一次刷新
	current = base.Add(2*time.Hour + 1*time.Minute)
	if _, err := svc.ListForTerm(ctx, "202410"); err != nil {
		t.Fatalf("TTL 外 ListForTerm 失败: %v", err)
	}
	if q.callCount() != 2 {
		t.Errorf("超 TTL 期望恰好刷新一次，实际上游调用=%d", q.callCount())
	}
}

func TestListForTermColdMissUpstreamError(t *testing.T) {
	q := &mockQuerier{err: errors.New("连接超时")}
	svc, _ := newSyncFixture(q, 2*time.Hour)

	_, err := svc.ListForTerm(context.Background(), "202410")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("期望 ErrUpstreamUnavailable，实际=%v", err)
	}
}

func TestListForTermServesStaleOnRefreshFailure(t *testing.T) {
	q := &mockQuerier{rows: []upstream.Row{
		upstreamRow("202410", "US01", "某学院", "MATH", "101", "MATH", "1910"),
	}}
	svc, _ := newSyncFixture(q, 2*time.Hour)
	ctx := context.Background()

	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	if _, err := svc.ListForTerm(ctx, "202410"); err != nil {
		t.Fatalf("预热缓存失败: %v", err)
	}

	// 条目过期 + 上游故障：降级返回旧数据而非报错
	current = base.Add(3 * time.Hour)
	q.mu.Lock()
	q.err = errors.New("上游宕机")
	q.mu.Unlock()

	records, err := svc.ListForTerm(ctx, "202410")
	if err != nil {
		t.Fatalf("期望降级返回既有缓存，实际报错: %v", err)
	}
	if len(records) != 1 || records[0].TransSubj != "MATH" {
		t.Errorf("期望返回旧缓存数据，实际=%+v", records)
	}
}

func TestListForTermSortedByCollegeAndCourse(t *testing.T) {
	q := &mockQuerier{rows: []upstream.Row{
		upstreamRow("202410", "UB02", "学院乙", "PHYS", "301", "PHYS", "3200"),
		upstreamRow("202410", "US01", "学院甲", "MATH", "201", "MATH", "2100"),
		upstreamRow("202410", "US01", "学院甲", "MATH", "101", "MATH", "1910"),
	}}
	svc, _ := newSyncFixture(q, 2*time.Hour)

	records, err := svc.ListForTerm(context.Background(), "202410")
	if err != nil {
		t.Fatalf("ListForTerm 失败: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("期望 3 条记录，实际=%d", len(records))
	}
	got := [][2]string{
		{records[0].CollegeCode, records[0].TransNumb},
		{records[1].CollegeCode, records[1].TransNumb},
		{records[2].CollegeCode, records[2].TransNumb},
	}
	want := [][2]string{{"UB02", "301"}, {"US01", "101"}, {"US01", "201"}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("第 %d 条期望 %v，实际=%v", i, want[i], got[i])
		}
	}
}

func TestListForTermConcurrentRefreshCoalesced(t *testing.T) {
	q := &mockQuerier{
		rows: []upstream.Row{
			upstreamRow("202410", "US01", "某学院", "MATH", "101", "MATH", "1910"),
		},
		delay: 30 * time.Millisecond,
	}
	svc, _ := newSyncFixture(q, 2*time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ListForTerm(ctx, "202410"); err != nil {
				t.Errorf("并发 ListForTerm 失败: %v", err)
			}
		}()
	}
	wg.Wait()

	if q.callCount() != 1 {
		t.Errorf("并发未命中期望合并为 1 次上游拉取，实际=%d", q.callCount())
	}
}

func TestListForTermRefreshDetachedFromCallerCancel(t *testing.T) {
	q := &mockQuerier{rows: []upstream.Row{
		upstreamRow("202410", "US01", "某学院", "MATH", "101", "MATH", "1910"),
	}}
	svc, _ := newSyncFixture(q, 2*time.Hour)

	// 发起方请求已取消：刷新仍应完成并产出共享结果
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := svc.ListForTerm(ctx, "202410")
	if err != nil {
		t.Fatalf("期望刷新与调用方取消解耦，实际报错: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("期望 1 条记录，实际=%d", len(records))
	}
	if entry := svc.lookup("202410"); entry == nil {
		t.Error("期望刷新结果已写入缓存")
	}
}

func TestInvalidateForcesRefresh(t *testing.T) {
	q := &mockQuerier{rows: []upstream.Row{
		upstreamRow("202410", "US01", "某学院", "MATH", "101", "MATH", "1910"),
	}}
	svc, _ := newSyncFixture(q, 2*time.Hour)
	ctx := context.Background()

	if _, err := svc.ListForTerm(ctx, "202410"); err != nil {
		t.Fatalf("ListForTerm 失败: %v", err)
	}
	svc.Invalidate("202410")
	if _, err := svc.ListForTerm(ctx, "202410"); err != nil {
		t.Fatalf("失效后 ListForTerm 失败: %v", err)
	}
	if q.callCount() != 2 {
		t.Errorf("期望失效后重新拉取上游，实际调用=%d", q.callCount())
	}
}

// [自证通过] internal/service/course_sync_service_test.go
