package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"transfer-eval/backend/internal/model"
	"transfer-eval/backend/internal/upstream"
)

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	mu      sync.Mutex
	records map[string]*model.CourseRecord // course_id → record
	nextID  int

	ensureIndexCalls int
	ensureIndexErr   error
	updateCalls      []map[string]interface{}
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{records: make(map[string]*model.CourseRecord)}
}

func (m *mockCourseRepo) keyExists(key model.IdentityKey) bool {
	for _, r := range m.records {
		if r.Identity() == key {
			return true
		}
	}
	return false
}

func (m *mockCourseRepo) EnsureUniqueIndex(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureIndexCalls++
	return m.ensureIndexErr
}

func (m *mockCourseRepo) UpsertNew(_ context.Context, records []model.CourseRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for i := range records {
		r := records[i]
		if m.keyExists(r.Identity()) {
			continue
		}
		m.nextID++
		r.CourseID = fmt.Sprintf("00000000-0000-0000-0000-%012d", m.nextID)
		r.CreatedAt = time.Now()
		r.UpdatedAt = r.CreatedAt
		m.records[r.CourseID] = &r
		inserted++
	}
	return inserted, nil
}

func (m *mockCourseRepo) ListByTerm(_ context.Context, termCode string) ([]model.CourseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.CourseRecord
	for _, r := range m.records {
		if r.TermCode == termCode {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CollegeCode != b.CollegeCode {
			return a.CollegeCode < b.CollegeCode
		}
		if a.TransSubj != b.TransSubj {
			return a.TransSubj < b.TransSubj
		}
		return a.TransNumb < b.TransNumb
	})
	return result, nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.CourseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) Create(_ context.Context, record *model.CourseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.CourseID == "" {
		m.nextID++
		record.CourseID = fmt.Sprintf("00000000-0000-0000-0000-%012d", m.nextID)
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	cp := *record
	m.records[record.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) ExistsByKey(_ context.Context, key model.IdentityKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keyExists(key), nil
}

func (m *mockCourseRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.updateCalls = append(m.updateCalls, fields)
	for k, v := range fields {
		switch k {
		case "status":
			r.Status = v.(string)
		case "evaluators":
			r.Evaluators = v.(model.StringArray)
		case "evaluators_names":
			r.EvaluatorsNames = v.(model.StringArray)
		case "assigned_evaluator":
			r.AssignedEvaluator = toStrPtr(v)
		case "assigned_coll_code":
			r.AssignedCollCode = toStrPtr(v)
		case "assigned_coll_desc":
			r.AssignedCollDesc = toStrPtr(v)
		case "assigned_dept_code":
			r.AssignedDeptCode = toStrPtr(v)
		case "assigned_dept_desc":
			r.AssignedDeptDesc = toStrPtr(v)
		case "updated_at":
			r.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

func toStrPtr(v interface{}) *string {
	switch s := v.(type) {
	case string:
		return &s
	case *string:
		return s
	default:
		return nil
	}
}

// ── Mock DepartmentConfigRepository ──

type mockDeptConfigRepo struct {
	configs map[string]*model.DepartmentConfig // transfer_course → config
}

func newMockDeptConfigRepo() *mockDeptConfigRepo {
	return &mockDeptConfigRepo{configs: make(map[string]*model.DepartmentConfig)}
}

func (m *mockDeptConfigRepo) GetByTransferSubject(_ context.Context, transferSubject string) (*model.DepartmentConfig, error) {
	if cfg, ok := m.configs[transferSubject]; ok {
		cp := *cfg
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock EvaluatorRepository ──

type mockEvaluatorRepo struct {
	names       map[string]string                  // evaluator_id → 姓名
	memberships map[string][]model.DeptMembership // evaluator_id → 隶属
}

func newMockEvaluatorRepo() *mockEvaluatorRepo {
	return &mockEvaluatorRepo{
		names:       make(map[string]string),
		memberships: make(map[string][]model.DeptMembership),
	}
}

func (m *mockEvaluatorRepo) GetNames(_ context.Context, evaluatorIDs []string) ([]string, error) {
	names := make([]string, len(evaluatorIDs))
	for i, id := range evaluatorIDs {
		if name, ok := m.names[id]; ok {
			names[i] = name
		} else {
			names[i] = id
		}
	}
	return names, nil
}

func (m *mockEvaluatorRepo) DeptMemberships(_ context.Context, evaluatorID string) ([]model.DeptMembership, error) {
	return m.memberships[evaluatorID], nil
}

// ── Mock 上游查询执行器 ──

type mockQuerier struct {
	mu    sync.Mutex
	rows  []upstream.Row
	err   error
	delay time.Duration
	calls int
}

func (m *mockQuerier) QueryTerm(ctx context.Context, _ string) ([]upstream.Row, error) {
	m.mu.Lock()
	m.calls++
	rows, err, delay := m.rows, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *mockQuerier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// [自证通过] internal/service/mock_repos_test.go
