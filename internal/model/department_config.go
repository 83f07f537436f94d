package model

// DepartmentConfig 系部配置表 — 对应 department_configs
// 按转入学科维护候选评审人列表；本服务只读，由配置后台维护。
type DepartmentConfig struct {
	ConfigID       string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"config_id"`
	TransferCourse string      `gorm:"type:varchar(10);not null;uniqueIndex"          json:"transfer_course"`
	Evaluators     StringArray `gorm:"type:text[];not null"                           json:"evaluators"`
	CollCode       *string     `gorm:"type:varchar(10)"                               json:"coll_code"`
	CollDesc       *string     `gorm:"type:varchar(120)"                              json:"coll_desc"`
	DeptCode       *string     `gorm:"type:varchar(10)"                               json:"dept_code"`
	DeptDesc       *string     `gorm:"type:varchar(120)"                              json:"dept_desc"`
	BaseModel
}

// TableName 指定表名
func (DepartmentConfig) TableName() string { return "department_configs" }

// [自证通过] internal/model/department_config.go
