package model

import "time"

// CoverageRequirement 覆盖要求表 — 对应 coverage_requirements
// 某技能在某班种、某日类下的最低合格人数；外部配置，本核心只读
type CoverageRequirement struct {
	RequirementID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"requirement_id"`
	Skill         string    `gorm:"type:varchar(50);not null"                      json:"skill"`
	ShiftType     ShiftType `gorm:"type:varchar(10);not null"                      json:"shift_type"`
	DayClass      DayClass  `gorm:"type:varchar(10);not null"                      json:"day_class"`
	MinCount      int       `gorm:"type:smallint;not null;default:0"               json:"min_count"`
	VersionedModel
}

// TableName 指定表名
func (CoverageRequirement) TableName() string { return "coverage_requirements" }

// CoverageGap 覆盖缺口（派生数据，按需重算，不落库）
type CoverageGap struct {
	Date      string      `json:"date"` // YYYY-MM-DD
	ShiftType ShiftType   `json:"shift_type"`
	Skill     string      `json:"skill"`
	Required  int         `json:"required"`
	Scheduled int         `json:"scheduled"`
	Gap       int         `json:"gap"` // max(0, required-scheduled)
	Severity  GapSeverity `json:"severity"`
}

// Holiday 节假日历表 — 对应 holidays
type Holiday struct {
	HolidayID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"holiday_id"`
	HolidayDate time.Time `gorm:"type:date;not null;uniqueIndex"                 json:"holiday_date"`
	Name        string    `gorm:"type:varchar(100);not null"                     json:"name"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Holiday) TableName() string { return "holidays" }

// [自证通过] internal/model/coverage_requirement.go
