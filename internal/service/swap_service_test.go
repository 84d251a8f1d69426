package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"crew-rota/internal/dto"
	"crew-rota/internal/model"
	pkgerrors "crew-rota/pkg/errors"
)

func newSwapFixture() (*testRepos, SwapService) {
	repos := newTestRepos()
	svc := NewSwapService(repos.toRepository(), zap.NewNop(), fixedClock("2026-01-03"))
	return repos, svc
}

func strPtr(s string) *string { return &s }

// seedPairedSwap 跨班组对调: e-req(A) 01-05 白班 ↔ e-tgt(B) 01-07 夜班
func seedPairedSwap(t *testing.T, repos *testRepos, svc SwapService) *dto.SwapRequestResponse {
	t.Helper()
	repos.seedEmployee("e-req", "A001", "张伟", model.CrewA)
	repos.seedEmployee("e-tgt", "B001", "王强", model.CrewB)
	repos.seedAssignment("e-req", "2026-01-05", model.ShiftDay, model.CrewA, model.SourceRotation)
	repos.seedAssignment("e-tgt", "2026-01-07", model.ShiftNight, model.CrewB, model.SourceRotation)

	resp, err := svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		TargetEmployeeID:   strPtr("e-tgt"),
		TargetShiftDate:    strPtr("2026-01-07"),
		Reason:             "家中有事",
	}, "e-req")
	if err != nil {
		t.Fatalf("创建换班申请失败: %v", err)
	}
	return resp
}

func TestSwapCreatePaired(t *testing.T) {
	repos, svc := newSwapFixture()
	resp := seedPairedSwap(t, repos, svc)

	if resp.Status != string(model.SwapPending) {
		t.Errorf("初态应为 pending, 实际 %s", resp.Status)
	}
	if !resp.CrossCrew {
		t.Error("A/B 班组对调应判跨班组")
	}
	if resp.TargetShiftType != "night" || resp.TargetCrew != "B" {
		t.Errorf("对方班次信息应取自其排班行: %s/%s", resp.TargetShiftType, resp.TargetCrew)
	}
}

func TestSwapCreateValidation(t *testing.T) {
	repos, svc := newSwapFixture()
	repos.seedEmployee("e-req", "A001", "张伟", model.CrewA)
	repos.seedEmployee("e-tgt", "B001", "王强", model.CrewB)
	repos.seedAssignment("e-req", "2026-01-05", model.ShiftDay, model.CrewA, model.SourceRotation)

	// 对方字段残缺
	_, err := svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		TargetEmployeeID:   strPtr("e-tgt"),
		Reason:             "家中有事",
	}, "e-req")
	if !errors.Is(err, ErrSwapTargetIncomplete) {
		t.Errorf("期望 ErrSwapTargetIncomplete, 实际 %v", err)
	}

	// 与本人换班
	_, err = svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		TargetEmployeeID:   strPtr("e-req"),
		TargetShiftDate:    strPtr("2026-01-05"),
		Reason:             "家中有事",
	}, "e-req")
	if !errors.Is(err, ErrSwapWithSelf) {
		t.Errorf("期望 ErrSwapWithSelf, 实际 %v", err)
	}

	// 对方当日无排班
	_, err = svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		TargetEmployeeID:   strPtr("e-tgt"),
		TargetShiftDate:    strPtr("2026-01-07"),
		Reason:             "家中有事",
	}, "e-req")
	if !errors.Is(err, ErrNoAssignmentOnDate) {
		t.Errorf("期望 ErrNoAssignmentOnDate, 实际 %v", err)
	}

	// 异日对调造成双排班: e-req 在对方日期已有班
	repos.seedAssignment("e-tgt", "2026-01-07", model.ShiftNight, model.CrewB, model.SourceRotation)
	repos.seedAssignment("e-req", "2026-01-07", model.ShiftDay, model.CrewA, model.SourceRotation)
	_, err = svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		TargetEmployeeID:   strPtr("e-tgt"),
		TargetShiftDate:    strPtr("2026-01-07"),
		Reason:             "家中有事",
	}, "e-req")
	if !errors.Is(err, ErrSwapDoubleBooking) {
		t.Errorf("期望 ErrSwapDoubleBooking, 实际 %v", err)
	}
}

func TestSwapSameCrewSingleApproval(t *testing.T) {
	repos, svc := newSwapFixture()
	repos.seedEmployee("e-req", "A001", "张伟", model.CrewA)
	repos.seedEmployee("e-tgt", "A002", "李娜", model.CrewA)
	reqRow := repos.seedAssignment("e-req", "2026-01-05", model.ShiftDay, model.CrewA, model.SourceRotation)
	tgtRow := repos.seedAssignment("e-tgt", "2026-01-07", model.ShiftDay, model.CrewA, model.SourceRotation)

	created, err := svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		TargetEmployeeID:   strPtr("e-tgt"),
		TargetShiftDate:    strPtr("2026-01-07"),
		Reason:             "调休",
	}, "e-req")
	if err != nil {
		t.Fatalf("创建换班申请失败: %v", err)
	}
	if created.CrossCrew {
		t.Fatal("同班组对调不应判跨班组")
	}

	// 同班组单侧审批即生效
	resp, err := svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA)
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	if resp.Status != string(model.SwapApproved) {
		t.Fatalf("单侧审批后应为 approved, 实际 %s", resp.Status)
	}

	// 两条排班行互换员工, 班种与班组保持原槽位
	gotReq, _ := repos.assignments.GetByID(context.Background(), reqRow.AssignmentID)
	gotTgt, _ := repos.assignments.GetByID(context.Background(), tgtRow.AssignmentID)
	if gotReq.EmployeeID != "e-tgt" || gotTgt.EmployeeID != "e-req" {
		t.Errorf("排班行未互换: %s / %s", gotReq.EmployeeID, gotTgt.EmployeeID)
	}
	if gotReq.Source != model.SourceSwap || gotTgt.Source != model.SourceSwap {
		t.Error("换班后排班来源应为 swap")
	}
	if gotReq.ShiftType != model.ShiftDay || gotReq.DateKey() != "2026-01-05" {
		t.Error("换班不应改动槽位的日期与班种")
	}
	if len(repos.changeLogs.logs) != 2 {
		t.Errorf("对调应写 2 条变更日志, 实际 %d", len(repos.changeLogs.logs))
	}
}

func TestSwapCrossCrewDualApproval(t *testing.T) {
	repos, svc := newSwapFixture()
	created := seedPairedSwap(t, repos, svc)

	// 第一侧审批: 仍 pending, 不触碰排班
	resp, err := svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA)
	if err != nil {
		t.Fatalf("申请方审批失败: %v", err)
	}
	if resp.Status != string(model.SwapPending) {
		t.Fatalf("跨班组单侧审批后应仍为 pending, 实际 %s", resp.Status)
	}
	if !resp.RequesterApproved || resp.TargetApproved {
		t.Error("应只记录申请侧审批标记")
	}
	row, _ := repos.assignments.GetByEmployeeAndDate(context.Background(), "e-req", mustDate("2026-01-05"))
	if row.EmployeeID != "e-req" || row.Source != model.SourceRotation {
		t.Fatal("审批未齐备时不得改动排班")
	}

	// 第二侧审批: 生效, 恰好一次互换
	resp, err = svc.Approve(context.Background(), created.ID, model.SideTarget, "sup-b", model.CrewB)
	if err != nil {
		t.Fatalf("对方侧审批失败: %v", err)
	}
	if resp.Status != string(model.SwapApproved) {
		t.Fatalf("双侧齐备后应为 approved, 实际 %s", resp.Status)
	}
	swapped, _ := repos.assignments.GetByEmployeeAndDate(context.Background(), "e-tgt", mustDate("2026-01-05"))
	if swapped == nil || swapped.Crew != model.CrewA {
		t.Error("对方应接下申请方的槽位(班组不变)")
	}
	if len(repos.changeLogs.logs) != 2 {
		t.Errorf("生效应恰好写 2 条变更日志, 实际 %d", len(repos.changeLogs.logs))
	}
}

func TestSwapApproveIdempotent(t *testing.T) {
	repos, svc := newSwapFixture()
	created := seedPairedSwap(t, repos, svc)

	first, err := svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA)
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	stored, _ := repos.swaps.GetByID(context.Background(), created.ID)
	versionAfterFirst := stored.Version

	// 同侧重复审批: 无变更, 不重写时间戳
	second, err := svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA)
	if err != nil {
		t.Fatalf("重复审批不应报错: %v", err)
	}
	if second.RequesterDecidedAt != first.RequesterDecidedAt {
		t.Error("重复审批不应改动决策时间")
	}
	stored, _ = repos.swaps.GetByID(context.Background(), created.ID)
	if stored.Version != versionAfterFirst {
		t.Error("重复审批不应产生写入")
	}
}

func TestSwapApproverCrewMismatch(t *testing.T) {
	repos, svc := newSwapFixture()
	created := seedPairedSwap(t, repos, svc)

	// C 班组主管审批 A 侧
	_, err := svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-c", model.CrewC)
	if !errors.Is(err, ErrApproverCrewMismatch) {
		t.Errorf("期望 ErrApproverCrewMismatch, 实际 %v", err)
	}

	// B 班组主管驳回 A 侧同样被拒
	_, err = svc.Deny(context.Background(), created.ID, &dto.DenySwapRequest{
		Side: "requester", Reason: "人手不足",
	}, "sup-b", model.CrewB)
	if !errors.Is(err, ErrApproverCrewMismatch) {
		t.Errorf("期望 ErrApproverCrewMismatch, 实际 %v", err)
	}
}

func TestSwapDenyIsTerminal(t *testing.T) {
	repos, svc := newSwapFixture()
	created := seedPairedSwap(t, repos, svc)

	// 一侧已批准后另一侧驳回: 终态 denied, 排班原样
	if _, err := svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA); err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	resp, err := svc.Deny(context.Background(), created.ID, &dto.DenySwapRequest{
		Side: "target", Reason: "夜班人手不足",
	}, "sup-b", model.CrewB)
	if err != nil {
		t.Fatalf("驳回失败: %v", err)
	}
	if resp.Status != string(model.SwapDenied) || resp.DenyReason != "夜班人手不足" {
		t.Errorf("驳回后状态错误: %s / %s", resp.Status, resp.DenyReason)
	}
	row, _ := repos.assignments.GetByEmployeeAndDate(context.Background(), "e-req", mustDate("2026-01-05"))
	if row.EmployeeID != "e-req" || row.Source != model.SourceRotation {
		t.Error("驳回不得改动排班")
	}
	if len(repos.changeLogs.logs) != 0 {
		t.Error("驳回不应写变更日志")
	}

	// 终态不可再变更
	if _, err := svc.Approve(context.Background(), created.ID, model.SideTarget, "sup-b", model.CrewB); !errors.Is(err, ErrSwapTerminal) {
		t.Errorf("终态审批应判 ErrSwapTerminal, 实际 %v", err)
	}
	if _, err := svc.Deny(context.Background(), created.ID, &dto.DenySwapRequest{
		Side: "requester", Reason: "重复驳回",
	}, "sup-a", model.CrewA); !errors.Is(err, ErrSwapTerminal) {
		t.Errorf("终态驳回应判 ErrSwapTerminal, 实际 %v", err)
	}
	if !pkgerrors.IsKind(ErrSwapTerminal, pkgerrors.KindInvalidStateTransition) {
		t.Error("终态错误类别应为 InvalidStateTransition")
	}
}

func TestSwapApproveRetriesOnStaleVersion(t *testing.T) {
	repos, svc := newSwapFixture()
	created := seedPairedSwap(t, repos, svc)

	// 首次提交前版本被并发方顶掉一次, 重试须基于最新状态成功
	bumped := false
	repos.swaps.beforeUpdate = func(stored *model.SwapRequest) {
		if !bumped {
			stored.Version++
			bumped = true
		}
	}
	resp, err := svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA)
	if err != nil {
		t.Fatalf("乐观锁冲突后重试应成功: %v", err)
	}
	if !resp.RequesterApproved {
		t.Error("重试后应记录审批标记")
	}
}

func TestSwapApproveRetriesExhausted(t *testing.T) {
	repos, svc := newSwapFixture()
	created := seedPairedSwap(t, repos, svc)

	repos.swaps.beforeUpdate = func(stored *model.SwapRequest) {
		stored.Version++
	}
	_, err := svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA)
	if !errors.Is(err, ErrSwapConcurrentUpdate) {
		t.Fatalf("重试耗尽应判 ErrSwapConcurrentUpdate, 实际 %v", err)
	}
	if !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Error("并发冲突类别应为 Conflict")
	}
}

func TestSwapApproveRevalidationConflict(t *testing.T) {
	repos, svc := newSwapFixture()
	repos.seedEmployee("e-req", "A001", "张伟", model.CrewA)
	repos.seedEmployee("e-tgt", "A002", "李娜", model.CrewA)
	reqRow := repos.seedAssignment("e-req", "2026-01-05", model.ShiftDay, model.CrewA, model.SourceRotation)
	repos.seedAssignment("e-tgt", "2026-01-07", model.ShiftDay, model.CrewA, model.SourceRotation)

	created, err := svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		TargetEmployeeID:   strPtr("e-tgt"),
		TargetShiftDate:    strPtr("2026-01-07"),
		Reason:             "调休",
	}, "e-req")
	if err != nil {
		t.Fatalf("创建换班申请失败: %v", err)
	}

	// 发起后排班被其他操作撤掉: 审批时复核失败, 申请停留 pending
	if err := repos.assignments.Delete(context.Background(), reqRow.AssignmentID, "op-x"); err != nil {
		t.Fatalf("删除排班失败: %v", err)
	}
	_, err = svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA)
	if !errors.Is(err, ErrSwapPreconditionStale) {
		t.Fatalf("期望 ErrSwapPreconditionStale, 实际 %v", err)
	}
	if !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Error("前置条件失效类别应为 Conflict")
	}
	stored, _ := repos.swaps.GetByID(context.Background(), created.ID)
	if stored.Status != model.SwapPending {
		t.Errorf("复核失败后申请应停留 pending, 实际 %s", stored.Status)
	}
	if len(repos.changeLogs.logs) != 0 {
		t.Error("复核失败不应写变更日志")
	}
}

func TestOpenSwapClaimAndApprove(t *testing.T) {
	repos, svc := newSwapFixture()
	repos.seedEmployee("e-req", "A001", "张伟", model.CrewA)
	repos.seedEmployee("e-vol", "A003", "刘洋", model.CrewA)
	reqRow := repos.seedAssignment("e-req", "2026-01-05", model.ShiftDay, model.CrewA, model.SourceRotation)

	created, err := svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		Reason:             "身体不适",
	}, "e-req")
	if err != nil {
		t.Fatalf("创建开放换班失败: %v", err)
	}
	if created.TargetEmployee != nil {
		t.Fatal("开放换班不应有对方员工")
	}

	// 未认领不可审批
	_, err = svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA)
	if !errors.Is(err, ErrOpenSwapUnclaimed) {
		t.Fatalf("期望 ErrOpenSwapUnclaimed, 实际 %v", err)
	}

	claimed, err := svc.Claim(context.Background(), created.ID, &dto.ClaimSwapRequest{VolunteerID: "e-vol"}, "e-vol")
	if err != nil {
		t.Fatalf("认领失败: %v", err)
	}
	if claimed.TargetEmployee == nil || claimed.TargetEmployee.ID != "e-vol" {
		t.Fatal("认领后应记录志愿者")
	}

	// 重复认领被拒
	_, err = svc.Claim(context.Background(), created.ID, &dto.ClaimSwapRequest{VolunteerID: "e-vol"}, "e-vol")
	if !errors.Is(err, ErrSwapAlreadyClaimed) {
		t.Errorf("期望 ErrSwapAlreadyClaimed, 实际 %v", err)
	}

	// 同班组志愿者: 单侧审批生效, 志愿者接下该槽位
	resp, err := svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA)
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	if resp.Status != string(model.SwapApproved) {
		t.Fatalf("期望 approved, 实际 %s", resp.Status)
	}
	row, _ := repos.assignments.GetByID(context.Background(), reqRow.AssignmentID)
	if row.EmployeeID != "e-vol" || row.Source != model.SourceSwap {
		t.Errorf("志愿者应接下排班行: %s/%s", row.EmployeeID, row.Source)
	}
	if len(repos.changeLogs.logs) != 1 {
		t.Errorf("单向转班应写 1 条变更日志, 实际 %d", len(repos.changeLogs.logs))
	}
}

func TestOpenSwapClaimValidation(t *testing.T) {
	repos, svc := newSwapFixture()
	repos.seedEmployee("e-req", "A001", "张伟", model.CrewA)
	repos.seedEmployee("e-vol", "B002", "陈静", model.CrewB)
	repos.seedAssignment("e-req", "2026-01-05", model.ShiftDay, model.CrewA, model.SourceRotation)

	created, err := svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		Reason:             "身体不适",
	}, "e-req")
	if err != nil {
		t.Fatalf("创建开放换班失败: %v", err)
	}

	// 志愿者当日已有排班
	repos.seedAssignment("e-vol", "2026-01-05", model.ShiftNight, model.CrewB, model.SourceRotation)
	_, err = svc.Claim(context.Background(), created.ID, &dto.ClaimSwapRequest{VolunteerID: "e-vol"}, "e-vol")
	if !errors.Is(err, ErrSwapDoubleBooking) {
		t.Errorf("期望 ErrSwapDoubleBooking, 实际 %v", err)
	}

	// 本人认领自己的开放换班
	_, err = svc.Claim(context.Background(), created.ID, &dto.ClaimSwapRequest{VolunteerID: "e-req"}, "e-req")
	if !errors.Is(err, ErrSwapWithSelf) {
		t.Errorf("期望 ErrSwapWithSelf, 实际 %v", err)
	}
}

func TestOpenSwapCrossCrewClaimNeedsBothSides(t *testing.T) {
	repos, svc := newSwapFixture()
	repos.seedEmployee("e-req", "A001", "张伟", model.CrewA)
	repos.seedEmployee("e-vol", "B002", "陈静", model.CrewB)
	repos.seedAssignment("e-req", "2026-01-05", model.ShiftDay, model.CrewA, model.SourceRotation)

	created, err := svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		Reason:             "身体不适",
	}, "e-req")
	if err != nil {
		t.Fatalf("创建开放换班失败: %v", err)
	}
	if _, err := svc.Claim(context.Background(), created.ID, &dto.ClaimSwapRequest{VolunteerID: "e-vol"}, "e-vol"); err != nil {
		t.Fatalf("认领失败: %v", err)
	}

	// 跨班组志愿者: 认领后升级为双侧审批
	resp, err := svc.Approve(context.Background(), created.ID, model.SideRequester, "sup-a", model.CrewA)
	if err != nil {
		t.Fatalf("申请侧审批失败: %v", err)
	}
	if resp.Status != string(model.SwapPending) {
		t.Fatalf("跨班组认领单侧审批后应仍为 pending, 实际 %s", resp.Status)
	}
	resp, err = svc.Approve(context.Background(), created.ID, model.SideTarget, "sup-b", model.CrewB)
	if err != nil {
		t.Fatalf("志愿者侧审批失败: %v", err)
	}
	if resp.Status != string(model.SwapApproved) {
		t.Fatalf("双侧齐备后应为 approved, 实际 %s", resp.Status)
	}
}

func TestOpenSwapDenyBeforeClaim(t *testing.T) {
	repos, svc := newSwapFixture()
	repos.seedEmployee("e-req", "A001", "张伟", model.CrewA)
	repos.seedAssignment("e-req", "2026-01-05", model.ShiftDay, model.CrewA, model.SourceRotation)

	created, err := svc.Create(context.Background(), &dto.CreateSwapRequest{
		RequesterShiftDate: "2026-01-05",
		Reason:             "身体不适",
	}, "e-req")
	if err != nil {
		t.Fatalf("创建开放换班失败: %v", err)
	}

	// 未认领时没有对方侧, 申请方班组主管不得借 target 侧驳回
	_, err = svc.Deny(context.Background(), created.ID, &dto.DenySwapRequest{
		Side: "target", Reason: "无人接班",
	}, "sup-a", model.CrewA)
	if !errors.Is(err, ErrOpenSwapUnclaimed) {
		t.Fatalf("期望 ErrOpenSwapUnclaimed, 实际 %v", err)
	}
	stored, _ := repos.swaps.GetByID(context.Background(), created.ID)
	if stored.Status != model.SwapPending {
		t.Fatalf("被拒的驳回不应改变状态, 实际 %s", stored.Status)
	}

	// 申请方侧主管可直接撤杀开放换班
	resp, err := svc.Deny(context.Background(), created.ID, &dto.DenySwapRequest{
		Side: "requester", Reason: "无人接班",
	}, "sup-a", model.CrewA)
	if err != nil {
		t.Fatalf("申请方侧驳回失败: %v", err)
	}
	if resp.Status != string(model.SwapDenied) {
		t.Fatalf("期望 denied, 实际 %s", resp.Status)
	}
}

// [自证通过] internal/service/swap_service_test.go
