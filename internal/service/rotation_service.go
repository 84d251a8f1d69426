package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crew-rota/internal/dto"
	"crew-rota/internal/model"
	"crew-rota/internal/repository"
	pkgerrors "crew-rota/pkg/errors"
)

// ── 轮班生成模块业务错误 ──

var (
	ErrInvalidDateRange      = pkgerrors.Wrap(pkgerrors.KindInvalidInput, errors.New("日期区间非法：结束日期不得早于开始日期"))
	ErrPatternNotFound       = pkgerrors.Wrap(pkgerrors.KindNotFound, errors.New("轮班模式不存在"))
	ErrPatternCodeExists     = pkgerrors.Wrap(pkgerrors.KindConflict, errors.New("轮班模式编码已存在"))
	ErrRangeHasManualChanges = pkgerrors.Wrap(pkgerrors.KindConflict, errors.New("区间内存在手工补班或换班排班，未显式指定替换时禁止重生成"))
	ErrRangeAlreadyGenerated = pkgerrors.Wrap(pkgerrors.KindConflict, errors.New("区间内已有轮班排班，需显式指定替换"))
	ErrRangeAlreadyStarted   = pkgerrors.Wrap(pkgerrors.KindConflict, errors.New("区间已开始，不可替换既有排班"))
)

// RotationService 轮班生成业务接口
type RotationService interface {
	// 新建轮班模式（校验循环/相位/覆盖不变式）
	CreatePattern(ctx context.Context, req *dto.CreatePatternRequest, callerID string) (*dto.PatternResponse, error)
	// 列出轮班模式
	ListPatterns(ctx context.Context) ([]dto.PatternResponse, error)
	// 生成区间排班并落库
	Generate(ctx context.Context, req *dto.GenerateRotationRequest, callerID string) (*dto.GenerateRotationResponse, error)
	// 预览区间排班（不落库）
	Preview(ctx context.Context, req *dto.PreviewRotationRequest) (*dto.GenerateRotationResponse, error)
	// 变更日志
	ListChangeLogs(ctx context.Context, req *dto.ChangeLogListRequest) ([]dto.ChangeLogResponse, int64, error)
}

type rotationService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    Clock
}

// NewRotationService 创建 RotationService 实例
func NewRotationService(repo *repository.Repository, logger *zap.Logger, now Clock) RotationService {
	return &rotationService{repo: repo, logger: logger, now: now}
}

// ════════════════════════════════════════════════════════════
// 模式管理
// ════════════════════════════════════════════════════════════

func (s *rotationService) CreatePattern(ctx context.Context, req *dto.CreatePatternRequest, callerID string) (*dto.PatternResponse, error) {
	if existing, err := s.repo.RotationPattern.GetByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, ErrPatternCodeExists
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询轮班模式失败", zap.Error(err))
		return nil, err
	}

	epoch, err := time.ParseInLocation("2006-01-02", req.EpochDate, time.UTC)
	if err != nil {
		// 未指定纪元日时由 Handler 层回填配置默认值，走到这里说明格式非法
		return nil, pkgerrors.Wrap(pkgerrors.KindInvalidInput, fmt.Errorf("纪元日格式非法: %q", req.EpochDate))
	}

	pattern := &model.RotationPattern{
		Code:            req.Code,
		Name:            req.Name,
		CycleLengthDays: req.CycleLengthDays,
		RequiredOnCrews: req.RequiredOnCrews,
		EpochDate:       epoch,
	}
	pattern.CreatedBy = &callerID
	for _, d := range req.CycleDays {
		day := model.RotationCycleDay{DayIndex: d.DayIndex, IsWork: d.IsWork}
		if d.IsWork {
			st := model.ShiftType(d.ShiftType)
			day.ShiftType = &st
		}
		pattern.CycleDays = append(pattern.CycleDays, day)
	}
	for _, ph := range req.Phases {
		pattern.Phases = append(pattern.Phases, model.CrewPhase{
			Crew:        model.Crew(ph.Crew),
			PhaseOffset: ph.PhaseOffset,
		})
	}

	if err := pattern.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.KindInvalidInput, err)
	}

	if err := s.repo.RotationPattern.Create(ctx, pattern); err != nil {
		s.logger.Error("创建轮班模式失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("轮班模式已创建",
		zap.String("pattern_id", pattern.PatternID),
		zap.String("code", pattern.Code),
	)
	return toPatternResponse(pattern), nil
}

func (s *rotationService) ListPatterns(ctx context.Context) ([]dto.PatternResponse, error) {
	patterns, err := s.repo.RotationPattern.List(ctx)
	if err != nil {
		s.logger.Error("查询轮班模式列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.PatternResponse, 0, len(patterns))
	for i := range patterns {
		result = append(result, *toPatternResponse(&patterns[i]))
	}
	return result, nil
}

// ════════════════════════════════════════════════════════════
// 排班生成 — 模式循环 × 班组相位 × 日期区间展开
// ════════════════════════════════════════════════════════════

func (s *rotationService) Generate(ctx context.Context, req *dto.GenerateRotationRequest, callerID string) (*dto.GenerateRotationResponse, error) {
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	pattern, err := s.loadPattern(ctx, req.PatternID)
	if err != nil {
		return nil, err
	}

	var created []model.ScheduleAssignment

	txErr := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		// 1. 手工补班/换班来源的排班行永不覆盖。
		//    未显式要求替换时整次生成直接拒绝；显式替换则绕开这些行继续
		manualCount, err := txRepo.Assignment.CountNonRotationInRange(ctx, start, end)
		if err != nil {
			return err
		}
		if manualCount > 0 && !req.ReplaceRotation {
			return ErrRangeHasManualChanges
		}

		// 2. 已有轮班行：未显式要求替换则拒绝；替换仅允许未开始的区间，
		//    且只删除 rotation 来源的行
		rotationCount, err := txRepo.Assignment.CountRotationInRange(ctx, start, end)
		if err != nil {
			return err
		}
		if rotationCount > 0 && !req.ReplaceRotation {
			return ErrRangeAlreadyGenerated
		}
		if req.ReplaceRotation && (rotationCount > 0 || manualCount > 0) {
			today := truncateDate(s.now())
			if start.Before(today) {
				return ErrRangeAlreadyStarted
			}
		}
		if req.ReplaceRotation && rotationCount > 0 {
			if err := txRepo.Assignment.DeleteRotationInRange(ctx, start, end, callerID); err != nil {
				return err
			}
		}

		// 3. 展开并落库
		assignments, err := s.expand(ctx, txRepo, pattern, start, end)
		if err != nil {
			return err
		}

		// 保留下来的手工行占住 (员工, 日期) 槽位，展开结果须避让，
		// 否则破坏同员工同日唯一不变式
		if manualCount > 0 {
			preserved, err := txRepo.Assignment.ListByDateRange(ctx, start, end)
			if err != nil {
				return err
			}
			occupied := make(map[string]bool, len(preserved))
			for i := range preserved {
				occupied[preserved[i].EmployeeID+"|"+preserved[i].DateKey()] = true
			}
			kept := assignments[:0]
			for _, a := range assignments {
				if !occupied[a.EmployeeID+"|"+a.DutyDate.Format("2006-01-02")] {
					kept = append(kept, a)
				}
			}
			assignments = kept
		}
		for i := range assignments {
			assignments[i].CreatedBy = &callerID
		}
		if err := txRepo.Assignment.BatchCreate(ctx, assignments); err != nil {
			return err
		}
		created = assignments
		return nil
	})
	if txErr != nil {
		if pkgerrors.KindOf(txErr) == pkgerrors.KindUnknown {
			s.logger.Error("生成轮班排班失败", zap.Error(txErr))
		}
		return nil, txErr
	}

	s.logger.Info("轮班排班已生成",
		zap.String("pattern", pattern.Code),
		zap.String("start", req.StartDate),
		zap.String("end", req.EndDate),
		zap.Int("count", len(created)),
	)

	return &dto.GenerateRotationResponse{
		PatternCode: pattern.Code,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Generated:   len(created),
		Assignments: toAssignmentResponses(created),
	}, nil
}

func (s *rotationService) Preview(ctx context.Context, req *dto.PreviewRotationRequest) (*dto.GenerateRotationResponse, error) {
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	pattern, err := s.loadPattern(ctx, req.PatternID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.expand(ctx, s.repo, pattern, start, end)
	if err != nil {
		return nil, err
	}
	return &dto.GenerateRotationResponse{
		PatternCode: pattern.Code,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Generated:   len(assignments),
		Assignments: toAssignmentResponses(assignments),
	}, nil
}

func (s *rotationService) loadPattern(ctx context.Context, patternID string) (*model.RotationPattern, error) {
	pattern, err := s.repo.RotationPattern.GetByID(ctx, patternID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatternNotFound
		}
		s.logger.Error("查询轮班模式失败", zap.Error(err))
		return nil, err
	}
	if err := pattern.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.KindInvalidInput, err)
	}
	return pattern, nil
}

// expand 纯展开：模式 + 相位 + 区间 → 排班集合
// 同样输入恒产出同样集合（按 日期/班组/工号 排序），保证幂等重生成
func (s *rotationService) expand(ctx context.Context, repo *repository.Repository, pattern *model.RotationPattern, start, end time.Time) ([]model.ScheduleAssignment, error) {
	// 班组成员（仅在岗员工）
	crewMembers := make(map[model.Crew][]model.Employee, len(pattern.Phases))
	for _, ph := range pattern.Phases {
		members, err := repo.Employee.ListActiveByCrew(ctx, ph.Crew)
		if err != nil {
			return nil, err
		}
		crewMembers[ph.Crew] = members
	}

	// 已批准缺勤索引: employeeID → periods
	absences, err := repo.Absence.ListApprovedInRange(ctx, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	absencesByEmployee := make(map[string][]model.AbsencePeriod)
	for _, a := range absences {
		absencesByEmployee[a.EmployeeID] = append(absencesByEmployee[a.EmployeeID], a)
	}

	var result []model.ScheduleAssignment
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dayIndex := daysBetween(pattern.EpochDate, d)
		for _, ph := range pattern.Phases {
			idx := mod(dayIndex+ph.PhaseOffset, pattern.CycleLengthDays)
			entry := pattern.CycleEntryAt(idx)
			if entry == nil || !entry.IsWork {
				continue
			}
			for _, emp := range crewMembers[ph.Crew] {
				if isAbsentOn(absencesByEmployee[emp.EmployeeID], d) {
					continue
				}
				result = append(result, model.ScheduleAssignment{
					EmployeeID: emp.EmployeeID,
					DutyDate:   d,
					ShiftType:  *entry.ShiftType,
					Crew:       ph.Crew,
					Source:     model.SourceRotation,
				})
			}
		}
	}

	// 稳定输出顺序，保证确定性
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DutyDate.Equal(result[j].DutyDate) {
			return result[i].DutyDate.Before(result[j].DutyDate)
		}
		if result[i].Crew != result[j].Crew {
			return result[i].Crew < result[j].Crew
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})
	return result, nil
}

func (s *rotationService) ListChangeLogs(ctx context.Context, req *dto.ChangeLogListRequest) ([]dto.ChangeLogResponse, int64, error) {
	if _, _, err := parseDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, 0, err
	}
	logs, total, err := s.repo.ChangeLog.ListByDateRange(ctx, req.StartDate, req.EndDate, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询排班变更日志失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.ChangeLogResponse, 0, len(logs))
	for _, l := range logs {
		item := dto.ChangeLogResponse{
			ID:            l.ChangeLogID,
			AssignmentID:  l.AssignmentID,
			NewEmployeeID: l.NewEmployeeID,
			DutyDate:      l.DutyDate.Format("2006-01-02"),
			ShiftType:     string(l.ShiftType),
			ChangeType:    l.ChangeType,
			Reason:        l.Reason,
			OperatorID:    l.OperatorID,
			CreatedAt:     l.CreatedAt.Format(time.RFC3339),
		}
		if l.OriginalEmployeeID != nil {
			item.OriginalEmployeeID = *l.OriginalEmployeeID
		}
		result = append(result, item)
	}
	return result, total, nil
}

// ── 日期辅助 ──

// parseDateRange 解析并校验 YYYY-MM-DD 闭区间
func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", startStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.KindInvalidInput, fmt.Errorf("开始日期格式非法: %q", startStr))
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.KindInvalidInput, fmt.Errorf("结束日期格式非法: %q", endStr))
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}

// truncateDate 归一化到 UTC 零点
func truncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween 计算两个日期相差的天数（b - a）
func daysBetween(a, b time.Time) int {
	return int(truncateDate(b).Sub(truncateDate(a)).Hours() / 24)
}

// mod 非负取模（dayIndex 可能为负：生成区间早于模式纪元日）
func mod(a, n int) int {
	return ((a % n) + n) % n
}

// isAbsentOn 判断日期是否落在任一已批准缺勤期内
func isAbsentOn(periods []model.AbsencePeriod, date time.Time) bool {
	for i := range periods {
		if periods[i].Covers(date) {
			return true
		}
	}
	return false
}

// ── DTO 映射 ──

func toPatternResponse(p *model.RotationPattern) *dto.PatternResponse {
	resp := &dto.PatternResponse{
		ID:              p.PatternID,
		Code:            p.Code,
		Name:            p.Name,
		CycleLengthDays: p.CycleLengthDays,
		RequiredOnCrews: p.RequiredOnCrews,
		EpochDate:       p.EpochDate.Format("2006-01-02"),
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
	for _, d := range p.CycleDays {
		day := dto.PatternCycleDayInput{DayIndex: d.DayIndex, IsWork: d.IsWork}
		if d.ShiftType != nil {
			day.ShiftType = string(*d.ShiftType)
		}
		resp.CycleDays = append(resp.CycleDays, day)
	}
	for _, ph := range p.Phases {
		resp.Phases = append(resp.Phases, dto.PatternCrewPhaseInput{
			Crew:        string(ph.Crew),
			PhaseOffset: ph.PhaseOffset,
		})
	}
	return resp
}

func toAssignmentResponse(a *model.ScheduleAssignment) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:        a.AssignmentID,
		DutyDate:  a.DutyDate.Format("2006-01-02"),
		ShiftType: string(a.ShiftType),
		Crew:      string(a.Crew),
		Source:    string(a.Source),
	}
	if a.Employee != nil {
		resp.Employee = toEmployeeBrief(a.Employee)
	} else if a.EmployeeID != "" {
		resp.Employee = &dto.EmployeeBrief{ID: a.EmployeeID}
	}
	return resp
}

func toAssignmentResponses(assignments []model.ScheduleAssignment) []dto.AssignmentResponse {
	result := make([]dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		result = append(result, toAssignmentResponse(&assignments[i]))
	}
	return result
}

func toEmployeeBrief(e *model.Employee) *dto.EmployeeBrief {
	brief := &dto.EmployeeBrief{
		ID:         e.EmployeeID,
		EmployeeNo: e.EmployeeNo,
		Name:       e.Name,
		Position:   e.Position,
		Skills:     e.Skills,
	}
	if e.Crew != nil {
		brief.Crew = string(*e.Crew)
	}
	return brief
}

// [自证通过] internal/service/rotation_service.go
