package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"crew-rota/internal/model"
	"crew-rota/internal/repository"
	pkgerrors "crew-rota/pkg/errors"
)

// ── 单元测试共用 mock 仓储 ──
// 聚合 Repository 的 db 为空指针，Transaction 直接回调自身；
// Get 类方法一律返回副本，Update 按版本号做 CAS，与真实仓储语义对齐

func mustDate(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func fixedClock(s string) Clock {
	t := mustDate(s)
	return func() time.Time { return t }
}

// ── 员工 ──

type mockEmployeeRepo struct {
	employees []*model.Employee
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	for _, e := range m.employees {
		if e.EmployeeID == id {
			c := *e
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) ListByIDs(_ context.Context, ids []string) ([]model.Employee, error) {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	var result []model.Employee
	for _, e := range m.employees {
		if idSet[e.EmployeeID] {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEmployeeRepo) ListActiveByCrew(_ context.Context, crew model.Crew) ([]model.Employee, error) {
	var result []model.Employee
	for _, e := range m.employees {
		if e.IsActive && e.InCrew(crew) {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeNo < result[j].EmployeeNo })
	return result, nil
}

func (m *mockEmployeeRepo) ListActiveBySkill(_ context.Context, skill string) ([]model.Employee, error) {
	var result []model.Employee
	for _, e := range m.employees {
		if e.IsActive && e.HasSkill(skill) {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeNo < result[j].EmployeeNo })
	return result, nil
}

// ── 轮班模式 ──

type mockPatternRepo struct {
	patterns []*model.RotationPattern
	seq      int
}

func (m *mockPatternRepo) Create(_ context.Context, pattern *model.RotationPattern) error {
	m.seq++
	if pattern.PatternID == "" {
		pattern.PatternID = fmt.Sprintf("pattern-%d", m.seq)
	}
	c := *pattern
	m.patterns = append(m.patterns, &c)
	return nil
}

func (m *mockPatternRepo) GetByID(_ context.Context, id string) (*model.RotationPattern, error) {
	for _, p := range m.patterns {
		if p.PatternID == id {
			c := *p
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPatternRepo) GetByCode(_ context.Context, code string) (*model.RotationPattern, error) {
	for _, p := range m.patterns {
		if p.Code == code {
			c := *p
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPatternRepo) List(_ context.Context) ([]model.RotationPattern, error) {
	result := make([]model.RotationPattern, 0, len(m.patterns))
	for _, p := range m.patterns {
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockPatternRepo) Update(_ context.Context, pattern *model.RotationPattern) error {
	for i, p := range m.patterns {
		if p.PatternID == pattern.PatternID {
			if p.Version != pattern.Version {
				return pkgerrors.ErrOptimisticLock
			}
			c := *pattern
			c.Version = p.Version + 1
			m.patterns[i] = &c
			pattern.Version = c.Version
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockPatternRepo) Delete(_ context.Context, id string, _ string) error {
	for i, p := range m.patterns {
		if p.PatternID == id {
			m.patterns = append(m.patterns[:i], m.patterns[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── 排班明细 ──

type mockAssignmentRepo struct {
	rows    []*model.ScheduleAssignment
	deleted map[string]bool
	seq     int

	// beforeUpdate 在 CAS 校验前回调，模拟并发修改
	beforeUpdate func(stored *model.ScheduleAssignment)
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{deleted: make(map[string]bool)}
}

func (m *mockAssignmentRepo) live() []*model.ScheduleAssignment {
	var result []*model.ScheduleAssignment
	for _, a := range m.rows {
		if !m.deleted[a.AssignmentID] {
			result = append(result, a)
		}
	}
	return result
}

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *model.ScheduleAssignment) error {
	m.seq++
	if assignment.AssignmentID == "" {
		assignment.AssignmentID = fmt.Sprintf("assignment-%d", m.seq)
	}
	if assignment.Version == 0 {
		assignment.Version = 1
	}
	c := *assignment
	m.rows = append(m.rows, &c)
	return nil
}

func (m *mockAssignmentRepo) BatchCreate(ctx context.Context, assignments []model.ScheduleAssignment) error {
	for i := range assignments {
		if err := m.Create(ctx, &assignments[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.ScheduleAssignment, error) {
	for _, a := range m.live() {
		if a.AssignmentID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*model.ScheduleAssignment, error) {
	key := date.Format("2006-01-02")
	for _, a := range m.live() {
		if a.EmployeeID == employeeID && a.DateKey() == key {
			c := *a
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) ListByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) ([]model.ScheduleAssignment, error) {
	key := date.Format("2006-01-02")
	var result []model.ScheduleAssignment
	for _, a := range m.live() {
		if a.EmployeeID == employeeID && a.DateKey() == key {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListByDateRange(_ context.Context, start, end time.Time) ([]model.ScheduleAssignment, error) {
	var result []model.ScheduleAssignment
	for _, a := range m.live() {
		if !a.DutyDate.Before(start) && !a.DutyDate.After(end) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DutyDate.Equal(result[j].DutyDate) {
			return result[i].DutyDate.Before(result[j].DutyDate)
		}
		if result[i].ShiftType != result[j].ShiftType {
			return result[i].ShiftType < result[j].ShiftType
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})
	return result, nil
}

func (m *mockAssignmentRepo) ListByEmployeeAndRange(_ context.Context, employeeID string, start, end time.Time) ([]model.ScheduleAssignment, error) {
	var result []model.ScheduleAssignment
	for _, a := range m.live() {
		if a.EmployeeID == employeeID && !a.DutyDate.Before(start) && !a.DutyDate.After(end) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DutyDate.Before(result[j].DutyDate) })
	return result, nil
}

func (m *mockAssignmentRepo) CountNonRotationInRange(_ context.Context, start, end time.Time) (int64, error) {
	var count int64
	for _, a := range m.live() {
		if !a.DutyDate.Before(start) && !a.DutyDate.After(end) && a.Source != model.SourceRotation {
			count++
		}
	}
	return count, nil
}

func (m *mockAssignmentRepo) CountRotationInRange(_ context.Context, start, end time.Time) (int64, error) {
	var count int64
	for _, a := range m.live() {
		if !a.DutyDate.Before(start) && !a.DutyDate.After(end) && a.Source == model.SourceRotation {
			count++
		}
	}
	return count, nil
}

func (m *mockAssignmentRepo) DeleteRotationInRange(_ context.Context, start, end time.Time, _ string) error {
	for _, a := range m.live() {
		if !a.DutyDate.Before(start) && !a.DutyDate.After(end) && a.Source == model.SourceRotation {
			m.deleted[a.AssignmentID] = true
		}
	}
	return nil
}

func (m *mockAssignmentRepo) Update(_ context.Context, assignment *model.ScheduleAssignment) error {
	for i, a := range m.rows {
		if a.AssignmentID == assignment.AssignmentID && !m.deleted[a.AssignmentID] {
			if m.beforeUpdate != nil {
				m.beforeUpdate(a)
			}
			if a.Version != assignment.Version {
				return pkgerrors.ErrOptimisticLock
			}
			c := *assignment
			c.Version = a.Version + 1
			m.rows[i] = &c
			assignment.Version = c.Version
			return nil
		}
	}
	return pkgerrors.ErrOptimisticLock
}

func (m *mockAssignmentRepo) Delete(_ context.Context, id string, _ string) error {
	m.deleted[id] = true
	return nil
}

// ── 覆盖要求 ──

type mockCoverageRepo struct {
	requirements []model.CoverageRequirement
}

func (m *mockCoverageRepo) List(_ context.Context) ([]model.CoverageRequirement, error) {
	return append([]model.CoverageRequirement(nil), m.requirements...), nil
}

func (m *mockCoverageRepo) ListByDayClass(_ context.Context, dayClass model.DayClass) ([]model.CoverageRequirement, error) {
	var result []model.CoverageRequirement
	for _, r := range m.requirements {
		if r.DayClass == dayClass {
			result = append(result, r)
		}
	}
	return result, nil
}

// ── 换班申请 ──

type mockSwapRepo struct {
	rows []*model.SwapRequest
	seq  int

	// beforeUpdate 在 CAS 校验前回调，模拟双主管并发审批
	beforeUpdate func(stored *model.SwapRequest)
}

func (m *mockSwapRepo) Create(_ context.Context, req *model.SwapRequest) error {
	m.seq++
	if req.SwapRequestID == "" {
		req.SwapRequestID = fmt.Sprintf("swap-%d", m.seq)
	}
	if req.Version == 0 {
		req.Version = 1
	}
	c := *req
	m.rows = append(m.rows, &c)
	return nil
}

func (m *mockSwapRepo) GetByID(_ context.Context, id string) (*model.SwapRequest, error) {
	for _, r := range m.rows {
		if r.SwapRequestID == id {
			c := *r
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSwapRepo) List(_ context.Context, status model.SwapStatus, crew model.Crew, offset, limit int) ([]model.SwapRequest, int64, error) {
	var filtered []model.SwapRequest
	for _, r := range m.rows {
		if status != "" && r.Status != status {
			continue
		}
		if crew != "" && r.RequesterCrew != crew && (r.TargetCrew == nil || *r.TargetCrew != crew) {
			continue
		}
		filtered = append(filtered, *r)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	endIdx := offset + limit
	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}
	return filtered[offset:endIdx], total, nil
}

func (m *mockSwapRepo) Update(_ context.Context, req *model.SwapRequest) error {
	for i, r := range m.rows {
		if r.SwapRequestID == req.SwapRequestID {
			if m.beforeUpdate != nil {
				m.beforeUpdate(r)
			}
			if r.Version != req.Version {
				return pkgerrors.ErrOptimisticLock
			}
			c := *req
			c.Version = r.Version + 1
			m.rows[i] = &c
			req.Version = c.Version
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── 缺勤 / 节假日 / 变更日志 ──

type mockAbsenceRepo struct {
	periods []model.AbsencePeriod
}

func (m *mockAbsenceRepo) ListApprovedInRange(_ context.Context, start, end string) ([]model.AbsencePeriod, error) {
	s, e := mustDate(start), mustDate(end)
	var result []model.AbsencePeriod
	for _, p := range m.periods {
		if p.IsApproved && !p.StartDate.After(e) && !p.EndDate.Before(s) {
			result = append(result, p)
		}
	}
	return result, nil
}

type mockHolidayRepo struct {
	holidays []model.Holiday
}

func (m *mockHolidayRepo) ListByYear(_ context.Context, year int) ([]model.Holiday, error) {
	var result []model.Holiday
	for _, h := range m.holidays {
		if h.HolidayDate.Year() == year {
			result = append(result, h)
		}
	}
	return result, nil
}

type mockChangeLogRepo struct {
	logs []model.AssignmentChangeLog
	seq  int
}

func (m *mockChangeLogRepo) Create(_ context.Context, log *model.AssignmentChangeLog) error {
	m.seq++
	if log.ChangeLogID == "" {
		log.ChangeLogID = fmt.Sprintf("changelog-%d", m.seq)
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockChangeLogRepo) ListByDateRange(_ context.Context, start, end string, offset, limit int) ([]model.AssignmentChangeLog, int64, error) {
	s, e := mustDate(start), mustDate(end)
	var filtered []model.AssignmentChangeLog
	for _, l := range m.logs {
		if !l.DutyDate.Before(s) && !l.DutyDate.After(e) {
			filtered = append(filtered, l)
		}
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	endIdx := offset + limit
	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}
	return filtered[offset:endIdx], total, nil
}

// ── 聚合与种子数据 ──

type testRepos struct {
	employees   *mockEmployeeRepo
	patterns    *mockPatternRepo
	assignments *mockAssignmentRepo
	coverage    *mockCoverageRepo
	swaps       *mockSwapRepo
	absences    *mockAbsenceRepo
	holidays    *mockHolidayRepo
	changeLogs  *mockChangeLogRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		employees:   &mockEmployeeRepo{},
		patterns:    &mockPatternRepo{},
		assignments: newMockAssignmentRepo(),
		coverage:    &mockCoverageRepo{},
		swaps:       &mockSwapRepo{},
		absences:    &mockAbsenceRepo{},
		holidays:    &mockHolidayRepo{},
		changeLogs:  &mockChangeLogRepo{},
	}
}

func (t *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		Employee:            t.employees,
		RotationPattern:     t.patterns,
		Assignment:          t.assignments,
		CoverageRequirement: t.coverage,
		SwapRequest:         t.swaps,
		Absence:             t.absences,
		Holiday:             t.holidays,
		ChangeLog:           t.changeLogs,
	}
}

func (t *testRepos) seedEmployee(id, no, name string, crew model.Crew, skills ...string) *model.Employee {
	emp := &model.Employee{
		EmployeeID: id,
		EmployeeNo: no,
		Name:       name,
		Crew:       &crew,
		Skills:     model.StringArray(skills),
		IsActive:   true,
	}
	t.employees.employees = append(t.employees.employees, emp)
	return emp
}

func (t *testRepos) seedAssignment(employeeID, date string, shift model.ShiftType, crew model.Crew, source model.AssignmentSource) *model.ScheduleAssignment {
	a := &model.ScheduleAssignment{
		EmployeeID: employeeID,
		DutyDate:   mustDate(date),
		ShiftType:  shift,
		Crew:       crew,
		Source:     source,
	}
	if err := t.assignments.Create(context.Background(), a); err != nil {
		panic(err)
	}
	return a
}

func (t *testRepos) seedAbsence(employeeID, start, end string) {
	t.absences.periods = append(t.absences.periods, model.AbsencePeriod{
		AbsenceID:  fmt.Sprintf("absence-%d", len(t.absences.periods)+1),
		EmployeeID: employeeID,
		StartDate:  mustDate(start),
		EndDate:    mustDate(end),
		IsApproved: true,
	})
}

// fourCrewPattern 标准 2-2 四班轮换：循环 4 天，前两天分别为白班/夜班，
// 相位错开一天，任一日期恰有 2 个班组在岗
func fourCrewPattern() *model.RotationPattern {
	day, night := model.ShiftDay, model.ShiftNight
	return &model.RotationPattern{
		PatternID:       "pattern-2on2off",
		Code:            "2on2off",
		Name:            "两班两休",
		CycleLengthDays: 4,
		RequiredOnCrews: 2,
		EpochDate:       mustDate("2026-01-01"),
		CycleDays: []model.RotationCycleDay{
			{DayIndex: 0, IsWork: true, ShiftType: &day},
			{DayIndex: 1, IsWork: true, ShiftType: &night},
			{DayIndex: 2, IsWork: false},
			{DayIndex: 3, IsWork: false},
		},
		Phases: []model.CrewPhase{
			{Crew: model.CrewA, PhaseOffset: 0},
			{Crew: model.CrewB, PhaseOffset: 1},
			{Crew: model.CrewC, PhaseOffset: 2},
			{Crew: model.CrewD, PhaseOffset: 3},
		},
	}
}

// [自证通过] internal/service/mock_repos_test.go
