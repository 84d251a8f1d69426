package model

// Employee 员工镜像表 — 对应 employees
// 数据由外部 HR 系统同步，本服务只读；Crew 为空表示未分配班组
type Employee struct {
	EmployeeID string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	EmployeeNo string      `gorm:"type:varchar(50);not null;uniqueIndex"          json:"employee_no"`
	Name       string      `gorm:"type:varchar(100);not null"                     json:"name"`
	Crew       *Crew       `gorm:"type:varchar(1)"                                json:"crew,omitempty"`
	Position   string      `gorm:"type:varchar(100)"                              json:"position,omitempty"`
	Skills     StringArray `gorm:"type:text[];not null;default:'{}'"              json:"skills"`
	IsActive   bool        `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// HasSkill 判断员工是否具备指定技能
func (e *Employee) HasSkill(skill string) bool {
	return e.Skills.Contains(skill)
}

// InCrew 判断员工是否属于指定班组
func (e *Employee) InCrew(crew Crew) bool {
	return e.Crew != nil && *e.Crew == crew
}

// [自证通过] internal/model/employee.go
