// Package model 定义轮班计划引擎的核心数据模型
package model

import "github.com/google/uuid"

// AbsenceCategory 缺勤类别
type AbsenceCategory string

const (
	AbsenceVacation AbsenceCategory = "vacation" // 年假
	AbsenceSick     AbsenceCategory = "sick"     // 病假
	AbsenceTraining AbsenceCategory = "training" // 培训
	AbsenceOther    AbsenceCategory = "other"    // 其他
)

// Absence 缺勤记录（闭区间）。
// 缺勤是权威事实：区间内任何日期都不允许产生排班。
type Absence struct {
	BaseModel
	OrgID      uuid.UUID       `json:"org_id" db:"org_id"`
	EmployeeID uuid.UUID       `json:"employee_id" db:"employee_id"`
	Category   AbsenceCategory `json:"category" db:"category"`
	StartDate  string          `json:"start_date" db:"start_date"`
	EndDate    string          `json:"end_date" db:"end_date"`
}

// Covers 检查缺勤是否覆盖指定日期
func (a *Absence) Covers(date string) bool {
	return date >= a.StartDate && date <= a.EndDate
}

// AbsenceSet 缺勤集合（按员工索引）
type AbsenceSet struct {
	byEmployee map[uuid.UUID][]*Absence
}

// NewAbsenceSet 创建缺勤集合
func NewAbsenceSet(absences []*Absence) *AbsenceSet {
	s := &AbsenceSet{byEmployee: make(map[uuid.UUID][]*Absence)}
	for _, a := range absences {
		s.byEmployee[a.EmployeeID] = append(s.byEmployee[a.EmployeeID], a)
	}
	return s
}

// IsAbsent 检查员工在指定日期是否缺勤
func (s *AbsenceSet) IsAbsent(employeeID uuid.UUID, date string) bool {
	for _, a := range s.byEmployee[employeeID] {
		if a.Covers(date) {
			return true
		}
	}
	return false
}

// AbsentAny 检查员工在一组日期中是否有缺勤
func (s *AbsenceSet) AbsentAny(employeeID uuid.UUID, dates []string) bool {
	for _, d := range dates {
		if s.IsAbsent(employeeID, d) {
			return true
		}
	}
	return false
}

// Of 返回员工的全部缺勤记录
func (s *AbsenceSet) Of(employeeID uuid.UUID) []*Absence {
	return s.byEmployee[employeeID]
}
