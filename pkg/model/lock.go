// Package model 定义轮班计划引擎的核心数据模型
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// TeamWeekKey 班组周锁键：每键对应一条班组周轮换承诺
type TeamWeekKey struct {
	TeamID    uuid.UUID `json:"team_id"`
	WeekStart string    `json:"week_start"` // 周一日期
}

// MarshalText 实现文本编码，使该键可作为 JSON map 键
func (k TeamWeekKey) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%s/%s", k.TeamID, k.WeekStart)), nil
}

// EmployeeDayKey 员工日锁键：每键对应一条个人日承诺
type EmployeeDayKey struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	Date       string    `json:"date"` // YYYY-MM-DD
}

// MarshalText 实现文本编码，使该键可作为 JSON map 键
func (k EmployeeDayKey) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%s/%s", k.EmployeeID, k.Date)), nil
}

// LockSet 锁定集合。
//
// 两个键空间刻意分离：周粒度承载轮换/值班承诺，
// 日粒度承载个人已提交事实，二者更新节奏不同。
type LockSet struct {
	TeamWeeks    map[TeamWeekKey]string    `json:"team_weeks"`    // → 班次代码
	EmployeeDays map[EmployeeDayKey]string `json:"employee_days"` // → 班次代码
}

// NewLockSet 创建空锁定集合
func NewLockSet() *LockSet {
	return &LockSet{
		TeamWeeks:    make(map[TeamWeekKey]string),
		EmployeeDays: make(map[EmployeeDayKey]string),
	}
}

// SetTeamWeek 记录班组周锁
func (s *LockSet) SetTeamWeek(teamID uuid.UUID, weekStart, code string) {
	s.TeamWeeks[TeamWeekKey{TeamID: teamID, WeekStart: weekStart}] = code
}

// SetEmployeeDay 记录员工日锁
func (s *LockSet) SetEmployeeDay(employeeID uuid.UUID, date, code string) {
	s.EmployeeDays[EmployeeDayKey{EmployeeID: employeeID, Date: date}] = code
}

// EmployeeDayCode 查询员工日锁
func (s *LockSet) EmployeeDayCode(employeeID uuid.UUID, date string) (string, bool) {
	code, ok := s.EmployeeDays[EmployeeDayKey{EmployeeID: employeeID, Date: date}]
	return code, ok
}

// TeamWeekCode 查询班组周锁
func (s *LockSet) TeamWeekCode(teamID uuid.UUID, weekStart string) (string, bool) {
	code, ok := s.TeamWeeks[TeamWeekKey{TeamID: teamID, WeekStart: weekStart}]
	return code, ok
}

// HasEmployeeDay 检查员工日锁是否存在
func (s *LockSet) HasEmployeeDay(employeeID uuid.UUID, date string) bool {
	_, ok := s.EmployeeDays[EmployeeDayKey{EmployeeID: employeeID, Date: date}]
	return ok
}

// Empty 检查锁定集合是否为空
func (s *LockSet) Empty() bool {
	return len(s.TeamWeeks) == 0 && len(s.EmployeeDays) == 0
}

// Clone 深拷贝锁定集合
func (s *LockSet) Clone() *LockSet {
	out := NewLockSet()
	for k, v := range s.TeamWeeks {
		out.TeamWeeks[k] = v
	}
	for k, v := range s.EmployeeDays {
		out.EmployeeDays[k] = v
	}
	return out
}
