// Package model 定义轮班计划引擎的核心数据模型
package model

import "github.com/google/uuid"

// AssignmentOrigin 排班记录来源
type AssignmentOrigin string

const (
	OriginFresh  AssignmentOrigin = "fresh"  // 本次求解新产生
	OriginLocked AssignmentOrigin = "locked" // 来自已提交锁定事实
	OriginCross  AssignmentOrigin = "cross"  // 跨班组补位
)

// Assignment 排班分配（每员工每日至多一条）
type Assignment struct {
	BaseModel
	OrgID      uuid.UUID        `json:"org_id" db:"org_id"`
	EmployeeID uuid.UUID        `json:"employee_id" db:"employee_id"`
	TeamID     *uuid.UUID       `json:"team_id,omitempty" db:"team_id"` // 承担班次的班组（跨组补位时为目标班组）
	Date       string           `json:"date" db:"date"`                 // YYYY-MM-DD
	ShiftCode  string           `json:"shift_code" db:"shift_code"`
	Origin     AssignmentOrigin `json:"origin" db:"origin"`
}

// IsOnDate 检查分配是否在指定日期
func (a *Assignment) IsOnDate(date string) bool {
	return a.Date == date
}

// DayDuty 周值班指派：每周一名具备资格的员工待命，
// 与其当周常规排班互斥。
type DayDuty struct {
	BaseModel
	OrgID      uuid.UUID `json:"org_id" db:"org_id"`
	EmployeeID uuid.UUID `json:"employee_id" db:"employee_id"`
	WeekStart  string    `json:"week_start" db:"week_start"` // 周一日期
}
