// Package model 定义轮班计划引擎的核心数据模型
package model

import (
	"sort"

	"github.com/google/uuid"
)

// EmploymentType 用工类型
type EmploymentType string

const (
	EmploymentRegular   EmploymentType = "regular"   // 正式员工
	EmploymentTemporary EmploymentType = "temporary" // 临时员工（不参与班组轮换和周空闲保障）
)

// Employee 员工
type Employee struct {
	BaseModel
	OrgID      uuid.UUID      `json:"org_id" db:"org_id"`
	Name       string         `json:"name" db:"name"`
	Code       string         `json:"code" db:"code"`
	TeamID     *uuid.UUID     `json:"team_id,omitempty" db:"team_id"` // 为空表示机动池员工
	Employment EmploymentType `json:"employment" db:"employment"`
	Status     string         `json:"status" db:"status"` // active/inactive/leave

	// DayDutyQualified 是否具备周值班资格
	DayDutyQualified bool `json:"day_duty_qualified" db:"day_duty_qualified"`
}

// IsActive 检查员工是否在职
func (e *Employee) IsActive() bool {
	return e.Status == "active"
}

// IsRegular 检查是否为正式员工
func (e *Employee) IsRegular() bool {
	return e.Employment == EmploymentRegular
}

// IsPooled 检查是否为机动池员工（无班组归属）
func (e *Employee) IsPooled() bool {
	return e.TeamID == nil
}

// Team 班组
type Team struct {
	BaseModel
	OrgID uuid.UUID `json:"org_id" db:"org_id"`
	Name  string    `json:"name" db:"name"`
	Code  string    `json:"code" db:"code"`

	// AllowedCodes 该班组允许承担的班次代码白名单。
	// 为空时在花名册解析阶段回退到标准轮换代码集。
	AllowedCodes []string `json:"allowed_codes" db:"allowed_codes"`
}

// Roster 花名册（班组 + 员工，带索引）
//
// 解析发生在模型构建之前：空白名单回退到标准轮换代码集在
// NewRoster 中一次性完成，约束编译阶段不再出现条件分支。
type Roster struct {
	Teams     []*Team
	Employees []*Employee

	teamByID      map[uuid.UUID]*Team
	employeeByID  map[uuid.UUID]*Employee
	membersByTeam map[uuid.UUID][]*Employee
	pool          []*Employee
	allowedCodes  map[uuid.UUID][]string
}

// NewRoster 创建花名册并完成索引与班组能力解析
func NewRoster(teams []*Team, employees []*Employee, catalog *Catalog) *Roster {
	r := &Roster{
		Teams:         teams,
		Employees:     employees,
		teamByID:      make(map[uuid.UUID]*Team),
		employeeByID:  make(map[uuid.UUID]*Employee),
		membersByTeam: make(map[uuid.UUID][]*Employee),
		allowedCodes:  make(map[uuid.UUID][]string),
	}

	for _, t := range teams {
		r.teamByID[t.ID] = t

		codes := t.AllowedCodes
		if len(codes) == 0 {
			codes = catalog.CanonicalRotation()
		}
		resolved := make([]string, len(codes))
		copy(resolved, codes)
		r.allowedCodes[t.ID] = resolved
	}

	for _, e := range employees {
		r.employeeByID[e.ID] = e
		if e.TeamID != nil {
			r.membersByTeam[*e.TeamID] = append(r.membersByTeam[*e.TeamID], e)
		} else {
			r.pool = append(r.pool, e)
		}
	}

	// 成员顺序固定，保证求解结果可复现
	for id := range r.membersByTeam {
		members := r.membersByTeam[id]
		sort.Slice(members, func(i, j int) bool { return members[i].Code < members[j].Code })
	}
	sort.Slice(r.pool, func(i, j int) bool { return r.pool[i].Code < r.pool[j].Code })

	return r
}

// Team 根据ID获取班组
func (r *Roster) Team(id uuid.UUID) *Team {
	return r.teamByID[id]
}

// Employee 根据ID获取员工
func (r *Roster) Employee(id uuid.UUID) *Employee {
	return r.employeeByID[id]
}

// Members 获取班组成员（顺序固定）
func (r *Roster) Members(teamID uuid.UUID) []*Employee {
	return r.membersByTeam[teamID]
}

// Pool 获取机动池员工（无班组归属）
func (r *Roster) Pool() []*Employee {
	return r.pool
}

// AllowedCodes 获取班组解析后的班次代码集
func (r *Roster) AllowedCodes(teamID uuid.UUID) []string {
	return r.allowedCodes[teamID]
}

// PermittedCodes 获取员工可承担的班次代码集。
// 班组成员继承本班组的代码集，机动池员工使用标准轮换代码集。
func (r *Roster) PermittedCodes(e *Employee, catalog *Catalog) []string {
	if e.TeamID != nil {
		return r.allowedCodes[*e.TeamID]
	}
	return catalog.CanonicalRotation()
}

// TeamPermits 检查班组是否允许某班次代码
func (r *Roster) TeamPermits(teamID uuid.UUID, code string) bool {
	for _, c := range r.allowedCodes[teamID] {
		if c == code {
			return true
		}
	}
	return false
}
