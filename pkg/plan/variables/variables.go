// Package variables 提供决策变量工厂。
//
// 模型推理的布尔变量全部在此创建：班组/周/班次代码、员工工作日
// 在岗、员工周末到岗、跨班组补位、周值班。变量按班组允许的
// 班次代码集裁剪。锁定与缺勤通过 Fix 固定为硬等式，固定值
// 冲突在固定时即被发现。
package variables

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/calendar"
)

// Kind 变量种类
type Kind string

const (
	KindTeamWeek       Kind = "team_week"       // 班组本周承担某班次代码
	KindWeekdayActive  Kind = "weekday_active"  // 员工工作日在岗
	KindWeekendPresent Kind = "weekend_present" // 员工周末到岗（代码继承班组周选择）
	KindCrossTeam      Kind = "cross_team"      // 员工跨班组补位
	KindDayDuty        Kind = "day_duty"        // 员工周值班
)

// BoolVar 布尔决策变量
type BoolVar struct {
	kind  Kind
	fixed bool
	value bool
}

// Kind 返回变量种类
func (v *BoolVar) Kind() Kind { return v.kind }

// Fixed 检查变量是否已被固定
func (v *BoolVar) Fixed() bool { return v.fixed }

// Value 返回变量当前取值
func (v *BoolVar) Value() bool { return v.value }

// Fix 将变量固定为硬等式。与既有固定值矛盾时返回错误。
func (v *BoolVar) Fix(value bool) error {
	if v.fixed && v.value != value {
		return fmt.Errorf("变量固定值冲突: 已固定为 %v, 再次固定为 %v", v.value, value)
	}
	v.fixed = true
	v.value = value
	return nil
}

// Assign 为自由变量赋值。已固定为相反值时返回 false。
func (v *BoolVar) Assign(value bool) bool {
	if v.fixed {
		return v.value == value
	}
	v.value = value
	return true
}

// EmployeeWeekKey 员工周键（周值班变量使用）
type EmployeeWeekKey struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	WeekStart  string    `json:"week_start"`
}

// Pool 决策变量池
type Pool struct {
	TeamWeek       map[model.TeamWeekKey]map[string]*BoolVar
	WeekdayActive  map[model.EmployeeDayKey]*BoolVar
	WeekendPresent map[model.EmployeeDayKey]*BoolVar
	CrossTeam      map[model.EmployeeDayKey]map[string]*BoolVar
	DayDuty        map[EmployeeWeekKey]*BoolVar
}

func newPool() *Pool {
	return &Pool{
		TeamWeek:       make(map[model.TeamWeekKey]map[string]*BoolVar),
		WeekdayActive:  make(map[model.EmployeeDayKey]*BoolVar),
		WeekendPresent: make(map[model.EmployeeDayKey]*BoolVar),
		CrossTeam:      make(map[model.EmployeeDayKey]map[string]*BoolVar),
		DayDuty:        make(map[EmployeeWeekKey]*BoolVar),
	}
}

// Size 返回变量总数
func (p *Pool) Size() int {
	n := len(p.WeekdayActive) + len(p.WeekendPresent) + len(p.DayDuty)
	for _, group := range p.TeamWeek {
		n += len(group)
	}
	for _, group := range p.CrossTeam {
		n += len(group)
	}
	return n
}

// FixTeamWeekCode 将班组周锁固定为硬等式：锁定代码为真，
// 同组其余代码为假。代码不在班组允许集内属于调用方输入错误。
func (p *Pool) FixTeamWeekCode(key model.TeamWeekKey, code string) error {
	group, ok := p.TeamWeek[key]
	if !ok {
		return fmt.Errorf("班组周变量组不存在: %s/%s", key.TeamID, key.WeekStart)
	}
	if _, ok := group[code]; !ok {
		return fmt.Errorf("班组 %s 不允许班次代码 %s", key.TeamID, code)
	}
	for c, v := range group {
		if err := v.Fix(c == code); err != nil {
			return fmt.Errorf("班组周 %s/%s 代码 %s: %w", key.TeamID, key.WeekStart, c, err)
		}
	}
	return nil
}

// FixEmployeeDayCommitted 将已锁定的员工日固定为不可再决策：
// 该日的在岗/到岗/跨组变量全部固定为假，已提交事实由锁定
// 分配记录承载，避免同一员工同日产生重复承诺。
func (p *Pool) FixEmployeeDayCommitted(employeeID uuid.UUID, date string) error {
	key := model.EmployeeDayKey{EmployeeID: employeeID, Date: date}
	if v, ok := p.WeekdayActive[key]; ok {
		if err := v.Fix(false); err != nil {
			return err
		}
	}
	if v, ok := p.WeekendPresent[key]; ok {
		if err := v.Fix(false); err != nil {
			return err
		}
	}
	for _, v := range p.CrossTeam[key] {
		if err := v.Fix(false); err != nil {
			return err
		}
	}
	return nil
}

// Factory 决策变量工厂
type Factory struct {
	window   *calendar.Window
	roster   *model.Roster
	catalog  *model.Catalog
	absences *model.AbsenceSet
}

// NewFactory 创建决策变量工厂。目录是不可变配置对象，
// 由调用方显式传入。
func NewFactory(window *calendar.Window, roster *model.Roster, catalog *model.Catalog, absences *model.AbsenceSet) *Factory {
	return &Factory{window: window, roster: roster, catalog: catalog, absences: absences}
}

// Build 构建变量池。
//
// 工作日在岗与周末到岗变量只为参与轮换的正式班组成员创建；
// 跨班组变量为所有在职员工创建（含机动池与临时员工），
// 代码范围限于其可承担的代码集。缺勤区间内的变量在此全部
// 固定为假，后续任何与之矛盾的固定都会立即报错。
func (f *Factory) Build() (*Pool, error) {
	if err := f.validateCodes(); err != nil {
		return nil, err
	}

	pool := newPool()
	weeks := f.window.Weeks

	for _, team := range f.roster.Teams {
		codes := f.roster.AllowedCodes(team.ID)
		for _, week := range weeks {
			key := model.TeamWeekKey{TeamID: team.ID, WeekStart: week.Start}
			group := make(map[string]*BoolVar, len(codes))
			for _, code := range codes {
				group[code] = &BoolVar{kind: KindTeamWeek}
			}
			pool.TeamWeek[key] = group
		}
	}

	for _, emp := range f.roster.Employees {
		if !emp.IsActive() {
			continue
		}

		rotates := emp.TeamID != nil && emp.IsRegular()
		permitted := f.roster.PermittedCodes(emp, f.catalog)

		for _, week := range weeks {
			if rotates {
				for _, date := range week.WeekdayDates() {
					key := model.EmployeeDayKey{EmployeeID: emp.ID, Date: date}
					pool.WeekdayActive[key] = &BoolVar{kind: KindWeekdayActive}
				}
				for _, date := range week.WeekendDates() {
					key := model.EmployeeDayKey{EmployeeID: emp.ID, Date: date}
					pool.WeekendPresent[key] = &BoolVar{kind: KindWeekendPresent}
				}
			}

			for _, date := range week.Dates {
				key := model.EmployeeDayKey{EmployeeID: emp.ID, Date: date}
				group := make(map[string]*BoolVar, len(permitted))
				for _, code := range permitted {
					group[code] = &BoolVar{kind: KindCrossTeam}
				}
				pool.CrossTeam[key] = group
			}

			if emp.DayDutyQualified && emp.IsRegular() {
				key := EmployeeWeekKey{EmployeeID: emp.ID, WeekStart: week.Start}
				pool.DayDuty[key] = &BoolVar{kind: KindDayDuty}
			}
		}

		if err := f.forceAbsences(pool, emp, weeks); err != nil {
			return nil, err
		}
	}

	return pool, nil
}

// forceAbsences 缺勤强制：区间内所有变量固定为假，绝不放宽
func (f *Factory) forceAbsences(pool *Pool, emp *model.Employee, weeks []*calendar.Week) error {
	for _, week := range weeks {
		absentInWeek := false
		for _, date := range week.Dates {
			if !f.absences.IsAbsent(emp.ID, date) {
				continue
			}
			absentInWeek = true
			key := model.EmployeeDayKey{EmployeeID: emp.ID, Date: date}
			if v, ok := pool.WeekdayActive[key]; ok {
				if err := v.Fix(false); err != nil {
					return err
				}
			}
			if v, ok := pool.WeekendPresent[key]; ok {
				if err := v.Fix(false); err != nil {
					return err
				}
			}
			for _, v := range pool.CrossTeam[key] {
				if err := v.Fix(false); err != nil {
					return err
				}
			}
		}

		// 周内任一日缺勤即不可承担该周值班
		if absentInWeek {
			key := EmployeeWeekKey{EmployeeID: emp.ID, WeekStart: week.Start}
			if v, ok := pool.DayDuty[key]; ok {
				if err := v.Fix(false); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// validateCodes 校验班组允许代码集均定义于目录中
func (f *Factory) validateCodes() error {
	for _, team := range f.roster.Teams {
		for _, code := range f.roster.AllowedCodes(team.ID) {
			if !f.catalog.Has(code) {
				return fmt.Errorf("班组 %s 引用未知班次代码 %s", team.Name, code)
			}
		}
	}
	return nil
}
