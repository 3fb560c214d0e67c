// Package constraint 定义规则约束接口和管理器。
//
// 规则目录把业务策略（轮换、人数、休息、连续天数、工时、
// 缺勤、公平性）编译为硬/软约束。锁定在编译前已作为硬等式
// 固定，编译产物对候选解进行整体评估与增量检查。
package constraint

import (
	"sort"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/calendar"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeRotationExactlyOne  Type = "rotation_exactly_one"  // 每组每周恰好一个班次代码
	TypeTeamLinkage         Type = "team_linkage"          // 成员班次跟随班组周选择
	TypeUniqueAssignment    Type = "unique_assignment"     // 每员工每日至多一条排班
	TypeStaffingBounds      Type = "staffing_bounds"       // 人数上下限
	TypeMinRest             Type = "min_rest"              // 班次间最小休息时间
	TypeMaxConsecutiveDays  Type = "max_consecutive_days"  // 最大连续工作天数
	TypeAbsenceExclusion    Type = "absence_exclusion"     // 缺勤排除
	TypeWeeklyAvailability  Type = "weekly_availability"   // 每周保留空闲成员
	TypeCrossTeamPermission Type = "cross_team_permission" // 跨组补位代码许可
	TypeDayDuty             Type = "day_duty"              // 周值班

	// 软约束类型
	TypeTargetHours   Type = "target_hours"     // 目标工时缺口最小化
	TypeFairness      Type = "fairness"         // 周末/夜班/节假日均衡
	TypeRotationCycle Type = "rotation_cycle"   // 轮换顺序偏好 F→N→S
	TypeStaffingCeil  Type = "staffing_ceiling" // 人数上限（软模式）
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（尽量满足）
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重 (1-100)
	Weight() int

	// Evaluate 评估整个候选解
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateAssignment 增量评估单个分配（求解器补位前检查用）
	// 返回：是否满足、惩罚值
	EvaluateAssignment(ctx *Context, assignment *model.Assignment) (valid bool, penalty int)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type      `json:"constraint_type"`
	ConstraintName string    `json:"constraint_name"`
	EmployeeID     uuid.UUID `json:"employee_id,omitempty"`
	TeamID         uuid.UUID `json:"team_id,omitempty"`
	Date           string    `json:"date,omitempty"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"` // error/warning
	Expected       string    `json:"expected,omitempty"`
	Actual         string    `json:"actual,omitempty"`
	Penalty        int       `json:"penalty"`
}

// Defaults 全局缺省参数（由外部花名册协作方提供）
type Defaults struct {
	// MinRestHours 班次间最小休息小时数
	MinRestHours float64 `json:"min_rest_hours"`

	// StaffingMaxHard 人数上限是否硬约束。
	// 配置为假时上限可带惩罚突破，避免僵硬上限制造伪不可行。
	StaffingMaxHard bool `json:"staffing_max_hard"`

	// Holidays 公共假日（公平性统计用）
	Holidays map[string]bool `json:"holidays,omitempty"`
}

// DefaultDefaults 返回缺省参数
func DefaultDefaults() *Defaults {
	return &Defaults{
		MinRestHours:    11,
		StaffingMaxHard: true,
	}
}

// IsHoliday 检查日期是否为公共假日
func (d *Defaults) IsHoliday(date string) bool {
	return d.Holidays[date]
}

// Context 候选解评估上下文。
// 输入数据在一次求解内只读；候选解（班组周代码、排班分配、
// 周值班）由求解器写入并重建索引。
type Context struct {
	Window   *calendar.Window
	Roster   *model.Roster
	Catalog  *model.Catalog
	Absences *model.AbsenceSet
	Locks    *model.LockSet // 调和后幸存的锁
	Defaults *Defaults

	// 候选解
	TeamCodes   map[model.TeamWeekKey]string
	Assignments []*model.Assignment
	DayDuties   []*model.DayDuty

	// 索引缓存
	assignmentsByEmp  map[uuid.UUID][]*model.Assignment
	assignmentsByDate map[string][]*model.Assignment
	countByDateCode   map[string]map[string]int
	dutyByWeek        map[string][]*model.DayDuty
	dutyByEmpWeek     map[uuid.UUID]map[string]bool
}

// NewContext 创建评估上下文
func NewContext(window *calendar.Window, roster *model.Roster, catalog *model.Catalog, absences *model.AbsenceSet, defaults *Defaults) *Context {
	if defaults == nil {
		defaults = DefaultDefaults()
	}
	c := &Context{
		Window:   window,
		Roster:   roster,
		Catalog:  catalog,
		Absences: absences,
		Locks:    model.NewLockSet(),
		Defaults: defaults,
	}
	c.SetSolution(make(map[model.TeamWeekKey]string), nil, nil)
	return c
}

// SetSolution 写入候选解并重建索引
func (c *Context) SetSolution(teamCodes map[model.TeamWeekKey]string, assignments []*model.Assignment, duties []*model.DayDuty) {
	c.TeamCodes = teamCodes
	c.Assignments = assignments
	c.DayDuties = duties
	c.rebuildIndexes()
}

// AddAssignment 追加排班分配（增量维护索引）
func (c *Context) AddAssignment(a *model.Assignment) {
	c.Assignments = append(c.Assignments, a)
	c.assignmentsByEmp[a.EmployeeID] = append(c.assignmentsByEmp[a.EmployeeID], a)
	c.assignmentsByDate[a.Date] = append(c.assignmentsByDate[a.Date], a)
	if c.countByDateCode[a.Date] == nil {
		c.countByDateCode[a.Date] = make(map[string]int)
	}
	c.countByDateCode[a.Date][a.ShiftCode]++
}

// RemoveAssignment 移除排班分配
func (c *Context) RemoveAssignment(id uuid.UUID) {
	for i, a := range c.Assignments {
		if a.ID == id {
			c.Assignments = append(c.Assignments[:i], c.Assignments[i+1:]...)
			break
		}
	}
	c.rebuildIndexes()
}

func (c *Context) rebuildIndexes() {
	c.assignmentsByEmp = make(map[uuid.UUID][]*model.Assignment)
	c.assignmentsByDate = make(map[string][]*model.Assignment)
	c.countByDateCode = make(map[string]map[string]int)
	for _, a := range c.Assignments {
		c.assignmentsByEmp[a.EmployeeID] = append(c.assignmentsByEmp[a.EmployeeID], a)
		c.assignmentsByDate[a.Date] = append(c.assignmentsByDate[a.Date], a)
		if c.countByDateCode[a.Date] == nil {
			c.countByDateCode[a.Date] = make(map[string]int)
		}
		c.countByDateCode[a.Date][a.ShiftCode]++
	}

	c.dutyByWeek = make(map[string][]*model.DayDuty)
	c.dutyByEmpWeek = make(map[uuid.UUID]map[string]bool)
	for _, d := range c.DayDuties {
		c.dutyByWeek[d.WeekStart] = append(c.dutyByWeek[d.WeekStart], d)
		if c.dutyByEmpWeek[d.EmployeeID] == nil {
			c.dutyByEmpWeek[d.EmployeeID] = make(map[string]bool)
		}
		c.dutyByEmpWeek[d.EmployeeID][d.WeekStart] = true
	}
}

// TeamCodeOn 返回班组在日期所属周承担的班次代码
func (c *Context) TeamCodeOn(teamID uuid.UUID, date string) (string, bool) {
	weekStart, ok := c.Window.WeekStartOf(date)
	if !ok {
		return "", false
	}
	code, ok := c.TeamCodes[model.TeamWeekKey{TeamID: teamID, WeekStart: weekStart}]
	return code, ok
}

// EmployeeAssignments 获取员工的全部排班（含锁定来源）
func (c *Context) EmployeeAssignments(empID uuid.UUID) []*model.Assignment {
	return c.assignmentsByEmp[empID]
}

// DateAssignments 获取某日期的全部排班
func (c *Context) DateAssignments(date string) []*model.Assignment {
	return c.assignmentsByDate[date]
}

// CountOn 统计某日期某班次代码的总人数（本组+跨组+锁定）
func (c *Context) CountOn(date, code string) int {
	return c.countByDateCode[date][code]
}

// AssignmentOn 获取员工在指定日期的排班
func (c *Context) AssignmentOn(empID uuid.UUID, date string) *model.Assignment {
	for _, a := range c.assignmentsByEmp[empID] {
		if a.Date == date {
			return a
		}
	}
	return nil
}

// DutiesInWeek 获取某周的全部值班指派
func (c *Context) DutiesInWeek(weekStart string) []*model.DayDuty {
	return c.dutyByWeek[weekStart]
}

// HasDuty 检查员工某周是否承担值班
func (c *Context) HasDuty(empID uuid.UUID, weekStart string) bool {
	return c.dutyByEmpWeek[empID][weekStart]
}

// SortedAssignments 返回员工排班按日期排序的副本
func (c *Context) SortedAssignments(empID uuid.UUID) []*model.Assignment {
	src := c.assignmentsByEmp[empID]
	out := make([]*model.Assignment, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	Score          float64           `json:"score"` // 0-100
}

// CalculateScore 计算约束满足度得分
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}
