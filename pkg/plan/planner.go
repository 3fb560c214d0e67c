// Package plan 组装轮班计划求解管线：
// 日历切分 → 变量工厂 → 锁定调和 → 规则编译 → 求解 → 结果提取。
package plan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/calendar"
	"github.com/lunban/lunban/pkg/plan/constraint"
	"github.com/lunban/lunban/pkg/plan/constraint/builtin"
	"github.com/lunban/lunban/pkg/plan/locks"
	"github.com/lunban/lunban/pkg/plan/solver"
	"github.com/lunban/lunban/pkg/plan/variables"
	"github.com/lunban/lunban/pkg/stats"
)

// Request 求解请求
type Request struct {
	// StartDate/EndDate 请求的计划区间（YYYY-MM-DD，闭区间）。
	// 实际求解窗口向外扩展到整周。
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Teams     []*model.Team     `json:"teams"`
	Employees []*model.Employee `json:"employees"`
	Absences  []*model.Absence  `json:"absences,omitempty"`

	// Locks 锁定集合（可为 nil）：班组周锁与员工日锁
	Locks *model.LockSet `json:"locks,omitempty"`

	// Catalog 班次目录，nil 使用标准三班倒目录
	Catalog *model.Catalog `json:"-"`

	// Defaults 全局缺省参数，nil 使用内置缺省
	Defaults *constraint.Defaults `json:"defaults,omitempty"`

	// History 员工历史负担累计（跨窗口公平）
	History map[uuid.UUID]stats.Counts `json:"-"`

	Limits solver.Limits `json:"limits"`
}

// Result 求解结果。
// 排班只含本次新产生与跨组补位的记录；锁定的员工日事实已
// 提交，不重复输出。
type Result struct {
	Status    solver.Status                `json:"status"`
	Window    *calendar.Window             `json:"window"`
	TeamCodes map[model.TeamWeekKey]string `json:"team_codes"`

	Assignments []*model.Assignment `json:"assignments"`
	DayDuties   []*model.DayDuty    `json:"day_duties"`

	LockReport       *locks.Report          `json:"lock_report"`
	ConstraintResult *constraint.Result     `json:"constraint_result,omitempty"`
	Fairness         *stats.FairnessMetrics `json:"fairness,omitempty"`
	Statistics       *solver.Statistics     `json:"statistics"`
	Duration         time.Duration          `json:"duration"`
	Message          string                 `json:"message,omitempty"`
}

// Feasible 检查结果是否可行
func (r *Result) Feasible() bool {
	return r.Status == solver.StatusFeasible
}

// Planner 轮班计划器
type Planner struct {
	solver solver.Solver
	logger *logger.PlannerLogger
}

// NewPlanner 创建计划器（缺省使用轮换求解器）
func NewPlanner() *Planner {
	return &Planner{
		solver: solver.NewRotationSolver(),
		logger: logger.NewPlannerLogger(),
	}
}

// WithSolver 替换求解器
func (p *Planner) WithSolver(s solver.Solver) *Planner {
	p.solver = s
	return p
}

// Solve 执行完整求解管线。
// 错误只表示模型构建失败；不可行与超时通过 Result.Status 表达。
func (p *Planner) Solve(ctx context.Context, req *Request) (*Result, error) {
	startTime := time.Now()

	window, err := calendar.Segment(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if len(req.Teams) == 0 {
		return nil, errors.ModelConstruction("请求中没有班组")
	}
	if len(req.Employees) == 0 {
		return nil, errors.ModelConstruction("请求中没有员工")
	}

	catalog := req.Catalog
	if catalog == nil {
		catalog = model.DefaultCatalog()
	}
	roster := model.NewRoster(req.Teams, req.Employees, catalog)
	absences := model.NewAbsenceSet(req.Absences)

	pool, err := variables.NewFactory(window, roster, catalog, absences).Build()
	if err != nil {
		return nil, errors.ModelConstruction(err.Error())
	}

	healed, report := locks.Reconcile(req.Locks, window, roster)
	p.logReconciliation(report)

	lockedAssignments, err := p.applyLocks(pool, healed, roster, window)
	if err != nil {
		return nil, err
	}

	base := constraint.NewContext(window, roster, catalog, absences, req.Defaults)
	base.Locks = healed

	manager := constraint.NewManager()
	builtin.RegisterDefaults(manager, base, &builtin.Options{History: req.History})

	outcome, err := p.solver.Solve(ctx, &solver.Model{
		Pool:              pool,
		Manager:           manager,
		Base:              base,
		LockedAssignments: lockedAssignments,
	}, req.Limits)
	if err != nil {
		return nil, err
	}

	result, err := extract(outcome, window, roster, catalog, healed, report)
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(startTime)
	return result, nil
}

// applyLocks 把调和后的锁固定为变量硬等式，并把员工日锁
// 物化为锁定来源的既成排班参与后续评估。
// 锁定员工所在周的值班变量一并固定为假：已有既成排班的周
// 不再承担值班。
func (p *Planner) applyLocks(pool *variables.Pool, healed *model.LockSet, roster *model.Roster, window *calendar.Window) ([]*model.Assignment, error) {
	for key, code := range healed.TeamWeeks {
		if err := pool.FixTeamWeekCode(key, code); err != nil {
			return nil, errors.LockConflict(
				fmt.Sprintf("%s/%s", key.TeamID, key.WeekStart), err.Error(),
			)
		}
	}

	keys := make([]model.EmployeeDayKey, 0, len(healed.EmployeeDays))
	for key := range healed.EmployeeDays {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Date != keys[j].Date {
			return keys[i].Date < keys[j].Date
		}
		return keys[i].EmployeeID.String() < keys[j].EmployeeID.String()
	})

	var locked []*model.Assignment
	for _, key := range keys {
		if err := pool.FixEmployeeDayCommitted(key.EmployeeID, key.Date); err != nil {
			return nil, errors.LockConflict(
				fmt.Sprintf("%s/%s", key.EmployeeID, key.Date), err.Error(),
			)
		}
		if weekStart, ok := window.WeekStartOf(key.Date); ok {
			dutyKey := variables.EmployeeWeekKey{EmployeeID: key.EmployeeID, WeekStart: weekStart}
			if v := pool.DayDuty[dutyKey]; v != nil && !v.Fixed() {
				if err := v.Fix(false); err != nil {
					return nil, errors.LockConflict(
						fmt.Sprintf("%s/%s", key.EmployeeID, key.Date), err.Error(),
					)
				}
			}
		}
		code := healed.EmployeeDays[key]
		var teamID *uuid.UUID
		if emp := roster.Employee(key.EmployeeID); emp != nil {
			teamID = emp.TeamID
		}
		locked = append(locked, &model.Assignment{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: key.EmployeeID,
			TeamID:     teamID,
			Date:       key.Date,
			ShiftCode:  code,
			Origin:     model.OriginLocked,
		})
	}
	return locked, nil
}

func (p *Planner) logReconciliation(report *locks.Report) {
	for _, c := range report.Conflicts {
		p.logger.LockConflictHealed(c.Key.TeamID.String(), c.Key.WeekStart, c.Codes)
	}
	for _, key := range report.SuppressedBoundary {
		p.logger.BoundaryLockSuppressed(key.TeamID.String(), key.WeekStart)
	}
}
