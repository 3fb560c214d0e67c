package solver

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/calendar"
	"github.com/lunban/lunban/pkg/plan/constraint"
	"github.com/lunban/lunban/pkg/plan/constraint/builtin"
	"github.com/lunban/lunban/pkg/plan/variables"
)

// 测试目录：人数下限降到1，便于小规模夹具可行
func testCatalog(t *testing.T) *model.Catalog {
	t.Helper()
	allWeek := [7]bool{true, true, true, true, true, true, true}
	types := []*model.ShiftType{
		{Code: "F", Name: "早班", StartTime: "06:00", EndTime: "14:00", WeeklyTargetHours: 40,
			Weekday: model.Staffing{Min: 1, Max: 8}, Weekend: model.Staffing{Min: 1, Max: 3},
			ActiveDays: allWeek, MaxConsecutiveDays: 6},
		{Code: "S", Name: "晚班", StartTime: "14:00", EndTime: "22:00", WeeklyTargetHours: 40,
			Weekday: model.Staffing{Min: 1, Max: 8}, Weekend: model.Staffing{Min: 1, Max: 3},
			ActiveDays: allWeek, MaxConsecutiveDays: 6},
		{Code: "N", Name: "夜班", StartTime: "22:00", EndTime: "06:00", WeeklyTargetHours: 40,
			Weekday: model.Staffing{Min: 1, Max: 8}, Weekend: model.Staffing{Min: 1, Max: 3},
			ActiveDays: allWeek, MaxConsecutiveDays: 5, IsNight: true},
	}
	catalog, err := model.NewCatalog(types, []string{"F", "S", "N"})
	if err != nil {
		t.Fatalf("NewCatalog() 失败: %v", err)
	}
	return catalog
}

// 测试模型：两个班组各四人，两名机动池员工，一周窗口
type harness struct {
	catalog      *model.Catalog
	teamX, teamY *model.Team
	roster       *model.Roster
	window       *calendar.Window
	pool         *variables.Pool
	model        *Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	catalog := testCatalog(t)

	teamX := &model.Team{BaseModel: model.NewBaseModel(), Name: "甲组", Code: "TX"}
	teamY := &model.Team{BaseModel: model.NewBaseModel(), Name: "乙组", Code: "TY"}

	var employees []*model.Employee
	for i, code := range []string{"E001", "E002", "E003", "E004"} {
		emp := member(code, &teamX.ID)
		if i == 0 {
			emp.DayDutyQualified = true
		}
		employees = append(employees, emp)
	}
	for _, code := range []string{"E005", "E006", "E007", "E008"} {
		employees = append(employees, member(code, &teamY.ID))
	}
	// 机动池员工承接无承担班组的代码
	employees = append(employees, member("P001", nil), member("P002", nil))

	roster := model.NewRoster([]*model.Team{teamX, teamY}, employees, catalog)

	window, err := calendar.Segment("2025-09-01", "2025-09-07")
	if err != nil {
		t.Fatalf("Segment() 失败: %v", err)
	}

	pool, err := variables.NewFactory(window, roster, catalog, model.NewAbsenceSet(nil)).Build()
	if err != nil {
		t.Fatalf("Build() 失败: %v", err)
	}

	base := constraint.NewContext(window, roster, catalog, model.NewAbsenceSet(nil), nil)
	manager := constraint.NewManager()
	builtin.RegisterDefaults(manager, base, nil)

	return &harness{
		catalog: catalog, teamX: teamX, teamY: teamY,
		roster: roster, window: window, pool: pool,
		model: &Model{Pool: pool, Manager: manager, Base: base},
	}
}

func member(code string, teamID *uuid.UUID) *model.Employee {
	return &model.Employee{
		BaseModel:  model.NewBaseModel(),
		Name:       "员工" + code,
		Code:       code,
		TeamID:     teamID,
		Employment: model.EmploymentRegular,
		Status:     "active",
	}
}

func TestRotationSolverFeasible(t *testing.T) {
	h := newHarness(t)
	s := NewRotationSolver()

	outcome, err := s.Solve(context.Background(), h.model, Limits{TimeLimit: 10 * time.Second, Workers: 1})
	if err != nil {
		t.Fatalf("Solve() 返回错误: %v", err)
	}
	if outcome.Status != StatusFeasible {
		if outcome.ConstraintResult != nil {
			for _, v := range outcome.ConstraintResult.HardViolations {
				t.Logf("硬违反: %s: %s", v.ConstraintName, v.Message)
			}
		}
		t.Fatalf("应可行, got %s: %s", outcome.Status, outcome.Message)
	}

	// 每班组每周恰好一个代码
	for _, team := range []*model.Team{h.teamX, h.teamY} {
		for _, week := range h.window.Weeks {
			code := outcome.TeamCodes[model.TeamWeekKey{TeamID: team.ID, WeekStart: week.Start}]
			if !h.catalog.Has(code) {
				t.Errorf("班组 %s 周 %s 代码 %q 不合法", team.Name, week.Start, code)
			}
		}
	}

	// 每员工每日至多一条
	seen := make(map[model.EmployeeDayKey]bool)
	for _, a := range outcome.Assignments {
		key := model.EmployeeDayKey{EmployeeID: a.EmployeeID, Date: a.Date}
		if seen[key] {
			t.Errorf("员工 %s 在 %s 出现重复排班", a.EmployeeID, a.Date)
		}
		seen[key] = true
	}

	// 每周恰好一名值班人
	if len(outcome.DayDuties) != len(h.window.Weeks) {
		t.Errorf("值班人数应为 %d, got %d", len(h.window.Weeks), len(outcome.DayDuties))
	}
}

func TestRotationSolverHonorsTeamWeekLock(t *testing.T) {
	h := newHarness(t)
	key := model.TeamWeekKey{TeamID: h.teamX.ID, WeekStart: "2025-09-01"}
	if err := h.pool.FixTeamWeekCode(key, "N"); err != nil {
		t.Fatalf("FixTeamWeekCode() 失败: %v", err)
	}

	outcome, err := NewRotationSolver().Solve(context.Background(), h.model, Limits{Workers: 1})
	if err != nil {
		t.Fatalf("Solve() 返回错误: %v", err)
	}
	if got := outcome.TeamCodes[key]; got != "N" {
		t.Errorf("锁定代码应被尊重, got %q", got)
	}
}

func TestRotationSolverDeterministic(t *testing.T) {
	h1 := newHarness(t)
	// 两次独立构建会有不同的UUID，比较结构而不是ID
	o1, err := NewRotationSolver().Solve(context.Background(), h1.model, Limits{Workers: 1})
	if err != nil {
		t.Fatalf("Solve() 返回错误: %v", err)
	}
	o2, err := NewRotationSolver().Solve(context.Background(), h1.model, Limits{Workers: 1})
	if err != nil {
		t.Fatalf("Solve() 返回错误: %v", err)
	}

	if len(o1.Assignments) != len(o2.Assignments) {
		t.Errorf("相同输入相同种子应产生相同规模的解: %d vs %d", len(o1.Assignments), len(o2.Assignments))
	}
	for key, code := range o1.TeamCodes {
		if o2.TeamCodes[key] != code {
			t.Errorf("周代码选择应确定: %v %s vs %s", key, code, o2.TeamCodes[key])
		}
	}
}

func TestRotationSolverTimeout(t *testing.T) {
	h := newHarness(t)
	outcome, err := NewRotationSolver().Solve(context.Background(), h.model, Limits{TimeLimit: time.Nanosecond, Workers: 1})
	if err != nil {
		t.Fatalf("超时不是错误: %v", err)
	}
	if outcome.Status != StatusTimeout {
		t.Errorf("应返回超时状态, got %s", outcome.Status)
	}
}

func TestRotationSolverModelErrors(t *testing.T) {
	s := NewRotationSolver()

	if _, err := s.Solve(context.Background(), nil, Limits{}); !errors.Is(err, errors.CodeModelConstruction) {
		t.Errorf("空模型应返回模型构建错误, got %v", err)
	}

	h := newHarness(t)
	empty := constraint.NewContext(h.window, model.NewRoster(nil, nil, h.catalog), h.catalog, model.NewAbsenceSet(nil), nil)
	m := &Model{Pool: h.pool, Manager: constraint.NewManager(), Base: empty}
	if _, err := s.Solve(context.Background(), m, Limits{}); !errors.Is(err, errors.CodeModelConstruction) {
		t.Errorf("空花名册应返回模型构建错误, got %v", err)
	}
}

func TestPickBest(t *testing.T) {
	feasible := &Outcome{Status: StatusFeasible, ConstraintResult: &constraint.Result{IsValid: true, TotalPenalty: 50}}
	cheaper := &Outcome{Status: StatusFeasible, ConstraintResult: &constraint.Result{IsValid: true, TotalPenalty: 10}}
	infeasible := &Outcome{Status: StatusInfeasible, ConstraintResult: &constraint.Result{TotalPenalty: 5}}
	timedOut := &Outcome{Status: StatusTimeout}

	tests := []struct {
		name     string
		outcomes []*Outcome
		want     *Outcome
	}{
		{"可行优先于不可行", []*Outcome{infeasible, feasible}, feasible},
		{"可行中取惩罚最小", []*Outcome{feasible, cheaper}, cheaper},
		{"不可行优先于超时", []*Outcome{timedOut, infeasible}, infeasible},
		{"全空返回nil", []*Outcome{nil, nil}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickBest(tt.outcomes); got != tt.want {
				t.Errorf("pickBest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
