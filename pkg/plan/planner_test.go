package plan

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/solver"
)

// 三个班组各五人的标准请求，一周窗口
func newRequest(t *testing.T) (*Request, []*model.Team, [][]*model.Employee) {
	t.Helper()

	var teams []*model.Team
	var members [][]*model.Employee
	var employees []*model.Employee
	for ti, name := range []string{"甲组", "乙组", "丙组"} {
		team := &model.Team{BaseModel: model.NewBaseModel(), Name: name, Code: []string{"TX", "TY", "TZ"}[ti]}
		teams = append(teams, team)
		var group []*model.Employee
		for mi := 0; mi < 5; mi++ {
			emp := &model.Employee{
				BaseModel:  model.NewBaseModel(),
				Name:       name + "成员" + string(rune('1'+mi)),
				Code:       string(rune('A'+ti)) + string(rune('1'+mi)),
				TeamID:     &team.ID,
				Employment: model.EmploymentRegular,
				Status:     "active",
			}
			if mi < 2 {
				emp.DayDutyQualified = true
			}
			group = append(group, emp)
			employees = append(employees, emp)
		}
		members = append(members, group)
	}

	return &Request{
		StartDate: "2025-09-01",
		EndDate:   "2025-09-07",
		Teams:     teams,
		Employees: employees,
		Limits:    solver.Limits{TimeLimit: 30 * time.Second, Workers: 1},
	}, teams, members
}

func TestPlannerSolveFeasible(t *testing.T) {
	req, teams, _ := newRequest(t)
	result, err := NewPlanner().Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve() 返回错误: %v", err)
	}
	if !result.Feasible() {
		for _, v := range result.ViolationSummary() {
			t.Logf("硬违反: %s: %s", v.ConstraintName, v.Message)
		}
		t.Fatalf("应可行, got %s: %s", result.Status, result.Message)
	}

	// 窗口扩展到整周
	if result.Window.Start != "2025-09-01" || result.Window.End != "2025-09-07" {
		t.Errorf("恰好整周的请求不应扩展: %s..%s", result.Window.Start, result.Window.End)
	}

	// 每班组有周代码且代码互不相同（三组三码可错开）
	codes := make(map[string]bool)
	for _, team := range teams {
		code := result.TeamCodes[model.TeamWeekKey{TeamID: team.ID, WeekStart: "2025-09-01"}]
		if code == "" {
			t.Errorf("班组 %s 未选定周代码", team.Name)
		}
		codes[code] = true
	}
	if len(codes) != 3 {
		t.Errorf("三组应错开承担三个代码, got %v", codes)
	}

	if result.Fairness == nil {
		t.Error("结果应包含公平性指标")
	}
	if result.Statistics == nil || result.Statistics.TotalAssignments == 0 {
		t.Error("结果应包含求解统计")
	}
}

func TestPlannerSolveExcludesLockedDays(t *testing.T) {
	req, _, members := newRequest(t)
	lockedEmp := members[0][0]
	lockSet := model.NewLockSet()
	lockSet.SetEmployeeDay(lockedEmp.ID, "2025-09-03", "F")
	req.Locks = lockSet

	result, err := NewPlanner().Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve() 返回错误: %v", err)
	}

	for _, a := range result.Assignments {
		if a.EmployeeID == lockedEmp.ID && a.Date == "2025-09-03" {
			t.Errorf("锁定员工日不应重复输出排班: %+v", a)
		}
		if a.Origin == model.OriginLocked {
			t.Errorf("锁定来源的排班不应出现在输出中: %+v", a)
		}
	}

	// 员工日锁推导的班组周锁生效
	teamKey := model.TeamWeekKey{TeamID: *lockedEmp.TeamID, WeekStart: "2025-09-01"}
	if got := result.TeamCodes[teamKey]; got != "F" {
		t.Errorf("班组周代码应跟随推导锁 F, got %q", got)
	}
}

func TestPlannerSolveInputErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(req *Request)
		wantCode errors.Code
	}{
		{
			name:     "起始日期晚于结束日期",
			mutate:   func(req *Request) { req.StartDate, req.EndDate = req.EndDate, req.StartDate },
			wantCode: errors.CodeInvalidWindow,
		},
		{
			name:     "非法日期格式",
			mutate:   func(req *Request) { req.StartDate = "2025/09/01" },
			wantCode: errors.CodeInvalidWindow,
		},
		{
			name:     "没有班组",
			mutate:   func(req *Request) { req.Teams = nil },
			wantCode: errors.CodeModelConstruction,
		},
		{
			name:     "没有员工",
			mutate:   func(req *Request) { req.Employees = nil },
			wantCode: errors.CodeModelConstruction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _, _ := newRequest(t)
			tt.mutate(req)
			_, err := NewPlanner().Solve(context.Background(), req)
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("err = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestPlannerSolveTimeoutStatus(t *testing.T) {
	req, _, _ := newRequest(t)
	req.Limits = solver.Limits{TimeLimit: time.Nanosecond, Workers: 1}

	result, err := NewPlanner().Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("超时不是错误: %v", err)
	}
	if result.Status != solver.StatusTimeout {
		t.Errorf("应返回超时状态, got %s", result.Status)
	}
}

func TestPlannerTeamWeekLockConflictIsHealed(t *testing.T) {
	req, _, members := newRequest(t)
	// 同组两名成员同周锁定不同代码：候选班组周锁互相矛盾
	lockSet := model.NewLockSet()
	lockSet.SetEmployeeDay(members[0][0].ID, "2025-09-02", "F")
	lockSet.SetEmployeeDay(members[0][1].ID, "2025-09-03", "S")
	req.Locks = lockSet

	result, err := NewPlanner().Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("冲突锁应被治愈而不是报错: %v", err)
	}
	if result.LockReport.Healed() != 1 {
		t.Errorf("应治愈1个冲突, got %d", result.LockReport.Healed())
	}
}

func TestResultAssignmentsOn(t *testing.T) {
	empID := uuid.New()
	r := &Result{Assignments: []*model.Assignment{
		{EmployeeID: empID, Date: "2025-09-01", ShiftCode: "F"},
		{EmployeeID: empID, Date: "2025-09-02", ShiftCode: "F"},
	}}
	if got := len(r.AssignmentsOn("2025-09-01")); got != 1 {
		t.Errorf("AssignmentsOn() = %d, want 1", got)
	}
}
