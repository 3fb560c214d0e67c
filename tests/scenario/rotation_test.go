// Package scenario 提供端到端场景测试：
// 完整管线（日历切分→变量工厂→锁定调和→规则编译→求解→提取）
// 在典型业务形态下的行为。
package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan"
	"github.com/lunban/lunban/pkg/plan/calendar"
	"github.com/lunban/lunban/pkg/plan/locks"
	"github.com/lunban/lunban/pkg/plan/solver"
)

// 标准车间形态：三个班组各五人，每组前两人具备值班资格
type workshop struct {
	teams   []*model.Team
	members [][]*model.Employee
	all     []*model.Employee
}

func newWorkshop(t *testing.T) *workshop {
	t.Helper()
	w := &workshop{}
	for ti, name := range []string{"甲组", "乙组", "丙组"} {
		team := &model.Team{
			BaseModel: model.NewBaseModel(),
			Name:      name,
			Code:      []string{"TA", "TB", "TC"}[ti],
		}
		w.teams = append(w.teams, team)
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
			w.all = append(w.all, emp)
		}
		w.members = append(w.members, group)
	}
	return w
}

func (w *workshop) request(start, end string) *plan.Request {
	return &plan.Request{
		StartDate: start,
		EndDate:   end,
		Teams:     w.teams,
		Employees: w.all,
		Limits:    solver.Limits{TimeLimit: 60 * time.Second, Workers: 1},
	}
}

func solve(t *testing.T, req *plan.Request) *plan.Result {
	t.Helper()
	result, err := plan.NewPlanner().Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve() 返回错误: %v", err)
	}
	return result
}

func requireFeasible(t *testing.T, result *plan.Result) {
	t.Helper()
	if result.Feasible() {
		return
	}
	for _, v := range result.ViolationSummary() {
		t.Logf("硬违反: %s: %s", v.ConstraintName, v.Message)
	}
	t.Fatalf("应可行, got %s: %s", result.Status, result.Message)
}

// 场景一：整月无锁定无缺勤，常规月度排班
func TestMonthlyPlanGeneration(t *testing.T) {
	w := newWorkshop(t)
	result := solve(t, w.request("2025-03-01", "2025-03-31"))
	requireFeasible(t, result)

	// 窗口向外扩展到整周
	if result.Window.Start != "2025-02-24" || result.Window.End != "2025-04-06" {
		t.Errorf("窗口应扩展为 2025-02-24..2025-04-06, got %s..%s", result.Window.Start, result.Window.End)
	}
	if len(result.Window.Weeks) != 6 {
		t.Fatalf("应切分出6个整周, got %d", len(result.Window.Weeks))
	}

	// 每班组每周恰好一个代码
	for _, team := range w.teams {
		for _, week := range result.Window.Weeks {
			code := result.TeamCodes[model.TeamWeekKey{TeamID: team.ID, WeekStart: week.Start}]
			if code == "" {
				t.Errorf("班组 %s 周 %s 未选定代码", team.Name, week.Start)
			}
		}
	}

	// 每员工每日至多一条，日期都在窗口内
	seen := make(map[model.EmployeeDayKey]bool)
	for _, a := range result.Assignments {
		key := model.EmployeeDayKey{EmployeeID: a.EmployeeID, Date: a.Date}
		if seen[key] {
			t.Errorf("重复排班: %s %s", a.EmployeeID, a.Date)
		}
		seen[key] = true
		if !result.Window.Contains(a.Date) {
			t.Errorf("排班日期超出窗口: %s", a.Date)
		}
	}

	// 每周恰好一名值班人
	if len(result.DayDuties) != 6 {
		t.Errorf("六周应有六名值班人, got %d", len(result.DayDuties))
	}

	if result.LockReport.Healed() != 0 {
		t.Errorf("无锁定输入不应报冲突, got %d", result.LockReport.Healed())
	}
}

// 场景二：成员整周缺勤，该周自动轮空且缺勤日无排班
func TestWeekLongAbsence(t *testing.T) {
	w := newWorkshop(t)
	absent := w.members[0][2]

	req := w.request("2025-03-01", "2025-03-31")
	req.Absences = []*model.Absence{{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: absent.ID,
		Category:   model.AbsenceVacation,
		StartDate:  "2025-03-10",
		EndDate:    "2025-03-16",
	}}

	result := solve(t, req)
	requireFeasible(t, result)

	for _, a := range result.Assignments {
		if a.EmployeeID != absent.ID {
			continue
		}
		if a.Date >= "2025-03-10" && a.Date <= "2025-03-16" {
			t.Errorf("缺勤日不应有排班: %s %s", a.Date, a.ShiftCode)
		}
	}
	for _, d := range result.DayDuties {
		if d.EmployeeID == absent.ID && d.WeekStart == "2025-03-10" {
			t.Error("缺勤周不应承担值班")
		}
	}
}

// 场景三：同组同周两条互相矛盾的员工日锁。
// 推导出的班组周锁两个值都不采用，求解照常进行，
// 两条员工日事实本身保留且不重复输出。
func TestConflictingEmployeeLocks(t *testing.T) {
	w := newWorkshop(t)
	empA, empB := w.members[0][0], w.members[0][1]

	lockSet := model.NewLockSet()
	lockSet.SetEmployeeDay(empA.ID, "2025-03-11", "F")
	lockSet.SetEmployeeDay(empB.ID, "2025-03-12", "S")

	req := w.request("2025-03-01", "2025-03-31")
	req.Locks = lockSet

	result := solve(t, req)
	requireFeasible(t, result)

	if result.LockReport.Healed() != 1 {
		t.Fatalf("应治愈1个班组周冲突, got %d", result.LockReport.Healed())
	}
	conflict := result.LockReport.Conflicts[0]
	if conflict.Key.TeamID != w.teams[0].ID || conflict.Key.WeekStart != "2025-03-10" {
		t.Errorf("冲突键不正确: %+v", conflict.Key)
	}
	if len(conflict.Codes) != 2 {
		t.Errorf("冲突应记录两个互斥代码, got %v", conflict.Codes)
	}

	// 班组该周仍自由选定了代码
	if code := result.TeamCodes[conflict.Key]; code == "" {
		t.Error("冲突治愈后班组该周应自由选定代码")
	}

	// 锁定员工日不重复输出
	for _, a := range result.Assignments {
		if (a.EmployeeID == empA.ID && a.Date == "2025-03-11") ||
			(a.EmployeeID == empB.ID && a.Date == "2025-03-12") {
			t.Errorf("锁定员工日不应重复输出: %+v", a)
		}
	}
}

// 场景四：边界周锁定。班组周锁在边界周被抑制，
// 员工日锁在边界周仍然保留。
func TestBoundaryWeekLocks(t *testing.T) {
	w := newWorkshop(t)
	empC := w.members[1][0]

	lockSet := model.NewLockSet()
	lockSet.SetTeamWeek(w.teams[0].ID, "2025-02-24", "N")
	lockSet.SetEmployeeDay(empC.ID, "2025-02-25", "S")

	req := w.request("2025-03-01", "2025-03-31")
	req.Locks = lockSet

	result := solve(t, req)
	requireFeasible(t, result)

	suppressed := false
	for _, key := range result.LockReport.SuppressedBoundary {
		if key.TeamID == w.teams[0].ID && key.WeekStart == "2025-02-24" {
			suppressed = true
		}
	}
	if !suppressed {
		t.Error("边界周班组锁应被抑制")
	}

	// 员工日锁保留：不重复输出、也不在该日另排
	for _, a := range result.Assignments {
		if a.EmployeeID == empC.ID && a.Date == "2025-02-25" {
			t.Errorf("边界周员工日锁不应重复输出: %+v", a)
		}
	}
}

// 锁定调和输出稳定性：调和结果再调和一次输出逐条不变。
// 保留的员工日锁在每次调和中都会重新推导出同一个班组周
// 冲突，报告本身不要求为空，输出集合必须是不动点。
func TestReconcileOutputStable(t *testing.T) {
	w := newWorkshop(t)
	window, err := calendar.Segment("2025-03-01", "2025-03-31")
	if err != nil {
		t.Fatalf("Segment() 失败: %v", err)
	}
	catalog := model.DefaultCatalog()
	roster := model.NewRoster(w.teams, w.all, catalog)

	in := model.NewLockSet()
	in.SetTeamWeek(w.teams[0].ID, "2025-02-24", "N") // 边界周，将被抑制
	in.SetTeamWeek(w.teams[1].ID, "2025-03-10", "F")
	in.SetEmployeeDay(w.members[0][0].ID, "2025-03-11", "F")
	in.SetEmployeeDay(w.members[0][1].ID, "2025-03-12", "S") // 与上一条冲突

	healed, report := locks.Reconcile(in, window, roster)
	if report.Healed() != 1 || len(report.SuppressedBoundary) != 1 {
		t.Fatalf("首次调和: healed=%d suppressed=%d", report.Healed(), len(report.SuppressedBoundary))
	}

	again, _ := locks.Reconcile(healed, window, roster)
	if len(again.TeamWeeks) != len(healed.TeamWeeks) {
		t.Errorf("再次调和班组周锁应不变: %d vs %d", len(again.TeamWeeks), len(healed.TeamWeeks))
	}
	for key, code := range healed.TeamWeeks {
		if again.TeamWeeks[key] != code {
			t.Errorf("班组周锁应逐条保留: %v", key)
		}
	}
	if len(again.EmployeeDays) != len(healed.EmployeeDays) {
		t.Errorf("再次调和员工日锁应不变: %d vs %d", len(again.EmployeeDays), len(healed.EmployeeDays))
	}
	for key, code := range healed.EmployeeDays {
		if again.EmployeeDays[key] != code {
			t.Errorf("员工日锁应逐条保留: %v", key)
		}
	}
}

// 紧张人数配置：工作日下限逼近各组可在岗人数
// （早4-8/晚3-6/夜3-4，周末各2-3，夜班连班上限5天）。
// 值班人必须避开无松弛的班组，工作日只补足下限才能给
// 周末夜班留出连班余量。
func tightCatalog(t *testing.T) *model.Catalog {
	t.Helper()
	allWeek := [7]bool{true, true, true, true, true, true, true}
	types := []*model.ShiftType{
		{
			Code: "F", Name: "早班", StartTime: "06:00", EndTime: "14:00",
			WeeklyTargetHours:  40,
			Weekday:            model.Staffing{Min: 4, Max: 8},
			Weekend:            model.Staffing{Min: 2, Max: 3},
			ActiveDays:         allWeek,
			MaxConsecutiveDays: 6,
		},
		{
			Code: "S", Name: "晚班", StartTime: "14:00", EndTime: "22:00",
			WeeklyTargetHours:  40,
			Weekday:            model.Staffing{Min: 3, Max: 6},
			Weekend:            model.Staffing{Min: 2, Max: 3},
			ActiveDays:         allWeek,
			MaxConsecutiveDays: 6,
		},
		{
			Code: "N", Name: "夜班", StartTime: "22:00", EndTime: "06:00",
			WeeklyTargetHours:  40,
			Weekday:            model.Staffing{Min: 3, Max: 4},
			Weekend:            model.Staffing{Min: 2, Max: 3},
			ActiveDays:         allWeek,
			MaxConsecutiveDays: 5,
			IsNight:            true,
		},
	}
	catalog, err := model.NewCatalog(types, []string{"F", "S", "N"})
	if err != nil {
		t.Fatalf("NewCatalog() 失败: %v", err)
	}
	return catalog
}

// 场景一（紧张配置）：三组各五人整月排班，人数下限逐日满足
func TestMonthlyPlanTightStaffing(t *testing.T) {
	w := newWorkshop(t)
	catalog := tightCatalog(t)

	req := w.request("2025-03-01", "2025-03-31")
	req.Catalog = catalog

	result := solve(t, req)
	requireFeasible(t, result)

	count := make(map[string]map[string]int) // date -> code -> 人数
	for _, a := range result.Assignments {
		if count[a.Date] == nil {
			count[a.Date] = make(map[string]int)
		}
		count[a.Date][a.ShiftCode]++
	}

	for _, week := range result.Window.Weeks {
		for _, date := range week.Dates {
			for _, st := range catalog.Types() {
				min := st.StaffingOn(date).Min
				if got := count[date][st.Code]; got < min {
					t.Errorf("%s 班次 %s 在岗 %d 人，低于下限 %d", date, st.Code, got, min)
				}
			}
		}
	}

	// 夜班连班不越上限
	streak := make(map[model.EmployeeDayKey]int)
	for _, week := range result.Window.Weeks {
		for _, date := range week.Dates {
			for _, emp := range w.all {
				if !hasAssignment(result.Assignments, emp.ID, date, "N") {
					continue
				}
				prev := streak[model.EmployeeDayKey{EmployeeID: emp.ID, Date: model.AddDays(date, -1)}]
				run := prev + 1
				streak[model.EmployeeDayKey{EmployeeID: emp.ID, Date: date}] = run
				if run > 5 {
					t.Errorf("员工 %s 至 %s 连续夜班 %d 天超过上限5", emp.Code, date, run)
				}
			}
		}
	}
}

func hasAssignment(assignments []*model.Assignment, empID uuid.UUID, date, code string) bool {
	for _, a := range assignments {
		if a.EmployeeID == empID && a.Date == date && a.ShiftCode == code {
			return true
		}
	}
	return false
}

// 已提交的员工日锁撞上其后录入的缺勤：不自动治愈，
// 求解以缺勤硬违反报告不可行，交人工裁决
func TestLockOnAbsentDayInfeasible(t *testing.T) {
	w := newWorkshop(t)
	emp := w.members[0][2]

	lockSet := model.NewLockSet()
	lockSet.SetEmployeeDay(emp.ID, "2025-03-11", "F")

	req := w.request("2025-03-01", "2025-03-31")
	req.Locks = lockSet
	req.Absences = []*model.Absence{{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: emp.ID,
		Category:   model.AbsenceSick,
		StartDate:  "2025-03-10",
		EndDate:    "2025-03-12",
	}}

	result := solve(t, req)
	if result.Status != solver.StatusInfeasible {
		t.Fatalf("日锁与缺勤矛盾应不可行, got %s", result.Status)
	}

	found := false
	for _, v := range result.ViolationSummary() {
		if v.EmployeeID == emp.ID && v.Date == "2025-03-11" {
			found = true
		}
	}
	if !found {
		t.Error("应报告该员工缺勤日被排班的硬违反")
	}
}

// 相邻窗口闭环：上月结果导出锁定，重叠周重新求解时
// 班组代码逐周复现，已提交的员工日不重复输出
func TestCommittedWindowRoundTrip(t *testing.T) {
	w := newWorkshop(t)

	first := solve(t, w.request("2025-03-03", "2025-03-30"))
	requireFeasible(t, first)

	// 重叠两周的结果转为锁定
	overlap := map[string]bool{"2025-03-17": true, "2025-03-24": true}
	lockSet := model.NewLockSet()
	for key, code := range first.TeamCodes {
		if overlap[key.WeekStart] {
			lockSet.SetTeamWeek(key.TeamID, key.WeekStart, code)
		}
	}
	locked := make(map[model.EmployeeDayKey]bool)
	for _, a := range first.Assignments {
		// 跨组补位不是轮换承诺，只有本组排班转为员工日锁
		if a.Origin != model.OriginFresh {
			continue
		}
		if a.Date >= "2025-03-17" && a.Date <= "2025-03-30" {
			lockSet.SetEmployeeDay(a.EmployeeID, a.Date, a.ShiftCode)
			locked[model.EmployeeDayKey{EmployeeID: a.EmployeeID, Date: a.Date}] = true
		}
	}

	req := w.request("2025-03-17", "2025-03-30")
	req.Locks = lockSet

	second := solve(t, req)
	requireFeasible(t, second)

	for key, code := range first.TeamCodes {
		if !overlap[key.WeekStart] {
			continue
		}
		if got := second.TeamCodes[key]; got != code {
			t.Errorf("班组周代码应复现: 周 %s 期望 %s got %s", key.WeekStart, code, got)
		}
	}
	for _, a := range second.Assignments {
		if locked[model.EmployeeDayKey{EmployeeID: a.EmployeeID, Date: a.Date}] {
			t.Errorf("已提交的员工日不应重复输出: %s %s", a.EmployeeID, a.Date)
		}
	}
}

// 并行尝试与单线程同样可行且确定
func TestParallelSolveConsistency(t *testing.T) {
	w := newWorkshop(t)
	req := w.request("2025-03-01", "2025-03-14")
	req.Limits = solver.Limits{TimeLimit: 60 * time.Second, Workers: 4}

	result := solve(t, req)
	requireFeasible(t, result)

	seen := make(map[model.EmployeeDayKey]bool)
	for _, a := range result.Assignments {
		key := model.EmployeeDayKey{EmployeeID: a.EmployeeID, Date: a.Date}
		if seen[key] {
			t.Errorf("重复排班: %s %s", a.EmployeeID, a.Date)
		}
		seen[key] = true
	}
}

// 机动池员工只以跨组补位出现
func TestPooledEmployeesBackfillOnly(t *testing.T) {
	w := newWorkshop(t)
	pooled := &model.Employee{
		BaseModel:  model.NewBaseModel(),
		Name:       "机动员工",
		Code:       "P1",
		Employment: model.EmploymentRegular,
		Status:     "active",
	}
	req := w.request("2025-03-01", "2025-03-14")
	req.Employees = append(req.Employees, pooled)

	result := solve(t, req)
	requireFeasible(t, result)

	for _, a := range result.Assignments {
		if a.EmployeeID == pooled.ID && a.Origin != model.OriginCross {
			t.Errorf("机动池员工的排班来源应为跨组补位: %+v", a)
		}
	}
}
