package plan

import (
	"sort"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/calendar"
	"github.com/lunban/lunban/pkg/plan/constraint"
	"github.com/lunban/lunban/pkg/plan/locks"
	"github.com/lunban/lunban/pkg/plan/solver"
	"github.com/lunban/lunban/pkg/stats"
)

// extract 把求解结局整理为对外结果。
// 唯一性在此再验一次：发现重复说明建模缺陷，以错误暴露而
// 不是静默去重。锁定来源的既成排班不重复输出。
func extract(
	outcome *solver.Outcome,
	window *calendar.Window,
	roster *model.Roster,
	catalog *model.Catalog,
	healed *model.LockSet,
	report *locks.Report,
) (*Result, error) {
	seen := make(map[model.EmployeeDayKey]bool, len(outcome.Assignments))
	emitted := make([]*model.Assignment, 0, len(outcome.Assignments))

	for _, a := range outcome.Assignments {
		key := model.EmployeeDayKey{EmployeeID: a.EmployeeID, Date: a.Date}
		if seen[key] {
			return nil, errors.DuplicateAssignment(a.EmployeeID.String(), a.Date)
		}
		seen[key] = true

		if a.Origin == model.OriginLocked {
			continue
		}
		if healed.HasEmployeeDay(a.EmployeeID, a.Date) {
			// 锁定员工日不应再产生新排班
			return nil, errors.DuplicateAssignment(a.EmployeeID.String(), a.Date)
		}
		emitted = append(emitted, a)
	}

	sort.Slice(emitted, func(i, j int) bool {
		if emitted[i].Date != emitted[j].Date {
			return emitted[i].Date < emitted[j].Date
		}
		if emitted[i].ShiftCode != emitted[j].ShiftCode {
			return emitted[i].ShiftCode < emitted[j].ShiftCode
		}
		return emitted[i].EmployeeID.String() < emitted[j].EmployeeID.String()
	})

	duties := make([]*model.DayDuty, len(outcome.DayDuties))
	copy(duties, outcome.DayDuties)
	sort.Slice(duties, func(i, j int) bool { return duties[i].WeekStart < duties[j].WeekStart })

	return &Result{
		Status:           outcome.Status,
		Window:           window,
		TeamCodes:        outcome.TeamCodes,
		Assignments:      emitted,
		DayDuties:        duties,
		LockReport:       report,
		ConstraintResult: outcome.ConstraintResult,
		Fairness:         fairnessOf(outcome, window, roster, catalog),
		Statistics:       outcome.Statistics,
		Message:          outcome.Message,
	}, nil
}

// fairnessOf 汇总解的公平性指标（含锁定来源的既成事实）
func fairnessOf(outcome *solver.Outcome, window *calendar.Window, roster *model.Roster, catalog *model.Catalog) *stats.FairnessMetrics {
	counts := make(map[string]stats.Counts)
	names := make(map[string]string)

	for _, emp := range roster.Employees {
		if !emp.IsActive() || !emp.IsRegular() {
			continue
		}
		counts[emp.ID.String()] = stats.Counts{}
		names[emp.ID.String()] = emp.Name
	}

	dutyCount := make(map[string]int)
	for _, d := range outcome.DayDuties {
		dutyCount[d.EmployeeID.String()]++
	}

	for _, a := range outcome.Assignments {
		id := a.EmployeeID.String()
		c, ok := counts[id]
		if !ok {
			continue
		}
		if st := catalog.Get(a.ShiftCode); st != nil {
			c.Hours += st.DurationHours()
			if st.IsNight {
				c.Night++
			}
		}
		if model.IsWeekend(a.Date) {
			c.Weekend++
		}
		counts[id] = c
	}
	for id, n := range dutyCount {
		if c, ok := counts[id]; ok {
			c.Duty += n
			counts[id] = c
		}
	}

	if len(counts) == 0 {
		return nil
	}
	return stats.NewAnalyzer().Analyze(counts, names)
}

// AssignmentsOn 按日期筛选结果排班
func (r *Result) AssignmentsOn(date string) []*model.Assignment {
	var out []*model.Assignment
	for _, a := range r.Assignments {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

// ViolationSummary 汇总硬约束违反（可行解返回空）
func (r *Result) ViolationSummary() []constraint.ViolationDetail {
	if r.ConstraintResult == nil {
		return nil
	}
	return r.ConstraintResult.HardViolations
}
