package solver

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
	"github.com/lunban/lunban/pkg/plan/variables"
)

// RotationSolver 贪心轮换求解器。
//
// 按周推进：先为每班组选定周班次代码（锁定优先，其次轮换
// 偏好与代码错开），再选定周值班人与机动人员，然后展开
// 工作日在岗与周末到岗，最后跨组补位填平人数缺口。
// 相同输入与相同种子产生相同结果。
type RotationSolver struct {
	logger *logger.PlannerLogger
}

// NewRotationSolver 创建轮换求解器
func NewRotationSolver() *RotationSolver {
	return &RotationSolver{logger: logger.NewPlannerLogger()}
}

// Name 返回求解器名称
func (s *RotationSolver) Name() string {
	return "RotationSolver"
}

// 轮换偏好顺序 F→N→S→F
var rotationSuccessor = map[string]string{
	model.CodeEarly: model.CodeNight,
	model.CodeNight: model.CodeLate,
	model.CodeLate:  model.CodeEarly,
}

// Solve 求解模型
func (s *RotationSolver) Solve(ctx context.Context, m *Model, limits Limits) (*Outcome, error) {
	if m == nil || m.Pool == nil || m.Manager == nil || m.Base == nil {
		return nil, errors.ModelConstruction("求解模型不完整")
	}
	if len(m.Base.Roster.Teams) == 0 {
		return nil, errors.ModelConstruction("花名册中没有班组")
	}
	if len(m.Base.Roster.Employees) == 0 {
		return nil, errors.ModelConstruction("花名册中没有员工")
	}

	startTime := time.Now()
	s.logger.SolveStarted(
		m.Base.Window.Start, m.Base.Window.End,
		len(m.Base.Roster.Teams), len(m.Base.Roster.Employees), len(m.Base.Window.Weeks),
	)

	if limits.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.TimeLimit)
		defer cancel()
	}

	workers := limits.Workers
	if workers < 1 {
		workers = 1
	}

	var best *Outcome
	if workers == 1 {
		best = s.attempt(ctx, m, 0)
	} else {
		best = s.parallelAttempts(ctx, m, workers)
	}

	best.Duration = time.Since(startTime)
	best.Statistics.Attempts = workers
	best.Statistics.VariableCount = m.Pool.Size()
	s.logger.SolveComplete(string(best.Status), len(best.Assignments), best.Duration, s.penaltyOf(best))
	return best, nil
}

func (s *RotationSolver) penaltyOf(o *Outcome) int {
	if o.ConstraintResult == nil {
		return 0
	}
	return o.ConstraintResult.TotalPenalty
}

// attempt 以指定种子执行一次确定性求解
func (s *RotationSolver) attempt(ctx context.Context, m *Model, seed int) *Outcome {
	work := constraint.NewContext(m.Base.Window, m.Base.Roster, m.Base.Catalog, m.Base.Absences, m.Base.Defaults)
	work.Locks = m.Base.Locks

	teamCodes := s.chooseTeamCodes(m, seed)
	duties := s.chooseDuties(m, teamCodes, seed)

	locked := make([]*model.Assignment, len(m.LockedAssignments))
	copy(locked, m.LockedAssignments)
	work.SetSolution(teamCodes, locked, duties)

	hours := make(map[uuid.UUID]float64)
	weekendCount := make(map[uuid.UUID]int)
	for _, a := range locked {
		if st := work.Catalog.Get(a.ShiftCode); st != nil {
			hours[a.EmployeeID] += st.DurationHours()
		}
		if model.IsWeekend(a.Date) {
			weekendCount[a.EmployeeID]++
		}
	}

	dutyByWeek := make(map[string]uuid.UUID)
	for _, d := range duties {
		dutyByWeek[d.WeekStart] = d.EmployeeID
	}

	spares := s.chooseSpares(m, dutyByWeek, seed)

	for _, week := range m.Base.Window.Weeks {
		if ctx.Err() != nil {
			return s.timeoutOutcome(work, teamCodes, duties)
		}
		for _, team := range work.Roster.Teams {
			code := teamCodes[model.TeamWeekKey{TeamID: team.ID, WeekStart: week.Start}]
			if code == "" {
				continue
			}
			s.expandTeamWeek(m, work, team, week, code, spares, dutyByWeek, hours, weekendCount)
		}
	}

	if ctx.Err() != nil {
		return s.timeoutOutcome(work, teamCodes, duties)
	}
	s.crossBackfill(ctx, m, work, teamCodes, spares, dutyByWeek, hours)
	if ctx.Err() != nil {
		return s.timeoutOutcome(work, teamCodes, duties)
	}

	result := m.Manager.Evaluate(work)
	outcome := &Outcome{
		TeamCodes:        teamCodes,
		Assignments:      work.Assignments,
		DayDuties:        duties,
		ConstraintResult: result,
		Statistics:       s.statistics(work, hours),
	}
	if result.IsValid {
		outcome.Status = StatusFeasible
		outcome.Message = fmt.Sprintf("求解成功，得分 %.1f", result.Score)
	} else {
		outcome.Status = StatusInfeasible
		outcome.Message = fmt.Sprintf("存在 %d 个硬约束违反", len(result.HardViolations))
	}
	return outcome
}

// chooseTeamCodes 为每班组每周选定班次代码。
// 锁定等式优先；自由周在允许集内选择，偏好轮换顺序后继，
// 并尽量与同周其他班组错开。
func (s *RotationSolver) chooseTeamCodes(m *Model, seed int) map[model.TeamWeekKey]string {
	codes := make(map[model.TeamWeekKey]string)
	prev := make(map[uuid.UUID]string)

	for wi, week := range m.Base.Window.Weeks {
		used := make(map[string]int)

		// 先落锁定代码，错开统计才完整
		for _, team := range m.Base.Roster.Teams {
			key := model.TeamWeekKey{TeamID: team.ID, WeekStart: week.Start}
			if locked := s.fixedCode(m, key); locked != "" {
				codes[key] = locked
				used[locked]++
			}
		}

		for ti, team := range m.Base.Roster.Teams {
			key := model.TeamWeekKey{TeamID: team.ID, WeekStart: week.Start}
			if _, done := codes[key]; done {
				prev[team.ID] = codes[key]
				continue
			}

			allowed := m.Base.Roster.AllowedCodes(team.ID)
			bestCode := ""
			bestScore := 1 << 30
			for ci, code := range allowed {
				group := m.Pool.TeamWeek[key]
				v := group[code]
				if v == nil || (v.Fixed() && !v.Value()) {
					continue
				}
				score := used[code] * 100
				if want := rotationSuccessor[prev[team.ID]]; want != "" && code != want {
					score += 10
				}
				// 种子扰动只作为末位决胜
				score += (ci + wi + ti + seed) % len(allowed)
				if score < bestScore {
					bestScore = score
					bestCode = code
				}
			}
			if bestCode == "" {
				continue
			}
			codes[key] = bestCode
			used[bestCode]++
			prev[team.ID] = bestCode
		}
	}
	return codes
}

// fixedCode 返回班组周变量组中被固定为真的代码
func (s *RotationSolver) fixedCode(m *Model, key model.TeamWeekKey) string {
	for code, v := range m.Pool.TeamWeek[key] {
		if v.Fixed() && v.Value() {
			return code
		}
	}
	return ""
}

// chooseDuties 为每周选定值班人：值班次数最少者优先。
// 值班人整周脱离本组轮换，其班组当周在岗无松弛时强烈避开，
// 否则抽走一人会使工作日在岗跌破下限。
func (s *RotationSolver) chooseDuties(m *Model, teamCodes map[model.TeamWeekKey]string, seed int) []*model.DayDuty {
	var duties []*model.DayDuty
	dutyCount := make(map[uuid.UUID]int)

	qualified := make([]*model.Employee, 0)
	for _, emp := range m.Base.Roster.Employees {
		if emp.IsActive() && emp.IsRegular() && emp.DayDutyQualified {
			qualified = append(qualified, emp)
		}
	}
	if len(qualified) == 0 {
		return duties
	}
	sort.Slice(qualified, func(i, j int) bool { return qualified[i].Code < qualified[j].Code })

	for wi, week := range m.Base.Window.Weeks {
		var pick *model.Employee
		bestScore := 1 << 30
		for ei, emp := range qualified {
			v := m.Pool.DayDuty[variables.EmployeeWeekKey{EmployeeID: emp.ID, WeekStart: week.Start}]
			if v == nil || (v.Fixed() && !v.Value()) {
				continue
			}
			score := dutyCount[emp.ID]*100 + (ei+wi+seed)%len(qualified)
			if s.dutyStarvesTeam(m, emp, week.Start, teamCodes) {
				score += 1 << 20
			}
			if score < bestScore {
				bestScore = score
				pick = emp
			}
		}
		if pick == nil {
			continue
		}
		dutyCount[pick.ID]++
		duties = append(duties, &model.DayDuty{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: pick.ID,
			WeekStart:  week.Start,
		})
	}
	return duties
}

// dutyStarvesTeam 判断抽走该成员值班后，其班组当周工作日
// 在岗（再扣除机动人员）是否跌破下限
func (s *RotationSolver) dutyStarvesTeam(m *Model, emp *model.Employee, weekStart string, teamCodes map[model.TeamWeekKey]string) bool {
	if emp.TeamID == nil {
		return false
	}
	code := teamCodes[model.TeamWeekKey{TeamID: *emp.TeamID, WeekStart: weekStart}]
	if code == "" {
		return false
	}
	st := m.Base.Catalog.Get(code)
	if st == nil {
		return false
	}
	members := len(s.rotatingMembers(m, *emp.TeamID))
	available := members - 1
	if members >= 2 {
		available-- // 机动人员
	}
	return available < st.Weekday.Min
}

// chooseSpares 为每班组每周选定机动人员（整周轮空）。
// 整周缺勤的成员天然轮空，优先占用；否则按周序轮转。
func (s *RotationSolver) chooseSpares(m *Model, dutyByWeek map[string]uuid.UUID, seed int) map[model.TeamWeekKey]uuid.UUID {
	spares := make(map[model.TeamWeekKey]uuid.UUID)

	for wi, week := range m.Base.Window.Weeks {
		for _, team := range m.Base.Roster.Teams {
			members := s.rotatingMembers(m, team.ID)
			if len(members) < 2 {
				continue
			}

			var eligible []*model.Employee
			var pick *model.Employee
			for _, emp := range members {
				if emp.ID == dutyByWeek[week.Start] {
					continue
				}
				if s.lockedInWeek(m, emp.ID, week) {
					continue
				}
				if s.absentWholeWeek(m, emp.ID, week) {
					pick = emp // 整周缺勤即轮空
					break
				}
				eligible = append(eligible, emp)
			}
			if pick == nil && len(eligible) > 0 {
				pick = eligible[(wi+seed)%len(eligible)]
			}
			if pick != nil {
				spares[model.TeamWeekKey{TeamID: team.ID, WeekStart: week.Start}] = pick.ID
			}
		}
	}
	return spares
}

// expandTeamWeek 展开班组一周的工作日在岗与周末到岗
func (s *RotationSolver) expandTeamWeek(
	m *Model, work *constraint.Context,
	team *model.Team, week *calendar.Week, code string,
	spares map[model.TeamWeekKey]uuid.UUID, dutyByWeek map[string]uuid.UUID,
	hours map[uuid.UUID]float64, weekendCount map[uuid.UUID]int,
) {
	st := work.Catalog.Get(code)
	if st == nil {
		return
	}
	spare := spares[model.TeamWeekKey{TeamID: team.ID, WeekStart: week.Start}]
	duty := dutyByWeek[week.Start]
	members := s.rotatingMembers(m, team.ID)

	// 工作日：按周内已排天数最少者轮流在岗，补足下限即止。
	// 下限之上的松弛留给周末到岗与跨组补位，否则成员连班
	// 会提前撞上该班次的连续天数上限。
	weekAssigned := make(map[uuid.UUID]int)
	for _, date := range week.WeekdayDates() {
		if !st.ActiveOn(date) {
			continue
		}
		min := st.StaffingOn(date).Min

		var candidates []*model.Employee
		for _, emp := range members {
			if emp.ID == spare || emp.ID == duty {
				continue
			}
			v := m.Pool.WeekdayActive[model.EmployeeDayKey{EmployeeID: emp.ID, Date: date}]
			if v == nil || (v.Fixed() && !v.Value()) {
				continue
			}
			candidates = append(candidates, emp)
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			if weekAssigned[candidates[i].ID] != weekAssigned[candidates[j].ID] {
				return weekAssigned[candidates[i].ID] < weekAssigned[candidates[j].ID]
			}
			return candidates[i].Code < candidates[j].Code
		})

		for _, emp := range candidates {
			if work.CountOn(date, code) >= min {
				break
			}
			if s.tryAssign(m, work, emp, team, date, code, model.OriginFresh, hours, weekendCount) {
				weekAssigned[emp.ID]++
			}
		}
	}

	// 周末：按到岗人数最少的成员补足下限
	for _, date := range week.WeekendDates() {
		if !st.ActiveOn(date) {
			continue
		}
		staffing := st.StaffingOn(date)

		var candidates []*model.Employee
		for _, emp := range members {
			if emp.ID == spare || emp.ID == duty {
				continue
			}
			v := m.Pool.WeekendPresent[model.EmployeeDayKey{EmployeeID: emp.ID, Date: date}]
			if v == nil || (v.Fixed() && !v.Value()) {
				continue
			}
			candidates = append(candidates, emp)
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			if weekendCount[candidates[i].ID] != weekendCount[candidates[j].ID] {
				return weekendCount[candidates[i].ID] < weekendCount[candidates[j].ID]
			}
			return candidates[i].Code < candidates[j].Code
		})

		for _, emp := range candidates {
			if work.CountOn(date, code) >= staffing.Min {
				break
			}
			s.tryAssign(m, work, emp, team, date, code, model.OriginFresh, hours, weekendCount)
		}
	}
}

// crossBackfill 跨组补位：对仍低于人数下限的日期×班次，
// 从许可的空闲员工中按工时升序补足。
func (s *RotationSolver) crossBackfill(
	ctx context.Context, m *Model, work *constraint.Context,
	teamCodes map[model.TeamWeekKey]string,
	spares map[model.TeamWeekKey]uuid.UUID, dutyByWeek map[string]uuid.UUID,
	hours map[uuid.UUID]float64,
) {
	spareSet := make(map[uuid.UUID]map[string]bool)
	for key, empID := range spares {
		if spareSet[empID] == nil {
			spareSet[empID] = make(map[string]bool)
		}
		spareSet[empID][key.WeekStart] = true
	}

	for _, week := range m.Base.Window.Weeks {
		if ctx.Err() != nil {
			return
		}
		for _, date := range week.Dates {
			for _, st := range work.Catalog.Types() {
				if !st.ActiveOn(date) {
					continue
				}
				min := st.StaffingOn(date).Min
				if work.CountOn(date, st.Code) >= min {
					continue
				}

				carrier := s.carrierTeam(m, teamCodes, week.Start, st.Code)
				candidates := s.crossCandidates(m, work, week, date, st.Code, spareSet, dutyByWeek, hours)
				for _, emp := range candidates {
					if work.CountOn(date, st.Code) >= min {
						break
					}
					a := &model.Assignment{
						BaseModel:  model.NewBaseModel(),
						EmployeeID: emp.ID,
						TeamID:     carrier,
						Date:       date,
						ShiftCode:  st.Code,
						Origin:     model.OriginCross,
					}
					if ok, reason := m.Manager.CanAssign(work, a); !ok {
						s.logger.ConstraintViolation("跨组补位检查", fmt.Sprintf("员工 %s: %s", emp.Name, reason))
						continue
					}
					work.AddAssignment(a)
					hours[emp.ID] += st.DurationHours()
				}
			}
		}
	}
}

// crossCandidates 跨组补位候选：许可该代码、当日空闲、
// 非轮空非值班，按累计工时升序。
func (s *RotationSolver) crossCandidates(
	m *Model, work *constraint.Context,
	week *calendar.Week, date, code string,
	spareSet map[uuid.UUID]map[string]bool, dutyByWeek map[string]uuid.UUID,
	hours map[uuid.UUID]float64,
) []*model.Employee {
	var out []*model.Employee
	for _, emp := range m.Base.Roster.Employees {
		if !emp.IsActive() {
			continue
		}
		if spareSet[emp.ID][week.Start] || dutyByWeek[week.Start] == emp.ID {
			continue
		}
		if work.AssignmentOn(emp.ID, date) != nil {
			continue
		}
		v := m.Pool.CrossTeam[model.EmployeeDayKey{EmployeeID: emp.ID, Date: date}][code]
		if v == nil || (v.Fixed() && !v.Value()) {
			continue
		}
		out = append(out, emp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if hours[out[i].ID] != hours[out[j].ID] {
			return hours[out[i].ID] < hours[out[j].ID]
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// carrierTeam 返回该周承担该代码的班组（无承担者返回 nil）
func (s *RotationSolver) carrierTeam(m *Model, teamCodes map[model.TeamWeekKey]string, weekStart, code string) *uuid.UUID {
	for _, team := range m.Base.Roster.Teams {
		if teamCodes[model.TeamWeekKey{TeamID: team.ID, WeekStart: weekStart}] == code {
			id := team.ID
			return &id
		}
	}
	return nil
}

// tryAssign 约束检查通过后落一条排班
func (s *RotationSolver) tryAssign(
	m *Model, work *constraint.Context,
	emp *model.Employee, team *model.Team, date, code string,
	origin model.AssignmentOrigin,
	hours map[uuid.UUID]float64, weekendCount map[uuid.UUID]int,
) bool {
	teamID := team.ID
	a := &model.Assignment{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: emp.ID,
		TeamID:     &teamID,
		Date:       date,
		ShiftCode:  code,
		Origin:     origin,
	}
	if ok, reason := m.Manager.CanAssign(work, a); !ok {
		s.logger.ConstraintViolation("在岗检查", fmt.Sprintf("员工 %s: %s", emp.Name, reason))
		return false
	}
	work.AddAssignment(a)
	if st := work.Catalog.Get(code); st != nil {
		hours[emp.ID] += st.DurationHours()
	}
	if model.IsWeekend(date) {
		weekendCount[emp.ID]++
	}
	return true
}

// rotatingMembers 班组中参与常规轮换的成员（在职正式）
func (s *RotationSolver) rotatingMembers(m *Model, teamID uuid.UUID) []*model.Employee {
	var out []*model.Employee
	for _, emp := range m.Base.Roster.Members(teamID) {
		if emp.IsActive() && emp.IsRegular() {
			out = append(out, emp)
		}
	}
	return out
}

// lockedInWeek 员工在该周是否存在员工日锁
func (s *RotationSolver) lockedInWeek(m *Model, empID uuid.UUID, week *calendar.Week) bool {
	for _, date := range week.Dates {
		if m.Base.Locks.HasEmployeeDay(empID, date) {
			return true
		}
	}
	return false
}

// absentWholeWeek 员工是否整周缺勤
func (s *RotationSolver) absentWholeWeek(m *Model, empID uuid.UUID, week *calendar.Week) bool {
	for _, date := range week.Dates {
		if !m.Base.Absences.IsAbsent(empID, date) {
			return false
		}
	}
	return true
}

// timeoutOutcome 时限内未完成时返回部分结果
func (s *RotationSolver) timeoutOutcome(work *constraint.Context, teamCodes map[model.TeamWeekKey]string, duties []*model.DayDuty) *Outcome {
	return &Outcome{
		Status:      StatusTimeout,
		TeamCodes:   teamCodes,
		Assignments: work.Assignments,
		DayDuties:   duties,
		Statistics:  &Statistics{TotalAssignments: len(work.Assignments)},
		Message:     "时限内未完成求解",
	}
}

// statistics 汇总求解统计
func (s *RotationSolver) statistics(work *constraint.Context, hours map[uuid.UUID]float64) *Statistics {
	st := &Statistics{TotalAssignments: len(work.Assignments)}
	for _, a := range work.Assignments {
		switch a.Origin {
		case model.OriginLocked:
			st.LockedCount++
		case model.OriginCross:
			st.CrossCount++
		}
	}
	for _, h := range hours {
		st.TotalHours += h
	}
	return st
}
