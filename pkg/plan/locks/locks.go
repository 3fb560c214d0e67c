// Package locks 提供锁定调和引擎。
//
// 相邻月份的两次求解通过锁定集合衔接：上一次已提交的事实
// 进入新一次求解时必须既不产生矛盾也不产生重复承诺。调和是
// 纯函数（锁入 → 锁出 + 冲突报告），不依赖求解器，可独立
// 单元测试。
package locks

import (
	"sort"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/calendar"
)

// Conflict 同一班组周键上出现互相矛盾的班次代码。
// 两个值都不采用：对"每组每周恰好一个代码"的变量组同时施加
// 两条不同的硬等式必然不可满足，整键移除才是安全的治愈。
type Conflict struct {
	Key   model.TeamWeekKey `json:"key"`
	Codes []string          `json:"codes"` // 出现过的互斥代码（出现顺序）
}

// Report 调和报告
type Report struct {
	Conflicts          []Conflict          `json:"conflicts"`
	SuppressedBoundary []model.TeamWeekKey `json:"suppressed_boundary"`
	DroppedOutOfWindow int                 `json:"dropped_out_of_window"`
}

// Healed 返回自动治愈的冲突数
func (r *Report) Healed() int {
	return len(r.Conflicts)
}

// Reconcile 调和锁定集合。
//
// 流程：员工日锁窗口过滤 → 从员工日锁推导候选班组周锁 →
// 两遍冲突检测与移除 → 边界周班组锁无条件抑制。员工日锁在
// 边界周仍然保留：个人日事实不是班组级轮换承诺。
//
// 调和只治愈班组周键上的矛盾。员工日锁与缺勤的矛盾不在这里
// 消化：已提交的日事实撞上新录入的缺勤是真实的业务冲突，由
// 求解阶段的缺勤硬规则报告为不可行，交人工裁决。
func Reconcile(in *model.LockSet, window *calendar.Window, roster *model.Roster) (*model.LockSet, *Report) {
	out := model.NewLockSet()
	report := &Report{}

	if in == nil {
		return out, report
	}

	// 员工日锁：窗口过滤
	for _, key := range sortedEmployeeDayKeys(in.EmployeeDays) {
		if !window.Contains(key.Date) {
			report.DroppedOutOfWindow++
			continue
		}
		out.EmployeeDays[key] = in.EmployeeDays[key]
	}

	// 候选班组周锁：直接提供的在前，由员工日锁推导的在后
	type candidate struct {
		key  model.TeamWeekKey
		code string
	}
	var candidates []candidate

	for _, key := range sortedTeamWeekKeys(in.TeamWeeks) {
		weekStart, ok := window.WeekStartOf(key.WeekStart)
		if !ok {
			report.DroppedOutOfWindow++
			continue
		}
		normalized := model.TeamWeekKey{TeamID: key.TeamID, WeekStart: weekStart}
		candidates = append(candidates, candidate{key: normalized, code: in.TeamWeeks[key]})
	}

	for _, dayKey := range sortedEmployeeDayKeys(out.EmployeeDays) {
		emp := roster.Employee(dayKey.EmployeeID)
		if emp == nil || emp.TeamID == nil {
			continue
		}
		weekStart, ok := window.WeekStartOf(dayKey.Date)
		if !ok {
			continue
		}
		key := model.TeamWeekKey{TeamID: *emp.TeamID, WeekStart: weekStart}
		candidates = append(candidates, candidate{key: key, code: out.EmployeeDays[dayKey]})
	}

	// 第一遍：记录首见值，后续不一致则标记冲突
	seen := make(map[model.TeamWeekKey]string)
	conflictCodes := make(map[model.TeamWeekKey][]string)
	for _, c := range candidates {
		first, ok := seen[c.key]
		if !ok {
			seen[c.key] = c.code
			continue
		}
		if first != c.code {
			if len(conflictCodes[c.key]) == 0 {
				conflictCodes[c.key] = []string{first}
			}
			conflictCodes[c.key] = appendUnique(conflictCodes[c.key], c.code)
		}
	}

	// 第二遍：冲突键整体移除，两个竞争值都不采用
	for _, key := range sortedTeamWeekKeys(seen) {
		if codes, conflicted := conflictCodes[key]; conflicted {
			report.Conflicts = append(report.Conflicts, Conflict{Key: key, Codes: codes})
			continue
		}
		out.TeamWeeks[key] = seen[key]
	}

	// 边界周抑制：该周的轮换决策归相邻一次求解所有
	for _, key := range sortedTeamWeekKeys(out.TeamWeeks) {
		if window.IsBoundaryWeek(key.WeekStart) {
			delete(out.TeamWeeks, key)
			report.SuppressedBoundary = append(report.SuppressedBoundary, key)
		}
	}

	return out, report
}

func appendUnique(codes []string, code string) []string {
	for _, c := range codes {
		if c == code {
			return codes
		}
	}
	return append(codes, code)
}

func sortedTeamWeekKeys[V any](m map[model.TeamWeekKey]V) []model.TeamWeekKey {
	keys := make([]model.TeamWeekKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].WeekStart != keys[j].WeekStart {
			return keys[i].WeekStart < keys[j].WeekStart
		}
		return keys[i].TeamID.String() < keys[j].TeamID.String()
	})
	return keys
}

func sortedEmployeeDayKeys(m map[model.EmployeeDayKey]string) []model.EmployeeDayKey {
	keys := make([]model.EmployeeDayKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Date != keys[j].Date {
			return keys[i].Date < keys[j].Date
		}
		return keys[i].EmployeeID.String() < keys[j].EmployeeID.String()
	})
	return keys
}
