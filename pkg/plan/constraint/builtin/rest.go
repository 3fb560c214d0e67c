package builtin

import (
	"fmt"
	"time"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/constraint"
)

// MinRestConstraint 最小休息时间约束：
// 相邻两天的排班之间，前一班结束到后一班开始的间隔
// 不得低于配置的最小休息小时数。周日到周一的轮换边界
// 属于班次代码整体切换，不受本约束限制。
type MinRestConstraint struct {
	*BaseConstraint
}

// NewMinRestConstraint 创建最小休息时间约束
func NewMinRestConstraint() *MinRestConstraint {
	return &MinRestConstraint{
		BaseConstraint: NewBaseConstraint(
			"最小休息时间",
			constraint.TypeMinRest,
			constraint.CategoryHard,
			85,
		),
	}
}

// Evaluate 评估候选解
func (c *MinRestConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, emp := range ctx.Roster.Employees {
		sorted := ctx.SortedAssignments(emp.ID)
		for i := 1; i < len(sorted); i++ {
			prev, next := sorted[i-1], sorted[i]
			if model.AddDays(prev.Date, 1) != next.Date {
				continue
			}
			if restExempt(prev.Date) {
				continue
			}
			rest, ok := restHours(ctx, prev, next)
			if !ok {
				continue
			}
			if rest < ctx.Defaults.MinRestHours {
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				v := c.violation(
					fmt.Sprintf("员工 %s 在 %s 至 %s 之间仅休息 %.1f 小时", emp.Name, prev.Date, next.Date, rest),
					penalty,
				)
				v.EmployeeID = emp.ID
				v.Date = next.Date
				v.Expected = fmt.Sprintf(">=%.1f小时", ctx.Defaults.MinRestHours)
				v.Actual = fmt.Sprintf("%.1f小时", rest)
				violations = append(violations, v)
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 增量评估：检查候选排班与前后一天的休息间隔
func (c *MinRestConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	prevDate := model.AddDays(a.Date, -1)
	if prev := ctx.AssignmentOn(a.EmployeeID, prevDate); prev != nil && !restExempt(prevDate) {
		if rest, ok := restHours(ctx, prev, a); ok && rest < ctx.Defaults.MinRestHours {
			return false, c.Weight()
		}
	}
	nextDate := model.AddDays(a.Date, 1)
	if next := ctx.AssignmentOn(a.EmployeeID, nextDate); next != nil && !restExempt(a.Date) {
		if rest, ok := restHours(ctx, a, next); ok && rest < ctx.Defaults.MinRestHours {
			return false, c.Weight()
		}
	}
	return true, 0
}

// restExempt 前一班所在日期为周日时豁免（轮换边界）
func restExempt(prevDate string) bool {
	return model.Weekday(prevDate) == time.Sunday
}

// restHours 计算前一班结束到后一班开始的间隔小时数
func restHours(ctx *constraint.Context, prev, next *model.Assignment) (float64, bool) {
	prevType := ctx.Catalog.Get(prev.ShiftCode)
	nextType := ctx.Catalog.Get(next.ShiftCode)
	if prevType == nil || nextType == nil {
		return 0, false
	}
	prevEnd := prevType.WindowOn(prev.Date).End
	nextStart := nextType.WindowOn(next.Date).Start
	return nextStart.Sub(prevEnd).Hours(), true
}

// MaxConsecutiveDaysConstraint 最大连续工作天数约束：
// 同一班次代码的连续排班天数不得超过该班次配置的上限。
type MaxConsecutiveDaysConstraint struct {
	*BaseConstraint
}

// NewMaxConsecutiveDaysConstraint 创建最大连续工作天数约束
func NewMaxConsecutiveDaysConstraint() *MaxConsecutiveDaysConstraint {
	return &MaxConsecutiveDaysConstraint{
		BaseConstraint: NewBaseConstraint(
			"最大连续工作天数",
			constraint.TypeMaxConsecutiveDays,
			constraint.CategoryHard,
			80,
		),
	}
}

// Evaluate 评估候选解
func (c *MaxConsecutiveDaysConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, emp := range ctx.Roster.Employees {
		sorted := ctx.SortedAssignments(emp.ID)
		run := 0
		for i, a := range sorted {
			if i > 0 && sorted[i-1].ShiftCode == a.ShiftCode &&
				model.AddDays(sorted[i-1].Date, 1) == a.Date {
				run++
			} else {
				run = 1
			}

			st := ctx.Catalog.Get(a.ShiftCode)
			if st == nil || st.MaxConsecutiveDays <= 0 {
				continue
			}
			if run == st.MaxConsecutiveDays+1 {
				// 每段超限的连跑只报一次
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				v := c.violation(
					fmt.Sprintf("员工 %s 班次 %s 连续工作超过 %d 天", emp.Name, a.ShiftCode, st.MaxConsecutiveDays),
					penalty,
				)
				v.EmployeeID = emp.ID
				v.Date = a.Date
				v.Expected = fmt.Sprintf("<=%d天", st.MaxConsecutiveDays)
				v.Actual = fmt.Sprintf("%d天", run)
				violations = append(violations, v)
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 增量评估：以候选排班为中心检查连跑长度
func (c *MaxConsecutiveDaysConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	st := ctx.Catalog.Get(a.ShiftCode)
	if st == nil || st.MaxConsecutiveDays <= 0 {
		return true, 0
	}

	run := 1
	for d := model.AddDays(a.Date, -1); ; d = model.AddDays(d, -1) {
		prev := ctx.AssignmentOn(a.EmployeeID, d)
		if prev == nil || prev.ShiftCode != a.ShiftCode {
			break
		}
		run++
	}
	for d := model.AddDays(a.Date, 1); ; d = model.AddDays(d, 1) {
		next := ctx.AssignmentOn(a.EmployeeID, d)
		if next == nil || next.ShiftCode != a.ShiftCode {
			break
		}
		run++
	}

	if run > st.MaxConsecutiveDays {
		return false, c.Weight()
	}
	return true, 0
}
