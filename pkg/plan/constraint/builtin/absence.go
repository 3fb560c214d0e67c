package builtin

import (
	"fmt"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/constraint"
)

// AbsenceExclusionConstraint 缺勤排除约束：
// 缺勤日不得出现任何排班或值班指派。
type AbsenceExclusionConstraint struct {
	*BaseConstraint
}

// NewAbsenceExclusionConstraint 创建缺勤排除约束
func NewAbsenceExclusionConstraint() *AbsenceExclusionConstraint {
	return &AbsenceExclusionConstraint{
		BaseConstraint: NewBaseConstraint(
			"缺勤排除",
			constraint.TypeAbsenceExclusion,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估候选解
func (c *AbsenceExclusionConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		if !ctx.Absences.IsAbsent(a.EmployeeID, a.Date) {
			continue
		}
		isValid = false
		penalty := c.Weight()
		totalPenalty += penalty
		v := c.violation(
			fmt.Sprintf("员工 %s 在缺勤日 %s 被排班", employeeName(ctx, a.EmployeeID), a.Date),
			penalty,
		)
		v.EmployeeID = a.EmployeeID
		v.Date = a.Date
		violations = append(violations, v)
	}

	for _, week := range ctx.Window.Weeks {
		for _, d := range ctx.DutiesInWeek(week.Start) {
			if !ctx.Absences.AbsentAny(d.EmployeeID, week.Dates) {
				continue
			}
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			v := c.violation(
				fmt.Sprintf("员工 %s 在缺勤周 %s 承担值班", employeeName(ctx, d.EmployeeID), week.Start),
				penalty,
			)
			v.EmployeeID = d.EmployeeID
			v.Date = week.Start
			violations = append(violations, v)
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 增量评估：缺勤日直接拒绝
func (c *AbsenceExclusionConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if ctx.Absences.IsAbsent(a.EmployeeID, a.Date) {
		return false, c.Weight()
	}
	return true, 0
}
