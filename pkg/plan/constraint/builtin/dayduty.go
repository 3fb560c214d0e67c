package builtin

import (
	"fmt"

	"github.com/lunban/lunban/pkg/plan/constraint"
)

// DayDutyConstraint 周值班约束：
// 每周恰好一名值班人，值班人须具备值班资格，
// 且当周不得同时承担常规排班。
type DayDutyConstraint struct {
	*BaseConstraint
}

// NewDayDutyConstraint 创建周值班约束
func NewDayDutyConstraint() *DayDutyConstraint {
	return &DayDutyConstraint{
		BaseConstraint: NewBaseConstraint(
			"周值班",
			constraint.TypeDayDuty,
			constraint.CategoryHard,
			70,
		),
	}
}

// Evaluate 评估候选解
func (c *DayDutyConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, week := range ctx.Window.Weeks {
		duties := ctx.DutiesInWeek(week.Start)

		if len(duties) != 1 {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			v := c.violation(
				fmt.Sprintf("周 %s 值班人数为 %d，应恰好1名", week.Start, len(duties)),
				penalty,
			)
			v.Date = week.Start
			v.Expected = "1名"
			v.Actual = fmt.Sprintf("%d名", len(duties))
			violations = append(violations, v)
		}

		for _, d := range duties {
			emp := ctx.Roster.Employee(d.EmployeeID)
			if emp == nil || !emp.IsActive() || !emp.IsRegular() || !emp.DayDutyQualified {
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				v := c.violation(
					fmt.Sprintf("周 %s 值班人 %s 不具备值班资格", week.Start, employeeName(ctx, d.EmployeeID)),
					penalty,
				)
				v.EmployeeID = d.EmployeeID
				v.Date = week.Start
				violations = append(violations, v)
				continue
			}

			for _, date := range week.Dates {
				if ctx.AssignmentOn(d.EmployeeID, date) == nil {
					continue
				}
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				v := c.violation(
					fmt.Sprintf("值班人 %s 在值班周 %s 同时承担常规排班", emp.Name, week.Start),
					penalty,
				)
				v.EmployeeID = d.EmployeeID
				v.Date = date
				violations = append(violations, v)
				break
			}
		}
	}

	return isValid, totalPenalty, violations
}
