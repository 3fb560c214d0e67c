package builtin

import (
	"fmt"

	"github.com/lunban/lunban/pkg/plan/constraint"
)

// StaffingBoundsConstraint 人力配置约束：
// 每日每班次的在岗人数需落在该班次当日的最小/最大配置区间内。
// 最小值恒为硬；最大值默认为硬，配置为软上限时由
// StaffingCeilingConstraint 单独计罚。
type StaffingBoundsConstraint struct {
	*BaseConstraint
}

// NewStaffingBoundsConstraint 创建人力配置约束
func NewStaffingBoundsConstraint() *StaffingBoundsConstraint {
	return &StaffingBoundsConstraint{
		BaseConstraint: NewBaseConstraint(
			"人力配置",
			constraint.TypeStaffingBounds,
			constraint.CategoryHard,
			90,
		),
	}
}

// Evaluate 评估候选解
func (c *StaffingBoundsConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	enforceMax := ctx.Defaults.StaffingMaxHard

	for _, date := range ctx.Window.Dates {
		for _, st := range ctx.Catalog.Types() {
			if !st.ActiveOn(date) {
				continue
			}
			staffing := st.StaffingOn(date)
			count := ctx.CountOn(date, st.Code)

			if count < staffing.Min {
				isValid = false
				penalty := c.Weight() * (staffing.Min - count)
				totalPenalty += penalty
				v := c.violation(
					fmt.Sprintf("%s 班次 %s 在岗 %d 人，低于下限 %d", date, st.Code, count, staffing.Min),
					penalty,
				)
				v.Date = date
				v.Expected = fmt.Sprintf(">=%d", staffing.Min)
				v.Actual = fmt.Sprintf("%d", count)
				violations = append(violations, v)
				continue
			}

			if enforceMax && count > staffing.Max {
				isValid = false
				penalty := c.Weight() * (count - staffing.Max)
				totalPenalty += penalty
				v := c.violation(
					fmt.Sprintf("%s 班次 %s 在岗 %d 人，超过上限 %d", date, st.Code, count, staffing.Max),
					penalty,
				)
				v.Date = date
				v.Expected = fmt.Sprintf("<=%d", staffing.Max)
				v.Actual = fmt.Sprintf("%d", count)
				violations = append(violations, v)
			}
		}
	}

	return isValid, totalPenalty, violations
}

// StaffingCeilingConstraint 人力软上限约束：
// 上限配置为软时，超出部分按人头计罚而不阻塞求解。
type StaffingCeilingConstraint struct {
	*BaseConstraint
}

// NewStaffingCeilingConstraint 创建人力软上限约束
func NewStaffingCeilingConstraint(weight int) *StaffingCeilingConstraint {
	return &StaffingCeilingConstraint{
		BaseConstraint: NewBaseConstraint(
			"人力软上限",
			constraint.TypeStaffingCeil,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估候选解
func (c *StaffingCeilingConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, date := range ctx.Window.Dates {
		for _, st := range ctx.Catalog.Types() {
			if !st.ActiveOn(date) {
				continue
			}
			staffing := st.StaffingOn(date)
			count := ctx.CountOn(date, st.Code)
			if count <= staffing.Max {
				continue
			}
			penalty := c.Weight() * (count - staffing.Max)
			totalPenalty += penalty
			v := c.violation(
				fmt.Sprintf("%s 班次 %s 在岗 %d 人，超出软上限 %d", date, st.Code, count, staffing.Max),
				penalty,
			)
			v.Date = date
			v.Expected = fmt.Sprintf("<=%d", staffing.Max)
			v.Actual = fmt.Sprintf("%d", count)
			violations = append(violations, v)
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}
