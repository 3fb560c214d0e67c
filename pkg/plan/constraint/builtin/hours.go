package builtin

import (
	"fmt"
	"math"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/constraint"
)

// TargetHoursConstraint 目标工时约束（软）：
// 员工在整个扩展窗口的实际工时应达到周目标工时 × 窗口周数。
// 只惩罚缺口，超出目标不罚。整窗口无排班的员工同样累计缺口，
// 避免轮空员工对目标的偏离被悄悄豁免。
type TargetHoursConstraint struct {
	*BaseConstraint
}

// NewTargetHoursConstraint 创建目标工时约束
func NewTargetHoursConstraint(weight int) *TargetHoursConstraint {
	return &TargetHoursConstraint{
		BaseConstraint: NewBaseConstraint(
			"目标工时",
			constraint.TypeTargetHours,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估候选解
func (c *TargetHoursConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	weeks := len(ctx.Window.Weeks)

	for _, emp := range ctx.Roster.Employees {
		if !emp.IsActive() {
			continue
		}
		perWeek, actual := c.windowHours(ctx, emp)
		target := perWeek * float64(weeks)
		if target <= 0 {
			continue
		}
		shortfall := target - actual
		if shortfall < 1 {
			continue
		}
		penalty := c.Weight() * int(math.Round(shortfall))
		totalPenalty += penalty
		v := c.violation(
			fmt.Sprintf("员工 %s 窗口工时 %.1f，低于目标 %.1f 小时", emp.Name, actual, target),
			penalty,
		)
		v.EmployeeID = emp.ID
		v.Expected = fmt.Sprintf("%.1f小时", target)
		v.Actual = fmt.Sprintf("%.1f小时", actual)
		violations = append(violations, v)
	}

	return totalPenalty == 0, totalPenalty, violations
}

// windowHours 计算员工在扩展窗口内的周目标与实际总工时。
// 周目标取窗口内排班小时数最多的班次代码的周目标；整窗口
// 无排班时回退到标准轮换首个代码的周目标。
func (c *TargetHoursConstraint) windowHours(ctx *constraint.Context, emp *model.Employee) (perWeek, actual float64) {
	hoursByCode := make(map[string]float64)
	for _, week := range ctx.Window.Weeks {
		for _, date := range week.Dates {
			a := ctx.AssignmentOn(emp.ID, date)
			if a == nil {
				continue
			}
			st := ctx.Catalog.Get(a.ShiftCode)
			if st == nil {
				continue
			}
			h := st.DurationHours()
			actual += h
			hoursByCode[a.ShiftCode] += h
		}
	}

	dominant := ""
	best := -1.0
	for code, h := range hoursByCode {
		if h > best || (h == best && code < dominant) {
			dominant, best = code, h
		}
	}
	if dominant == "" {
		if rotation := ctx.Catalog.CanonicalRotation(); len(rotation) > 0 {
			dominant = rotation[0]
		}
	}
	if st := ctx.Catalog.Get(dominant); st != nil {
		perWeek = st.WeeklyTargetHours
	}
	return perWeek, actual
}
