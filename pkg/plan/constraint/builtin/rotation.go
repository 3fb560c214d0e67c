package builtin

import (
	"fmt"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/constraint"
)

// RotationExactlyOneConstraint 班组周轮换约束：
// 每个班组每周恰好承担一个允许的班次代码。
type RotationExactlyOneConstraint struct {
	*BaseConstraint
}

// NewRotationExactlyOneConstraint 创建班组周轮换约束
func NewRotationExactlyOneConstraint() *RotationExactlyOneConstraint {
	return &RotationExactlyOneConstraint{
		BaseConstraint: NewBaseConstraint(
			"班组周轮换",
			constraint.TypeRotationExactlyOne,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估候选解
func (c *RotationExactlyOneConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, team := range ctx.Roster.Teams {
		for _, week := range ctx.Window.Weeks {
			key := model.TeamWeekKey{TeamID: team.ID, WeekStart: week.Start}
			code, ok := ctx.TeamCodes[key]

			if !ok {
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				v := c.violation(
					fmt.Sprintf("班组 %s 在 %s 开始的周未选定班次代码", team.Name, week.Start),
					penalty,
				)
				v.TeamID = team.ID
				v.Date = week.Start
				v.Expected = "恰好一个允许的班次代码"
				v.Actual = "未选定"
				violations = append(violations, v)
				continue
			}

			if !ctx.Roster.TeamPermits(team.ID, code) {
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				v := c.violation(
					fmt.Sprintf("班组 %s 在 %s 开始的周承担了未允许的代码 %s", team.Name, week.Start, code),
					penalty,
				)
				v.TeamID = team.ID
				v.Date = week.Start
				v.Expected = fmt.Sprintf("允许集 %v 之一", ctx.Roster.AllowedCodes(team.ID))
				v.Actual = code
				violations = append(violations, v)
			}
		}
	}

	return isValid, totalPenalty, violations
}

// RotationCycleConstraint 轮换顺序偏好（软约束）。
//
// 早→夜→晚的周间顺序是成文意图但不是硬过渡表：
// 观察到的循环模式来自链式锁定或本偏好，绝不硬编码强制。
type RotationCycleConstraint struct {
	*BaseConstraint
	cycle map[string]string
}

// NewRotationCycleConstraint 创建轮换顺序偏好约束
func NewRotationCycleConstraint(weight int) *RotationCycleConstraint {
	return &RotationCycleConstraint{
		BaseConstraint: NewBaseConstraint(
			"轮换顺序偏好",
			constraint.TypeRotationCycle,
			constraint.CategorySoft,
			weight,
		),
		// F→N→S→F
		cycle: map[string]string{
			model.CodeEarly: model.CodeNight,
			model.CodeNight: model.CodeLate,
			model.CodeLate:  model.CodeEarly,
		},
	}
}

// Successor 返回代码在偏好循环中的后继（不在循环中返回空串）
func (c *RotationCycleConstraint) Successor(code string) string {
	return c.cycle[code]
}

// Evaluate 评估候选解
func (c *RotationCycleConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, team := range ctx.Roster.Teams {
		for i := 0; i+1 < len(ctx.Window.Weeks); i++ {
			cur, okCur := ctx.TeamCodes[model.TeamWeekKey{TeamID: team.ID, WeekStart: ctx.Window.Weeks[i].Start}]
			next, okNext := ctx.TeamCodes[model.TeamWeekKey{TeamID: team.ID, WeekStart: ctx.Window.Weeks[i+1].Start}]
			if !okCur || !okNext {
				continue
			}
			want := c.cycle[cur]
			if want == "" || next == want {
				continue
			}

			penalty := c.Weight()
			totalPenalty += penalty
			v := c.violation(
				fmt.Sprintf("班组 %s 周间轮换 %s→%s 偏离偏好顺序", team.Name, cur, next),
				penalty,
			)
			v.TeamID = team.ID
			v.Date = ctx.Window.Weeks[i+1].Start
			v.Expected = want
			v.Actual = next
			violations = append(violations, v)
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}
