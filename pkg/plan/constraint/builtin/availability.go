package builtin

import (
	"fmt"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/calendar"
	"github.com/lunban/lunban/pkg/plan/constraint"
)

// WeeklyAvailabilityConstraint 每周机动人员约束：
// 每班组每周至少保留一名完全无排班、无值班的正式成员，
// 作为临时顶班的机动储备。少于两名可用正式成员的班组
// 无从轮空，不受本约束限制。
type WeeklyAvailabilityConstraint struct {
	*BaseConstraint
}

// NewWeeklyAvailabilityConstraint 创建每周机动人员约束
func NewWeeklyAvailabilityConstraint() *WeeklyAvailabilityConstraint {
	return &WeeklyAvailabilityConstraint{
		BaseConstraint: NewBaseConstraint(
			"每周机动人员",
			constraint.TypeWeeklyAvailability,
			constraint.CategoryHard,
			75,
		),
	}
}

// Evaluate 评估候选解
func (c *WeeklyAvailabilityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, team := range ctx.Roster.Teams {
		members := activeRegulars(ctx.Roster.Members(team.ID))
		if len(members) < 2 {
			continue
		}
		for _, week := range ctx.Window.Weeks {
			if hasSpare(ctx, members, week) {
				continue
			}
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			v := c.violation(
				fmt.Sprintf("班组 %s 周 %s 没有保留机动人员", team.Name, week.Start),
				penalty,
			)
			v.TeamID = team.ID
			v.Date = week.Start
			v.Expected = ">=1名轮空成员"
			v.Actual = "0名"
			violations = append(violations, v)
		}
	}

	return isValid, totalPenalty, violations
}

// hasSpare 检查是否存在整周无排班无值班的成员
func hasSpare(ctx *constraint.Context, members []*model.Employee, week *calendar.Week) bool {
	for _, emp := range members {
		if ctx.HasDuty(emp.ID, week.Start) {
			continue
		}
		free := true
		for _, date := range week.Dates {
			if ctx.AssignmentOn(emp.ID, date) != nil {
				free = false
				break
			}
		}
		if free {
			return true
		}
	}
	return false
}

// activeRegulars 过滤在职正式成员
func activeRegulars(members []*model.Employee) []*model.Employee {
	out := make([]*model.Employee, 0, len(members))
	for _, m := range members {
		if m.IsActive() && m.IsRegular() {
			out = append(out, m)
		}
	}
	return out
}
