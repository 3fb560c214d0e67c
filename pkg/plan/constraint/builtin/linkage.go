package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/constraint"
)

// TeamLinkageConstraint 成员班次联动约束：
// 本组常规排班的班次代码必须等于班组当周选定的代码。
// 锁定来源的排班是已提交的个人事实，不受当前周选择约束；
// 跨组补位由跨组许可约束单独管辖。
type TeamLinkageConstraint struct {
	*BaseConstraint
}

// NewTeamLinkageConstraint 创建成员班次联动约束
func NewTeamLinkageConstraint() *TeamLinkageConstraint {
	return &TeamLinkageConstraint{
		BaseConstraint: NewBaseConstraint(
			"成员班次联动",
			constraint.TypeTeamLinkage,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估候选解
func (c *TeamLinkageConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		if a.Origin != model.OriginFresh {
			continue
		}

		emp := ctx.Roster.Employee(a.EmployeeID)
		if emp == nil {
			continue
		}

		if emp.TeamID == nil {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			v := c.violation(
				fmt.Sprintf("机动池员工 %s 在 %s 出现本组常规排班", emp.Name, a.Date),
				penalty,
			)
			v.EmployeeID = emp.ID
			v.Date = a.Date
			violations = append(violations, v)
			continue
		}

		teamCode, ok := ctx.TeamCodeOn(*emp.TeamID, a.Date)
		if !ok || a.ShiftCode != teamCode {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			v := c.violation(
				fmt.Sprintf("员工 %s 在 %s 的班次 %s 未跟随班组周选择", emp.Name, a.Date, a.ShiftCode),
				penalty,
			)
			v.EmployeeID = emp.ID
			v.TeamID = *emp.TeamID
			v.Date = a.Date
			v.Expected = teamCode
			v.Actual = a.ShiftCode
			violations = append(violations, v)
		}
	}

	return isValid, totalPenalty, violations
}

// UniqueAssignmentConstraint 排班唯一性约束：
// 每员工每日至多一条排班记录。出现重复说明建模有缺陷，
// 必须暴露而不是下游静默去重。
type UniqueAssignmentConstraint struct {
	*BaseConstraint
}

// NewUniqueAssignmentConstraint 创建排班唯一性约束
func NewUniqueAssignmentConstraint() *UniqueAssignmentConstraint {
	return &UniqueAssignmentConstraint{
		BaseConstraint: NewBaseConstraint(
			"排班唯一性",
			constraint.TypeUniqueAssignment,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估候选解
func (c *UniqueAssignmentConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	seen := make(map[model.EmployeeDayKey]int)
	for _, a := range ctx.Assignments {
		seen[model.EmployeeDayKey{EmployeeID: a.EmployeeID, Date: a.Date}]++
	}

	for key, count := range seen {
		if count <= 1 {
			continue
		}
		isValid = false
		penalty := c.Weight() * (count - 1)
		totalPenalty += penalty

		name := key.EmployeeID.String()
		if emp := ctx.Roster.Employee(key.EmployeeID); emp != nil {
			name = emp.Name
		}
		v := c.violation(
			fmt.Sprintf("员工 %s 在 %s 存在 %d 条排班记录", name, key.Date, count),
			penalty,
		)
		v.EmployeeID = key.EmployeeID
		v.Date = key.Date
		v.Expected = "至多1条"
		v.Actual = fmt.Sprintf("%d条", count)
		violations = append(violations, v)
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 增量评估：该员工当日已有排班则不可再分配
func (c *UniqueAssignmentConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	for _, existing := range ctx.EmployeeAssignments(a.EmployeeID) {
		if existing.ID != a.ID && existing.Date == a.Date {
			return false, c.Weight()
		}
	}
	// 锁定的员工日不可再产生新承诺
	if a.Origin != model.OriginLocked && ctx.Locks.HasEmployeeDay(a.EmployeeID, a.Date) {
		return false, c.Weight()
	}
	return true, 0
}

// employeeName 查询员工显示名
func employeeName(ctx *constraint.Context, id uuid.UUID) string {
	if emp := ctx.Roster.Employee(id); emp != nil {
		return emp.Name
	}
	return id.String()
}
