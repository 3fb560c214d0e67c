package builtin

import (
	"fmt"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/constraint"
)

// CrossTeamPermissionConstraint 跨组许可约束：
// 跨组补位排班的班次代码必须在员工的可承担代码集内。
// 班组成员跟随本组代码集，机动池与临时员工跟随标准轮换集。
type CrossTeamPermissionConstraint struct {
	*BaseConstraint
}

// NewCrossTeamPermissionConstraint 创建跨组许可约束
func NewCrossTeamPermissionConstraint() *CrossTeamPermissionConstraint {
	return &CrossTeamPermissionConstraint{
		BaseConstraint: NewBaseConstraint(
			"跨组许可",
			constraint.TypeCrossTeamPermission,
			constraint.CategoryHard,
			95,
		),
	}
}

// Evaluate 评估候选解
func (c *CrossTeamPermissionConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		if a.Origin != model.OriginCross {
			continue
		}
		emp := ctx.Roster.Employee(a.EmployeeID)
		if emp == nil {
			continue
		}
		if permits(ctx, emp, a.ShiftCode) {
			continue
		}
		isValid = false
		penalty := c.Weight()
		totalPenalty += penalty
		v := c.violation(
			fmt.Sprintf("员工 %s 在 %s 跨组承担未许可班次 %s", emp.Name, a.Date, a.ShiftCode),
			penalty,
		)
		v.EmployeeID = emp.ID
		v.Date = a.Date
		v.Actual = a.ShiftCode
		violations = append(violations, v)
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 增量评估：跨组候选必须在许可代码集内
func (c *CrossTeamPermissionConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if a.Origin != model.OriginCross {
		return true, 0
	}
	emp := ctx.Roster.Employee(a.EmployeeID)
	if emp == nil {
		return false, c.Weight()
	}
	if !permits(ctx, emp, a.ShiftCode) {
		return false, c.Weight()
	}
	return true, 0
}

// permits 检查员工是否可承担某班次代码
func permits(ctx *constraint.Context, emp *model.Employee, code string) bool {
	for _, allowed := range ctx.Roster.PermittedCodes(emp, ctx.Catalog) {
		if allowed == code {
			return true
		}
	}
	return false
}
