package builtin

import (
	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/constraint"
	"github.com/lunban/lunban/pkg/stats"
)

// 软约束默认权重
const (
	DefaultTargetHoursWeight   = 3
	DefaultFairnessWeight      = 2
	DefaultRotationCycleWeight = 5
	DefaultStaffingCeilWeight  = 8
)

// Options 内置规则注册选项
type Options struct {
	// TargetHoursWeight 目标工时软约束权重，<=0 使用默认值
	TargetHoursWeight int
	// FairnessWeight 公平性软约束权重，<=0 使用默认值
	FairnessWeight int
	// RotationCycleWeight 轮换循环偏好权重，<=0 使用默认值
	RotationCycleWeight int
	// StaffingCeilWeight 人力软上限权重，<=0 使用默认值
	StaffingCeilWeight int
	// History 员工历史负担累计，用于跨窗口公平
	History map[uuid.UUID]stats.Counts
}

func (o *Options) targetHoursWeight() int {
	if o.TargetHoursWeight > 0 {
		return o.TargetHoursWeight
	}
	return DefaultTargetHoursWeight
}

func (o *Options) fairnessWeight() int {
	if o.FairnessWeight > 0 {
		return o.FairnessWeight
	}
	return DefaultFairnessWeight
}

func (o *Options) rotationCycleWeight() int {
	if o.RotationCycleWeight > 0 {
		return o.RotationCycleWeight
	}
	return DefaultRotationCycleWeight
}

func (o *Options) staffingCeilWeight() int {
	if o.StaffingCeilWeight > 0 {
		return o.StaffingCeilWeight
	}
	return DefaultStaffingCeilWeight
}

// RegisterDefaults 注册全部内置规则。
// 人力上限为软时注册软上限约束；花名册中存在具备值班资格的
// 正式员工时才注册周值班约束。
func RegisterDefaults(m *constraint.Manager, ctx *constraint.Context, opts *Options) {
	if opts == nil {
		opts = &Options{}
	}

	m.Register(NewRotationExactlyOneConstraint())
	m.Register(NewTeamLinkageConstraint())
	m.Register(NewUniqueAssignmentConstraint())
	m.Register(NewStaffingBoundsConstraint())
	m.Register(NewMinRestConstraint())
	m.Register(NewMaxConsecutiveDaysConstraint())
	m.Register(NewAbsenceExclusionConstraint())
	m.Register(NewWeeklyAvailabilityConstraint())
	m.Register(NewCrossTeamPermissionConstraint())

	if hasDutyQualified(ctx.Roster) {
		m.Register(NewDayDutyConstraint())
	}

	if !ctx.Defaults.StaffingMaxHard {
		m.Register(NewStaffingCeilingConstraint(opts.staffingCeilWeight()))
	}

	m.Register(NewTargetHoursConstraint(opts.targetHoursWeight()))
	m.Register(NewFairnessConstraint(opts.fairnessWeight(), opts.History))
	m.Register(NewRotationCycleConstraint(opts.rotationCycleWeight()))
}

// hasDutyQualified 检查是否存在具备值班资格的在职正式员工
func hasDutyQualified(roster *model.Roster) bool {
	for _, emp := range roster.Employees {
		if emp.IsActive() && emp.IsRegular() && emp.DayDutyQualified {
			return true
		}
	}
	return false
}
