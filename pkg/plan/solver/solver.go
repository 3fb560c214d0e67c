// Package solver 提供轮班计划求解器。
//
// 模型构建失败以错误返回；可行、不可行与超时都是正常的
// 求解结局，由 Outcome.Status 区分，不与错误混同。
package solver

import (
	"context"
	"time"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/constraint"
	"github.com/lunban/lunban/pkg/plan/variables"
)

// Status 求解结局
type Status string

const (
	StatusFeasible   Status = "feasible"   // 满足全部硬约束
	StatusInfeasible Status = "infeasible" // 搜索完成但存在硬约束违反
	StatusTimeout    Status = "timeout"    // 时限内未完成搜索
)

// Limits 求解资源限制
type Limits struct {
	// TimeLimit 求解时限，<=0 表示不限时
	TimeLimit time.Duration `json:"time_limit"`

	// Workers 并行求解尝试数，<=1 表示单线程确定性求解
	Workers int `json:"workers"`
}

// DefaultLimits 返回缺省限制
func DefaultLimits() Limits {
	return Limits{TimeLimit: 30 * time.Second, Workers: 1}
}

// Model 编译完成的求解模型
type Model struct {
	// Pool 决策变量池（锁定等式已固定）
	Pool *variables.Pool

	// Manager 编译后的规则目录
	Manager *constraint.Manager

	// Base 评估上下文（只读输入＋调和后的锁）
	Base *constraint.Context

	// LockedAssignments 调和后幸存的员工日锁对应的既成排班
	LockedAssignments []*model.Assignment
}

// Statistics 求解统计
type Statistics struct {
	TotalAssignments int     `json:"total_assignments"`
	LockedCount      int     `json:"locked_count"`
	CrossCount       int     `json:"cross_count"`
	TotalHours       float64 `json:"total_hours"`
	Attempts         int     `json:"attempts"`
	VariableCount    int     `json:"variable_count"`
}

// Outcome 求解结局
type Outcome struct {
	Status           Status                       `json:"status"`
	TeamCodes        map[model.TeamWeekKey]string `json:"team_codes"`
	Assignments      []*model.Assignment          `json:"assignments"`
	DayDuties        []*model.DayDuty             `json:"day_duties"`
	ConstraintResult *constraint.Result           `json:"constraint_result,omitempty"`
	Statistics       *Statistics                  `json:"statistics"`
	Duration         time.Duration                `json:"duration"`
	Message          string                       `json:"message,omitempty"`
}

// Feasible 检查结局是否可行
func (o *Outcome) Feasible() bool {
	return o.Status == StatusFeasible
}

// Solver 求解器接口
type Solver interface {
	// Solve 在限制内求解模型
	Solve(ctx context.Context, m *Model, limits Limits) (*Outcome, error)

	// Name 返回求解器名称
	Name() string
}
