package builtin

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/constraint"
	"github.com/lunban/lunban/pkg/stats"
)

// FairnessConstraint 公平性约束（软）：
// 周末班、夜班、节假日班、值班次数与总工时在员工间
// 的分布越均衡越好。可注入历史累计量，使新窗口的
// 求解向历史欠账的员工倾斜。
type FairnessConstraint struct {
	*BaseConstraint
	analyzer *stats.Analyzer
	history  map[uuid.UUID]stats.Counts
}

// NewFairnessConstraint 创建公平性约束。history 可为 nil。
func NewFairnessConstraint(weight int, history map[uuid.UUID]stats.Counts) *FairnessConstraint {
	return &FairnessConstraint{
		BaseConstraint: NewBaseConstraint(
			"公平性",
			constraint.TypeFairness,
			constraint.CategorySoft,
			weight,
		),
		analyzer: stats.NewAnalyzer(),
		history:  history,
	}
}

// Evaluate 评估候选解
func (c *FairnessConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	counts := make(map[string]stats.Counts)
	names := make(map[string]string)

	for _, emp := range ctx.Roster.Employees {
		if !emp.IsActive() || !emp.IsRegular() {
			continue
		}
		acc := c.history[emp.ID].Add(c.windowCounts(ctx, emp))
		counts[emp.ID.String()] = acc
		names[emp.ID.String()] = emp.Name
	}
	if len(counts) < 2 {
		return true, 0, nil
	}

	metrics := c.analyzer.Analyze(counts, names)
	penalty := c.Weight() * int(math.Round(100-metrics.OverallScore))
	if penalty <= 0 {
		return true, 0, nil
	}

	v := c.violation(
		fmt.Sprintf("负担分布不均衡，公平性得分 %.1f", metrics.OverallScore),
		penalty,
	)
	v.Expected = "100.0"
	v.Actual = fmt.Sprintf("%.1f", metrics.OverallScore)
	return false, penalty, []constraint.ViolationDetail{v}
}

// windowCounts 统计员工在本窗口内的负担量
func (c *FairnessConstraint) windowCounts(ctx *constraint.Context, emp *model.Employee) stats.Counts {
	var out stats.Counts
	for _, a := range ctx.EmployeeAssignments(emp.ID) {
		st := ctx.Catalog.Get(a.ShiftCode)
		if st == nil {
			continue
		}
		out.Hours += st.DurationHours()
		if model.IsWeekend(a.Date) {
			out.Weekend++
		}
		if st.IsNight {
			out.Night++
		}
		if ctx.Defaults.IsHoliday(a.Date) {
			out.Holiday++
		}
	}
	for _, week := range ctx.Window.Weeks {
		if ctx.HasDuty(emp.ID, week.Start) {
			out.Duty++
		}
	}
	return out
}
