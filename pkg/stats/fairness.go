// Package stats 提供排班公平性统计分析
package stats

import (
	"math"
	"sort"
)

// Counts 员工负担计数（周末班/夜班/节假日班/周值班）
type Counts struct {
	Weekend int     `json:"weekend"`
	Night   int     `json:"night"`
	Holiday int     `json:"holiday"`
	Duty    int     `json:"duty"`
	Hours   float64 `json:"hours"`
}

// Add 叠加计数（用于叠加年初至今历史负担）
func (c Counts) Add(other Counts) Counts {
	return Counts{
		Weekend: c.Weekend + other.Weekend,
		Night:   c.Night + other.Night,
		Holiday: c.Holiday + other.Holiday,
		Duty:    c.Duty + other.Duty,
		Hours:   c.Hours + other.Hours,
	}
}

// EmployeeStat 员工级公平性统计
type EmployeeStat struct {
	EmployeeID string  `json:"employee_id"`
	Name       string  `json:"name"`
	Counts     Counts  `json:"counts"`
	Deviation  float64 `json:"deviation"` // 工时与平均值的偏差百分比
}

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	WeekendGini float64 `json:"weekend_gini"` // 0=完全公平, 1=完全不公平
	NightGini   float64 `json:"night_gini"`
	HolidayGini float64 `json:"holiday_gini"`
	HoursStdDev float64 `json:"hours_std_dev"`
	AvgHours    float64 `json:"avg_hours"`

	EmployeeStats []EmployeeStat `json:"employee_stats"`

	// OverallScore 综合公平性评分 (0-100)
	OverallScore float64 `json:"overall_score"`
}

// Analyzer 公平性分析器
type Analyzer struct{}

// NewAnalyzer 创建公平性分析器
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze 根据员工计数计算公平性指标。
// names 按员工ID给出显示名，可为 nil。
func (a *Analyzer) Analyze(counts map[string]Counts, names map[string]string) *FairnessMetrics {
	m := &FairnessMetrics{}
	if len(counts) == 0 {
		m.OverallScore = 100
		return m
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	weekend := make([]float64, 0, len(ids))
	night := make([]float64, 0, len(ids))
	holiday := make([]float64, 0, len(ids))
	hours := make([]float64, 0, len(ids))

	for _, id := range ids {
		c := counts[id]
		weekend = append(weekend, float64(c.Weekend))
		night = append(night, float64(c.Night))
		holiday = append(holiday, float64(c.Holiday))
		hours = append(hours, c.Hours)
	}

	m.WeekendGini = Gini(weekend)
	m.NightGini = Gini(night)
	m.HolidayGini = Gini(holiday)
	m.AvgHours = Mean(hours)
	m.HoursStdDev = StdDev(hours)

	for _, id := range ids {
		c := counts[id]
		deviation := 0.0
		if m.AvgHours > 0 {
			deviation = (c.Hours - m.AvgHours) / m.AvgHours * 100
		}
		m.EmployeeStats = append(m.EmployeeStats, EmployeeStat{
			EmployeeID: id,
			Name:       names[id],
			Counts:     c,
			Deviation:  deviation,
		})
	}

	// 综合评分：三个基尼系数的均值映射到 0-100
	avgGini := (m.WeekendGini + m.NightGini + m.HolidayGini) / 3
	m.OverallScore = 100 * (1 - avgGini)

	return m
}

// Gini 计算基尼系数（0=完全公平，1=完全不公平）
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}

	return (2*weighted - float64(n+1)*sum) / (float64(n) * sum)
}

// Mean 计算平均值
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev 计算标准差
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// Spread 计算整数序列的极差（公平性惩罚基准）
func Spread(values []int) int {
	if len(values) == 0 {
		return 0
	}
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return maxV - minV
}
