// Package model 定义轮班计划引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 标准轮换班次代码：早班/晚班/夜班
const (
	CodeEarly = "F" // 早班 06:00-14:00
	CodeLate  = "S" // 晚班 14:00-22:00
	CodeNight = "N" // 夜班 22:00-06:00
)

// Staffing 单日人数上下限
type Staffing struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ShiftType 班次类型定义
type ShiftType struct {
	BaseModel
	OrgID     uuid.UUID `json:"org_id" db:"org_id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	StartTime string    `json:"start_time" db:"start_time"` // HH:MM
	EndTime   string    `json:"end_time" db:"end_time"`     // HH:MM

	// WeeklyTargetHours 每周目标工时（软约束参考值）
	WeeklyTargetHours float64 `json:"weekly_target_hours" db:"weekly_target_hours"`

	// 人数上下限按工作日/周末分列
	Weekday Staffing `json:"weekday" db:"-"`
	Weekend Staffing `json:"weekend" db:"-"`

	// ActiveDays 每周各天是否开班（索引为 time.Weekday）
	ActiveDays [7]bool `json:"active_days" db:"-"`

	// MaxConsecutiveDays 该班次允许的最大连续工作天数
	MaxConsecutiveDays int `json:"max_consecutive_days" db:"max_consecutive_days"`

	IsNight bool `json:"is_night" db:"is_night"`
}

// DurationHours 返回班次时长（小时），支持跨日班次
func (s *ShiftType) DurationHours() float64 {
	start, err1 := time.Parse("15:04", s.StartTime)
	end, err2 := time.Parse("15:04", s.EndTime)
	if err1 != nil || err2 != nil {
		return 0
	}
	d := end.Sub(start)
	if d <= 0 {
		d += 24 * time.Hour
	}
	return d.Hours()
}

// WindowOn 返回班次在指定日期的实际时间窗口（跨日班次结束于次日）
func (s *ShiftType) WindowOn(date string) TimeRange {
	day, err := ParseDate(date)
	if err != nil {
		return TimeRange{}
	}
	start := onDate(day, s.StartTime)
	end := onDate(day, s.EndTime)
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return TimeRange{Start: start, End: end}
}

// StaffingOn 返回班次在指定日期的人数上下限
func (s *ShiftType) StaffingOn(date string) Staffing {
	if IsWeekend(date) {
		return s.Weekend
	}
	return s.Weekday
}

// ActiveOn 检查班次在指定日期是否开班
func (s *ShiftType) ActiveOn(date string) bool {
	return s.ActiveDays[Weekday(date)]
}

func onDate(day time.Time, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return day
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
}

// Catalog 班次类型目录。
//
// 目录是不可变的显式配置对象，构建后传入变量工厂，
// 不以进程级全局状态存在。
type Catalog struct {
	types     map[string]*ShiftType
	order     []string
	canonical []string
}

// NewCatalog 创建班次目录。canonical 为标准轮换代码集，
// 用于空白名单班组和机动池员工的能力回退。
func NewCatalog(types []*ShiftType, canonical []string) (*Catalog, error) {
	c := &Catalog{
		types: make(map[string]*ShiftType, len(types)),
	}
	for _, st := range types {
		if _, ok := c.types[st.Code]; ok {
			return nil, fmt.Errorf("班次代码重复: %s", st.Code)
		}
		c.types[st.Code] = st
		c.order = append(c.order, st.Code)
	}
	for _, code := range canonical {
		if _, ok := c.types[code]; !ok {
			return nil, fmt.Errorf("标准轮换代码未在目录中定义: %s", code)
		}
	}
	c.canonical = make([]string, len(canonical))
	copy(c.canonical, canonical)
	return c, nil
}

// Get 获取班次类型（不存在返回 nil）
func (c *Catalog) Get(code string) *ShiftType {
	return c.types[code]
}

// Has 检查班次代码是否存在
func (c *Catalog) Has(code string) bool {
	_, ok := c.types[code]
	return ok
}

// Codes 返回目录中全部班次代码（定义顺序）
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Types 返回目录中全部班次类型（定义顺序）
func (c *Catalog) Types() []*ShiftType {
	out := make([]*ShiftType, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.types[code])
	}
	return out
}

// CanonicalRotation 返回标准轮换代码集
func (c *Catalog) CanonicalRotation() []string {
	out := make([]string, len(c.canonical))
	copy(out, c.canonical)
	return out
}

// DefaultCatalog 返回标准三班倒目录（早/晚/夜）
func DefaultCatalog() *Catalog {
	allWeek := [7]bool{true, true, true, true, true, true, true}
	types := []*ShiftType{
		{
			Code: CodeEarly, Name: "早班", StartTime: "06:00", EndTime: "14:00",
			WeeklyTargetHours:  40,
			Weekday:            Staffing{Min: 2, Max: 8},
			Weekend:            Staffing{Min: 1, Max: 3},
			ActiveDays:         allWeek,
			MaxConsecutiveDays: 6,
		},
		{
			Code: CodeLate, Name: "晚班", StartTime: "14:00", EndTime: "22:00",
			WeeklyTargetHours:  40,
			Weekday:            Staffing{Min: 2, Max: 6},
			Weekend:            Staffing{Min: 1, Max: 3},
			ActiveDays:         allWeek,
			MaxConsecutiveDays: 6,
		},
		{
			Code: CodeNight, Name: "夜班", StartTime: "22:00", EndTime: "06:00",
			WeeklyTargetHours:  40,
			Weekday:            Staffing{Min: 2, Max: 4},
			Weekend:            Staffing{Min: 1, Max: 3},
			ActiveDays:         allWeek,
			MaxConsecutiveDays: 5,
			IsNight:            true,
		},
	}
	catalog, err := NewCatalog(types, []string{CodeEarly, CodeLate, CodeNight})
	if err != nil {
		panic(err) // 内置目录定义错误属于编程错误
	}
	return catalog
}
