// Package calendar 提供计划窗口的周切分。
//
// 周规则（轮换、目标工时、周值班）只在完整自然周上有意义，
// 因此请求区间向外扩展到完整的周一至周日。未完全落在原始
// 请求区间内的周标记为边界周：该周的轮换决策归相邻一次求解
// 所有，本次求解不得对其施加班组级锁定。
package calendar

import (
	"time"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
)

// DaysPerWeek 每周天数
const DaysPerWeek = 7

// Week 自然周（周一至周日）
type Week struct {
	Start    string   `json:"start"` // 周一日期
	Dates    []string `json:"dates"` // 7个连续日期
	Boundary bool     `json:"boundary"`
}

// Contains 检查日期是否在本周内
func (w *Week) Contains(date string) bool {
	return date >= w.Dates[0] && date <= w.Dates[DaysPerWeek-1]
}

// WeekdayDates 返回本周的工作日日期（周一至周五）
func (w *Week) WeekdayDates() []string {
	return w.Dates[:5]
}

// WeekendDates 返回本周的周末日期（周六、周日）
func (w *Week) WeekendDates() []string {
	return w.Dates[5:]
}

// Window 扩展后的计划窗口
type Window struct {
	RequestedStart string   `json:"requested_start"`
	RequestedEnd   string   `json:"requested_end"`
	Start          string   `json:"start"` // 扩展后起点（周一）
	End            string   `json:"end"`   // 扩展后终点（周日）
	Dates          []string `json:"dates"`
	Weeks          []*Week  `json:"weeks"`

	weekIndex map[string]int
}

// Segment 将请求区间切分为完整自然周。
// 起点向前扩展到周一，终点向后扩展到周日；首尾周若超出
// 原始请求区间则标记为边界周。
func Segment(start, end string) (*Window, error) {
	startDay, err := model.ParseDate(start)
	if err != nil {
		return nil, errors.InvalidWindow(start, end, "起始日期格式错误").WithCause(err)
	}
	endDay, err := model.ParseDate(end)
	if err != nil {
		return nil, errors.InvalidWindow(start, end, "结束日期格式错误").WithCause(err)
	}
	if endDay.Before(startDay) {
		return nil, errors.InvalidWindow(start, end, "结束日期早于起始日期")
	}

	extStart := backToMonday(startDay)
	extEnd := forwardToSunday(endDay)

	w := &Window{
		RequestedStart: start,
		RequestedEnd:   end,
		Start:          model.FormatDate(extStart),
		End:            model.FormatDate(extEnd),
		weekIndex:      make(map[string]int),
	}

	for day := extStart; !day.After(extEnd); day = day.AddDate(0, 0, 1) {
		w.Dates = append(w.Dates, model.FormatDate(day))
	}

	for i := 0; i < len(w.Dates); i += DaysPerWeek {
		week := &Week{
			Start: w.Dates[i],
			Dates: w.Dates[i : i+DaysPerWeek],
		}
		idx := len(w.Weeks)
		for _, d := range week.Dates {
			w.weekIndex[d] = idx
		}
		w.Weeks = append(w.Weeks, week)
	}

	// 首周起点早于请求起点、末周终点晚于请求终点时为边界周
	if w.Start < start {
		w.Weeks[0].Boundary = true
	}
	if w.End > end {
		w.Weeks[len(w.Weeks)-1].Boundary = true
	}

	return w, nil
}

// WeekIndexOf 返回日期所属周的下标
func (w *Window) WeekIndexOf(date string) (int, bool) {
	idx, ok := w.weekIndex[date]
	return idx, ok
}

// WeekOf 返回日期所属周（窗口外返回 nil）
func (w *Window) WeekOf(date string) *Week {
	idx, ok := w.weekIndex[date]
	if !ok {
		return nil
	}
	return w.Weeks[idx]
}

// WeekStartOf 返回日期所属周的周一日期
func (w *Window) WeekStartOf(date string) (string, bool) {
	idx, ok := w.weekIndex[date]
	if !ok {
		return "", false
	}
	return w.Weeks[idx].Start, true
}

// Contains 检查日期是否在扩展窗口内
func (w *Window) Contains(date string) bool {
	_, ok := w.weekIndex[date]
	return ok
}

// IsBoundaryWeek 检查周一日期对应的周是否为边界周
func (w *Window) IsBoundaryWeek(weekStart string) bool {
	idx, ok := w.weekIndex[weekStart]
	if !ok {
		return false
	}
	return w.Weeks[idx].Boundary
}

func backToMonday(day time.Time) time.Time {
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

func forwardToSunday(day time.Time) time.Time {
	for day.Weekday() != time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}
