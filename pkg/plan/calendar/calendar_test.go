package calendar

import (
	"testing"

	"github.com/lunban/lunban/pkg/errors"
)

func TestSegmentExtension(t *testing.T) {
	tests := []struct {
		name       string
		start      string
		end        string
		wantStart  string
		wantEnd    string
		wantWeeks  int
		firstBound bool
		lastBound  bool
	}{
		{
			// 2025-03-01 周六 → 前推到 2025-02-24 周一
			// 2025-03-31 周一 → 后推到 2025-04-06 周日
			name:       "三月整月前后都需扩展",
			start:      "2025-03-01",
			end:        "2025-03-31",
			wantStart:  "2025-02-24",
			wantEnd:    "2025-04-06",
			wantWeeks:  6,
			firstBound: true,
			lastBound:  true,
		},
		{
			// 2025-09-01 恰为周一
			name:       "起点恰为周一仅尾部扩展",
			start:      "2025-09-01",
			end:        "2025-09-30",
			wantStart:  "2025-09-01",
			wantEnd:    "2025-10-05",
			wantWeeks:  5,
			firstBound: false,
			lastBound:  true,
		},
		{
			// 2024-12-30 周一 至 2025-01-05 周日：恰好一周
			name:       "恰好完整一周无边界",
			start:      "2024-12-30",
			end:        "2025-01-05",
			wantStart:  "2024-12-30",
			wantEnd:    "2025-01-05",
			wantWeeks:  1,
			firstBound: false,
			lastBound:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Segment(tt.start, tt.end)
			if err != nil {
				t.Fatalf("Segment() 失败: %v", err)
			}
			if w.Start != tt.wantStart {
				t.Errorf("扩展起点 = %s, want %s", w.Start, tt.wantStart)
			}
			if w.End != tt.wantEnd {
				t.Errorf("扩展终点 = %s, want %s", w.End, tt.wantEnd)
			}
			if len(w.Weeks) != tt.wantWeeks {
				t.Errorf("周数 = %d, want %d", len(w.Weeks), tt.wantWeeks)
			}
			if w.Weeks[0].Boundary != tt.firstBound {
				t.Errorf("首周边界标记 = %v, want %v", w.Weeks[0].Boundary, tt.firstBound)
			}
			if w.Weeks[len(w.Weeks)-1].Boundary != tt.lastBound {
				t.Errorf("末周边界标记 = %v, want %v", w.Weeks[len(w.Weeks)-1].Boundary, tt.lastBound)
			}
			if len(w.Dates) != tt.wantWeeks*DaysPerWeek {
				t.Errorf("日期总数 = %d, want %d", len(w.Dates), tt.wantWeeks*DaysPerWeek)
			}
		})
	}
}

func TestSegmentInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"起始日期非法", "2025-13-01", "2025-03-31"},
		{"结束日期非法", "2025-03-01", "bad"},
		{"结束早于起始", "2025-03-31", "2025-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Segment(tt.start, tt.end)
			if err == nil {
				t.Fatal("应返回错误")
			}
			if !errors.Is(err, errors.CodeInvalidWindow) {
				t.Errorf("错误码应为 INVALID_WINDOW, got %v", errors.GetCode(err))
			}
		})
	}
}

func TestWindowWeekIndex(t *testing.T) {
	w, err := Segment("2025-03-01", "2025-03-31")
	if err != nil {
		t.Fatalf("Segment() 失败: %v", err)
	}

	// 2025-03-05 周三，属于 2025-03-03 开始的那一周
	start, ok := w.WeekStartOf("2025-03-05")
	if !ok || start != "2025-03-03" {
		t.Errorf("WeekStartOf(2025-03-05) = %s, %v", start, ok)
	}

	idx, ok := w.WeekIndexOf("2025-02-24")
	if !ok || idx != 0 {
		t.Errorf("扩展起点应属于第0周, got %d, %v", idx, ok)
	}

	if _, ok := w.WeekIndexOf("2025-04-07"); ok {
		t.Error("窗口外日期不应有周下标")
	}

	if !w.IsBoundaryWeek("2025-02-24") {
		t.Error("首周应为边界周")
	}
	if w.IsBoundaryWeek("2025-03-03") {
		t.Error("完整落在请求区间内的周不应为边界周")
	}
}

func TestWeekDateSplit(t *testing.T) {
	w, err := Segment("2024-12-30", "2025-01-05")
	if err != nil {
		t.Fatalf("Segment() 失败: %v", err)
	}

	week := w.Weeks[0]
	if got := week.WeekdayDates(); len(got) != 5 || got[0] != "2024-12-30" || got[4] != "2025-01-03" {
		t.Errorf("工作日切分错误: %v", got)
	}
	if got := week.WeekendDates(); len(got) != 2 || got[0] != "2025-01-04" || got[1] != "2025-01-05" {
		t.Errorf("周末切分错误: %v", got)
	}
}
