package model

import "testing"

func TestIsWeekend(t *testing.T) {
	tests := []struct {
		name string
		date string
		want bool
	}{
		{"周一不是周末", "2025-03-03", false},
		{"周五不是周末", "2025-03-07", false},
		{"周六是周末", "2025-03-08", true},
		{"周日是周末", "2025-03-09", true},
		{"非法日期按工作日处理", "not-a-date", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWeekend(tt.date); got != tt.want {
				t.Errorf("IsWeekend(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		name string
		date string
		days int
		want string
	}{
		{"加一天", "2025-03-03", 1, "2025-03-04"},
		{"减一天", "2025-03-03", -1, "2025-03-02"},
		{"跨月", "2025-02-28", 1, "2025-03-01"},
		{"跨年", "2024-12-31", 1, "2025-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddDays(tt.date, tt.days); got != tt.want {
				t.Errorf("AddDays(%s, %d) = %s, want %s", tt.date, tt.days, got, tt.want)
			}
		})
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{StartDate: "2025-03-01", EndDate: "2025-03-07"}

	if !r.Contains("2025-03-01") {
		t.Error("起始日期应包含在范围内")
	}
	if !r.Contains("2025-03-07") {
		t.Error("结束日期应包含在范围内（闭区间）")
	}
	if r.Contains("2025-03-08") {
		t.Error("范围外日期不应包含")
	}
}
