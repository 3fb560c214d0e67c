package model

import (
	"testing"
	"time"
)

func TestShiftTypeDurationHours(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  float64
	}{
		{"早班8小时", "06:00", "14:00", 8},
		{"晚班8小时", "14:00", "22:00", 8},
		{"跨日夜班8小时", "22:00", "06:00", 8},
		{"跨日12小时", "20:00", "08:00", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &ShiftType{StartTime: tt.start, EndTime: tt.end}
			if got := s.DurationHours(); got != tt.want {
				t.Errorf("DurationHours() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShiftTypeWindowOn(t *testing.T) {
	night := &ShiftType{Code: CodeNight, StartTime: "22:00", EndTime: "06:00"}
	w := night.WindowOn("2025-03-03")

	if w.Start.Hour() != 22 {
		t.Errorf("夜班开始时间应为22点, got %d", w.Start.Hour())
	}
	if w.End.Day() != w.Start.Day()+1 {
		t.Error("跨日班次应结束于次日")
	}
	if w.Duration() != 8*time.Hour {
		t.Errorf("夜班时长应为8小时, got %v", w.Duration())
	}
}

func TestShiftTypeStaffingOn(t *testing.T) {
	s := &ShiftType{
		Weekday: Staffing{Min: 4, Max: 8},
		Weekend: Staffing{Min: 2, Max: 3},
	}

	// 2025-03-03 周一, 2025-03-08 周六
	if got := s.StaffingOn("2025-03-03"); got.Min != 4 || got.Max != 8 {
		t.Errorf("工作日人数限制错误: %+v", got)
	}
	if got := s.StaffingOn("2025-03-08"); got.Min != 2 || got.Max != 3 {
		t.Errorf("周末人数限制错误: %+v", got)
	}
}

func TestNewCatalog(t *testing.T) {
	tests := []struct {
		name      string
		types     []*ShiftType
		canonical []string
		wantErr   bool
	}{
		{
			name: "正常目录",
			types: []*ShiftType{
				{Code: "F"}, {Code: "S"}, {Code: "N"},
			},
			canonical: []string{"F", "S", "N"},
			wantErr:   false,
		},
		{
			name: "重复代码应失败",
			types: []*ShiftType{
				{Code: "F"}, {Code: "F"},
			},
			canonical: []string{"F"},
			wantErr:   true,
		},
		{
			name: "标准代码缺失应失败",
			types: []*ShiftType{
				{Code: "F"},
			},
			canonical: []string{"F", "N"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.types, tt.canonical)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewCatalog() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	for _, code := range []string{CodeEarly, CodeLate, CodeNight} {
		if !c.Has(code) {
			t.Errorf("默认目录缺少班次 %s", code)
		}
	}

	if !c.Get(CodeNight).IsNight {
		t.Error("夜班应标记为 IsNight")
	}
	if c.Get(CodeNight).MaxConsecutiveDays >= c.Get(CodeEarly).MaxConsecutiveDays {
		t.Error("夜班连续天数上限应比早班更严格")
	}
}
