package variables

import (
	"testing"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan/calendar"
)

func TestBoolVarFix(t *testing.T) {
	tests := []struct {
		name    string
		first   bool
		second  bool
		wantErr bool
	}{
		{"重复固定相同值", true, true, false},
		{"固定值矛盾", true, false, true},
		{"固定假后再固定真", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &BoolVar{kind: KindTeamWeek}
			if err := v.Fix(tt.first); err != nil {
				t.Fatalf("首次固定不应失败: %v", err)
			}
			err := v.Fix(tt.second)
			if (err != nil) != tt.wantErr {
				t.Errorf("Fix() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBoolVarAssign(t *testing.T) {
	v := &BoolVar{kind: KindWeekdayActive}
	if !v.Assign(true) {
		t.Error("自由变量赋值应成功")
	}

	fixed := &BoolVar{kind: KindWeekdayActive}
	_ = fixed.Fix(false)
	if fixed.Assign(true) {
		t.Error("已固定变量不应接受相反赋值")
	}
	if !fixed.Assign(false) {
		t.Error("与固定值一致的赋值应视为成功")
	}
}

func TestFactoryBuild(t *testing.T) {
	catalog := model.DefaultCatalog()
	team := &model.Team{BaseModel: model.NewBaseModel(), Name: "甲组", Code: "T1"}

	member := newEmployee("E001", &team.ID, model.EmploymentRegular, true)
	temp := newEmployee("E002", &team.ID, model.EmploymentTemporary, false)
	pooled := newEmployee("E003", nil, model.EmploymentRegular, false)

	roster := model.NewRoster([]*model.Team{team}, []*model.Employee{member, temp, pooled}, catalog)

	// 恰好一周：2024-12-30 至 2025-01-05
	window, err := calendar.Segment("2024-12-30", "2025-01-05")
	if err != nil {
		t.Fatalf("Segment() 失败: %v", err)
	}

	pool, err := NewFactory(window, roster, catalog, model.NewAbsenceSet(nil)).Build()
	if err != nil {
		t.Fatalf("Build() 失败: %v", err)
	}

	// 班组周变量：1组 × 1周 × 3代码
	key := model.TeamWeekKey{TeamID: team.ID, WeekStart: "2024-12-30"}
	if got := len(pool.TeamWeek[key]); got != 3 {
		t.Errorf("班组周变量组大小 = %d, want 3", got)
	}

	// 正式班组成员有工作日/周末变量，临时工和机动池没有
	memberMonday := model.EmployeeDayKey{EmployeeID: member.ID, Date: "2024-12-30"}
	if _, ok := pool.WeekdayActive[memberMonday]; !ok {
		t.Error("正式班组成员应有工作日在岗变量")
	}
	tempMonday := model.EmployeeDayKey{EmployeeID: temp.ID, Date: "2024-12-30"}
	if _, ok := pool.WeekdayActive[tempMonday]; ok {
		t.Error("临时员工不参与轮换，不应有工作日在岗变量")
	}
	pooledSat := model.EmployeeDayKey{EmployeeID: pooled.ID, Date: "2025-01-04"}
	if _, ok := pool.WeekendPresent[pooledSat]; ok {
		t.Error("机动池员工不应有周末到岗变量")
	}

	// 跨班组变量覆盖所有在职员工
	if _, ok := pool.CrossTeam[tempMonday]; !ok {
		t.Error("临时员工应有跨班组补位变量")
	}
	if _, ok := pool.CrossTeam[pooledSat]; !ok {
		t.Error("机动池员工应有跨班组补位变量")
	}

	// 周值班变量仅限具备资格的正式员工
	if _, ok := pool.DayDuty[EmployeeWeekKey{EmployeeID: member.ID, WeekStart: "2024-12-30"}]; !ok {
		t.Error("具备资格的正式员工应有周值班变量")
	}
	if _, ok := pool.DayDuty[EmployeeWeekKey{EmployeeID: temp.ID, WeekStart: "2024-12-30"}]; ok {
		t.Error("无资格员工不应有周值班变量")
	}
}

func TestFactoryBuildAbsenceForcing(t *testing.T) {
	catalog := model.DefaultCatalog()
	team := &model.Team{BaseModel: model.NewBaseModel(), Name: "甲组", Code: "T1"}
	member := newEmployee("E001", &team.ID, model.EmploymentRegular, true)
	roster := model.NewRoster([]*model.Team{team}, []*model.Employee{member}, catalog)

	window, err := calendar.Segment("2024-12-30", "2025-01-05")
	if err != nil {
		t.Fatalf("Segment() 失败: %v", err)
	}

	absences := model.NewAbsenceSet([]*model.Absence{
		{EmployeeID: member.ID, Category: model.AbsenceSick, StartDate: "2024-12-31", EndDate: "2025-01-01"},
	})

	pool, err := NewFactory(window, roster, catalog, absences).Build()
	if err != nil {
		t.Fatalf("Build() 失败: %v", err)
	}

	absentDay := model.EmployeeDayKey{EmployeeID: member.ID, Date: "2024-12-31"}
	v := pool.WeekdayActive[absentDay]
	if !v.Fixed() || v.Value() {
		t.Error("缺勤日在岗变量应固定为假")
	}
	for code, cv := range pool.CrossTeam[absentDay] {
		if !cv.Fixed() || cv.Value() {
			t.Errorf("缺勤日跨组变量 %s 应固定为假", code)
		}
	}

	// 周内有缺勤则周值班变量固定为假
	duty := pool.DayDuty[EmployeeWeekKey{EmployeeID: member.ID, WeekStart: "2024-12-30"}]
	if !duty.Fixed() || duty.Value() {
		t.Error("周内有缺勤的员工值班变量应固定为假")
	}

	// 非缺勤日变量保持自由
	freeDay := model.EmployeeDayKey{EmployeeID: member.ID, Date: "2025-01-02"}
	if pool.WeekdayActive[freeDay].Fixed() {
		t.Error("非缺勤日变量不应被固定")
	}
}

func TestFactoryBuildUnknownCode(t *testing.T) {
	catalog := model.DefaultCatalog()
	team := &model.Team{BaseModel: model.NewBaseModel(), Name: "甲组", Code: "T1", AllowedCodes: []string{"F", "X"}}
	roster := model.NewRoster([]*model.Team{team}, nil, catalog)

	window, err := calendar.Segment("2024-12-30", "2025-01-05")
	if err != nil {
		t.Fatalf("Segment() 失败: %v", err)
	}

	if _, err := NewFactory(window, roster, catalog, model.NewAbsenceSet(nil)).Build(); err == nil {
		t.Fatal("引用未知班次代码应构建失败")
	}
}

func TestPoolFixTeamWeekCode(t *testing.T) {
	catalog := model.DefaultCatalog()
	team := &model.Team{BaseModel: model.NewBaseModel(), Name: "甲组", Code: "T1"}
	roster := model.NewRoster([]*model.Team{team}, nil, catalog)

	window, _ := calendar.Segment("2024-12-30", "2025-01-05")
	pool, err := NewFactory(window, roster, catalog, model.NewAbsenceSet(nil)).Build()
	if err != nil {
		t.Fatalf("Build() 失败: %v", err)
	}

	key := model.TeamWeekKey{TeamID: team.ID, WeekStart: "2024-12-30"}
	if err := pool.FixTeamWeekCode(key, "F"); err != nil {
		t.Fatalf("固定班组周锁失败: %v", err)
	}

	group := pool.TeamWeek[key]
	if !group["F"].Value() || !group["F"].Fixed() {
		t.Error("锁定代码应固定为真")
	}
	if group["S"].Value() || group["N"].Value() {
		t.Error("同组其余代码应固定为假")
	}

	// 同键再锁不同代码必须冲突
	if err := pool.FixTeamWeekCode(key, "N"); err == nil {
		t.Error("矛盾的二次锁定应报错")
	}

	// 不在允许集内的代码属于输入错误
	if err := pool.FixTeamWeekCode(key, "X"); err == nil {
		t.Error("未知代码锁定应报错")
	}
}

func newEmployee(code string, teamID *uuid.UUID, et model.EmploymentType, qualified bool) *model.Employee {
	return &model.Employee{
		BaseModel:        model.NewBaseModel(),
		Name:             "员工" + code,
		Code:             code,
		TeamID:           teamID,
		Employment:       et,
		Status:           "active",
		DayDutyQualified: qualified,
	}
}
