package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewRosterAllowedCodesFallback(t *testing.T) {
	catalog := DefaultCatalog()

	explicit := &Team{BaseModel: NewBaseModel(), Name: "甲组", Code: "T1", AllowedCodes: []string{"F", "S"}}
	empty := &Team{BaseModel: NewBaseModel(), Name: "乙组", Code: "T2"}

	r := NewRoster([]*Team{explicit, empty}, nil, catalog)

	if got := r.AllowedCodes(explicit.ID); len(got) != 2 || got[0] != "F" || got[1] != "S" {
		t.Errorf("显式白名单应原样保留, got %v", got)
	}
	if got := r.AllowedCodes(empty.ID); len(got) != 3 {
		t.Errorf("空白名单应回退到标准轮换代码集, got %v", got)
	}
	if !r.TeamPermits(explicit.ID, "S") {
		t.Error("甲组应允许班次 S")
	}
	if r.TeamPermits(explicit.ID, "N") {
		t.Error("甲组不应允许班次 N")
	}
}

func TestRosterMembership(t *testing.T) {
	catalog := DefaultCatalog()
	team := &Team{BaseModel: NewBaseModel(), Name: "甲组", Code: "T1"}

	member := &Employee{BaseModel: NewBaseModel(), Name: "张三", Code: "E001", TeamID: &team.ID, Employment: EmploymentRegular, Status: "active"}
	pooled := &Employee{BaseModel: NewBaseModel(), Name: "李四", Code: "E002", Employment: EmploymentRegular, Status: "active"}

	r := NewRoster([]*Team{team}, []*Employee{member, pooled}, catalog)

	if len(r.Members(team.ID)) != 1 {
		t.Errorf("班组成员数应为1, got %d", len(r.Members(team.ID)))
	}
	if len(r.Pool()) != 1 {
		t.Errorf("机动池员工数应为1, got %d", len(r.Pool()))
	}
	if !pooled.IsPooled() {
		t.Error("无班组归属员工应判定为机动池")
	}

	// 机动池员工使用标准轮换代码集
	if got := r.PermittedCodes(pooled, catalog); len(got) != 3 {
		t.Errorf("机动池员工可承担代码集应为标准集, got %v", got)
	}
}

func TestAbsenceSet(t *testing.T) {
	empID := uuid.New()
	set := NewAbsenceSet([]*Absence{
		{EmployeeID: empID, Category: AbsenceVacation, StartDate: "2025-03-10", EndDate: "2025-03-16"},
	})

	if !set.IsAbsent(empID, "2025-03-10") {
		t.Error("起始日期应判定为缺勤")
	}
	if !set.IsAbsent(empID, "2025-03-16") {
		t.Error("结束日期应判定为缺勤（闭区间）")
	}
	if set.IsAbsent(empID, "2025-03-17") {
		t.Error("区间外日期不应判定为缺勤")
	}
	if set.IsAbsent(uuid.New(), "2025-03-10") {
		t.Error("其他员工不应判定为缺勤")
	}
	if !set.AbsentAny(empID, []string{"2025-03-09", "2025-03-10"}) {
		t.Error("日期组中含缺勤日应返回 true")
	}
}
