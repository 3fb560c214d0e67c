// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
)

// PlanRepository 排班结果仓储。
// 写入总是整窗口替换：先清除窗口内旧的求解产物再插入，
// 锁定事实不在此表中，不受替换影响。
type PlanRepository struct {
	db DB
}

// NewPlanRepository 创建排班结果仓储。
// 需要事务语义时传入事务句柄作为 db。
func NewPlanRepository(db DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// ReplaceWindow 以新求解结果替换窗口内的排班记录与值班指派
func (r *PlanRepository) ReplaceWindow(ctx context.Context, orgID uuid.UUID, start, end string, assignments []*model.Assignment, duties []*model.DayDuty) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM assignments WHERE org_id = $1 AND date >= $2 AND date <= $3`,
		orgID, start, end,
	); err != nil {
		return fmt.Errorf("清除旧排班记录失败: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM day_duties WHERE org_id = $1 AND week_start >= $2 AND week_start <= $3`,
		orgID, start, end,
	); err != nil {
		return fmt.Errorf("清除旧值班指派失败: %w", err)
	}

	now := time.Now()

	insertAssignment := `
		INSERT INTO assignments (id, org_id, employee_id, team_id, date, shift_code, origin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, a := range assignments {
		id := a.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := r.db.ExecContext(ctx, insertAssignment,
			id, orgID, a.EmployeeID, a.TeamID, a.Date, a.ShiftCode, a.Origin, now, now,
		); err != nil {
			return fmt.Errorf("写入排班记录失败: %w", err)
		}
	}

	insertDuty := `
		INSERT INTO day_duties (id, org_id, employee_id, week_start, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, d := range duties {
		id := d.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := r.db.ExecContext(ctx, insertDuty,
			id, orgID, d.EmployeeID, d.WeekStart, now, now,
		); err != nil {
			return fmt.Errorf("写入值班指派失败: %w", err)
		}
	}

	return nil
}

// ListAssignments 查询窗口内的排班记录
func (r *PlanRepository) ListAssignments(ctx context.Context, orgID uuid.UUID, start, end string) ([]*model.Assignment, error) {
	query := `
		SELECT id, org_id, employee_id, team_id, date, shift_code, origin, created_at, updated_at
		FROM assignments
		WHERE org_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, shift_code, employee_id
	`

	rows, err := r.db.QueryContext(ctx, query, orgID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询排班记录失败: %w", err)
	}
	defer rows.Close()

	var assignments []*model.Assignment
	for rows.Next() {
		a := &model.Assignment{}
		err := rows.Scan(
			&a.ID, &a.OrgID, &a.EmployeeID, &a.TeamID, &a.Date, &a.ShiftCode, &a.Origin,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描排班数据失败: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

// ListDuties 查询窗口内的值班指派
func (r *PlanRepository) ListDuties(ctx context.Context, orgID uuid.UUID, start, end string) ([]*model.DayDuty, error) {
	query := `
		SELECT id, org_id, employee_id, week_start, created_at, updated_at
		FROM day_duties
		WHERE org_id = $1 AND week_start >= $2 AND week_start <= $3
		ORDER BY week_start
	`

	rows, err := r.db.QueryContext(ctx, query, orgID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询值班指派失败: %w", err)
	}
	defer rows.Close()

	var duties []*model.DayDuty
	for rows.Next() {
		d := &model.DayDuty{}
		if err := rows.Scan(&d.ID, &d.OrgID, &d.EmployeeID, &d.WeekStart, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("扫描值班数据失败: %w", err)
		}
		duties = append(duties, d)
	}

	return duties, rows.Err()
}
