// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
)

// LockRepository 锁定事实仓储。
// 班组周锁与员工日锁分表存储，读取时合并为一个锁定集合。
type LockRepository struct {
	db DB
}

// NewLockRepository 创建锁定仓储
func NewLockRepository(db DB) *LockRepository {
	return &LockRepository{db: db}
}

// SetTeamWeek 写入班组周锁（同键覆盖）
func (r *LockRepository) SetTeamWeek(ctx context.Context, orgID, teamID uuid.UUID, weekStart, code string) error {
	query := `
		INSERT INTO team_week_locks (org_id, team_id, week_start, shift_code, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id, week_start)
		DO UPDATE SET shift_code = EXCLUDED.shift_code, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, orgID, teamID, weekStart, code, time.Now())
	if err != nil {
		return fmt.Errorf("写入班组周锁失败: %w", err)
	}
	return nil
}

// SetEmployeeDay 写入员工日锁（同键覆盖）
func (r *LockRepository) SetEmployeeDay(ctx context.Context, orgID, employeeID uuid.UUID, date, code string) error {
	query := `
		INSERT INTO employee_day_locks (org_id, employee_id, date, shift_code, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, date)
		DO UPDATE SET shift_code = EXCLUDED.shift_code, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, orgID, employeeID, date, code, time.Now())
	if err != nil {
		return fmt.Errorf("写入员工日锁失败: %w", err)
	}
	return nil
}

// LoadWindow 加载与日期区间相关的全部锁定事实。
// 班组周锁按周一日期过滤，窗口起止外扩到整周由调用方负责。
func (r *LockRepository) LoadWindow(ctx context.Context, orgID uuid.UUID, start, end string) (*model.LockSet, error) {
	locks := model.NewLockSet()

	teamQuery := `
		SELECT team_id, week_start, shift_code
		FROM team_week_locks
		WHERE org_id = $1 AND week_start >= $2 AND week_start <= $3
	`

	rows, err := r.db.QueryContext(ctx, teamQuery, orgID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询班组周锁失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var teamID uuid.UUID
		var weekStart, code string
		if err := rows.Scan(&teamID, &weekStart, &code); err != nil {
			return nil, fmt.Errorf("扫描班组周锁失败: %w", err)
		}
		locks.SetTeamWeek(teamID, weekStart, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	dayQuery := `
		SELECT employee_id, date, shift_code
		FROM employee_day_locks
		WHERE org_id = $1 AND date >= $2 AND date <= $3
	`

	dayRows, err := r.db.QueryContext(ctx, dayQuery, orgID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询员工日锁失败: %w", err)
	}
	defer dayRows.Close()

	for dayRows.Next() {
		var employeeID uuid.UUID
		var date, code string
		if err := dayRows.Scan(&employeeID, &date, &code); err != nil {
			return nil, fmt.Errorf("扫描员工日锁失败: %w", err)
		}
		locks.SetEmployeeDay(employeeID, date, code)
	}

	return locks, dayRows.Err()
}

// DeleteTeamWeek 删除班组周锁
func (r *LockRepository) DeleteTeamWeek(ctx context.Context, teamID uuid.UUID, weekStart string) error {
	query := `DELETE FROM team_week_locks WHERE team_id = $1 AND week_start = $2`

	_, err := r.db.ExecContext(ctx, query, teamID, weekStart)
	if err != nil {
		return fmt.Errorf("删除班组周锁失败: %w", err)
	}
	return nil
}
