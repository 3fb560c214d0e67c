// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
)

// AbsenceRepository 缺勤仓储
type AbsenceRepository struct {
	db DB
}

// NewAbsenceRepository 创建缺勤仓储
func NewAbsenceRepository(db DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// Create 创建缺勤记录
func (r *AbsenceRepository) Create(ctx context.Context, ab *model.Absence) error {
	if ab.ID == uuid.Nil {
		ab.ID = uuid.New()
	}
	now := time.Now()
	ab.CreatedAt = now
	ab.UpdatedAt = now

	query := `
		INSERT INTO absences (id, org_id, employee_id, category, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		ab.ID, ab.OrgID, ab.EmployeeID, ab.Category, ab.StartDate, ab.EndDate,
		ab.CreatedAt, ab.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建缺勤记录失败: %w", err)
	}

	return nil
}

// Delete 删除缺勤记录
func (r *AbsenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE absences SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除缺勤记录失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("缺勤记录不存在")
	}

	return nil
}

// ListOverlapping 获取与日期区间有交集的缺勤记录
func (r *AbsenceRepository) ListOverlapping(ctx context.Context, orgID uuid.UUID, start, end string) ([]*model.Absence, error) {
	query := `
		SELECT id, org_id, employee_id, category, start_date, end_date, created_at, updated_at
		FROM absences
		WHERE org_id = $1 AND start_date <= $3 AND end_date >= $2 AND deleted_at IS NULL
		ORDER BY start_date, employee_id
	`

	rows, err := r.db.QueryContext(ctx, query, orgID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询缺勤记录失败: %w", err)
	}
	defer rows.Close()

	var absences []*model.Absence
	for rows.Next() {
		ab := &model.Absence{}
		err := rows.Scan(
			&ab.ID, &ab.OrgID, &ab.EmployeeID, &ab.Category, &ab.StartDate, &ab.EndDate,
			&ab.CreatedAt, &ab.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描缺勤数据失败: %w", err)
		}
		absences = append(absences, ab)
	}

	return absences, rows.Err()
}
