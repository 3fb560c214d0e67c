// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lunban/lunban/pkg/model"
)

// ShiftTypeRepository 班次类型仓储
type ShiftTypeRepository struct {
	db DB
}

// NewShiftTypeRepository 创建班次类型仓储
func NewShiftTypeRepository(db DB) *ShiftTypeRepository {
	return &ShiftTypeRepository{db: db}
}

// Create 创建班次类型
func (r *ShiftTypeRepository) Create(ctx context.Context, st *model.ShiftType) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	now := time.Now()
	st.CreatedAt = now
	st.UpdatedAt = now

	weekdayJSON, _ := json.Marshal(st.Weekday)
	weekendJSON, _ := json.Marshal(st.Weekend)
	activeJSON, _ := json.Marshal(st.ActiveDays)

	query := `
		INSERT INTO shift_types (
			id, org_id, code, name, start_time, end_time, weekly_target_hours,
			weekday_staffing, weekend_staffing, active_days,
			max_consecutive_days, is_night, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		st.ID, st.OrgID, st.Code, st.Name, st.StartTime, st.EndTime, st.WeeklyTargetHours,
		weekdayJSON, weekendJSON, activeJSON,
		st.MaxConsecutiveDays, st.IsNight, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建班次类型失败: %w", err)
	}

	return nil
}

// ListByOrg 获取组织下全部班次类型
func (r *ShiftTypeRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*model.ShiftType, error) {
	query := `
		SELECT id, org_id, code, name, start_time, end_time, weekly_target_hours,
			weekday_staffing, weekend_staffing, active_days,
			max_consecutive_days, is_night, created_at, updated_at
		FROM shift_types
		WHERE org_id = $1 AND deleted_at IS NULL
		ORDER BY code
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("查询班次类型失败: %w", err)
	}
	defer rows.Close()

	var types []*model.ShiftType
	for rows.Next() {
		st, err := scanShiftType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, st)
	}

	return types, rows.Err()
}

// LoadCatalog 加载组织的班次目录。canonical 指定标准轮换顺序；
// 组织未配置任何班次类型时回退到内置目录。
func (r *ShiftTypeRepository) LoadCatalog(ctx context.Context, orgID uuid.UUID, canonical []string) (*model.Catalog, error) {
	types, err := r.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return model.DefaultCatalog(), nil
	}
	return model.NewCatalog(types, canonical)
}

// CanonicalRotation 读取组织配置的标准轮换代码顺序
func (r *ShiftTypeRepository) CanonicalRotation(ctx context.Context, orgID uuid.UUID) ([]string, error) {
	query := `SELECT rotation_codes FROM org_rotation WHERE org_id = $1`

	var codes pq.StringArray
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(&codes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询轮换顺序失败: %w", err)
	}

	return []string(codes), nil
}

func scanShiftType(row Scanner) (*model.ShiftType, error) {
	st := &model.ShiftType{}
	var weekdayJSON, weekendJSON, activeJSON []byte

	err := row.Scan(
		&st.ID, &st.OrgID, &st.Code, &st.Name, &st.StartTime, &st.EndTime, &st.WeeklyTargetHours,
		&weekdayJSON, &weekendJSON, &activeJSON,
		&st.MaxConsecutiveDays, &st.IsNight, &st.CreatedAt, &st.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描班次类型数据失败: %w", err)
	}

	json.Unmarshal(weekdayJSON, &st.Weekday)
	json.Unmarshal(weekendJSON, &st.Weekend)
	json.Unmarshal(activeJSON, &st.ActiveDays)

	return st, nil
}
