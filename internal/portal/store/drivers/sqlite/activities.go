package sqlite

import (
	"context"
	"database/sql"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/store"
)

type activitiesRepo struct {
	db dbtx
}

const activityColumns = `id, action, details, user_id, project_id, created_at`

func scanActivity(row interface{ Scan(...any) error }) (domain.Activity, error) {
	var (
		a       domain.Activity
		project sql.NullString
	)
	err := row.Scan(&a.ID, &a.Action, &a.Details, &a.UserID, &project, &a.CreatedAt)
	if err != nil {
		return domain.Activity{}, err
	}
	a.ProjectID = mapNullString(project)
	return a, nil
}

func (r *activitiesRepo) CreateActivity(ctx context.Context, a domain.Activity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Action, a.Details, a.UserID, mapOptionalString(a.ProjectID), a.CreatedAt,
	)
	return err
}

func (r *activitiesRepo) ListActivities(ctx context.Context, f store.ActivityFilter) ([]domain.Activity, int, error) {
	where := ` WHERE 1 = 1`
	var args []any
	if f.UserID != "" {
		where += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if f.ProjectID != "" {
		where += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset, limit := pageOffset(f.Page, f.Limit)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+activityColumns+` FROM activities`+where+`
		ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}
