package sqlite

import (
	"context"
	"database/sql"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/store"
)

type projectsRepo struct {
	db dbtx
}

const projectColumns = `id, name, description, status, priority, due_date, created_by_id, assigned_to_id, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (domain.Project, error) {
	var (
		p        domain.Project
		dueDate  sql.NullTime
		assigned sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.Priority,
		&dueDate, &p.CreatedByID, &assigned, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Project{}, err
	}
	p.DueDate = mapNullTime(dueDate)
	p.AssignedToID = mapNullString(assigned)
	return p, nil
}

func (r *projectsRepo) CreateProject(ctx context.Context, p domain.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Status, p.Priority,
		mapOptionalTime(p.DueDate), p.CreatedByID, mapOptionalString(p.AssignedToID),
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *projectsRepo) GetProjectByID(ctx context.Context, id string) (domain.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return domain.Project{}, mapNotFound(err)
	}
	return p, nil
}

// projectWhere builds the WHERE clause shared by the page query and the
// total count so they can never drift apart.
func projectWhere(f store.ProjectFilter) (string, []any) {
	where := ` WHERE 1 = 1`
	var args []any
	if f.ViewerID != "" {
		where += ` AND (created_by_id = ? OR assigned_to_id = ?)`
		args = append(args, f.ViewerID, f.ViewerID)
	}
	if f.Status != "" {
		where += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where += ` AND priority = ?`
		args = append(args, f.Priority)
	}
	return where, args
}

func (r *projectsRepo) ListProjects(ctx context.Context, f store.ProjectFilter) ([]domain.Project, int, error) {
	where, args := projectWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset, limit := pageOffset(f.Page, f.Limit)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects`+where+`
		ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}
	return projects, total, rows.Err()
}

func (r *projectsRepo) UpdateProject(ctx context.Context, p domain.Project) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, description = ?, status = ?, priority = ?, due_date = ?, assigned_to_id = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Status, p.Priority,
		mapOptionalTime(p.DueDate), mapOptionalString(p.AssignedToID),
		p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *projectsRepo) DeleteProject(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
