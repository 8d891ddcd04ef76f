package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pennywise/internal/core"

	"github.com/google/uuid"
)

const projectColumns = `project_id, user_id, name, description, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (core.Project, error) {
	var p core.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) CreateProject(ctx context.Context, userID string, form core.ProjectForm) (core.Project, error) {
	if err := form.Validate(); err != nil {
		return core.Project{}, err
	}

	now := r.now()
	p := core.Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        form.Name,
		Description: form.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (project_id, user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return core.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (r *Repository) FindOwnedProject(ctx context.Context, userID, id string) (core.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE project_id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, core.ErrNotFound
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("find project: %w", err)
	}
	return p, nil
}

func (r *Repository) UpdateProject(ctx context.Context, userID, id string, form core.ProjectForm) (core.Project, error) {
	if err := form.Validate(); err != nil {
		return core.Project{}, err
	}
	if _, err := r.FindOwnedProject(ctx, userID, id); err != nil {
		return core.Project{}, err
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, updated_at = ?
		WHERE project_id = ? AND user_id = ? AND deleted_at IS NULL`,
		form.Name, form.Description, r.now(), id, userID)
	if err != nil {
		return core.Project{}, fmt.Errorf("update project: %w", err)
	}
	return r.FindOwnedProject(ctx, userID, id)
}

func (r *Repository) SoftDeleteProject(ctx context.Context, userID, id string) (core.Project, error) {
	p, err := r.FindOwnedProject(ctx, userID, id)
	if err != nil {
		return core.Project{}, err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE projects SET deleted_at = ?, updated_at = ?
		WHERE project_id = ? AND user_id = ? AND deleted_at IS NULL`,
		r.now(), r.now(), id, userID)
	if err != nil {
		return core.Project{}, fmt.Errorf("soft delete project: %w", err)
	}
	return p, nil
}

func (r *Repository) ListProjects(ctx context.Context, userID string, q ListQuery) (Paginated[core.Project], error) {
	q = q.normalized()
	page := Paginated[core.Project]{Page: q.Page, PerPage: q.PerPage}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM projects
		WHERE user_id = ? AND deleted_at IS NULL AND (name LIKE ? OR description LIKE ?)`,
		userID, q.like(), q.like()).Scan(&page.Total)
	if err != nil {
		return page, fmt.Errorf("count projects: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE user_id = ? AND deleted_at IS NULL AND (name LIKE ? OR description LIKE ?)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		userID, q.like(), q.like(), q.PerPage, q.offset())
	if err != nil {
		return page, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return page, fmt.Errorf("scan project: %w", err)
		}
		page.Items = append(page.Items, p)
	}
	return page, rows.Err()
}
