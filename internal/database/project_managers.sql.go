package database

import (
	"context"
	"fmt"
)

const projectManagerColumns = `id, name, email, created_at, updated_at`

func scanProjectManager(row rowScanner) (ProjectManager, error) {
	var pm ProjectManager
	err := row.Scan(&pm.ID, &pm.Name, &pm.Email, &pm.CreatedAt, &pm.UpdatedAt)
	return pm, err
}

const getProjectManager = `SELECT ` + projectManagerColumns + ` FROM project_managers WHERE name = $1`

func (q *Queries) GetProjectManager(ctx context.Context, name string) (ProjectManager, error) {
	pm, err := scanProjectManager(q.db.QueryRow(ctx, getProjectManager, name))
	return pm, mapError(err)
}

const listProjectManagers = `SELECT ` + projectManagerColumns + ` FROM project_managers ORDER BY name OFFSET $1 LIMIT $2`

func (q *Queries) ListProjectManagers(ctx context.Context, arg ListParams) ([]ProjectManager, error) {
	rows, err := q.db.Query(ctx, listProjectManagers, arg.Offset, arg.Limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := []ProjectManager{}
	for rows.Next() {
		pm, err := scanProjectManager(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project manager: %w", err)
		}
		items = append(items, pm)
	}
	return items, mapError(rows.Err())
}

const createProjectManager = `
INSERT INTO project_managers (name, email) VALUES ($1, $2)
RETURNING ` + projectManagerColumns

type CreateProjectManagerParams struct {
	Name  string
	Email string
}

func (q *Queries) CreateProjectManager(ctx context.Context, arg CreateProjectManagerParams) (ProjectManager, error) {
	pm, err := scanProjectManager(q.db.QueryRow(ctx, createProjectManager, arg.Name, arg.Email))
	return pm, mapError(err)
}

const updateProjectManager = `
UPDATE project_managers SET name = $2, email = $3, updated_at = now()
WHERE name = $1
RETURNING ` + projectManagerColumns

type UpdateProjectManagerParams struct {
	Key   string
	Name  string
	Email string
}

func (q *Queries) UpdateProjectManager(ctx context.Context, arg UpdateProjectManagerParams) (ProjectManager, error) {
	pm, err := scanProjectManager(q.db.QueryRow(ctx, updateProjectManager, arg.Key, arg.Name, arg.Email))
	return pm, mapError(err)
}

const deleteProjectManager = `DELETE FROM project_managers WHERE name = $1`

func (q *Queries) DeleteProjectManager(ctx context.Context, name string) error {
	tag, err := q.db.Exec(ctx, deleteProjectManager, name)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
