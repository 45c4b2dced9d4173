package database

import (
	"context"
	"fmt"
)

const projectColumns = `id, project_id, name, description, customer, project_manager, status, created_at, updated_at`

func scanProject(row rowScanner) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.Name,
		&p.Description,
		&p.Customer,
		&p.ProjectManager,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

const getProject = `SELECT ` + projectColumns + ` FROM projects WHERE project_id = $1`

func (q *Queries) GetProject(ctx context.Context, projectID string) (Project, error) {
	p, err := scanProject(q.db.QueryRow(ctx, getProject, projectID))
	return p, mapError(err)
}

const listProjects = `
SELECT ` + projectColumns + ` FROM projects
WHERE ($1::text IS NULL OR customer = $1)
  AND ($2::text IS NULL OR project_manager = $2)
ORDER BY project_id
OFFSET $3 LIMIT $4`

type ListProjectsParams struct {
	Customer       *string
	ProjectManager *string
	Offset         int32
	Limit          int32
}

func (q *Queries) ListProjects(ctx context.Context, arg ListProjectsParams) ([]Project, error) {
	rows, err := q.db.Query(ctx, listProjects, arg.Customer, arg.ProjectManager, arg.Offset, arg.Limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, p)
	}
	return items, mapError(rows.Err())
}

const createProject = `
INSERT INTO projects (project_id, name, description, customer, project_manager, status)
VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, ''), 'active'))
RETURNING ` + projectColumns

type CreateProjectParams struct {
	ProjectID      string
	Name           string
	Description    *string
	Customer       *string
	ProjectManager *string
	Status         string
}

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	p, err := scanProject(q.db.QueryRow(ctx, createProject,
		arg.ProjectID,
		arg.Name,
		arg.Description,
		arg.Customer,
		arg.ProjectManager,
		arg.Status,
	))
	return p, mapError(err)
}

const updateProject = `
UPDATE projects
SET project_id = $2, name = $3, description = $4, customer = $5, project_manager = $6, status = $7, updated_at = now()
WHERE project_id = $1
RETURNING ` + projectColumns

// UpdateProjectParams replaces every mutable column of the project keyed by Key.
type UpdateProjectParams struct {
	Key            string
	ProjectID      string
	Name           string
	Description    *string
	Customer       *string
	ProjectManager *string
	Status         string
}

func (q *Queries) UpdateProject(ctx context.Context, arg UpdateProjectParams) (Project, error) {
	p, err := scanProject(q.db.QueryRow(ctx, updateProject,
		arg.Key,
		arg.ProjectID,
		arg.Name,
		arg.Description,
		arg.Customer,
		arg.ProjectManager,
		arg.Status,
	))
	return p, mapError(err)
}

const deleteProject = `DELETE FROM projects WHERE project_id = $1`

func (q *Queries) DeleteProject(ctx context.Context, projectID string) error {
	tag, err := q.db.Exec(ctx, deleteProject, projectID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
