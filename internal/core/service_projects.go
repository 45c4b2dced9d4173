package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/logging"
)

// ============================================================================
// Project managers
// ============================================================================

// CreateProjectManager stores a new project manager. A taken name or email
// returns database.ErrConflict.
func (s *Service) CreateProjectManager(ctx context.Context, in ProjectManagerInput) (database.ProjectManager, error) {
	if err := in.Validate(); err != nil {
		return database.ProjectManager{}, err
	}
	pm, err := s.store.CreateProjectManager(ctx, database.CreateProjectManagerParams{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
	})
	if err != nil {
		return database.ProjectManager{}, fmt.Errorf("create project manager %q: %w", in.Name, err)
	}
	logging.FromContext(ctx, s.logger).Info("project manager created", "project_manager", pm.Name)
	return pm, nil
}

// GetProjectManager returns the project manager with name.
func (s *Service) GetProjectManager(ctx context.Context, name string) (database.ProjectManager, error) {
	pm, err := s.store.GetProjectManager(ctx, name)
	if err != nil {
		return database.ProjectManager{}, fmt.Errorf("get project manager %q: %w", name, err)
	}
	return pm, nil
}

// ListProjectManagers returns project managers ordered by name.
func (s *Service) ListProjectManagers(ctx context.Context, page Page) ([]database.ProjectManager, error) {
	items, err := s.store.ListProjectManagers(ctx, page.params())
	if err != nil {
		return nil, fmt.Errorf("list project managers: %w", err)
	}
	return items, nil
}

// UpdateProjectManager applies in to the project manager with name.
func (s *Service) UpdateProjectManager(ctx context.Context, name string, in ProjectManagerUpdate) (database.ProjectManager, error) {
	if err := in.Validate(); err != nil {
		return database.ProjectManager{}, err
	}

	var updated database.ProjectManager
	err := s.store.InTx(ctx, func(tx database.Store) error {
		current, err := tx.GetProjectManager(ctx, name)
		if err != nil {
			return err
		}
		params := database.UpdateProjectManagerParams{Key: current.Name, Name: current.Name, Email: current.Email}
		if in.Name != nil {
			params.Name = strings.TrimSpace(*in.Name)
		}
		if in.Email != nil {
			params.Email = strings.TrimSpace(*in.Email)
		}
		updated, err = tx.UpdateProjectManager(ctx, params)
		return err
	})
	if err != nil {
		return database.ProjectManager{}, fmt.Errorf("update project manager %q: %w", name, err)
	}
	return updated, nil
}

// DeleteProjectManager removes the project manager; projects keep their
// rows with the manager cleared.
func (s *Service) DeleteProjectManager(ctx context.Context, name string) error {
	if err := s.store.DeleteProjectManager(ctx, name); err != nil {
		return fmt.Errorf("delete project manager %q: %w", name, err)
	}
	return nil
}

// ============================================================================
// Projects
// ============================================================================

// ProjectFilter narrows ListProjects. Empty fields match everything.
type ProjectFilter struct {
	Customer       string
	ProjectManager string
	Page
}

// CreateProject stores a new project. The customer and project manager,
// when set, must already exist.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (database.Project, error) {
	if err := in.Validate(); err != nil {
		return database.Project{}, err
	}
	params := in.params()

	var created database.Project
	err := s.store.InTx(ctx, func(tx database.Store) error {
		if err := checkProjectRefs(ctx, tx, params.Customer, params.ProjectManager); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateProject(ctx, params)
		return err
	})
	if err != nil {
		return database.Project{}, fmt.Errorf("create project %q: %w", params.ProjectID, err)
	}
	logging.FromContext(ctx, s.logger).Info("project created", "project", created.ProjectID, "customer", deref(created.Customer))
	return created, nil
}

// GetProject returns the project with projectID.
func (s *Service) GetProject(ctx context.Context, projectID string) (database.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return database.Project{}, fmt.Errorf("get project %q: %w", projectID, err)
	}
	return p, nil
}

// ListProjects returns projects ordered by project id.
func (s *Service) ListProjects(ctx context.Context, f ProjectFilter) ([]database.Project, error) {
	page := f.Page.params()
	items, err := s.store.ListProjects(ctx, database.ListProjectsParams{
		Customer:       nilIfEmpty(strings.TrimSpace(f.Customer)),
		ProjectManager: nilIfEmpty(strings.TrimSpace(f.ProjectManager)),
		Offset:         page.Offset,
		Limit:          page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return items, nil
}

// UpdateProject applies in to the project with projectID.
func (s *Service) UpdateProject(ctx context.Context, projectID string, in ProjectUpdate) (database.Project, error) {
	if err := in.Validate(); err != nil {
		return database.Project{}, err
	}

	var updated database.Project
	err := s.store.InTx(ctx, func(tx database.Store) error {
		current, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		params := in.apply(current)
		if err := checkProjectRefs(ctx, tx, params.Customer, params.ProjectManager); err != nil {
			return err
		}
		updated, err = tx.UpdateProject(ctx, params)
		return err
	})
	if err != nil {
		return database.Project{}, fmt.Errorf("update project %q: %w", projectID, err)
	}
	if updated.ProjectID != projectID {
		s.invalidateReports(ctx)
	}
	return updated, nil
}

// DeleteProject removes the project; its time entries keep their rows with
// the project cleared.
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("delete project %q: %w", projectID, err)
	}
	s.invalidateReports(ctx)
	return nil
}

// checkProjectRefs turns a missing customer or manager into a field error
// instead of a foreign key failure.
func checkProjectRefs(ctx context.Context, q database.Querier, customer, manager *string) error {
	var e InputError
	if customer != nil {
		if _, err := q.GetCustomer(ctx, *customer); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}
			e.add("customer", "customer '%s' does not exist", *customer)
		}
	}
	if manager != nil {
		if _, err := q.GetProjectManager(ctx, *manager); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}
			e.add("project_manager", "project manager '%s' does not exist", *manager)
		}
	}
	return e.errOrNil()
}
