package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is every query the application runs.
type Querier interface {
	GetCustomer(ctx context.Context, name string) (Customer, error)
	ListCustomers(ctx context.Context, arg ListParams) ([]Customer, error)
	CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error)
	UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error)
	DeleteCustomer(ctx context.Context, name string) error

	GetProjectManager(ctx context.Context, name string) (ProjectManager, error)
	ListProjectManagers(ctx context.Context, arg ListParams) ([]ProjectManager, error)
	CreateProjectManager(ctx context.Context, arg CreateProjectManagerParams) (ProjectManager, error)
	UpdateProjectManager(ctx context.Context, arg UpdateProjectManagerParams) (ProjectManager, error)
	DeleteProjectManager(ctx context.Context, name string) error

	GetProject(ctx context.Context, projectID string) (Project, error)
	ListProjects(ctx context.Context, arg ListProjectsParams) ([]Project, error)
	CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error)
	UpdateProject(ctx context.Context, arg UpdateProjectParams) (Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	GetTimeEntry(ctx context.Context, id int64) (TimeEntry, error)
	ListTimeEntries(ctx context.Context, arg ListTimeEntriesParams) ([]TimeEntry, error)
	CreateTimeEntry(ctx context.Context, arg CreateTimeEntryParams) (TimeEntry, error)
	CreateTimeEntries(ctx context.Context, args []CreateTimeEntryParams) ([]TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, arg UpdateTimeEntryParams) (TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, id int64) error

	SummarizeHours(ctx context.Context, start, end pgtype.Date) ([]HoursSummaryRow, error)
}

var _ Querier = (*Queries)(nil)

// ListParams is offset pagination.
type ListParams struct {
	Offset int32
	Limit  int32
}
