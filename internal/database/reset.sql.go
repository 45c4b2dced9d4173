package database

import "context"

// The reset queries are admin-only and deliberately not part of Querier.

const resetTimeEntries = `TRUNCATE time_entries RESTART IDENTITY`

func (q *Queries) ResetTimeEntries(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetTimeEntries)
	return mapError(err)
}

const resetProjects = `TRUNCATE projects RESTART IDENTITY CASCADE`

func (q *Queries) ResetProjects(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetProjects)
	return mapError(err)
}

const resetProjectManagers = `TRUNCATE project_managers RESTART IDENTITY CASCADE`

func (q *Queries) ResetProjectManagers(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetProjectManagers)
	return mapError(err)
}

const resetCustomers = `TRUNCATE customers RESTART IDENTITY CASCADE`

func (q *Queries) ResetCustomers(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetCustomers)
	return mapError(err)
}
