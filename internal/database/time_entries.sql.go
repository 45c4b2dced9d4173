package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const timeEntryColumns = `id, week_number, month, category, subcategory, customer, project, task_description, hours, date, created_at, updated_at`

func scanTimeEntry(row rowScanner) (TimeEntry, error) {
	var e TimeEntry
	err := row.Scan(
		&e.ID,
		&e.WeekNumber,
		&e.Month,
		&e.Category,
		&e.Subcategory,
		&e.Customer,
		&e.Project,
		&e.TaskDescription,
		&e.Hours,
		&e.Date,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

const getTimeEntry = `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = $1`

func (q *Queries) GetTimeEntry(ctx context.Context, id int64) (TimeEntry, error) {
	e, err := scanTimeEntry(q.db.QueryRow(ctx, getTimeEntry, id))
	return e, mapError(err)
}

const listTimeEntries = `
SELECT ` + timeEntryColumns + ` FROM time_entries
WHERE ($1::text IS NULL OR project = $1)
  AND ($2::text IS NULL OR customer = $2)
  AND ($3::date IS NULL OR date >= $3)
  AND ($4::date IS NULL OR date <= $4)
ORDER BY date DESC, id DESC
OFFSET $5 LIMIT $6`

type ListTimeEntriesParams struct {
	Project   *string
	Customer  *string
	StartDate pgtype.Date
	EndDate   pgtype.Date
	Offset    int32
	Limit     int32
}

func (q *Queries) ListTimeEntries(ctx context.Context, arg ListTimeEntriesParams) ([]TimeEntry, error) {
	rows, err := q.db.Query(ctx, listTimeEntries,
		arg.Project,
		arg.Customer,
		arg.StartDate,
		arg.EndDate,
		arg.Offset,
		arg.Limit,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := []TimeEntry{}
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		items = append(items, e)
	}
	return items, mapError(rows.Err())
}

const createTimeEntry = `
INSERT INTO time_entries (week_number, month, category, subcategory, customer, project, task_description, hours, date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + timeEntryColumns

type CreateTimeEntryParams struct {
	WeekNumber      int32
	Month           string
	Category        string
	Subcategory     string
	Customer        *string
	Project         *string
	TaskDescription *string
	Hours           float64
	Date            pgtype.Date
}

func (p CreateTimeEntryParams) args() []any {
	return []any{
		p.WeekNumber,
		p.Month,
		p.Category,
		p.Subcategory,
		p.Customer,
		p.Project,
		p.TaskDescription,
		p.Hours,
		p.Date,
	}
}

func (q *Queries) CreateTimeEntry(ctx context.Context, arg CreateTimeEntryParams) (TimeEntry, error) {
	e, err := scanTimeEntry(q.db.QueryRow(ctx, createTimeEntry, arg.args()...))
	return e, mapError(err)
}

// CreateTimeEntries inserts args in one round trip. Results are in input order.
// The caller owns the transaction: a failure leaves the batch half-applied
// unless it is rolled back.
func (q *Queries) CreateTimeEntries(ctx context.Context, args []CreateTimeEntryParams) ([]TimeEntry, error) {
	if len(args) == 0 {
		return []TimeEntry{}, nil
	}

	batch := &pgx.Batch{}
	for _, arg := range args {
		batch.Queue(createTimeEntry, arg.args()...)
	}

	br := q.db.SendBatch(ctx, batch)
	defer br.Close()

	out := make([]TimeEntry, 0, len(args))
	for i := range args {
		e, err := scanTimeEntry(br.QueryRow())
		if err != nil {
			return nil, fmt.Errorf("insert entry %d of %d: %w", i+1, len(args), mapError(err))
		}
		out = append(out, e)
	}
	return out, nil
}

const updateTimeEntry = `
UPDATE time_entries
SET week_number = $2, month = $3, category = $4, subcategory = $5, customer = $6, project = $7,
    task_description = $8, hours = $9, date = $10, updated_at = now()
WHERE id = $1
RETURNING ` + timeEntryColumns

type UpdateTimeEntryParams struct {
	ID int64
	CreateTimeEntryParams
}

func (q *Queries) UpdateTimeEntry(ctx context.Context, arg UpdateTimeEntryParams) (TimeEntry, error) {
	args := append([]any{arg.ID}, arg.CreateTimeEntryParams.args()...)
	e, err := scanTimeEntry(q.db.QueryRow(ctx, updateTimeEntry, args...))
	return e, mapError(err)
}

const deleteTimeEntry = `DELETE FROM time_entries WHERE id = $1`

func (q *Queries) DeleteTimeEntry(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, deleteTimeEntry, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const summarizeHours = `
SELECT project, customer, COALESCE(SUM(hours), 0)::float8 AS total_hours
FROM time_entries
WHERE date BETWEEN $1 AND $2
GROUP BY project, customer
ORDER BY total_hours DESC, project NULLS LAST, customer NULLS LAST`

func (q *Queries) SummarizeHours(ctx context.Context, start, end pgtype.Date) ([]HoursSummaryRow, error) {
	rows, err := q.db.Query(ctx, summarizeHours, start, end)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := []HoursSummaryRow{}
	for rows.Next() {
		var r HoursSummaryRow
		if err := rows.Scan(&r.Project, &r.Customer, &r.TotalHours); err != nil {
			return nil, fmt.Errorf("scan hours summary: %w", err)
		}
		items = append(items, r)
	}
	return items, mapError(rows.Err())
}
