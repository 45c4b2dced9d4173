package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/normalize"
)

// TimeEntryFilter narrows ListEntries. Zero fields match everything.
type TimeEntryFilter struct {
	ProjectID    string
	CustomerName string
	StartDate    time.Time
	EndDate      time.Time
	Page
}

// CreateEntry stores one time entry. Customer and project go through the
// lenient resolver, so unknown names are created and absent ones take the
// defaults. Hours outside [0, 24] return an *InputError.
func (s *Service) CreateEntry(ctx context.Context, in TimeEntryInput) (database.TimeEntry, error) {
	if err := in.Validate(); err != nil {
		return database.TimeEntry{}, err
	}

	var created database.TimeEntry
	err := s.store.InTx(ctx, func(tx database.Store) error {
		params, err := s.materialize(ctx, tx, in)
		if err != nil {
			return err
		}
		created, err = tx.CreateTimeEntry(ctx, params)
		return err
	})
	if err != nil {
		return database.TimeEntry{}, fmt.Errorf("create time entry: %w", err)
	}

	s.invalidateReports(ctx)
	logging.FromContext(ctx, s.logger).Info("time entry created",
		"id", created.ID,
		"customer", deref(created.Customer),
		"project", deref(created.Project),
		"hours", created.Hours,
	)
	return created, nil
}

// GetEntry returns the time entry with id.
func (s *Service) GetEntry(ctx context.Context, id int64) (database.TimeEntry, error) {
	e, err := s.store.GetTimeEntry(ctx, id)
	if err != nil {
		return database.TimeEntry{}, fmt.Errorf("get time entry %d: %w", id, err)
	}
	return e, nil
}

// ListEntries returns time entries newest first.
func (s *Service) ListEntries(ctx context.Context, f TimeEntryFilter) ([]database.TimeEntry, error) {
	page := f.Page.params()
	params := database.ListTimeEntriesParams{
		Offset: page.Offset,
		Limit:  page.Limit,
	}
	if id, ok := normalize.ProjectID(normalize.Text(f.ProjectID)); ok {
		params.Project = &id
	}
	if name, ok := normalize.CustomerName(normalize.Text(f.CustomerName)); ok {
		params.Customer = &name
	}
	if !f.StartDate.IsZero() {
		params.StartDate = pgtype.Date{Time: f.StartDate, Valid: true}
	}
	if !f.EndDate.IsZero() {
		params.EndDate = pgtype.Date{Time: f.EndDate, Valid: true}
	}

	items, err := s.store.ListTimeEntries(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	return items, nil
}

// UpdateEntry applies u to the stored entry. Only the references u sets are
// resolved again; the others keep their stored value, null included.
func (s *Service) UpdateEntry(ctx context.Context, id int64, u TimeEntryUpdate) (database.TimeEntry, error) {
	var updated database.TimeEntry
	err := s.store.InTx(ctx, func(tx database.Store) error {
		current, err := tx.GetTimeEntry(ctx, id)
		if err != nil {
			return err
		}
		in := u.merge(current)
		if err := in.Validate(); err != nil {
			return err
		}
		params, err := s.materialize(ctx, tx, in)
		if err != nil {
			return err
		}
		if u.Customer == nil {
			params.Customer = current.Customer
		}
		if u.Project == nil {
			params.Project = current.Project
		}
		updated, err = tx.UpdateTimeEntry(ctx, database.UpdateTimeEntryParams{ID: id, CreateTimeEntryParams: params})
		return err
	})
	if err != nil {
		return database.TimeEntry{}, fmt.Errorf("update time entry %d: %w", id, err)
	}

	s.invalidateReports(ctx)
	return updated, nil
}

// DeleteEntry removes the time entry with id.
func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.store.DeleteTimeEntry(ctx, id); err != nil {
		return fmt.Errorf("delete time entry %d: %w", id, err)
	}
	s.invalidateReports(ctx)
	return nil
}

// materialize runs one validated input through the lenient resolver and
// the rejecting hours policy.
func (s *Service) materialize(ctx context.Context, tx database.Store, in TimeEntryInput) (database.CreateTimeEntryParams, error) {
	policy := s.importer.Lenient()
	if err := policy.Prepare(ctx, tx); err != nil {
		return database.CreateTimeEntryParams{}, err
	}

	out, err := NewMaterializer(policy, HoursRejectOutOfRange, s.now).FromInput(ctx, tx, in, 0)
	if err != nil {
		return database.CreateTimeEntryParams{}, err
	}
	if out.Draft == nil {
		e := &InputError{}
		for _, r := range out.Errors {
			e.add(strings.TrimPrefix(string(r.Type), "invalid_"), "%s", r.Error)
		}
		if len(e.Fields) == 0 {
			e.add("hours", "must be between 0 and 24")
		}
		return database.CreateTimeEntryParams{}, e
	}
	return out.Draft.Params, nil
}
