// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/timesheet/internal/logging"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

// Resetter truncates tables. *database.Queries satisfies it.
type Resetter interface {
	ResetTimeEntries(ctx context.Context) error
	ResetProjects(ctx context.Context) error
	ResetProjectManagers(ctx context.Context) error
	ResetCustomers(ctx context.Context) error
}

// Invalidator drops cached reports after a reset.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// ResetDbs handles database reset operations.
type ResetDbs struct {
	DB     Resetter
	Cache  Invalidator // optional
	Logger *slog.Logger
}

type dbResetFn func(ctx context.Context) error

// ResetEntries deletes every time entry and keeps reference data.
func (r *ResetDbs) ResetEntries(ctx context.Context) error {
	return r.run(ctx, "time entries", []dbResetFn{r.DB.ResetTimeEntries})
}

// ResetAll truncates every timesheet table.
// This is a destructive operation - use with caution.
func (r *ResetDbs) ResetAll(ctx context.Context) error {
	return r.run(ctx, "all tables", []dbResetFn{
		r.DB.ResetTimeEntries,
		r.DB.ResetProjects,
		r.DB.ResetProjectManagers,
		r.DB.ResetCustomers,
	})
}

func (r *ResetDbs) run(ctx context.Context, what string, resets []dbResetFn) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	for _, reset := range resets {
		if err := reset(ctx); err != nil {
			return fmt.Errorf("reset %s: %w", what, err)
		}
	}

	if r.Cache != nil {
		if err := r.Cache.Invalidate(ctx); err != nil {
			logging.OrDiscard(r.Logger).Warn("report cache invalidation failed", "error", err)
		}
	}
	logging.OrDiscard(r.Logger).Info("database reset", "scope", what)
	return nil
}
