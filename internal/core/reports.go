package core

// reports.go sums hours per (project, customer) over a week or a month.
// Rendered reports go through the ReportCache; writes to time entries
// invalidate it.

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/metrics"
	"github.com/JonMunkholm/timesheet/internal/normalize"
)

// WeekBounds returns the Monday and Sunday of day's week.
func WeekBounds(day time.Time) (time.Time, time.Time) {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// WeeklyReport reports the Monday-to-Sunday week containing day. A zero day
// means today. projectID, when set, keeps only that project's rows.
func (s *Service) WeeklyReport(ctx context.Context, day time.Time, projectID string) (*WeeklyReport, error) {
	if day.IsZero() {
		day = s.now()
	}
	start, end := WeekBounds(day)
	project, _ := normalize.ProjectID(normalize.Text(projectID))

	key := fmt.Sprintf("weekly:%s:%s", start.Format(normalize.DateLayout), project)
	var cached WeeklyReport
	gen, hit, cacheable := s.cacheGet(ctx, key, &cached)
	if hit {
		return &cached, nil
	}

	period := start.Format(normalize.DateLayout) + " to " + end.Format(normalize.DateLayout)
	entries, total, err := s.summarize(ctx, start, end, project, period)
	if err != nil {
		return nil, fmt.Errorf("weekly report %s: %w", period, err)
	}

	report := &WeeklyReport{
		WeekNumber: normalize.ISOWeek(start),
		Month:      start.Month().String(),
		StartDate:  start.Format(normalize.DateLayout),
		EndDate:    end.Format(normalize.DateLayout),
		TotalHours: total,
		Entries:    entries,
	}
	if cacheable {
		s.cacheSet(ctx, gen, key, report)
	}
	return report, nil
}

// MonthlyReport reports one calendar month. Zero year or month means the
// current one.
func (s *Service) MonthlyReport(ctx context.Context, year, month int, projectID string) (*MonthlyReport, error) {
	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, &InputError{Fields: []FieldError{{Field: "month", Message: "must be between 1 and 12"}}}
	}
	if year < 1 || year > 9999 {
		return nil, &InputError{Fields: []FieldError{{Field: "year", Message: "must be between 1 and 9999"}}}
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	project, _ := normalize.ProjectID(normalize.Text(projectID))

	key := fmt.Sprintf("monthly:%04d-%02d:%s", year, month, project)
	var cached MonthlyReport
	gen, hit, cacheable := s.cacheGet(ctx, key, &cached)
	if hit {
		return &cached, nil
	}

	period := fmt.Sprintf("%04d-%02d", year, month)
	entries, total, err := s.summarize(ctx, start, end, project, period)
	if err != nil {
		return nil, fmt.Errorf("monthly report %s: %w", period, err)
	}

	report := &MonthlyReport{Year: year, Month: month, TotalHours: total, Entries: entries}
	if cacheable {
		s.cacheSet(ctx, gen, key, report)
	}
	return report, nil
}

func (s *Service) summarize(ctx context.Context, start, end time.Time, project, period string) ([]ReportEntry, float64, error) {
	rows, err := s.store.SummarizeHours(ctx,
		pgtype.Date{Time: start, Valid: true},
		pgtype.Date{Time: end, Valid: true},
	)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]ReportEntry, 0, len(rows))
	var total float64
	for _, r := range rows {
		if project != "" && deref(r.Project) != project {
			continue
		}
		entries = append(entries, reportEntry(r, period))
		total += r.TotalHours
	}
	return entries, total, nil
}

func reportEntry(r database.HoursSummaryRow, period string) ReportEntry {
	category := DefaultCustomerName
	if r.Customer != nil && *r.Customer != "" {
		category = *r.Customer
	}
	return ReportEntry{
		TotalHours: r.TotalHours,
		Category:   category,
		Project:    r.Project,
		Period:     period,
	}
}

// cacheGet looks key up. cacheable is false when the cache failed, in which
// case the freshly computed report is not stored.
func (s *Service) cacheGet(ctx context.Context, key string, dst any) (gen int64, hit, cacheable bool) {
	gen, hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		logging.FromContext(ctx, s.logger).Warn("report cache read failed", "key", key, "error", err)
		metrics.ReportCacheTotal.WithLabelValues("error").Inc()
		return 0, false, false
	}
	if hit {
		metrics.ReportCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.ReportCacheTotal.WithLabelValues("miss").Inc()
	}
	return gen, hit, true
}

func (s *Service) cacheSet(ctx context.Context, gen int64, key string, v any) {
	if err := s.cache.Set(ctx, gen, key, v); err != nil {
		logging.FromContext(ctx, s.logger).Warn("report cache write failed", "key", key, "error", err)
	}
}
