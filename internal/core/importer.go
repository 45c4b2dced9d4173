package core

// importer.go runs whole batches: uploaded files through the lenient
// policy, and pre-built entry lists through the strict one.
//
// A file import is one transaction. Each row runs in its own savepoint so a
// row whose references cannot be stored is rolled back alone and reported
// as row_failed. Connectivity and context errors abort the whole import.
// Valid drafts are inserted in chunks of BatchSize inside the same
// transaction, so a failed insert leaves nothing behind.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/metrics"
	"github.com/JonMunkholm/timesheet/internal/tabular"
)

var (
	// ErrUnsupportedFormat rejects files by extension.
	ErrUnsupportedFormat = tabular.ErrUnsupportedFormat

	// ErrEmptyFile rejects files with no bytes or no header.
	ErrEmptyFile = tabular.ErrEmpty

	// ErrCorruptFile rejects files the reader cannot decode.
	ErrCorruptFile = tabular.ErrCorrupt
)

// DefaultBatchSize is the number of entries per bulk insert.
const DefaultBatchSize = 100

// ctxCheckInterval is how many rows run between cancellation checks.
const ctxCheckInterval = 100

// ImporterConfig configures an Importer.
type ImporterConfig struct {
	BatchSize int
	Defaults  Defaults
	// Now supplies "today" for date fallbacks. Defaults to time.Now.
	Now func() time.Time
}

// Importer imports files and entry batches.
type Importer struct {
	store     database.Store
	lenient   *AutoCreate
	strict    *ValidateOnly
	batchSize int
	now       func() time.Time
	logger    *slog.Logger
}

// NewImporter returns an Importer writing to store.
func NewImporter(store database.Store, cfg ImporterConfig, logger *slog.Logger) *Importer {
	logger = logging.OrDiscard(logger)
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Importer{
		store:     store,
		lenient:   NewAutoCreate(cfg.Defaults, logger),
		strict:    NewValidateOnly(logger),
		batchSize: cfg.BatchSize,
		now:       cfg.Now,
		logger:    logger,
	}
}

// Lenient returns the auto-creating policy.
func (im *Importer) Lenient() *AutoCreate { return im.lenient }

// Strict returns the validate-only policy.
func (im *Importer) Strict() *ValidateOnly { return im.strict }

// ImportFile imports a CSV or XLSX file. name selects the format by
// extension. File-level problems (format, empty, corrupt, missing columns)
// return an error and nothing is stored.
func (im *Importer) ImportFile(ctx context.Context, name string, data []byte) (*ImportResult, error) {
	start := time.Now()
	logger := logging.WithFields(ctx, im.logger, append(importAttrs(ctx), "file", name)...)

	format, err := tabular.FormatFromName(name)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("unknown", "rejected").Inc()
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		metrics.ImportsTotal.WithLabelValues(format.String(), "rejected").Inc()
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}

	table, err := tabular.Read(data, format, tabular.Options{DateColumns: []string{"Date"}})
	if err != nil {
		metrics.ImportsTotal.WithLabelValues(format.String(), "rejected").Inc()
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := CheckColumns(table); err != nil {
		metrics.ImportsTotal.WithLabelValues(format.String(), "rejected").Inc()
		return nil, err
	}

	result := newImportResult(uuid.NewString(), name)
	result.TotalRows = len(table.Rows)
	logger = logger.With("import_id", result.ImportID)

	mat := NewMaterializer(im.lenient, HoursSkipOutOfRange, im.now)

	err = im.store.InTx(ctx, func(tx database.Store) error {
		if err := im.lenient.Prepare(ctx, tx); err != nil {
			return err
		}

		drafts := make([]Draft, 0, len(table.Rows))
		for i, row := range table.Rows {
			if i%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}

			var out Outcome
			err := tx.InTx(ctx, func(sp database.Store) error {
				var err error
				out, err = mat.FromRow(ctx, sp, row)
				return err
			})
			if err != nil {
				if !database.IsDataError(err) {
					return fmt.Errorf("row %d: %w", row.Line, err)
				}
				logger.Warn("row failed",
					"row", row.Line,
					"customer", row.Get("Customer").Raw(),
					"project", row.Get("Project").Raw(),
					"error", err,
				)
				result.ValidationErrors = append(result.ValidationErrors, ValidationErrorRecord{
					Row: row.Line, Entry: row.Raw(), Error: err.Error(), Type: KindRowFailed,
				})
				continue
			}

			result.ValidationErrors = append(result.ValidationErrors, out.Errors...)
			if out.Skipped {
				result.Skipped++
				continue
			}
			if out.Draft != nil {
				drafts = append(drafts, *out.Draft)
				trackCreated(result, out.Draft)
			}
		}

		return im.insert(ctx, tx, drafts, result)
	})
	if err != nil {
		metrics.ImportsTotal.WithLabelValues(format.String(), "failed").Inc()
		logger.Error("import failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("import %s: %w", name, err)
	}

	im.finish(logger, format.String(), result, start)
	return result, nil
}

// ValidateBatch checks entries against storage without creating anything.
// Entries with field problems or unknown references are left out of the
// returned drafts and reported once per reason.
func (im *Importer) ValidateBatch(ctx context.Context, entries []TimeEntryInput) ([]Draft, []ValidationErrorRecord, error) {
	return im.validate(ctx, im.store, entries)
}

func (im *Importer) validate(ctx context.Context, q database.Querier, entries []TimeEntryInput) ([]Draft, []ValidationErrorRecord, error) {
	mat := NewMaterializer(im.strict, HoursRejectOutOfRange, im.now)

	drafts := make([]Draft, 0, len(entries))
	records := []ValidationErrorRecord{}
	for i, entry := range entries {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		out, err := mat.FromInput(ctx, q, entry, i+1)
		if err != nil {
			return nil, nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		records = append(records, out.Errors...)
		if out.Draft != nil {
			drafts = append(drafts, *out.Draft)
		}
	}
	return drafts, records, nil
}

// ImportEntries validates entries with ValidateBatch semantics and stores
// the valid ones in one transaction.
func (im *Importer) ImportEntries(ctx context.Context, entries []TimeEntryInput) (*ImportResult, error) {
	start := time.Now()
	result := newImportResult(uuid.NewString(), "")
	result.TotalRows = len(entries)
	logger := logging.WithFields(ctx, im.logger, append(importAttrs(ctx), "import_id", result.ImportID)...)

	err := im.store.InTx(ctx, func(tx database.Store) error {
		drafts, records, err := im.validate(ctx, tx, entries)
		if err != nil {
			return err
		}
		result.ValidationErrors = append(result.ValidationErrors, records...)
		return im.insert(ctx, tx, drafts, result)
	})
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("json", "failed").Inc()
		logger.Error("bulk import failed", "error", err)
		return nil, fmt.Errorf("bulk import: %w", err)
	}

	im.finish(logger, "json", result, start)
	return result, nil
}

// CheckEntries is ValidateBatch shaped as an ImportResult. Nothing is
// stored; Entries stays empty and Valid counts the entries that passed.
func (im *Importer) CheckEntries(ctx context.Context, entries []TimeEntryInput) (*ImportResult, error) {
	drafts, records, err := im.ValidateBatch(ctx, entries)
	if err != nil {
		return nil, err
	}
	result := newImportResult(uuid.NewString(), "")
	result.TotalRows = len(entries)
	result.Valid = len(drafts)
	result.ValidationErrors = records
	return result, nil
}

// insert stores drafts in chunks of batchSize.
func (im *Importer) insert(ctx context.Context, q database.Querier, drafts []Draft, result *ImportResult) error {
	for start := 0; start < len(drafts); start += im.batchSize {
		end := min(start+im.batchSize, len(drafts))

		params := make([]database.CreateTimeEntryParams, 0, end-start)
		for _, d := range drafts[start:end] {
			params = append(params, d.Params)
		}

		created, err := q.CreateTimeEntries(ctx, params)
		if err != nil {
			return fmt.Errorf("insert entries %d-%d: %w", start+1, end, err)
		}
		result.Entries = append(result.Entries, created...)
	}
	return nil
}

func (im *Importer) finish(logger *slog.Logger, format string, result *ImportResult, start time.Time) {
	result.Duration = time.Since(start)

	metrics.ImportsTotal.WithLabelValues(format, "ok").Inc()
	metrics.ImportDuration.Observe(result.Duration.Seconds())
	metrics.ImportRowsTotal.WithLabelValues("inserted").Add(float64(len(result.Entries)))
	metrics.ImportRowsTotal.WithLabelValues("skipped").Add(float64(result.Skipped))
	metrics.ImportRowsTotal.WithLabelValues("invalid").Add(float64(len(result.ValidationErrors)))

	logger.Info("import complete",
		"rows", result.TotalRows,
		"created", len(result.Entries),
		"skipped", result.Skipped,
		"errors", len(result.ValidationErrors),
		"customers_created", len(result.CreatedCustomers),
		"projects_created", len(result.CreatedProjects),
		"duration_ms", result.Duration.Milliseconds(),
	)
}

func trackCreated(result *ImportResult, d *Draft) {
	if d.CustomerOrigin == OriginCreated && d.Params.Customer != nil {
		result.CreatedCustomers = append(result.CreatedCustomers, *d.Params.Customer)
	}
	if d.ProjectOrigin == OriginCreated && d.Params.Project != nil {
		result.CreatedProjects = append(result.CreatedProjects, *d.Params.Project)
	}
}

// IsFileError reports whether err rejects a file as a whole.
func IsFileError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrCorruptFile) ||
		errors.Is(err, ErrMissingColumns)
}
