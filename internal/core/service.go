package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/logging"
)

// DefaultImportTimeout bounds a single file import.
var DefaultImportTimeout = 5 * time.Minute

// ReportCache stores rendered reports. Get returns the cache generation it
// read; Set stores under that generation only, so a report computed across
// an Invalidate is never served. Invalidate must make every stored report
// unreachable.
type ReportCache interface {
	Get(ctx context.Context, key string, dst any) (gen int64, hit bool, err error)
	Set(ctx context.Context, gen int64, key string, v any) error
	Invalidate(ctx context.Context) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, any) (int64, bool, error) { return 0, false, nil }
func (noopCache) Set(context.Context, int64, string, any) error         { return nil }
func (noopCache) Invalidate(context.Context) error                      { return nil }

// ServiceConfig configures a Service. Zero values take defaults.
type ServiceConfig struct {
	Import        ImporterConfig
	MaxConcurrent int
	MaxWait       time.Duration
	ImportTimeout time.Duration
	MaxFileSize   int64
	Cache         ReportCache
}

// Service is the entry point for every timesheet operation: CRUD, imports
// and reports. It is safe for concurrent use.
type Service struct {
	store    database.Store
	importer *Importer
	limiter  *ImportLimiter
	cache    ReportCache
	logger   *slog.Logger
	now      func() time.Time

	importTimeout time.Duration
	maxFileSize   int64
}

// NewService creates a Service backed by store.
func NewService(store database.Store, cfg ServiceConfig, logger *slog.Logger) *Service {
	logger = logging.OrDiscard(logger)
	if cfg.Import.Now == nil {
		cfg.Import.Now = time.Now
	}
	if cfg.ImportTimeout <= 0 {
		cfg.ImportTimeout = DefaultImportTimeout
	}
	if cfg.Cache == nil {
		cfg.Cache = noopCache{}
	}

	return &Service{
		store:         store,
		importer:      NewImporter(store, cfg.Import, logger),
		limiter:       NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cache:         cfg.Cache,
		logger:        logger,
		now:           cfg.Import.Now,
		importTimeout: cfg.ImportTimeout,
		maxFileSize:   cfg.MaxFileSize,
	}
}

// Importer returns the batch importer.
func (s *Service) Importer() *Importer { return s.importer }

// Limiter returns the import limiter.
func (s *Service) Limiter() *ImportLimiter { return s.limiter }

// MaxFileSize returns the upload size limit, or 0 when unlimited.
func (s *Service) MaxFileSize() int64 { return s.maxFileSize }

// Page is skip/limit pagination.
type Page struct {
	Skip  int
	Limit int
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

func (p Page) params() database.ListParams {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return database.ListParams{Offset: int32(p.Skip), Limit: int32(p.Limit)}
}

// invalidateReports drops cached reports after a write to time entries.
// A cache failure is logged; the write already succeeded.
func (s *Service) invalidateReports(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		logging.FromContext(ctx, s.logger).Warn("report cache invalidation failed", "error", err)
	}
}

// ImportFile imports an uploaded file through the lenient policy. It waits
// for a limiter slot and runs under the import timeout.
func (s *Service) ImportFile(ctx context.Context, name string, data []byte) (*ImportResult, error) {
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), s.maxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	result, err := s.importer.ImportFile(ctx, name, data)
	if err != nil {
		return nil, err
	}
	if len(result.Entries) > 0 || len(result.CreatedCustomers) > 0 {
		s.invalidateReports(ctx)
	}
	return result, nil
}

// ImportEntries validates entries strictly and stores the valid ones.
func (s *Service) ImportEntries(ctx context.Context, entries []TimeEntryInput) (*ImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	result, err := s.importer.ImportEntries(ctx, entries)
	if err != nil {
		return nil, err
	}
	if len(result.Entries) > 0 {
		s.invalidateReports(ctx)
	}
	return result, nil
}

// ValidateEntries reports what ImportEntries would reject without storing
// anything.
func (s *Service) ValidateEntries(ctx context.Context, entries []TimeEntryInput) (*ImportResult, error) {
	return s.importer.CheckEntries(ctx, entries)
}

// Shutdown waits for running imports to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.Info("waiting for imports to drain", "active", s.limiter.ActiveCount())
	return s.limiter.WaitForDrain(ctx)
}
