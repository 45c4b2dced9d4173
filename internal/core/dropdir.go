package core

// dropdir.go imports files dropped into a watched directory.
//
// New files are picked up from fsnotify events once they have been quiet for
// the settle delay, and by a periodic sweep that catches anything the watcher
// missed. An imported file moves to Imported/ with a timestamp prefix. A file
// that fails moves to Failed/ next to a .err note. An imported file that
// cannot be moved gets a .done marker, or is removed, so it is never imported
// twice. Files that could not be imported because the limiter was full, or
// because shutdown started, stay where they are for the next sweep.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/tabular"
)

const (
	ImportedDirName = "Imported"
	FailedDirName   = "Failed"

	// DoneSuffix marks an imported file that could not be moved.
	DoneSuffix = ".done"
)

// DropDirConfig configures a DropDir. Zero durations take defaults.
type DropDirConfig struct {
	Dir      string
	Interval time.Duration // sweep interval (default: 30s)
	Settle   time.Duration // quiet time before a file is read (default: 2s, negative: none)
}

// DropDir watches Dir and imports every supported file placed in it.
type DropDir struct {
	svc    *Service
	cfg    DropDirConfig
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewDropDir returns a DropDir importing through svc.
func NewDropDir(svc *Service, cfg DropDirConfig, logger *slog.Logger) *DropDir {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Settle < 0 {
		cfg.Settle = 0
	} else if cfg.Settle == 0 {
		cfg.Settle = 2 * time.Second
	}
	return &DropDir{
		svc:     svc,
		cfg:     cfg,
		logger:  logging.OrDiscard(logger).With("component", "drop_dir", "dir", cfg.Dir),
		now:     time.Now,
		pending: make(map[string]time.Time),
	}
}

// Run watches the directory until ctx is cancelled. It sweeps once on
// start so files left from a previous run are not forgotten.
func (d *DropDir) Run(ctx context.Context) error {
	for _, sub := range []string{ImportedDirName, FailedDirName} {
		if err := os.MkdirAll(filepath.Join(d.cfg.Dir, sub), 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", sub, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(d.cfg.Dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", d.cfg.Dir, err)
	}

	d.logger.Info("drop directory watcher started",
		"interval", d.cfg.Interval.String(),
		"settle", d.cfg.Settle.String(),
	)
	d.Sweep(ctx)

	sweep := time.NewTicker(d.cfg.Interval)
	defer sweep.Stop()
	settle := time.NewTicker(max(d.cfg.Settle/2, 100*time.Millisecond))
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("drop directory watcher stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				d.touch(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("watcher error", "error", err)
		case <-settle.C:
			for _, path := range d.settled() {
				d.process(ctx, path)
			}
		case <-sweep.C:
			d.Sweep(ctx)
		}
	}
}

// Sweep imports every supported file in the directory that has been quiet
// for the settle delay. It returns the number of files it handled.
func (d *DropDir) Sweep(ctx context.Context) int {
	entries, err := os.ReadDir(d.cfg.Dir)
	if err != nil {
		d.logger.Error("read drop directory", "error", err)
		return 0
	}

	handled := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return handled
		}
		if !entry.Type().IsRegular() || !d.accepts(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || (d.cfg.Settle > 0 && d.now().Sub(info.ModTime()) < d.cfg.Settle) {
			continue
		}
		if d.process(ctx, filepath.Join(d.cfg.Dir, entry.Name())) {
			handled++
		}
	}
	return handled
}

func (d *DropDir) accepts(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	_, err := tabular.FormatFromName(name)
	return err == nil
}

func (d *DropDir) touch(path string) {
	if filepath.Dir(path) != filepath.Clean(d.cfg.Dir) || !d.accepts(filepath.Base(path)) {
		return
	}
	d.mu.Lock()
	d.pending[path] = d.now()
	d.mu.Unlock()
}

// settled removes and returns the pending files that have been quiet long
// enough, oldest name first.
func (d *DropDir) settled() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ready []string
	for path, seen := range d.pending {
		if d.now().Sub(seen) >= d.cfg.Settle {
			ready = append(ready, path)
			delete(d.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

// process imports one file and moves it out of the way. It reports whether
// the file was handled; false leaves it for the next sweep.
func (d *DropDir) process(ctx context.Context, path string) bool {
	name := filepath.Base(path)
	logger := d.logger.With("file", name)

	if _, err := os.Stat(path + DoneSuffix); err == nil {
		logger.Debug("skipping file already imported")
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("read dropped file", "error", err)
		}
		return false
	}

	result, err := d.svc.ImportFile(ContextWithSource(ctx, SourceDropDir), name, data)
	if err != nil {
		if errors.Is(err, ErrTooManyImports) || ctx.Err() != nil {
			logger.Info("import deferred to next sweep", "error", err)
			return false
		}
		logger.Warn("dropped file rejected", "error", err)
		if err := d.fail(path, err); err != nil {
			logger.Error("move failed file", "error", err)
		}
		return true
	}

	dst := filepath.Join(d.cfg.Dir, ImportedDirName, d.now().Format("20060102T150405")+"-"+name)
	if err := os.Rename(path, dst); err != nil {
		logger.Error("move imported file", "error", err)
		d.retire(logger, path, result)
	}
	logger.Info("dropped file imported",
		"import_id", result.ImportID,
		"created", len(result.Entries),
		"errors", len(result.ValidationErrors),
	)
	return true
}

// retire keeps an imported file that could not be moved from being imported
// again: it writes a .done marker next to it, and removes the file when even
// that fails.
func (d *DropDir) retire(logger *slog.Logger, path string, result *ImportResult) {
	note := fmt.Sprintf("imported %s as %s: %d entries created\n",
		d.now().Format(time.RFC3339), result.ImportID, len(result.Entries))
	err := os.WriteFile(path+DoneSuffix, []byte(note), 0o644)
	if err == nil {
		return
	}
	logger.Error("write done marker", "error", err)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Error("remove imported file", "error", err)
	}
}

func (d *DropDir) fail(path string, cause error) error {
	stamp := d.now().Format("20060102T150405")
	dst := filepath.Join(d.cfg.Dir, FailedDirName, stamp+"-"+filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return err
	}
	note := FormatUserError(cause) + "\n\n" + cause.Error() + "\n"
	return os.WriteFile(dst+".err", []byte(note), 0o644)
}
