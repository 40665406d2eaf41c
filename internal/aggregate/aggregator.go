// Package aggregate keeps a directory's name in sync with the total
// amount embedded in its member filenames. Recomputation is debounced so
// a burst of filesystem events collapses into one rename.
package aggregate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoice-scanner/internal/document"
	"github.com/invoice-scanner/internal/invoice"
)

// totalSuffix matches a previously embedded total at the end of a
// directory name, e.g. "invoices-¥15.50".
var totalSuffix = regexp.MustCompile(`-¥\d+(\.\d+)?$`)

// Aggregator recomputes and republishes directory totals. Safe for
// concurrent scheduling across directories.
type Aggregator struct {
	registry *document.Registry
	logger   *slog.Logger
	delay    time.Duration

	// OnDirRenamed is invoked after a directory is renamed to carry a new
	// total. The owner uses it to retarget watches and configuration when
	// the renamed directory is the active watch root. Set before first use.
	OnDirRenamed func(oldPath, newPath string)

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func New(registry *document.Registry, delay time.Duration, logger *slog.Logger) *Aggregator {
	if delay <= 0 {
		delay = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		registry: registry,
		logger:   logger,
		delay:    delay,
		timers:   make(map[string]*time.Timer),
	}
}

// Schedule queues a debounced recompute for the directory. Each call
// cancels and replaces any pending timer for the same directory, so only
// the latest schedule fires.
func (a *Aggregator) Schedule(dir string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if t, ok := a.timers[dir]; ok {
		t.Stop()
	}
	a.timers[dir] = time.AfterFunc(a.delay, func() {
		a.mu.Lock()
		delete(a.timers, dir)
		a.mu.Unlock()
		a.run(dir)
	})
}

// Close cancels all pending recomputations.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	for dir, t := range a.timers {
		t.Stop()
		delete(a.timers, dir)
	}
}

// run executes a scheduled recompute. Failures are logged and contained;
// the previous directory name stays in place and nothing retries.
func (a *Aggregator) run(dir string) {
	if _, err := a.Recompute(dir); err != nil {
		a.logger.Error("directory total recompute failed", "dir", dir, "error", err)
	}
}

// Recompute sums the amounts embedded in the directory's member filenames
// and renames the directory to embed the new total, stripping any previous
// total suffix first. Returns the directory's path afterwards, which
// changes only when a rename was needed.
func (a *Aggregator) Recompute(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return dir, fmt.Errorf("read directory: %w", err)
	}

	total := decimal.Zero
	members := 0
	for _, e := range entries {
		if e.IsDir() || !a.registry.Supports(e.Name()) {
			continue
		}
		members++
		if amt := invoice.AmountFromFilename(e.Name()); amt != nil {
			total = total.Add(*amt)
		}
	}

	base := filepath.Base(dir)
	stripped := totalSuffix.ReplaceAllString(base, "")

	// A directory that never held invoices and never carried a total is
	// left alone.
	if members == 0 && stripped == base {
		return dir, nil
	}

	target := fmt.Sprintf("%s-¥%s", stripped, invoice.FormatAmount(total))
	if target == base {
		return dir, nil
	}

	newPath := filepath.Join(filepath.Dir(dir), target)
	if err := os.Rename(dir, newPath); err != nil {
		return dir, fmt.Errorf("rename directory: %w", err)
	}
	a.logger.Info("directory total updated", "dir", newPath, "total", invoice.FormatAmount(total))

	if a.OnDirRenamed != nil {
		a.OnDirRenamed(dir, newPath)
	}
	return newPath, nil
}
