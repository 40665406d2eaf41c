// Package naming turns a resolved identity into a canonical filename and
// commits the rename, resolving collisions deterministically.
package naming

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/invoice-scanner/internal/invoice"
)

// BuildName renders the canonical filename for an identity. amountVisible
// is supplied by configuration; the policy itself never decides it.
func BuildName(id invoice.Identity, ext string, amountVisible bool) string {
	return invoice.FileName(id, ext, amountVisible)
}

// Policy commits renames. Renames within one directory are serialized so
// the probe-then-rename sequence cannot race when two documents resolve to
// the same identity concurrently.
type Policy struct {
	logger *slog.Logger

	mu   sync.Mutex
	dirs map[string]*sync.Mutex
}

func NewPolicy(logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{logger: logger, dirs: make(map[string]*sync.Mutex)}
}

// Rename moves src to the given name inside its own directory, suffixing
// "_1", "_2", ... before the extension until an unused path is found.
// Returns the path actually committed.
func (p *Policy) Rename(src, name string) (string, error) {
	dir := filepath.Dir(src)

	lock := p.dirLock(dir)
	lock.Lock()
	defer lock.Unlock()

	dst := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Lstat(dst); err != nil {
			if os.IsNotExist(err) {
				break
			}
			return "", fmt.Errorf("probe destination %s: %w", dst, err)
		}
		if dst == src {
			// Already carries the canonical name.
			return src, nil
		}
		dst = filepath.Join(dir, suffixed(name, i))
	}

	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("rename %s: %w", src, err)
	}
	p.logger.Debug("document renamed", "from", src, "to", dst)
	return dst, nil
}

func (p *Policy) dirLock(dir string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.dirs[dir]
	if !ok {
		lock = &sync.Mutex{}
		p.dirs[dir] = lock
	}
	return lock
}

// suffixed inserts "_<i>" before the extension: "a.pdf" -> "a_1.pdf".
func suffixed(name string, i int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), i, ext)
}
