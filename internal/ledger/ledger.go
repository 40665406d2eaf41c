// Package ledger keeps the durable record of documents already processed,
// keyed by a digest of file content rather than path, so a moved or
// re-uploaded copy of the same bytes is recognized and skipped.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// hashChunkSize is the fixed read size used while digesting a file, so
// memory use stays independent of document size.
const hashChunkSize = 32 * 1024

// Record is one processed document. Never mutated and never expired
// automatically; purging is an administrative action.
type Record struct {
	ContentHash  string    `json:"content_hash"`
	OriginalPath string    `json:"original_path"`
	AssignedName string    `json:"assigned_name"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// Ledger is the idempotency store. The backing file is loaded fully at
// startup and rewritten fully on each commit; that is acceptable for the
// expected ledger sizes.
//
// TODO: switch to append-only persistence if ledgers grow past a few
// thousand entries.
//
// Commit is the sole writer entry point; Begin/Abort bracket in-flight
// documents so two near-simultaneous events for the same content cannot
// both process it.
type Ledger struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	entries  map[string]Record
	inflight map[string]struct{}
}

// Open loads the ledger file, creating an empty ledger when the file does
// not exist yet.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{
		path:     path,
		logger:   logger,
		entries:  make(map[string]Record),
		inflight: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	logger.Info("ledger loaded", "path", path, "entries", len(l.entries))
	return l, nil
}

// HashFile digests a file's content in fixed-size chunks.
func (l *Ledger) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsProcessed reports whether content with this digest has already been
// recorded.
func (l *Ledger) IsProcessed(hash string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[hash]
	return ok
}

// Begin claims a digest for processing. It returns false when the digest
// is already recorded or currently being processed by another goroutine;
// the caller must then skip the document.
func (l *Ledger) Begin(hash string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[hash]; ok {
		return false
	}
	if _, ok := l.inflight[hash]; ok {
		return false
	}
	l.inflight[hash] = struct{}{}
	return true
}

// Abort releases a claim without recording anything, after a failed or
// unresolved processing attempt.
func (l *Ledger) Abort(hash string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, hash)
}

// Commit records a processed document and persists the whole mapping. A
// persistence failure is returned to the caller and the claim is kept out
// of the entries map, so the document is reported as failed rather than
// silently treated as recorded.
func (l *Ledger) Commit(hash, originalPath, assignedName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := Record{
		ContentHash:  hash,
		OriginalPath: originalPath,
		AssignedName: assignedName,
		ProcessedAt:  time.Now().UTC(),
	}
	l.entries[hash] = rec
	delete(l.inflight, hash)

	if err := l.persistLocked(); err != nil {
		delete(l.entries, hash)
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

// Records returns all entries ordered by processing time.
func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs := make([]Record, 0, len(l.entries))
	for _, rec := range l.entries {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].ProcessedAt.Before(recs[j].ProcessedAt)
	})
	return recs
}

// Len returns the number of recorded documents.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// persistLocked rewrites the backing file atomically: full marshal to a
// temp file in the same directory, then rename over the old one.
func (l *Ledger) persistLocked() error {
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}
