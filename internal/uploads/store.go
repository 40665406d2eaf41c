// Package uploads tracks uploaded documents awaiting expiry. Files that
// processing never claimed are swept once their age exceeds the retention
// window, regardless of processing outcome.
package uploads

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Store is the in-memory registry of pending uploads.
type Store struct {
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]time.Time // path -> received_at
}

func NewStore(retention, sweepInterval time.Duration, logger *slog.Logger) *Store {
	if retention <= 0 {
		retention = 30 * time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		retention: retention,
		interval:  sweepInterval,
		logger:    logger,
		entries:   make(map[string]time.Time),
	}
}

// Add registers an uploaded file.
func (s *Store) Add(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[path] = time.Now()
}

// Remove untracks a file after explicit post-processing cleanup.
func (s *Store) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, path)
}

// Len returns the number of tracked uploads.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep deletes every tracked file older than the retention window and
// returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	var expired []string
	for path, received := range s.entries {
		if now.Sub(received) > s.retention {
			expired = append(expired, path)
			delete(s.entries, path)
		}
	}
	s.mu.Unlock()

	for _, path := range expired {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove expired upload", "path", path, "error", err)
		}
	}
	if len(expired) > 0 {
		s.logger.Info("expired uploads swept", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps on a fixed period until the context is cancelled. The period
// is independent of upload volume.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}
