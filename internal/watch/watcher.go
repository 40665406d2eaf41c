// Package watch turns raw filesystem notifications into a bounded channel
// of typed events consumed by a single dispatcher loop. Write bursts for a
// newly created file are coalesced so the consumer sees one creation once
// the bytes have settled.
package watch

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op classifies an event for the dispatcher.
type Op int

const (
	// Created fires once for a new supported file after its write burst
	// has settled.
	Created Op = iota
	// Removed fires when a supported file disappears from a watched
	// directory (delete or rename away).
	Removed
)

// Event is one filesystem change relevant to the pipeline.
type Event struct {
	Path string
	Op   Op
}

// Config controls a Watcher.
type Config struct {
	Root      string
	Recursive bool
	// Settle is how long a new file must stay quiet before its creation
	// event is emitted. Uploads and copies arrive as many writes.
	Settle time.Duration
	// Buffer is the event channel capacity. Events beyond it are dropped
	// rather than blocking the notification goroutine.
	Buffer int
}

// Watcher owns an fsnotify watcher and the translation loop.
type Watcher struct {
	fw     *fsnotify.Watcher
	cfg    Config
	accept func(path string) bool
	logger *slog.Logger

	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Start begins watching the configured root. accept filters paths by
// supported extension.
func Start(cfg Config, accept func(string) bool, logger *slog.Logger) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, errors.New("watch root not configured")
	}
	if cfg.Settle <= 0 {
		cfg.Settle = time.Second
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fw:      fw,
		cfg:     cfg,
		accept:  accept,
		logger:  logger,
		events:  make(chan Event, cfg.Buffer),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}

	if err := w.addRoot(cfg.Root); err != nil {
		fw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// Events is the bounded channel of translated events. The channel is
// never closed; consumers stop via Done.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Done is closed when the watcher shuts down.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Rewatch moves the watch from one root to another, used when the
// directory aggregator renames the active watch root.
func (w *Watcher) Rewatch(oldRoot, newRoot string) error {
	if err := w.fw.Remove(oldRoot); err != nil {
		w.logger.Debug("remove old watch root", "root", oldRoot, "error", err)
	}
	return w.addRoot(newRoot)
}

// Close stops accepting notifications and cancels pending settle timers.
// A timer racing Close may still deliver into the buffered channel; with
// no consumer left that is harmless.
func (w *Watcher) Close() error {
	close(w.done)

	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	return w.fw.Close()
}

func (w *Watcher) addRoot(root string) error {
	if !w.cfg.Recursive {
		return w.fw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.fw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case e, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(e)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("filesystem watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(e fsnotify.Event) {
	// New subdirectories join the watch when recursing.
	if w.cfg.Recursive && e.Op.Has(fsnotify.Create) {
		// Add is a no-op with an error for plain files; that is fine.
		if err := w.fw.Add(e.Name); err == nil {
			w.logger.Debug("watching new directory", "path", e.Name)
		}
	}

	if !w.accept(e.Name) {
		return
	}

	switch {
	case e.Op.Has(fsnotify.Create) || e.Op.Has(fsnotify.Write):
		w.scheduleCreated(e.Name)
	case e.Op.Has(fsnotify.Remove) || e.Op.Has(fsnotify.Rename):
		w.cancelPending(e.Name)
		w.emit(Event{Path: e.Name, Op: Removed})
	}
}

// scheduleCreated (re)arms the settle timer for a path. Every new write
// pushes the emission out, so the consumer only sees complete files.
func (w *Watcher) scheduleCreated(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.cfg.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.emit(Event{Path: path, Op: Created})
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) emit(e Event) {
	select {
	case w.events <- e:
	default:
		w.logger.Warn("event channel full, dropping event", "path", e.Path)
	}
}
