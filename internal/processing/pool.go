package processing

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// FileProcessor runs the pipeline for one document.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) Result
}

// Batch fans a set of documents out over a bounded worker pool and
// collects per-document results in input order. Used by the upload
// surface, where one request can carry many documents.
type Batch struct {
	processor FileProcessor
	pool      *ants.Pool
	logger    *slog.Logger
}

func NewBatch(processor FileProcessor, size int, logger *slog.Logger) (*Batch, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Batch{processor: processor, pool: pool, logger: logger}, nil
}

// Process submits every path to the pool and waits for all of them.
// Failures are captured in the corresponding Result, never aborting the
// rest of the batch.
func (b *Batch) Process(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		i, path := i, path
		wg.Add(1)
		if err := b.pool.Submit(func() {
			defer wg.Done()
			results[i] = b.processor.ProcessFile(ctx, path)
		}); err != nil {
			// Pool rejected the task (released or overloaded); record the
			// failure for this document and move on.
			results[i] = Result{Filename: filepath.Base(path), Err: err}
			wg.Done()
		}
	}

	wg.Wait()
	return results
}

// Submit runs one document asynchronously; the watch dispatcher uses it
// so a slow resolution never blocks event consumption.
func (b *Batch) Submit(ctx context.Context, path string) error {
	return b.pool.Submit(func() {
		if res := b.processor.ProcessFile(ctx, path); res.Err != nil {
			b.logger.Warn("document processing failed", "path", path, "error", res.Err)
		}
	})
}

// Running reports the number of busy workers.
func (b *Batch) Running() int {
	return b.pool.Running()
}

// Shutdown releases the worker pool, waiting up to timeout for in-flight
// documents to finish.
func (b *Batch) Shutdown(timeout time.Duration) {
	b.logger.Info("shutting down worker pool", "running_workers", b.pool.Running())
	if err := b.pool.ReleaseTimeout(timeout); err != nil {
		b.logger.Warn("worker pool did not drain in time", "error", err)
	}
}
