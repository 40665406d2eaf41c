// Package processing orchestrates the per-document pipeline: idempotency
// check, identity resolution, rename, ledger commit, and directory total
// scheduling. Both the watch path and the upload path converge here.
package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/invoice-scanner/internal/document"
	"github.com/invoice-scanner/internal/invoice"
	"github.com/invoice-scanner/internal/naming"
	"github.com/invoice-scanner/internal/resolver"
)

// ErrUnresolved marks a document in which no invoice number was found.
// The source file is left untouched.
var ErrUnresolved = errors.New("no invoice number found")

// DocumentResolver derives a document's identity.
type DocumentResolver interface {
	Resolve(ctx context.Context, path string) (resolver.Resolution, error)
}

// Renamer commits canonical renames.
type Renamer interface {
	Rename(src, name string) (string, error)
}

// IdempotencyLedger is the content-hash processing record.
type IdempotencyLedger interface {
	HashFile(path string) (string, error)
	Begin(hash string) bool
	Abort(hash string)
	Commit(hash, originalPath, assignedName string) error
}

// TotalScheduler queues a directory total recompute.
type TotalScheduler interface {
	Schedule(dir string)
}

// Result is the per-document outcome reported to callers. One document's
// failure never affects its siblings.
type Result struct {
	Filename string // original base name
	Success  bool
	Skipped  bool   // identical content was already processed
	NewPath  string // full path after rename, empty unless Success
	NewName  string // base name after rename, empty unless Success
	Amount   string // formatted amount, empty when absent
	Err      error
}

// Service runs the pipeline for one document at a time. Safe for
// concurrent invocation on different documents.
type Service struct {
	ledger    IdempotencyLedger
	resolver  DocumentResolver
	renamer   Renamer
	scheduler TotalScheduler
	logger    *slog.Logger

	// amountVisible is the externally owned naming policy flag; the web
	// surface can flip it at runtime.
	amountVisible func() bool
}

func NewService(
	ledger IdempotencyLedger,
	res DocumentResolver,
	renamer Renamer,
	scheduler TotalScheduler,
	amountVisible func() bool,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledger:        ledger,
		resolver:      res,
		renamer:       renamer,
		scheduler:     scheduler,
		amountVisible: amountVisible,
		logger:        logger,
	}
}

// ProcessFile runs the full pipeline for one document.
func (s *Service) ProcessFile(ctx context.Context, path string) Result {
	result := Result{Filename: filepath.Base(path)}

	hash, err := s.ledger.HashFile(path)
	if err != nil {
		result.Err = fmt.Errorf("hash document: %w", err)
		return result
	}

	// The claim is taken before any side effect so two near-simultaneous
	// events for the same bytes cannot both rename.
	if !s.ledger.Begin(hash) {
		s.logger.Info("document already processed, skipping", "path", path)
		result.Success = true
		result.Skipped = true
		return result
	}

	res, err := s.resolver.Resolve(ctx, path)
	if err != nil {
		s.ledger.Abort(hash)
		result.Err = err
		return result
	}
	if !res.Resolved() {
		s.ledger.Abort(hash)
		result.Err = ErrUnresolved
		return result
	}

	name := naming.BuildName(res.Identity, document.NormalizedExt(path), s.amountVisible())
	newPath, err := s.renamer.Rename(path, name)
	if err != nil {
		s.ledger.Abort(hash)
		result.Err = err
		return result
	}

	// Record only after the rename is durable. A persistence failure is a
	// processing failure for this document: pretending it was recorded
	// would break idempotency.
	if err := s.ledger.Commit(hash, path, filepath.Base(newPath)); err != nil {
		result.Err = err
		return result
	}

	s.scheduler.Schedule(filepath.Dir(newPath))

	result.Success = true
	result.NewPath = newPath
	result.NewName = filepath.Base(newPath)
	if res.Identity.HasAmount() {
		result.Amount = invoice.FormatAmount(*res.Identity.Amount)
	}
	s.logger.Info("document processed",
		"original", path,
		"renamed", result.NewName,
		"amount", result.Amount,
	)
	return result
}
