// Package resolver derives the canonical identity of one scanned document.
// It drives the per-document state machine: scan candidate pages for a
// machine-readable symbol, fall back to whole-text extraction when the
// symbol path comes up short, and classify the document as resolved or
// unresolved.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/invoice-scanner/internal/decode"
	"github.com/invoice-scanner/internal/document"
	"github.com/invoice-scanner/internal/extract"
	"github.com/invoice-scanner/internal/invoice"
)

// State is a terminal resolution state.
type State string

const (
	// StateResolved means a usable invoice number was found. The amount
	// may legitimately be absent.
	StateResolved State = "RESOLVED"
	// StateUnresolved means no invoice number was found anywhere; the
	// document is left untouched.
	StateUnresolved State = "UNRESOLVED"
)

// Resolution is the outcome of resolving one document.
type Resolution struct {
	State    State
	Identity invoice.Identity
}

// Resolved reports whether a usable identity was produced.
func (r Resolution) Resolved() bool {
	return r.State == StateResolved
}

// Resolver orchestrates the adapters, the symbol decoder, and the field
// extractor. Safe for concurrent use across different documents.
type Resolver struct {
	registry      *document.Registry
	decoder       decode.Decoder
	logger        *slog.Logger
	keepArtifacts bool
}

// New builds a resolver. When keepArtifacts is set, intermediate raster
// images are left on disk for inspection instead of being removed.
func New(registry *document.Registry, decoder decode.Decoder, logger *slog.Logger, keepArtifacts bool) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		registry:      registry,
		decoder:       decoder,
		logger:        logger,
		keepArtifacts: keepArtifacts,
	}
}

// Resolve runs the state machine for one document. An error is returned
// only for unsupported formats or context cancellation; every expected
// extraction miss lands in StateUnresolved instead.
func (r *Resolver) Resolve(ctx context.Context, path string) (Resolution, error) {
	adapter, ok := r.registry.Lookup(path)
	if !ok {
		return Resolution{}, fmt.Errorf("unsupported document format: %s", document.NormalizedExt(path))
	}

	var rasters []string
	defer func() {
		if r.keepArtifacts {
			return
		}
		for _, p := range rasters {
			if err := os.Remove(p); err != nil {
				r.logger.Debug("failed to remove raster", "path", p, "error", err)
			}
		}
	}()

	payload, rasters, err := r.scanSymbol(ctx, adapter, path)
	if err != nil {
		return Resolution{}, err
	}

	var id invoice.Identity
	if payload != "" {
		id = extract.Extract(payload)
	}

	if r.needsTextFallback(payload, id) {
		id, err = r.textFallback(ctx, adapter, path, id)
		if err != nil {
			return Resolution{}, err
		}
	}

	if !id.HasNumber() {
		r.logger.Info("document unresolved", "path", path, "symbol_found", payload != "")
		return Resolution{State: StateUnresolved}, nil
	}
	return Resolution{State: StateResolved, Identity: id}, nil
}

// scanSymbol renders candidate pages in order and stops at the first
// non-empty decode. Returns the rendered raster paths for cleanup.
func (r *Resolver) scanSymbol(ctx context.Context, adapter document.Adapter, path string) (string, []string, error) {
	pages, err := adapter.CandidatePages(ctx, path)
	if err != nil {
		return "", nil, err
	}

	var rasters []string
	for _, page := range pages {
		raster, err := adapter.RenderPage(ctx, path, page)
		if err != nil {
			return "", rasters, err
		}
		if raster == "" {
			continue
		}
		rasters = append(rasters, raster)

		payload, err := r.decoder.Decode(raster)
		if err != nil {
			return "", rasters, err
		}
		if payload != "" {
			r.logger.Debug("symbol decoded", "path", path, "page", page)
			return payload, rasters, nil
		}
	}
	return "", rasters, nil
}

// needsTextFallback decides whether the symbol path is sufficient. The
// short-form number convention omits the amount in the payload and needs
// corroboration from the document text.
func (r *Resolver) needsTextFallback(payload string, id invoice.Identity) bool {
	if payload == "" {
		return true
	}
	if !id.HasNumber() {
		return true
	}
	return id.ShortForm() && !id.HasAmount()
}

// textFallback scans the whole document text. The number found on the
// symbol path is kept when present; the amount becomes the maximum
// currency-marked figure in the text when any parse.
func (r *Resolver) textFallback(ctx context.Context, adapter document.Adapter, path string, id invoice.Identity) (invoice.Identity, error) {
	text, err := adapter.ExtractText(ctx, path)
	if err != nil {
		return id, err
	}

	if !id.HasNumber() {
		id.Number = extract.NumberFromText(text)
	}
	if id.HasNumber() {
		if max := extract.MaxLabeledAmount(text); max != nil {
			id.Amount = max
		}
	}
	return id, nil
}
