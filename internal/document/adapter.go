// Package document provides the container adapters that turn a scanned
// invoice document into raster images and plain text. Adapters are thin
// I/O wrappers: a page that cannot be rendered or a document that yields
// no text is reported as an empty result, never as an error.
package document

import (
	"context"
	"path/filepath"
	"strings"
)

// Adapter converts one container format into rasters and text.
type Adapter interface {
	// CandidatePages lists the page indexes worth scanning for a symbol,
	// in scan order. The set is format-specific policy: some formats put
	// the symbol on the first page only, others anywhere.
	CandidatePages(ctx context.Context, path string) ([]int, error)

	// RenderPage writes a raster image for the given page and returns its
	// path, or "" when the page cannot be rendered. The caller owns the
	// returned file.
	RenderPage(ctx context.Context, path string, page int) (string, error)

	// ExtractText returns the document's plain text, or "" when none can
	// be extracted.
	ExtractText(ctx context.Context, path string) (string, error)
}

// Registry maps filename extensions (lowercase, with dot) to adapters.
type Registry struct {
	byExt map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Adapter)}
}

func (r *Registry) Register(ext string, a Adapter) {
	r.byExt[strings.ToLower(ext)] = a
}

// Lookup returns the adapter for the file's extension.
func (r *Registry) Lookup(path string) (Adapter, bool) {
	a, ok := r.byExt[NormalizedExt(path)]
	return a, ok
}

// Supports reports whether the file's extension has a registered adapter.
func (r *Registry) Supports(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// Extensions returns the registered extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}

// NormalizedExt returns the lowercase extension of a path, with dot.
func NormalizedExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
