package document

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFConfig locates the external poppler tools used for rasterization and
// text extraction.
type PDFConfig struct {
	Pdftoppm  string // binary name or absolute path; empty means "pdftoppm"
	Pdftotext string // binary name or absolute path; empty means "pdftotext"
	DPI       int    // rasterization resolution, default 300
	TempDir   string // where rendered rasters are written
}

// PDF adapts PDF containers. Invoice PDFs carry the symbol on the first
// page, so only page 0 is a candidate.
type PDF struct {
	cfg    PDFConfig
	runner Runner
	logger *slog.Logger
}

func NewPDF(cfg PDFConfig, runner Runner, logger *slog.Logger) *PDF {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PDF{cfg: cfg, runner: runner, logger: logger}
}

func (p *PDF) CandidatePages(ctx context.Context, path string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		p.logger.Debug("pdf page count failed", "path", path, "error", err)
		return nil, nil
	}
	if n == 0 {
		return nil, nil
	}
	return []int{0}, nil
}

func (p *PDF) RenderPage(ctx context.Context, path string, page int) (string, error) {
	prefix := filepath.Join(p.cfg.TempDir, uuid.NewString())
	pageNo := fmt.Sprintf("%d", page+1) // pdftoppm pages are 1-based

	// pdftoppm -r <dpi> -png -f <n> -l <n> <in.pdf> <prefix>
	_, _, err := p.runner.Run(ctx, p.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", p.cfg.DPI),
		"-png",
		"-f", pageNo,
		"-l", pageNo,
		path, prefix)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", nil
	}

	// Output name is prefix-<n>.png with tool-dependent zero padding.
	matches, _ := filepath.Glob(prefix + "-*.png")
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[0], nil
}

func (p *PDF) ExtractText(ctx context.Context, path string) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <in.pdf> -
	out, _, err := p.runner.Run(ctx, p.cfg.Pdftotext,
		"-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", nil
	}
	return string(out), nil
}
