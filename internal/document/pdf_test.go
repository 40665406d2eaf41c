package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner simulates the poppler tools without invoking anything.
type fakeRunner struct {
	stdout []byte
	err    error

	// onRun lets a test create the side-effect files pdftoppm would write.
	onRun func(name string, args []string)

	calls [][]string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.onRun != nil {
		r.onRun(name, args)
	}
	return r.stdout, nil, r.err
}

func TestPDF_RenderPage(t *testing.T) {
	t.Run("returns the rendered raster", func(t *testing.T) {
		tempDir := t.TempDir()
		runner := &fakeRunner{}
		runner.onRun = func(_ string, args []string) {
			// pdftoppm writes <prefix>-<page>.png; the prefix is the last arg.
			prefix := args[len(args)-1]
			require.NoError(t, os.WriteFile(prefix+"-1.png", []byte("png"), 0o644))
		}

		p := NewPDF(PDFConfig{DPI: 150, TempDir: tempDir}, runner, nil)
		out, err := p.RenderPage(context.Background(), "/in/scan.pdf", 0)
		require.NoError(t, err)
		require.NotEmpty(t, out)
		assert.Equal(t, ".png", filepath.Ext(out))

		// The tool was invoked with 1-based page bounds and the configured DPI.
		require.Len(t, runner.calls, 1)
		call := runner.calls[0]
		assert.Equal(t, "pdftoppm", call[0])
		assert.Contains(t, call, "-r")
		assert.Contains(t, call, strconv.Itoa(150))
		assert.Contains(t, call, "-f")
		assert.Contains(t, call, "1")
	})

	t.Run("tool failure is an empty result", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("exit status 1")}
		p := NewPDF(PDFConfig{TempDir: t.TempDir()}, runner, nil)

		out, err := p.RenderPage(context.Background(), "/in/broken.pdf", 0)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("cancellation propagates", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		runner := &fakeRunner{err: context.Canceled}
		p := NewPDF(PDFConfig{TempDir: t.TempDir()}, runner, nil)

		_, err := p.RenderPage(ctx, "/in/scan.pdf", 0)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing output is an empty result", func(t *testing.T) {
		runner := &fakeRunner{}
		p := NewPDF(PDFConfig{TempDir: t.TempDir()}, runner, nil)

		out, err := p.RenderPage(context.Background(), "/in/scan.pdf", 0)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestPDF_ExtractText(t *testing.T) {
	t.Run("returns tool stdout", func(t *testing.T) {
		runner := &fakeRunner{stdout: []byte("发票号码 87654321\n价税合计 ¥13.56\n")}
		p := NewPDF(PDFConfig{}, runner, nil)

		text, err := p.ExtractText(context.Background(), "/in/scan.pdf")
		require.NoError(t, err)
		assert.Contains(t, text, "87654321")

		call := runner.calls[0]
		assert.Equal(t, "pdftotext", call[0])
		assert.Equal(t, "-", call[len(call)-1], "text goes to stdout")
	})

	t.Run("tool failure is an empty result", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("exit status 3")}
		p := NewPDF(PDFConfig{}, runner, nil)

		text, err := p.ExtractText(context.Background(), "/in/broken.pdf")
		require.NoError(t, err)
		assert.Empty(t, text)
	})
}

func TestPDF_CandidatePages_UnreadableFile(t *testing.T) {
	p := NewPDF(PDFConfig{}, &fakeRunner{}, nil)

	// Not a PDF at all: expected absence, not an error.
	path := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	pages, err := p.CandidatePages(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	pdf := NewPDF(PDFConfig{}, &fakeRunner{}, nil)
	r.Register(".PDF", pdf)

	a, ok := r.Lookup("/in/Scan.pdf")
	assert.True(t, ok)
	assert.Same(t, pdf, a)

	assert.True(t, r.Supports("/in/a.PDF"))
	assert.False(t, r.Supports("/in/a.ofd"))
	assert.False(t, r.Supports("/in/noext"))

	assert.Equal(t, []string{".pdf"}, r.Extensions())
}

func TestNormalizedExt(t *testing.T) {
	assert.Equal(t, ".pdf", NormalizedExt("/in/Scan.PDF"))
	assert.Equal(t, ".ofd", NormalizedExt("a.ofd"))
	assert.Equal(t, "", NormalizedExt("noext"))
}
