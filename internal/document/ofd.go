package document

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// OFD adapts OFD containers. An OFD file is a zip archive of XML page
// descriptions plus raster resources; the payment symbol is one of the
// embedded rasters, but which one varies by issuer, so every raster is a
// candidate page in archive order.
type OFD struct {
	tempDir string
	logger  *slog.Logger
}

func NewOFD(tempDir string, logger *slog.Logger) *OFD {
	if logger == nil {
		logger = slog.Default()
	}
	return &OFD{tempDir: tempDir, logger: logger}
}

func (o *OFD) CandidatePages(ctx context.Context, docPath string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rasters, err := o.rasterEntries(docPath)
	if err != nil {
		o.logger.Debug("ofd open failed", "path", docPath, "error", err)
		return nil, nil
	}
	pages := make([]int, len(rasters))
	for i := range rasters {
		pages[i] = i
	}
	return pages, nil
}

func (o *OFD) RenderPage(ctx context.Context, docPath string, page int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r, err := zip.OpenReader(docPath)
	if err != nil {
		return "", nil
	}
	defer r.Close()

	rasters := rasterNames(&r.Reader)
	if page < 0 || page >= len(rasters) {
		return "", nil
	}

	src, err := r.Open(rasters[page])
	if err != nil {
		return "", nil
	}
	defer src.Close()

	out := filepath.Join(o.tempDir, uuid.NewString()+path.Ext(rasters[page]))
	dst, err := os.Create(out)
	if err != nil {
		return "", nil
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(out)
		return "", nil
	}
	return out, nil
}

func (o *OFD) ExtractText(ctx context.Context, docPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r, err := zip.OpenReader(docPath)
	if err != nil {
		return "", nil
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "Content.xml") {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		f, err := r.Open(name)
		if err != nil {
			continue
		}
		collectTextCodes(f, &b)
		f.Close()
	}
	return b.String(), nil
}

func (o *OFD) rasterEntries(docPath string) ([]string, error) {
	r, err := zip.OpenReader(docPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return rasterNames(&r.Reader), nil
}

func rasterNames(r *zip.Reader) []string {
	var names []string
	for _, f := range r.File {
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".png", ".jpg", ".jpeg", ".bmp":
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	return names
}

// collectTextCodes appends the character data of every TextCode element.
// OFD page content nests text in ofd:TextObject/ofd:TextCode.
func collectTextCodes(r io.Reader, b *strings.Builder) {
	dec := xml.NewDecoder(r)
	inTextCode := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "TextCode" {
				inTextCode = true
			}
		case xml.EndElement:
			if t.Name.Local == "TextCode" {
				inTextCode = false
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inTextCode {
				b.Write(t)
			}
		}
	}
}
