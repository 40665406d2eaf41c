package document

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildOFD writes a minimal OFD container: a zip with page content XML and
// optional raster resources.
func buildOFD(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

const contentXML = `<?xml version="1.0" encoding="UTF-8"?>
<ofd:Page xmlns:ofd="http://www.ofdspec.org/2016">
  <ofd:Content>
    <ofd:Layer>
      <ofd:TextObject ID="10"><ofd:TextCode X="0" Y="0">发票号码 87654321</ofd:TextCode></ofd:TextObject>
      <ofd:TextObject ID="11"><ofd:TextCode X="0" Y="5">价税合计 ¥13.56</ofd:TextCode></ofd:TextObject>
    </ofd:Layer>
  </ofd:Content>
</ofd:Page>`

func TestOFD_ExtractText(t *testing.T) {
	dir := t.TempDir()
	docPath := dir + "/invoice.ofd"
	buildOFD(t, docPath, map[string][]byte{
		"Doc_0/Pages/Page_0/Content.xml": []byte(contentXML),
		"OFD.xml":                        []byte(`<ofd:OFD xmlns:ofd="http://www.ofdspec.org/2016"/>`),
	})

	o := NewOFD(dir, nil)
	text, err := o.ExtractText(context.Background(), docPath)
	require.NoError(t, err)
	assert.Contains(t, text, "发票号码 87654321")
	assert.Contains(t, text, "价税合计 ¥13.56")
}

func TestOFD_CandidatePagesAndRender(t *testing.T) {
	dir := t.TempDir()
	docPath := dir + "/invoice.ofd"
	raster := pngBytes(t)
	buildOFD(t, docPath, map[string][]byte{
		"Doc_0/Res/image_20.png":         raster,
		"Doc_0/Res/image_21.jpg":         {0xff, 0xd8},
		"Doc_0/Pages/Page_0/Content.xml": []byte(contentXML),
	})

	o := NewOFD(dir, nil)
	ctx := context.Background()

	pages, err := o.CandidatePages(ctx, docPath)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, pages, "one candidate per embedded raster")

	out, err := o.RenderPage(ctx, docPath, 0)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, raster, data, "raster is copied out verbatim")

	// Out-of-range pages are an empty result, not an error.
	out, err = o.RenderPage(ctx, docPath, 99)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOFD_CorruptContainer(t *testing.T) {
	dir := t.TempDir()
	docPath := dir + "/broken.ofd"
	require.NoError(t, os.WriteFile(docPath, []byte("not a zip"), 0o644))

	o := NewOFD(dir, nil)
	ctx := context.Background()

	pages, err := o.CandidatePages(ctx, docPath)
	require.NoError(t, err)
	assert.Empty(t, pages)

	text, err := o.ExtractText(ctx, docPath)
	require.NoError(t, err)
	assert.Empty(t, text)

	out, err := o.RenderPage(ctx, docPath, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOFD_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOFD(t.TempDir(), nil)
	_, err := o.CandidatePages(ctx, "whatever.ofd")
	assert.ErrorIs(t, err, context.Canceled)
}
