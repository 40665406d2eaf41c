package decode

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeQR renders a QR symbol carrying payload into a PNG file.
func writeQR(t *testing.T, dir, payload string) string {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(payload, gozxing.BarcodeFormat_QR_CODE, 256, 256, nil)
	require.NoError(t, err)

	path := filepath.Join(dir, "symbol.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, matrix))
	return path
}

func TestQRDecoder_RoundTrip(t *testing.T) {
	const payload = "01,32,12345678901234567890,286.79,20231101,"
	path := writeQR(t, t.TempDir(), payload)

	got, err := NewQRDecoder().Decode(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestQRDecoder_NoSymbol(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 64, 64))))
	f.Close()

	got, err := NewQRDecoder().Decode(path)
	require.NoError(t, err, "absence of a symbol is not an error")
	assert.Empty(t, got)
}

func TestQRDecoder_UnreadableInput(t *testing.T) {
	dir := t.TempDir()
	notImage := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(notImage, []byte("not a png"), 0o644))

	got, err := NewQRDecoder().Decode(notImage)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NewQRDecoder().Decode(filepath.Join(dir, "missing.png"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
