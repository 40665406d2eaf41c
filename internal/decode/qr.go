// Package decode reads machine-readable symbols out of raster images.
package decode

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder attempts to decode a symbol from a raster image, returning the
// payload or "" when no symbol is present. Implementations never treat
// absence as an error.
type Decoder interface {
	Decode(imagePath string) (string, error)
}

// QRDecoder decodes QR codes with the zxing port.
type QRDecoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewQRDecoder() *QRDecoder {
	return &QRDecoder{
		hints: map[gozxing.DecodeHintType]interface{}{
			// Invoice rasters are dense 300 DPI renders; spend the extra
			// time scanning for a small symbol.
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (d *QRDecoder) Decode(imagePath string) (string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", nil
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", nil
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		// NotFoundException and friends: the image simply has no QR.
		return "", nil
	}
	return result.GetText(), nil
}
