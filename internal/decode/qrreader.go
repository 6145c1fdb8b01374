package decode

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// QRReader is the primary strategy: the dedicated QR code reader over a
// hybrid-binarized bitmap with try-harder enabled.
type QRReader struct {
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

func NewQRReader() *QRReader {
	return &QRReader{
		reader: qrcode.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (d *QRReader) Name() string { return "qr_reader" }

func (d *QRReader) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("build bitmap: %w", err)
	}

	result, err := d.reader.Decode(bmp, d.hints)
	if err != nil {
		return "", err
	}

	return result.GetText(), nil
}
