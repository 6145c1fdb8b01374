package decode

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// MultiFormat is the second strategy: an ordered reader set restricted to QR
// codes, run over a global-histogram binarized bitmap. The primary strategy
// binarizes with the hybrid pipeline; the histogram pass occasionally
// catches frames the hybrid one misses.
type MultiFormat struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewMultiFormat() *MultiFormat {
	return &MultiFormat{
		readers: []gozxing.Reader{
			qrcode.NewQRCodeReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{
				gozxing.BarcodeFormat_QR_CODE,
			},
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (d *MultiFormat) Name() string { return "multi_format" }

func (d *MultiFormat) Decode(img image.Image) (string, error) {
	src := gozxing.NewLuminanceSourceFromImage(img)
	bmp, err := gozxing.NewBinaryBitmap(gozxing.NewGlobalHistgramBinarizer(src))
	if err != nil {
		return "", err
	}

	for _, reader := range d.readers {
		if result, err := reader.Decode(bmp, d.hints); err == nil {
			return result.GetText(), nil
		}
	}

	return "", ErrNoCode
}
