package decode

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// errThrottled marks an attempt skipped by the rate cap; the chain treats
// it like any other per-frame failure.
var errThrottled = errors.New("pixel sampling throttled")

// PixelSampler is the last-resort strategy: it resamples the frame to a few
// target widths and runs a histogram-binarized decode on each, normal then
// inverted. Smaller widths are fast; the larger one helps with small or
// distant codes.
type PixelSampler struct {
	reader      gozxing.Reader
	minInterval time.Duration

	mu          sync.Mutex
	lastAttempt time.Time
}

// Sampling is capped at ~25 attempts/second to bound CPU use. Tunable, not
// a contract.
const defaultPixelInterval = 40 * time.Millisecond

func NewPixelSampler() *PixelSampler {
	return &PixelSampler{
		reader:      qrcode.NewQRCodeReader(),
		minInterval: defaultPixelInterval,
	}
}

// NewPixelSamplerInterval overrides the throttle interval; zero disables
// throttling (upload mode decodes a single bitmap, no cadence to bound).
func NewPixelSamplerInterval(interval time.Duration) *PixelSampler {
	return &PixelSampler{
		reader:      qrcode.NewQRCodeReader(),
		minInterval: interval,
	}
}

func (d *PixelSampler) Name() string { return "pixel_sampler" }

func (d *PixelSampler) Decode(img image.Image) (string, error) {
	if d.minInterval > 0 {
		d.mu.Lock()
		now := time.Now()
		if now.Sub(d.lastAttempt) < d.minInterval {
			d.mu.Unlock()
			return "", errThrottled
		}
		d.lastAttempt = now
		d.mu.Unlock()
	}

	sourceWidth := img.Bounds().Dx()
	widths := []int{640, 800, min(1024, sourceWidth)}

	for _, w := range widths {
		text, err := d.decodeAtWidth(img, w)
		if err == nil && text != "" {
			return text, nil
		}
	}

	return "", ErrNoCode
}

func (d *PixelSampler) decodeAtWidth(img image.Image, targetWidth int) (string, error) {
	scaled := downscale(img, targetWidth)

	src := gozxing.NewLuminanceSourceFromImage(scaled)
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	// Normal pass, then inverted: codes printed light-on-dark only decode
	// with inverted luminance.
	for _, lum := range []gozxing.LuminanceSource{src, gozxing.NewInvertedLuminanceSource(src)} {
		bmp, err := gozxing.NewBinaryBitmap(gozxing.NewGlobalHistgramBinarizer(lum))
		if err != nil {
			continue
		}
		if result, err := d.reader.Decode(bmp, hints); err == nil {
			return result.GetText(), nil
		}
	}

	return "", fmt.Errorf("no code at width %d", targetWidth)
}

// downscale resamples img to targetWidth with nearest-neighbor sampling,
// preserving aspect ratio. Frames at or below the target pass through.
func downscale(img image.Image, targetWidth int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if targetWidth <= 0 || targetWidth >= w {
		return img
	}

	targetHeight := h * targetWidth / w
	if targetHeight < 1 {
		targetHeight = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	for y := 0; y < targetHeight; y++ {
		srcY := b.Min.Y + y*h/targetHeight
		for x := 0; x < targetWidth; x++ {
			srcX := b.Min.X + x*w/targetWidth
			out.Set(x, y, img.At(srcX, srcY))
		}
	}
	return out
}
