package decode

import (
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"
)

// ErrNoCode means every strategy was exhausted for a frame without finding
// a QR code. Per-frame control flow only, never surfaced to operators.
var ErrNoCode = errors.New("no QR code found")

// Decoder is one strategy for extracting text from a frame believed to
// contain a QR code.
type Decoder interface {
	Name() string
	Decode(img image.Image) (string, error)
}

// Result is a successful decode: the raw text plus which strategy produced
// it.
type Result struct {
	Text     string
	Strategy string
}

// Chain tries decoders in priority order and returns the first non-empty
// result. Strategy errors (and panics inside a strategy) count as "failed
// for this frame" and advance to the next strategy.
type Chain struct {
	decoders []Decoder
	log      *zap.Logger
}

func NewChain(log *zap.Logger, decoders ...Decoder) *Chain {
	return &Chain{
		decoders: decoders,
		log:      log.With(zap.String("component", "decode_chain")),
	}
}

// NewDefaultChain builds the production strategy order: the QR reader
// first, the multi-format detector second, manual pixel sampling last.
func NewDefaultChain(log *zap.Logger) *Chain {
	return NewChain(log,
		NewQRReader(),
		NewMultiFormat(),
		NewPixelSampler(),
	)
}

// NewCameraChain is the default order with a custom pixel-sampling
// throttle, for live frame streams.
func NewCameraChain(log *zap.Logger, pixelInterval time.Duration) *Chain {
	return NewChain(log,
		NewQRReader(),
		NewMultiFormat(),
		NewPixelSamplerInterval(pixelInterval),
	)
}

// NewUploadChain is the default order without throttling: an upload is a
// single bitmap, there is no cadence to bound.
func NewUploadChain(log *zap.Logger) *Chain {
	return NewChain(log,
		NewQRReader(),
		NewMultiFormat(),
		NewPixelSamplerInterval(0),
	)
}

func (c *Chain) Decode(img image.Image) (*Result, error) {
	for _, d := range c.decoders {
		text, err := tryDecode(d, img)
		if err != nil {
			c.log.Debug("decode strategy failed",
				zap.String("strategy", d.Name()),
				zap.Error(err),
			)
			continue
		}
		if text != "" {
			c.log.Debug("decode strategy succeeded", zap.String("strategy", d.Name()))
			return &Result{Text: text, Strategy: d.Name()}, nil
		}
	}
	return nil, ErrNoCode
}

func tryDecode(d Decoder, img image.Image) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", d.Name(), r)
		}
	}()
	return d.Decode(img)
}
