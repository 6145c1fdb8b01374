package frame

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Facing describes which way a camera points.
type Facing string

const (
	FacingEnvironment Facing = "environment" // rear camera, preferred for scanning
	FacingUser        Facing = "user"
	FacingUnknown     Facing = ""
)

// Device describes one enumerated video input.
type Device struct {
	ID     string
	Label  string
	Facing Facing
}

// Constraints express the preferred capture setup. DeviceID pins an exact
// device; otherwise Facing and the ideal resolution guide selection.
type Constraints struct {
	DeviceID string
	Facing   Facing
	Width    int
	Height   int
}

// DefaultConstraints mirrors the scanner's preferred capture setup: rear
// camera at 720p.
func DefaultConstraints() Constraints {
	return Constraints{
		Facing: FacingEnvironment,
		Width:  1280,
		Height: 720,
	}
}

// Relaxed drops everything but the facing preference, used as the retry
// constraint set when the full request fails.
func (c Constraints) Relaxed() Constraints {
	return Constraints{Facing: FacingEnvironment}
}

// CameraReason classifies why a camera could not be acquired.
type CameraReason string

const (
	ReasonPermissionDenied CameraReason = "permission_denied"
	ReasonNoDevice         CameraReason = "no_device"
	ReasonBusy             CameraReason = "busy"
	ReasonUnsupported      CameraReason = "unsupported"
	ReasonUnknown          CameraReason = "unknown"
)

// CameraError is fatal to the current scan session. It carries a reason so
// the UI can offer the right recovery path.
type CameraError struct {
	Reason CameraReason
	Err    error
}

func (e *CameraError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("camera unavailable (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("camera unavailable (%s)", e.Reason)
}

func (e *CameraError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as a CameraError with the given reason.
func Unavailable(reason CameraReason, err error) *CameraError {
	return &CameraError{Reason: reason, Err: err}
}

// ErrInvalidInput marks an uploaded file that is not a decodable image.
var ErrInvalidInput = errors.New("uploaded file is not an image")

// Stream is a live frame source. Close is idempotent and must be called on
// every exit path of a scan session.
type Stream interface {
	// Device identifies the input backing this stream.
	Device() Device

	// Frames delivers captured frames until the stream is closed. The
	// channel is closed by Close.
	Frames() <-chan image.Image

	// Ready is closed once frame dimensions are known.
	Ready() <-chan struct{}

	// Bounds reports the current frame dimensions, zero until ready.
	Bounds() (width, height int)

	Close() error
}

// Provider enumerates and opens video inputs.
type Provider interface {
	// Devices lists available inputs in platform enumeration order.
	Devices(ctx context.Context) ([]Device, error)

	// Open acquires a stream honoring the constraints. Failures are
	// returned as *CameraError.
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Acquire opens a stream with the full constraint set, retrying once with a
// relaxed set before giving up. Whatever the provider returns is normalized
// to *CameraError so callers can classify it.
func Acquire(ctx context.Context, p Provider, c Constraints) (Stream, error) {
	stream, err := p.Open(ctx, c)
	if err == nil {
		return stream, nil
	}

	stream, retryErr := p.Open(ctx, c.Relaxed())
	if retryErr == nil {
		return stream, nil
	}

	// Report the first failure; it carries the most specific reason.
	var camErr *CameraError
	if errors.As(err, &camErr) {
		return nil, camErr
	}
	return nil, Unavailable(ReasonUnknown, err)
}
