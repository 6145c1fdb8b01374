package frame

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	device Device
	frames chan image.Image
	ready  chan struct{}
	closed int
}

func newFakeStream(id string) *fakeStream {
	ready := make(chan struct{})
	close(ready)
	return &fakeStream{
		device: Device{ID: id},
		frames: make(chan image.Image),
		ready:  ready,
	}
}

func (s *fakeStream) Device() Device             { return s.device }
func (s *fakeStream) Frames() <-chan image.Image { return s.frames }
func (s *fakeStream) Ready() <-chan struct{}     { return s.ready }
func (s *fakeStream) Bounds() (int, int)         { return 640, 480 }
func (s *fakeStream) Close() error               { s.closed++; return nil }

type fakeProvider struct {
	opens  []Constraints
	errs   []error
	stream Stream
}

func (p *fakeProvider) Devices(ctx context.Context) ([]Device, error) { return nil, nil }

func (p *fakeProvider) Open(ctx context.Context, c Constraints) (Stream, error) {
	p.opens = append(p.opens, c)
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return p.stream, nil
}

func TestAcquireFirstTry(t *testing.T) {
	provider := &fakeProvider{stream: newFakeStream("cam0")}

	stream, err := Acquire(context.Background(), provider, DefaultConstraints())

	require.NoError(t, err)
	assert.Equal(t, "cam0", stream.Device().ID)
	require.Len(t, provider.opens, 1)
	assert.Equal(t, 1280, provider.opens[0].Width)
}

func TestAcquireRetriesRelaxed(t *testing.T) {
	provider := &fakeProvider{
		stream: newFakeStream("cam0"),
		errs:   []error{Unavailable(ReasonBusy, errors.New("in use"))},
	}

	stream, err := Acquire(context.Background(), provider, DefaultConstraints())

	require.NoError(t, err)
	assert.NotNil(t, stream)
	require.Len(t, provider.opens, 2)

	// The retry drops resolution and device pinning, keeps the facing.
	relaxed := provider.opens[1]
	assert.Equal(t, FacingEnvironment, relaxed.Facing)
	assert.Zero(t, relaxed.Width)
	assert.Empty(t, relaxed.DeviceID)
}

func TestAcquireReportsFirstFailureReason(t *testing.T) {
	provider := &fakeProvider{
		errs: []error{
			Unavailable(ReasonPermissionDenied, errors.New("denied")),
			Unavailable(ReasonBusy, errors.New("in use")),
		},
	}

	_, err := Acquire(context.Background(), provider, DefaultConstraints())

	var camErr *CameraError
	require.ErrorAs(t, err, &camErr)
	assert.Equal(t, ReasonPermissionDenied, camErr.Reason)
}

func TestAcquireNormalizesPlainErrors(t *testing.T) {
	provider := &fakeProvider{
		errs: []error{errors.New("boom"), errors.New("boom again")},
	}

	_, err := Acquire(context.Background(), provider, DefaultConstraints())

	var camErr *CameraError
	require.ErrorAs(t, err, &camErr)
	assert.Equal(t, ReasonUnknown, camErr.Reason)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := 0; i < 16; i++ {
		img.SetGray(i, i, color.Gray{Y: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeUploadedImage(t *testing.T) {
	img, err := DecodeUploadedImage("code.png", pngBytes(t))

	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestDecodeUploadedImageRejectsNonImage(t *testing.T) {
	_, err := DecodeUploadedImage("notes.txt", []byte("not an image at all"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecodeUploadedImageRejectsEmpty(t *testing.T) {
	_, err := DecodeUploadedImage("empty.png", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecodeUploadedImageRejectsCorrupt(t *testing.T) {
	data := pngBytes(t)
	// Valid PNG signature, truncated body.
	_, err := DecodeUploadedImage("broken.png", data[:12])
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func writeStillDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame0.png"), pngBytes(t), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("not a frame"), 0o644))
	return dir
}

func TestStillProviderDevices(t *testing.T) {
	provider := NewStillProvider(writeStillDir(t), 5*time.Millisecond)

	devices, err := provider.Devices(context.Background())

	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, FacingEnvironment, devices[0].Facing)
}

func TestStillProviderDevicesEmptyDir(t *testing.T) {
	provider := NewStillProvider(t.TempDir(), 5*time.Millisecond)

	devices, err := provider.Devices(context.Background())

	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestStillProviderOpenEmptyDir(t *testing.T) {
	provider := NewStillProvider(t.TempDir(), 5*time.Millisecond)

	_, err := provider.Open(context.Background(), DefaultConstraints())

	var camErr *CameraError
	require.ErrorAs(t, err, &camErr)
	assert.Equal(t, ReasonNoDevice, camErr.Reason)
}

func TestStillStreamDeliversFrames(t *testing.T) {
	provider := NewStillProvider(writeStillDir(t), 5*time.Millisecond)

	stream, err := provider.Open(context.Background(), DefaultConstraints())
	require.NoError(t, err)
	defer stream.Close()

	// Ready immediately: dimensions are known at open time.
	select {
	case <-stream.Ready():
	default:
		t.Fatal("still stream should be ready at open")
	}

	w, h := stream.Bounds()
	assert.Equal(t, 16, w)
	assert.Equal(t, 16, h)

	select {
	case img, ok := <-stream.Frames():
		require.True(t, ok)
		assert.Equal(t, 16, img.Bounds().Dx())
	case <-time.After(time.Second):
		t.Fatal("no frame within deadline")
	}
}

func TestStillStreamCloseIdempotent(t *testing.T) {
	provider := NewStillProvider(writeStillDir(t), 5*time.Millisecond)

	stream, err := provider.Open(context.Background(), DefaultConstraints())
	require.NoError(t, err)

	assert.NoError(t, stream.Close())
	assert.NoError(t, stream.Close())

	// The pump closes the frame channel on its way out.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-stream.Frames():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("frame channel never closed")
		}
	}
}
