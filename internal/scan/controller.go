package scan

import (
	"context"
	"errors"
	"sync"
	"time"

	"playground-checkin/internal/decode"
	"playground-checkin/internal/frame"

	"go.uber.org/zap"
)

// DefaultReadyTimeout force-starts decoding when a stream never signals
// readiness but its frame dimensions are already valid. A liveness safety
// net, not a correctness requirement.
const DefaultReadyTimeout = 2 * time.Second

// Config tunes one controller.
type Config struct {
	ReadyTimeout time.Duration
	Constraints  frame.Constraints
}

func (c Config) withDefaults() Config {
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = DefaultReadyTimeout
	}
	if c.Constraints == (frame.Constraints{}) {
		c.Constraints = frame.DefaultConstraints()
	}
	return c
}

// Callbacks are the host hooks. OnScan fires at most once per Start/Stop
// cycle with the raw decoded text; OnClose fires at most once when the
// session is dismissed via Close.
type Callbacks struct {
	OnScan  func(text string)
	OnClose func()
}

// Controller owns the scan session lifecycle. It is the only component that
// starts or stops the frame source and the decoder chain.
type Controller struct {
	provider  frame.Provider
	chain     *decode.Chain
	cfg       Config
	callbacks Callbacks
	log       *zap.Logger

	mu        sync.Mutex
	session   Session
	started   bool
	scanFired bool
	cancel    context.CancelFunc
	stream    frame.Stream
	loopDone  chan struct{}
	closeOnce sync.Once
}

func NewController(provider frame.Provider, chain *decode.Chain, cfg Config, cb Callbacks, log *zap.Logger) *Controller {
	return &Controller{
		provider:  provider,
		chain:     chain,
		cfg:       cfg.withDefaults(),
		callbacks: cb,
		log:       log.With(zap.String("component", "scan_controller")),
		session:   Session{Mode: ModeCamera, State: StateIdle},
	}
}

// Session returns a snapshot of the current session state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	s.Cameras = append([]frame.Device(nil), c.session.Cameras...)
	return s
}

// Start transitions idle→starting, acquires a stream, waits for readiness
// and runs the decode loop. A Start while already active is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	prevLoop := c.loopDone
	c.started = true
	c.scanFired = false
	c.session.State = StateStarting
	c.session.ActiveStrategy = ""
	c.session.LastError = nil
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	// A previous loop may still be winding down after Stop; let it finish
	// so two chains never race on a frame source.
	if prevLoop != nil {
		<-prevLoop
	}

	if err := c.refreshCameras(ctx); err != nil {
		c.log.Debug("camera enumeration failed", zap.Error(err))
	}

	constraints := c.cfg.Constraints
	c.mu.Lock()
	if len(c.session.Cameras) > 0 {
		constraints.DeviceID = c.session.Cameras[c.session.CameraIndex].ID
	}
	c.mu.Unlock()

	stream, err := frame.Acquire(loopCtx, c.provider, constraints)
	if err != nil {
		c.failStart(err)
		return err
	}

	c.mu.Lock()
	if !c.started {
		// Stop raced with this Start; honor it.
		c.mu.Unlock()
		stream.Close()
		return nil
	}
	c.stream = stream
	c.mu.Unlock()

	if err := c.awaitReady(loopCtx, stream); err != nil {
		c.Stop()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		c.mu.Lock()
		c.session.State = StateError
		c.session.LastError = err
		c.mu.Unlock()
		return err
	}

	done := make(chan struct{})
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		close(done)
		stream.Close()
		return nil
	}
	c.session.State = StateScanning
	c.loopDone = done
	c.mu.Unlock()

	c.log.Info("scan session started",
		zap.String("device", stream.Device().ID),
		zap.String("label", stream.Device().Label),
	)

	go c.scanLoop(loopCtx, stream, done)
	return nil
}

// awaitReady blocks until the first of: stream readiness, the ready timeout
// with valid frame dimensions, or cancellation.
func (c *Controller) awaitReady(ctx context.Context, stream frame.Stream) error {
	timer := time.NewTimer(c.cfg.ReadyTimeout)
	defer timer.Stop()

	select {
	case <-stream.Ready():
		return nil
	case <-ctx.Done():
		return context.Canceled
	case <-timer.C:
		if w, h := stream.Bounds(); w > 0 && h > 0 {
			c.log.Warn("stream never signaled ready, dimensions valid, starting anyway")
			return nil
		}
		return frame.Unavailable(frame.ReasonUnsupported, errors.New("stream not ready before timeout"))
	}
}

func (c *Controller) failStart(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.started = false
	c.session.State = StateError
	c.session.LastError = err
	c.log.Warn("scan start failed", zap.Error(err))
}

func (c *Controller) refreshCameras(ctx context.Context) error {
	devices, err := c.provider.Devices(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Cameras = devices
	if c.session.CameraIndex >= len(devices) {
		c.session.CameraIndex = 0
	}
	return nil
}

func (c *Controller) scanLoop(ctx context.Context, stream frame.Stream, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case img, ok := <-stream.Frames():
			if !ok {
				return
			}
			result, err := c.chain.Decode(img)
			if err != nil {
				// Per-frame failure; keep scanning.
				continue
			}
			c.found(result)
			return
		}
	}
}

// found enforces single-result semantics: mark the session found, tear down
// every resource, then report. It runs on the loop goroutine and must not
// wait for the loop to exit.
func (c *Controller) found(result *decode.Result) {
	c.mu.Lock()
	if c.scanFired || !c.started {
		c.mu.Unlock()
		return
	}
	c.scanFired = true
	c.started = false
	c.session.State = StateFound
	c.session.ActiveStrategy = result.Strategy
	cancel, stream := c.cancel, c.stream
	c.cancel, c.stream, c.loopDone = nil, nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stream != nil {
		stream.Close()
	}

	c.log.Info("scan result", zap.String("strategy", result.Strategy))

	if c.callbacks.OnScan != nil {
		c.callbacks.OnScan(result.Text)
	}

	c.mu.Lock()
	c.session.State = StateIdle
	c.mu.Unlock()
}

// Stop is the universal cancellation primitive: it cancels the decode loop,
// releases the stream and returns the session to idle. Safe from any state,
// any number of times, including while a Start is in flight.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, stream, done := c.cancel, c.stream, c.loopDone
	c.cancel, c.stream, c.loopDone = nil, nil, nil
	c.started = false
	c.session.State = StateIdle
	c.session.ActiveStrategy = ""
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stream != nil {
		stream.Close()
	}
	if done != nil {
		<-done
	}
}

// SwitchCamera advances to the next enumerated device (wrapping) and
// restarts the session against it. No-op with fewer than two devices.
func (c *Controller) SwitchCamera(ctx context.Context) error {
	if err := c.refreshCameras(ctx); err != nil {
		c.log.Debug("camera enumeration failed", zap.Error(err))
	}

	c.mu.Lock()
	if len(c.session.Cameras) < 2 {
		c.mu.Unlock()
		return nil
	}
	c.session.CameraIndex = (c.session.CameraIndex + 1) % len(c.session.Cameras)
	index := c.session.CameraIndex
	c.mu.Unlock()

	c.log.Info("switching camera", zap.Int("index", index))

	c.Stop()
	return c.Start(ctx)
}

// Close dismisses the scanner: stop everything and fire OnClose once.
func (c *Controller) Close() {
	c.Stop()
	c.closeOnce.Do(func() {
		if c.callbacks.OnClose != nil {
			c.callbacks.OnClose()
		}
	})
}
