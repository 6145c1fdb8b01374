package frame

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// StillProvider serves frames from a directory of still images, cycling
// through them at a fixed cadence. It stands in for a live camera on kiosk
// hosts without capture hardware and in tests.
type StillProvider struct {
	dir      string
	interval time.Duration
}

func NewStillProvider(dir string, interval time.Duration) *StillProvider {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &StillProvider{dir: dir, interval: interval}
}

var stillExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

func (p *StillProvider) imagePaths() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if stillExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(p.dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Devices reports a single synthetic device when the directory holds at
// least one image.
func (p *StillProvider) Devices(ctx context.Context) ([]Device, error) {
	paths, err := p.imagePaths()
	if err != nil || len(paths) == 0 {
		return nil, nil
	}
	return []Device{{
		ID:     "still:" + p.dir,
		Label:  fmt.Sprintf("Still images (%s)", filepath.Base(p.dir)),
		Facing: FacingEnvironment,
	}}, nil
}

func (p *StillProvider) Open(ctx context.Context, c Constraints) (Stream, error) {
	paths, err := p.imagePaths()
	if err != nil {
		return nil, Unavailable(ReasonNoDevice, err)
	}
	if len(paths) == 0 {
		return nil, Unavailable(ReasonNoDevice, fmt.Errorf("no images in %s", p.dir))
	}

	images := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		img, err := loadImage(path)
		if err != nil {
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, Unavailable(ReasonUnsupported, fmt.Errorf("no decodable images in %s", p.dir))
	}

	devices, _ := p.Devices(ctx)
	s := &stillStream{
		device:   devices[0],
		frames:   make(chan image.Image),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		images:   images,
		interval: p.interval,
	}
	b := images[0].Bounds()
	s.width, s.height = b.Dx(), b.Dy()
	close(s.ready)

	go s.pump()
	return s, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

type stillStream struct {
	device   Device
	frames   chan image.Image
	ready    chan struct{}
	done     chan struct{}
	images   []image.Image
	interval time.Duration
	width    int
	height   int

	closeOnce sync.Once
}

func (s *stillStream) pump() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.frames)

	i := 0
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		select {
		case <-s.done:
			return
		case s.frames <- s.images[i%len(s.images)]:
			i++
		}
	}
}

func (s *stillStream) Device() Device              { return s.device }
func (s *stillStream) Frames() <-chan image.Image  { return s.frames }
func (s *stillStream) Ready() <-chan struct{}      { return s.ready }
func (s *stillStream) Bounds() (int, int)          { return s.width, s.height }

func (s *stillStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}
