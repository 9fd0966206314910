package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"
)

// stallSource never delivers a frame until its context is cancelled.
type stallSource struct{}

func (stallSource) Grab(ctx context.Context) (image.Image, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallSource) Close() error { return nil }

// chanSource delivers frames pushed on a channel.
type chanSource struct {
	frames chan image.Image
	err    error
}

func (s *chanSource) Grab(ctx context.Context) (image.Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case f, ok := <-s.frames:
		if !ok {
			return nil, s.err
		}
		return f, nil
	}
}

func (s *chanSource) Close() error { return nil }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPoller_StalledSourceNeverBlocks(t *testing.T) {
	p := NewPoller(stallSource{}, 8, 6)
	p.Start(context.Background())

	start := time.Now()
	for i := 0; i < 100; i++ {
		if f, ok := p.PollFrame(); ok || f != nil {
			t.Fatal("stalled source should not produce frames")
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("PollFrame blocked on a stalled source")
	}
	if !p.IsAvailable() {
		t.Error("stalled source is still available")
	}

	if err := p.Stop(); err != nil {
		t.Errorf("unexpected stop error: %v", err)
	}
	if p.IsAvailable() {
		t.Error("stopped poller should not be available")
	}
}

func TestPoller_DeliversNewestFrameOnce(t *testing.T) {
	src := &chanSource{frames: make(chan image.Image, 4)}
	p := NewPoller(src, 8, 6)
	p.Start(context.Background())
	defer p.Stop()

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := 0; i < len(img.Pix); i++ {
		img.Pix[i] = 255
	}
	src.frames <- img

	waitFor(t, func() bool { return p.Frames() >= 1 })

	f, ok := p.PollFrame()
	if !ok {
		t.Fatal("expected a fresh frame")
	}
	if f.Bounds().Dx() != 8 || f.Bounds().Dy() != 6 {
		t.Errorf("expected reduced 8x6 frame, got %v", f.Bounds())
	}
	if _, ok := p.PollFrame(); ok {
		t.Error("frame should be consumed by the first poll")
	}
}

func TestPoller_FailureMarksUnavailable(t *testing.T) {
	src := &chanSource{frames: make(chan image.Image), err: errors.New("device unplugged")}
	close(src.frames)

	p := NewPoller(src, 8, 6)
	p.Start(context.Background())
	defer p.Stop()

	waitFor(t, func() bool { return !p.IsAvailable() })
	if !errors.Is(p.Err(), ErrCameraUnavailable) {
		t.Errorf("expected ErrCameraUnavailable, got %v", p.Err())
	}
	if _, ok := p.PollFrame(); ok {
		t.Error("failed source should not produce frames")
	}
}

func TestReduce(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			src.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	g := Reduce(src, 10, 5)
	if g.Bounds().Dx() != 10 || g.Bounds().Dy() != 5 {
		t.Fatalf("expected 10x5, got %v", g.Bounds())
	}
	for i, v := range g.Pix {
		if v != 255 {
			t.Fatalf("pixel %d: expected 255, got %d", i, v)
		}
	}
}

func TestNoiseSource_Deterministic(t *testing.T) {
	a := NewNoiseSource(42, 16, 12, 0, true)
	b := NewNoiseSource(42, 16, 12, 0, true)

	fa, fb := a.Frame(1.5), b.Frame(1.5)
	for i := range fa.Pix {
		if fa.Pix[i] != fb.Pix[i] {
			t.Fatalf("pixel %d differs between identical sources", i)
		}
	}

	later := a.Frame(3.0)
	same := true
	for i := range fa.Pix {
		if fa.Pix[i] != later.Pix[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("expected frames to change over time")
	}
}

func TestNoiseSource_GrabAndClose(t *testing.T) {
	s := NewNoiseSource(1, 8, 6, time.Millisecond, false)

	img, err := s.Grab(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("expected width 8, got %d", img.Bounds().Dx())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Grab(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	s.Close()
	if _, err := s.Grab(context.Background()); !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("expected ErrCameraUnavailable after close, got %v", err)
	}
}

// deafSource ignores cancellation and blocks until released.
type deafSource struct {
	release chan struct{}
	closed  chan struct{}
}

func (s *deafSource) Grab(ctx context.Context) (image.Image, error) {
	<-s.release
	return image.NewGray(image.Rect(0, 0, 4, 4)), nil
}

func (s *deafSource) Close() error {
	close(s.closed)
	return nil
}

func TestPoller_StopBoundedWhenGrabIgnoresContext(t *testing.T) {
	src := &deafSource{release: make(chan struct{}), closed: make(chan struct{})}
	p := NewPoller(src, 8, 6)
	p.StopTimeout = 20 * time.Millisecond
	p.Start(context.Background())

	start := time.Now()
	err := p.Stop()
	if !errors.Is(err, ErrStopTimeout) {
		t.Fatalf("expected ErrStopTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop waited %v on a stuck source", elapsed)
	}
	if p.IsAvailable() {
		t.Error("stopped poller should not be available")
	}
	select {
	case <-src.closed:
		t.Fatal("source closed while Grab was still running")
	default:
	}

	// The source closes once the pending Grab returns
	close(src.release)
	select {
	case <-src.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("source never closed after the grab drained")
	}
	if _, ok := p.PollFrame(); ok {
		t.Error("frame delivered after Stop")
	}
}
