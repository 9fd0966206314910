// Package capture decouples camera frame acquisition from the frame loop.
// A Source blocks until it has a frame; a Poller runs it on a goroutine and
// exposes the newest reduced frame without blocking.
package capture

import (
	"context"
	"errors"
	"image"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/image/draw"
)

// ErrCameraUnavailable is reported when the source cannot deliver frames.
var ErrCameraUnavailable = errors.New("camera unavailable")

// ErrStopTimeout is returned by Stop when the capture goroutine did not exit
// in time. The source is closed once the goroutine drains.
var ErrStopTimeout = errors.New("camera did not stop in time")

// DefaultStopTimeout bounds how long Stop waits for a pending Grab.
const DefaultStopTimeout = 250 * time.Millisecond

// Source delivers camera frames. Grab blocks until a frame is ready, the
// context is done, or the device fails.
type Source interface {
	Grab(ctx context.Context) (image.Image, error)
	Close() error
}

// Reduce shrinks any frame to a w x h grayscale image.
func Reduce(src image.Image, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Poller runs a Source in the background and keeps only the newest frame.
type Poller struct {
	src           Source
	width, height int

	// StopTimeout bounds the wait in Stop; DefaultStopTimeout when zero
	StopTimeout time.Duration

	mu        sync.Mutex
	latest    *image.Gray
	fresh     bool
	available bool
	err       error
	frames    int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a poller reducing frames to width x height.
func NewPoller(src Source, width, height int) *Poller {
	return &Poller{src: src, width: width, height: height}
}

// Start launches the capture goroutine.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.mu.Lock()
	p.available = true
	p.err = nil
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		frame, err := p.src.Grab(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if !errors.Is(err, ErrCameraUnavailable) {
				err = errors.Join(ErrCameraUnavailable, err)
			}
			slog.Warn("camera capture stopped", "error", err)
			p.mu.Lock()
			p.available = false
			p.err = err
			p.mu.Unlock()
			return
		}

		small := Reduce(frame, p.width, p.height)
		p.mu.Lock()
		p.latest = small
		p.fresh = true
		p.frames++
		p.mu.Unlock()
	}
}

// PollFrame returns the newest frame if one arrived since the last call.
// It never blocks on the source.
func (p *Poller) PollFrame() (*image.Gray, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.fresh {
		return nil, false
	}
	p.fresh = false
	return p.latest, true
}

// IsAvailable reports whether the source is still delivering frames.
func (p *Poller) IsAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// Err returns the error that stopped capture, if any.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Frames returns the number of frames captured so far.
func (p *Poller) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Stop cancels capture and closes the source. It waits at most StopTimeout
// for the capture goroutine; a Grab that ignores cancellation is left to
// drain in the background and the source is closed after it returns.
func (p *Poller) Stop() error {
	if p.cancel != nil {
		p.cancel()
	}

	p.mu.Lock()
	p.available = false
	p.latest = nil
	p.fresh = false
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timeout := p.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return p.src.Close()
	case <-timer.C:
		go func() {
			<-done
			if err := p.src.Close(); err != nil {
				slog.Warn("closing camera after drain", "error", err)
			}
		}()
		return fmt.Errorf("%w after %v", ErrStopTimeout, timeout)
	}
}
