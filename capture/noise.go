package capture

import (
	"context"
	"image"
	"math"
	"time"

	"github.com/ojrac/opensimplex-go"
)

// NoiseSource is a synthetic camera: drifting simplex clouds with a bright
// blob that wanders across the frame. Used for headless runs and when no
// capture device is configured.
type NoiseSource struct {
	noise    opensimplex.Noise
	width    int
	height   int
	interval time.Duration
	scale    float64 // spatial frequency
	speed    float64 // noise drift per second
	blob     bool

	t      float64
	closed bool
}

// NewNoiseSource creates a source producing width x height frames every interval.
// With blob set, a moving bright spot produces sustained motion.
func NewNoiseSource(seed int64, width, height int, interval time.Duration, blob bool) *NoiseSource {
	return &NoiseSource{
		noise:    opensimplex.NewNormalized(seed),
		width:    width,
		height:   height,
		interval: interval,
		scale:    0.08,
		speed:    0.3,
		blob:     blob,
	}
}

// Grab waits one interval and renders the next frame.
func (s *NoiseSource) Grab(ctx context.Context) (image.Image, error) {
	if s.closed {
		return nil, ErrCameraUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.interval > 0 {
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	s.t += s.interval.Seconds()
	return s.Frame(s.t), nil
}

// Frame renders the frame at time t seconds.
func (s *NoiseSource) Frame(t float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.width, s.height))
	z := t * s.speed

	bx := float64(s.width) * (0.5 + 0.35*math.Sin(t*1.3))
	by := float64(s.height) * (0.5 + 0.35*math.Cos(t*0.9))
	br := float64(s.height) * 0.15

	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			v := s.noise.Eval3(float64(x)*s.scale, float64(y)*s.scale, z) * 0.6
			if s.blob {
				dx, dy := float64(x)-bx, float64(y)-by
				if dx*dx+dy*dy < br*br {
					v = 1
				}
			}
			img.Pix[y*img.Stride+x] = uint8(math.Min(v, 1) * 255)
		}
	}
	return img
}

// Close marks the source closed; further grabs report ErrCameraUnavailable.
func (s *NoiseSource) Close() error {
	s.closed = true
	return nil
}
