package systems

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/bonfire/config"
)

// MotionParams holds the debounce thresholds of the motion signal.
type MotionParams struct {
	Window     int     // samples averaged into the level
	Enter      float64 // level above which motion starts
	Exit       float64 // level below which motion may end
	EnterHold  float64 // seconds above Enter before raising
	ExitHold   float64 // seconds below Exit before clearing
	StaleAfter float64 // seconds without frames before decaying
}

// MotionParamsFromConfig converts the motion section.
func MotionParamsFromConfig(c config.MotionConfig) MotionParams {
	return MotionParams{
		Window:     c.Window,
		Enter:      c.EnterThreshold,
		Exit:       c.ExitThreshold,
		EnterHold:  c.EnterHold,
		ExitHold:   c.ExitHold,
		StaleAfter: c.StaleAfter,
	}
}

// MotionSignal reduces grayscale frames to a debounced motion boolean using
// the mean absolute difference between consecutive frames.
type MotionSignal struct {
	params MotionParams

	prev         []uint8
	prevW, prevH int

	samples []float64 // ring of the last Window differences
	next    int
	filled  int

	level    float64
	lastDiff float64
	diffMap  []float64

	active bool
	above  float64 // sustained time above Enter
	below  float64 // sustained time below Exit

	sinceFrame float64 // time since the last real frame
	pending    float64 // time since the last evaluation
}

// NewMotionSignal creates an inactive signal.
func NewMotionSignal(params MotionParams) *MotionSignal {
	if params.Window < 1 {
		params.Window = 1
	}
	return &MotionSignal{
		params:  params,
		samples: make([]float64, params.Window),
	}
}

// Update feeds the next frame (nil when none arrived this tick) and returns
// the debounced state. A nil frame holds the state until StaleAfter, after
// which the signal decays as if still frames were arriving.
func (m *MotionSignal) Update(frame *image.Gray, dt float64) bool {
	m.pending += dt

	if frame == nil {
		m.sinceFrame += dt
		if m.sinceFrame >= m.params.StaleAfter {
			m.push(0)
			m.evaluate()
		}
		return m.active
	}
	m.sinceFrame = 0

	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return m.active
	}

	if w != m.prevW || h != m.prevH || m.prev == nil {
		m.prev = make([]uint8, w*h)
		m.diffMap = make([]float64, w*h)
		m.prevW, m.prevH = w, h
		m.store(frame)
		m.pending = 0
		return m.active
	}

	m.push(m.difference(frame))
	m.store(frame)
	m.evaluate()
	return m.active
}

// difference computes the mean absolute difference against the previous
// frame in [0, 1] and fills the per-pixel difference map.
func (m *MotionSignal) difference(frame *image.Gray) float64 {
	var sum float64
	for y := 0; y < m.prevH; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+m.prevW]
		prev := m.prev[y*m.prevW : (y+1)*m.prevW]
		for x, v := range row {
			d := int(v) - int(prev[x])
			if d < 0 {
				d = -d
			}
			f := float64(d) / 255
			m.diffMap[y*m.prevW+x] = f
			sum += f
		}
	}
	return sum / float64(m.prevW*m.prevH)
}

func (m *MotionSignal) store(frame *image.Gray) {
	for y := 0; y < m.prevH; y++ {
		copy(m.prev[y*m.prevW:(y+1)*m.prevW], frame.Pix[y*frame.Stride:y*frame.Stride+m.prevW])
	}
}

func (m *MotionSignal) push(diff float64) {
	m.lastDiff = diff
	m.samples[m.next] = diff
	m.next = (m.next + 1) % len(m.samples)
	if m.filled < len(m.samples) {
		m.filled++
	}
}

func (m *MotionSignal) evaluate() {
	elapsed := m.pending
	m.pending = 0
	m.level = stat.Mean(m.samples[:m.filled], nil)

	if !m.active {
		if m.level > m.params.Enter {
			m.above += elapsed
			if m.above >= m.params.EnterHold {
				m.active = true
				m.below = 0
			}
		} else {
			m.above = 0
		}
		return
	}

	if m.level < m.params.Exit {
		m.below += elapsed
		if m.below >= m.params.ExitHold {
			m.active = false
			m.above = 0
		}
	} else {
		m.below = 0
	}
}

// MarkUnavailable clears the signal and its history. Used when the camera
// goes away.
func (m *MotionSignal) MarkUnavailable() {
	m.active = false
	m.above, m.below = 0, 0
	m.level, m.lastDiff = 0, 0
	m.next, m.filled = 0, 0
	m.prev = nil
	m.prevW, m.prevH = 0, 0
	m.diffMap = nil
	m.sinceFrame, m.pending = 0, 0
}

// Active returns the debounced motion state.
func (m *MotionSignal) Active() bool { return m.active }

// Level returns the smoothed difference level in [0, 1].
func (m *MotionSignal) Level() float64 { return m.level }

// LastDiff returns the most recent frame difference.
func (m *MotionSignal) LastDiff() float64 { return m.lastDiff }

// DiffMap returns the per-pixel difference of the last frame pair, or nil.
// Row-major, width x height of the frames fed to Update.
func (m *MotionSignal) DiffMap() []float64 {
	if m.filled == 0 {
		return nil
	}
	return m.diffMap
}
