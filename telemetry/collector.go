package telemetry

import (
	"math"

	"github.com/pthm-cable/bonfire/systems"
)

// FieldInfo describes the active spawn field at flush time.
type FieldInfo struct {
	Image  string
	Kind   string
	Points int
}

// Collector accumulates per-frame state within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Counters for current window
	frames         int
	respawns       int
	emberFrames    int
	motionFrames   int
	overrideFrames int
	modeChanges    int
	imageSwitches  int
	decodeFailures int
	motionSum      float64
	motionMax      float64

	// Scratch buffers reused across flushes
	alphas []float64
	sizes  []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	// Rounded: float32 dt widens slightly off, e.g. 1/60 to 0.0166666675
	ticksPerWindow := int32(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordFrame records the state of one frame step.
func (c *Collector) RecordFrame(mode systems.Mode, motion, overridden bool, motionLevel float64, respawns int) {
	c.frames++
	c.respawns += respawns
	if mode == systems.ModeEmber {
		c.emberFrames++
	}
	if motion {
		c.motionFrames++
	}
	if overridden {
		c.overrideFrames++
	}
	c.motionSum += motionLevel
	if motionLevel > c.motionMax {
		c.motionMax = motionLevel
	}
}

// RecordModeChange records a change of the active mode.
func (c *Collector) RecordModeChange() {
	c.modeChanges++
}

// RecordImageSwitch records a successful image switch.
func (c *Collector) RecordImageSwitch() {
	c.imageSwitches++
}

// RecordDecodeFailure records an image switch aborted by a decode error.
func (c *Collector) RecordDecodeFailure() {
	c.decodeFailures++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// particles is sampled for the alpha and size distributions.
func (c *Collector) Flush(currentTick int32, particles []systems.Particle, field FieldInfo) WindowStats {
	c.alphas = c.alphas[:0]
	c.sizes = c.sizes[:0]
	for i := range particles {
		c.alphas = append(c.alphas, float64(particles[i].Alpha))
		c.sizes = append(c.sizes, float64(particles[i].Size))
	}
	alphaMean, alphaP10, alphaP50, alphaP90 := ComputeDistribution(c.alphas)
	sizeMean, _, sizeP50, _ := ComputeDistribution(c.sizes)

	var emberFrac, motionFrac, overrideFrac, motionMean, respawnRate float64
	if c.frames > 0 {
		frames := float64(c.frames)
		emberFrac = float64(c.emberFrames) / frames
		motionFrac = float64(c.motionFrames) / frames
		overrideFrac = float64(c.overrideFrames) / frames
		motionMean = c.motionSum / frames
		respawnRate = float64(c.respawns) / (frames * float64(c.dt))
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Particles:   len(particles),
		Respawns:    c.respawns,
		RespawnRate: respawnRate,

		EmberFraction:    emberFrac,
		MotionFraction:   motionFrac,
		OverrideFraction: overrideFrac,
		ModeChanges:      c.modeChanges,

		Image:       field.Image,
		FieldKind:   field.Kind,
		SpawnPoints: field.Points,

		ImageSwitches:  c.imageSwitches,
		DecodeFailures: c.decodeFailures,

		MotionLevelMean: motionMean,
		MotionLevelMax:  c.motionMax,

		AlphaMean: alphaMean,
		AlphaP10:  alphaP10,
		AlphaP50:  alphaP50,
		AlphaP90:  alphaP90,
		SizeMean:  sizeMean,
		SizeP50:   sizeP50,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.frames = 0
	c.respawns = 0
	c.emberFrames = 0
	c.motionFrames = 0
	c.overrideFrames = 0
	c.modeChanges = 0
	c.imageSwitches = 0
	c.decodeFailures = 0
	c.motionSum = 0
	c.motionMax = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
