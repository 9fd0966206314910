package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/bonfire/systems"
)

func TestCollector_ShouldFlush(t *testing.T) {
	c := NewCollector(1.0, 1.0/60)

	if c.WindowDurationTicks() != 60 {
		t.Fatalf("expected 60 ticks per window, got %d", c.WindowDurationTicks())
	}
	if c.ShouldFlush(59) {
		t.Error("should not flush before the window ends")
	}
	if !c.ShouldFlush(60) {
		t.Error("should flush at the window end")
	}
}

func TestCollector_WindowTicksRounded(t *testing.T) {
	tests := []struct {
		sec  float64
		dt   float32
		want int32
	}{
		{10, 0.0166667, 600},
		{10, 1.0 / 60, 600},
		{1, 1.0 / 30, 30},
		{0.001, 1.0 / 60, 1},
	}
	for _, tt := range tests {
		if got := NewCollector(tt.sec, tt.dt).WindowDurationTicks(); got != tt.want {
			t.Errorf("NewCollector(%v, %v): expected %d ticks, got %d", tt.sec, tt.dt, tt.want, got)
		}
	}
}

func TestCollector_FlushFractions(t *testing.T) {
	c := NewCollector(1.0, 0.5)

	// Four frames: two Ember, one with motion and override
	c.RecordFrame(systems.ModeHumanity, false, false, 0.01, 10)
	c.RecordFrame(systems.ModeHumanity, false, false, 0.01, 10)
	c.RecordFrame(systems.ModeEmber, true, true, 0.2, 20)
	c.RecordFrame(systems.ModeEmber, false, false, 0.02, 0)
	c.RecordModeChange()
	c.RecordImageSwitch()
	c.RecordDecodeFailure()

	particles := []systems.Particle{
		{Alpha: 0, Size: 2},
		{Alpha: 0.5, Size: 4},
		{Alpha: 1, Size: 6},
	}
	s := c.Flush(4, particles, FieldInfo{Image: "dunes", Kind: "edges", Points: 1234})

	if s.EmberFraction != 0.5 || s.MotionFraction != 0.25 || s.OverrideFraction != 0.25 {
		t.Errorf("unexpected fractions ember=%v motion=%v override=%v",
			s.EmberFraction, s.MotionFraction, s.OverrideFraction)
	}
	if s.Respawns != 40 {
		t.Errorf("expected 40 respawns, got %d", s.Respawns)
	}
	// 40 respawns over 4 frames of 0.5s
	if math.Abs(s.RespawnRate-20) > 1e-9 {
		t.Errorf("expected 20 respawns/s, got %v", s.RespawnRate)
	}
	if math.Abs(s.MotionLevelMax-0.2) > 1e-9 {
		t.Errorf("expected max motion 0.2, got %v", s.MotionLevelMax)
	}
	if s.Particles != 3 || math.Abs(s.AlphaMean-0.5) > 1e-6 || math.Abs(s.SizeP50-4) > 1e-6 {
		t.Errorf("unexpected particle distribution %+v", s)
	}
	if s.Image != "dunes" || s.FieldKind != "edges" || s.SpawnPoints != 1234 {
		t.Errorf("unexpected field info %q/%q/%d", s.Image, s.FieldKind, s.SpawnPoints)
	}
	if s.ModeChanges != 1 || s.ImageSwitches != 1 || s.DecodeFailures != 1 {
		t.Error("expected counters carried into the window")
	}

	// Counters reset for the next window
	next := c.Flush(8, particles, FieldInfo{})
	if next.Respawns != 0 || next.EmberFraction != 0 || next.ModeChanges != 0 || next.WindowStartTick != 4 {
		t.Errorf("expected a fresh window, got %+v", next)
	}
}
