package systems

import (
	"math"
	"testing"
)

const tickDT = 1.0 / 60.0

func testAutoParams() AutoParams {
	return AutoParams{HumanityDwell: 12, EmberDwell: 8, Cooldown: 2}
}

func TestModeController_StartsAutoHumanity(t *testing.T) {
	c := NewModeController(testAutoParams())
	if c.Mode() != ModeHumanity || c.Selection() != SelectAuto {
		t.Errorf("expected Auto on Humanity, got %v/%v", c.Selection(), c.Mode())
	}
	if c.SelectionName() != "auto" {
		t.Errorf("expected selection name auto, got %q", c.SelectionName())
	}
}

func TestModeController_AutoDwellAlternates(t *testing.T) {
	params := testAutoParams()
	c := NewModeController(params)

	type transition struct {
		at   float64
		mode Mode
	}
	var transitions []transition

	prev := c.Mode()
	for tick := 1; tick <= 60*70; tick++ {
		m := c.OnTick(tickDT, false)
		if m != prev {
			transitions = append(transitions, transition{at: float64(tick) * tickDT, mode: m})
			prev = m
		}
	}

	if len(transitions) < 6 {
		t.Fatalf("expected at least 6 transitions in 70s, got %d", len(transitions))
	}

	last := 0.0
	from := ModeHumanity
	for i, tr := range transitions {
		if tr.mode == from {
			t.Fatalf("transition %d did not alternate", i)
		}
		dwell := params.HumanityDwell
		if from == ModeEmber {
			dwell = params.EmberDwell
		}
		if spacing := tr.at - last; math.Abs(spacing-dwell) > tickDT+1e-9 {
			t.Errorf("transition %d: spacing %.4fs, expected %.1fs ± one tick", i, spacing, dwell)
		}
		last = tr.at
		from = tr.mode
	}
}

func TestModeController_MotionOverride(t *testing.T) {
	params := testAutoParams()
	c := NewModeController(params)

	// Three quiet seconds in Humanity
	for i := 0; i < 180; i++ {
		c.OnTick(tickDT, false)
	}
	if c.Mode() != ModeHumanity {
		t.Fatalf("expected Humanity before motion, got %v", c.Mode())
	}

	// Motion forces Ember on the first active tick
	if m := c.OnTick(tickDT, true); m != ModeEmber {
		t.Fatalf("expected Ember on motion, got %v", m)
	}
	for i := 0; i < 60; i++ {
		c.OnTick(tickDT, true)
	}
	if !c.Overridden() {
		t.Error("expected override latched while motion persists")
	}

	// Ember holds through the cooldown
	quiet := 0
	for c.Mode() == ModeEmber && quiet < 600 {
		c.OnTick(tickDT, false)
		quiet++
	}
	held := float64(quiet) * tickDT
	if math.Abs(held-params.Cooldown) > tickDT+1e-9 {
		t.Errorf("expected release after %.1fs of quiet, got %.4fs", params.Cooldown, held)
	}
	if c.Overridden() {
		t.Error("override should release after cooldown")
	}

	// Cadence restarts at Humanity with a fresh dwell
	ticks := 0
	for c.Mode() == ModeHumanity && ticks < 60*20 {
		c.OnTick(tickDT, false)
		ticks++
	}
	if dwell := float64(ticks) * tickDT; math.Abs(dwell-params.HumanityDwell) > tickDT+1e-9 {
		t.Errorf("expected a full %.1fs Humanity dwell after release, got %.4fs", params.HumanityDwell, dwell)
	}
}

func TestModeController_MotionResetsCooldown(t *testing.T) {
	c := NewModeController(testAutoParams())
	c.OnTick(tickDT, true)

	// Quiet for 1.5s, motion blip, quiet for 1.5s: still Ember
	for i := 0; i < 90; i++ {
		c.OnTick(tickDT, false)
	}
	c.OnTick(tickDT, true)
	for i := 0; i < 90; i++ {
		c.OnTick(tickDT, false)
	}
	if c.Mode() != ModeEmber {
		t.Error("motion blip should restart the cooldown")
	}
}

func TestModeController_ForcedIgnoresMotion(t *testing.T) {
	c := NewModeController(testAutoParams())
	c.Select(SelectHumanity)

	for i := 0; i < 60*30; i++ {
		if m := c.OnTick(tickDT, i%2 == 0); m != ModeHumanity {
			t.Fatalf("tick %d: forced Humanity switched to %v", i, m)
		}
	}

	c.Select(SelectEmber)
	if m := c.OnTick(tickDT, false); m != ModeEmber {
		t.Errorf("expected forced Ember, got %v", m)
	}
	if c.Overridden() {
		t.Error("forced selection should not report an override")
	}
}

func TestModeController_CycleOrder(t *testing.T) {
	c := NewModeController(testAutoParams())

	want := []struct {
		sel  Selection
		name string
		mode Mode
	}{
		{SelectHumanity, "humanity", ModeHumanity},
		{SelectEmber, "ember", ModeEmber},
		{SelectAuto, "auto", ModeHumanity},
		{SelectHumanity, "humanity", ModeHumanity},
	}

	for i, w := range want {
		if got := c.Cycle(); got != w.sel {
			t.Fatalf("cycle %d: expected %v, got %v", i, w.sel, got)
		}
		if c.SelectionName() != w.name {
			t.Errorf("cycle %d: expected name %q, got %q", i, w.name, c.SelectionName())
		}
		if c.Mode() != w.mode {
			t.Errorf("cycle %d: expected mode %v, got %v", i, w.mode, c.Mode())
		}
	}
}

func TestModeController_ReenterAutoRestartsCadence(t *testing.T) {
	c := NewModeController(testAutoParams())
	for i := 0; i < 60*5; i++ {
		c.OnTick(tickDT, false)
	}

	// Selecting Auto while in Auto changes nothing
	c.Select(SelectAuto)
	if c.Elapsed() < 4.9 {
		t.Errorf("re-selecting Auto should keep the timer, elapsed %.2f", c.Elapsed())
	}

	c.Select(SelectEmber)
	c.Select(SelectAuto)
	if c.Mode() != ModeHumanity || c.Elapsed() != 0 {
		t.Errorf("expected fresh Humanity dwell, got %v after %.2fs", c.Mode(), c.Elapsed())
	}
}

func TestParseSelection(t *testing.T) {
	for _, s := range []Selection{SelectAuto, SelectHumanity, SelectEmber} {
		got, err := ParseSelection(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSelection(%q) = %v, %v", s.String(), got, err)
		}
	}
	if got, err := ParseSelection(" Ember "); err != nil || got != SelectEmber {
		t.Errorf("expected case-insensitive parse, got %v, %v", got, err)
	}
	if _, err := ParseSelection("fire"); err == nil {
		t.Error("expected error for unknown selection")
	}
}
