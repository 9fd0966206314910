package systems

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/bonfire/config"
)

// Selection is the user-facing driver of the active mode.
type Selection uint8

const (
	SelectAuto     Selection = iota // dwell cycling with motion override
	SelectHumanity                  // forced Humanity
	SelectEmber                     // forced Ember
)

// String returns the lowercase selection name used in file names and the HUD.
func (s Selection) String() string {
	switch s {
	case SelectHumanity:
		return "humanity"
	case SelectEmber:
		return "ember"
	default:
		return "auto"
	}
}

// ParseSelection parses a selection name, ignoring case.
func ParseSelection(name string) (Selection, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "auto":
		return SelectAuto, nil
	case "humanity":
		return SelectHumanity, nil
	case "ember":
		return SelectEmber, nil
	}
	return SelectAuto, fmt.Errorf("unknown mode selection %q", name)
}

// AutoParams holds the Auto cadence and override cooldown in seconds.
type AutoParams struct {
	HumanityDwell float64
	EmberDwell    float64
	Cooldown      float64
}

// AutoParamsFromConfig converts the auto section.
func AutoParamsFromConfig(c config.AutoConfig) AutoParams {
	return AutoParams{
		HumanityDwell: c.HumanityDwell,
		EmberDwell:    c.EmberDwell,
		Cooldown:      c.Cooldown,
	}
}

// ModeController decides the active mode each tick from the selection, the
// dwell timer and the motion signal.
type ModeController struct {
	params    AutoParams
	selection Selection
	mode      Mode

	elapsed    float64 // time in the current Auto phase
	overridden bool    // motion forced Ember while in Auto
	quiet      float64 // time since motion last seen while overridden
}

// NewModeController starts in Auto on Humanity.
func NewModeController(params AutoParams) *ModeController {
	return &ModeController{params: params, selection: SelectAuto, mode: ModeHumanity}
}

// OnTick advances the controller by dt and returns the active mode.
func (c *ModeController) OnTick(dt float64, motion bool) Mode {
	switch c.selection {
	case SelectHumanity:
		c.mode = ModeHumanity
		return c.mode
	case SelectEmber:
		c.mode = ModeEmber
		return c.mode
	}

	if motion {
		c.overridden = true
		c.quiet = 0
		c.elapsed = 0
		c.mode = ModeEmber
		return c.mode
	}

	if c.overridden {
		c.quiet += dt
		if c.quiet >= c.params.Cooldown {
			c.restartCadence()
		}
		return c.mode
	}

	c.elapsed += dt
	if dwell := c.dwell(); c.elapsed >= dwell {
		c.elapsed -= dwell
		if c.elapsed < 0 || dwell <= 0 {
			c.elapsed = 0
		}
		c.mode = c.other()
	}
	return c.mode
}

func (c *ModeController) dwell() float64 {
	if c.mode == ModeEmber {
		return c.params.EmberDwell
	}
	return c.params.HumanityDwell
}

func (c *ModeController) other() Mode {
	if c.mode == ModeEmber {
		return ModeHumanity
	}
	return ModeEmber
}

func (c *ModeController) restartCadence() {
	c.mode = ModeHumanity
	c.elapsed = 0
	c.overridden = false
	c.quiet = 0
}

// Select sets the selection. Selecting the current selection is a no-op.
// Entering Auto restarts the cadence at Humanity; forced selections apply
// immediately.
func (c *ModeController) Select(s Selection) {
	if s == c.selection {
		return
	}
	c.selection = s
	switch s {
	case SelectHumanity:
		c.overridden = false
		c.mode = ModeHumanity
	case SelectEmber:
		c.overridden = false
		c.mode = ModeEmber
	default:
		c.selection = SelectAuto
		c.restartCadence()
	}
}

// Cycle steps Auto → Humanity → Ember → Auto and returns the new selection.
func (c *ModeController) Cycle() Selection {
	switch c.selection {
	case SelectAuto:
		c.Select(SelectHumanity)
	case SelectHumanity:
		c.Select(SelectEmber)
	default:
		c.Select(SelectAuto)
	}
	return c.selection
}

// Mode returns the active mode.
func (c *ModeController) Mode() Mode { return c.mode }

// Selection returns the current selection.
func (c *ModeController) Selection() Selection { return c.selection }

// Overridden reports whether motion is currently holding Ember in Auto.
func (c *ModeController) Overridden() bool { return c.overridden }

// SelectionName returns the selection as used in screenshot names.
func (c *ModeController) SelectionName() string { return c.selection.String() }

// Elapsed returns the time spent in the current Auto phase.
func (c *ModeController) Elapsed() float64 { return c.elapsed }
