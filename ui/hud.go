package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bonfire/telemetry"
)

// HUDData holds all the data needed to render the HUD.
type HUDData struct {
	Selection   string // auto, humanity or ember
	State       string // Humanity or Ember
	Source      string // image name or cam
	Field       string // spawn field strategy
	Points      int
	Particles   int
	FPS         int32
	Webcam      bool
	Motion      bool
	MotionLevel float64
	Overridden  bool
	Status      string // last non-fatal error, empty when fine
	Banner      string // transient message such as a saved screenshot

	ScreenWidth  int32
	ScreenHeight int32
}

// ModeLine formats the mode status line.
func ModeLine(selection, state string) string {
	return fmt.Sprintf("Mode: %s | State: %s", selection, state)
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	theme := h.renderer.Theme

	rl.DrawText(ModeLine(data.Selection, data.State), 10, 10, 20, rl.White)

	src := data.Source
	if data.Overridden {
		src += " | motion override"
	}
	rl.DrawText(
		fmt.Sprintf("Source: %s | Field: %s (%d pts) | Particles: %d | FPS: %d",
			src, data.Field, data.Points, data.Particles, data.FPS),
		10, 35, 16, rl.LightGray,
	)

	y := int32(55)
	if data.Status != "" {
		rl.DrawText(data.Status, 10, y, 14, theme.WarnColor)
		y += 18
	}
	if data.Banner != "" {
		rl.DrawText(data.Banner, 10, y, 14, theme.SectionHeader)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// DebugData holds the motion and timing values for the debug panel.
type DebugData struct {
	MotionLevel float64
	Enter, Exit float64
	Motion      bool
	Overridden  bool
	Elapsed     float64
	Perf        telemetry.PerfStats
}

// DebugPanel renders the motion meter and per-phase timings.
type DebugPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewDebugPanel creates a debug panel at the given position.
func NewDebugPanel(x, y, width int32) *DebugPanel {
	return &DebugPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (d *DebugPanel) SetPosition(x, y int32) {
	d.x = x
	d.y = y
}

// Draw renders the debug panel.
func (d *DebugPanel) Draw(data DebugData) {
	r := d.renderer
	lines := int32(7 + len(telemetry.Phases))
	height := lines*r.Theme.LineHeight + r.Theme.Padding*2
	r.DrawPanel(d.x, d.y, d.width, height)

	x := d.x + r.Theme.Padding
	y := d.y + r.Theme.Padding
	inner := d.width - r.Theme.Padding*2

	y = r.DrawSectionHeader(x, y, "Motion")
	y = r.DrawBar(x, y, "level", float32(data.MotionLevel), float32(data.Enter), inner)
	state := "still"
	if data.Motion {
		state = "moving"
	}
	if data.Overridden {
		state += " (override)"
	}
	y = r.DrawLabelValue(x, y, "state", state)
	y = r.DrawLabelValue(x, y, "dwell", fmt.Sprintf("%.1fs", data.Elapsed))

	y = r.DrawSectionHeader(x, y, fmt.Sprintf("Frame %s", data.Perf.AvgTickDuration.Round(time.Microsecond)))
	y = r.DrawLabelValue(x, y, "p95", data.Perf.P95TickDuration.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "budget", fmt.Sprintf("%5.1f%%", data.Perf.BudgetPct))
	for _, phase := range telemetry.Phases {
		y = r.DrawLabelValue(x, y, phase, fmt.Sprintf("%5.1f%%", data.Perf.PhasePct[phase]))
	}
}
