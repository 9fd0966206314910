package ui

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Action is a control chosen on the button panel.
type Action int

const (
	ActionNone Action = iota
	ActionCycleMode
	ActionPrevImage
	ActionNextImage
	ActionOpenFolder
	ActionToggleWebcam
	ActionScreenshot
	ActionToggleDebug
)

// ControlState is what the panel needs to label its buttons.
type ControlState struct {
	Selection string
	Webcam    bool
	Debug     bool
}

// Button geometry in pixels.
const (
	buttonW   = 110
	buttonH   = 28
	buttonGap = 8
)

// ControlPanel renders the bottom-right row of raygui buttons.
type ControlPanel struct {
	renderer *Renderer
}

// NewControlPanel creates a new control panel.
func NewControlPanel() *ControlPanel {
	return &ControlPanel{renderer: NewRenderer()}
}

// Draw renders the buttons anchored to the bottom-right of the screen and
// returns the action of the button pressed this frame, if any.
func (c *ControlPanel) Draw(state ControlState, screenW, screenH int32) Action {
	labels := []struct {
		text   string
		action Action
	}{
		{"Mode: " + state.Selection, ActionCycleMode},
		{"< Image", ActionPrevImage},
		{"Image >", ActionNextImage},
		{"Folder...", ActionOpenFolder},
		{toggleText(state.Webcam, "Camera off", "Camera on"), ActionToggleWebcam},
		{"Screenshot", ActionScreenshot},
		{toggleText(state.Debug, "Hide debug", "Debug"), ActionToggleDebug},
	}

	total := int32(len(labels))*(buttonW+buttonGap) - buttonGap
	pad := c.renderer.Theme.Padding
	x := float32(screenW - total - pad)
	y := float32(screenH - buttonH - pad)

	c.renderer.DrawPanel(int32(x)-pad/2, int32(y)-pad/2, total+pad, buttonH+pad)

	pressed := ActionNone
	for _, l := range labels {
		if gui.Button(rl.Rectangle{X: x, Y: y, Width: buttonW, Height: buttonH}, l.text) {
			pressed = l.action
		}
		x += buttonW + buttonGap
	}
	return pressed
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
