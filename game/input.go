package game

import rl "github.com/gen2brain/raylib-go/raylib"

// handleInput processes keyboard input. Every action is queued or flagged
// and takes effect at the next frame boundary.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.CycleMode()
	}
	if rl.IsKeyPressed(rl.KeyRight) {
		g.NextImage()
	}
	if rl.IsKeyPressed(rl.KeyLeft) {
		g.PrevImage()
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.ToggleWebcam()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		g.Screenshot()
	}
	if rl.IsKeyPressed(rl.KeyO) {
		g.pickImageDir()
	}
	if rl.IsKeyPressed(rl.KeyH) {
		g.showUI = !g.showUI
	}
	if rl.IsKeyPressed(rl.KeyD) {
		g.showDebug = !g.showDebug
	}
}

// handleResize checks for window resize and refits the viewport.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w <= 0 || h <= 0 {
		return
	}
	g.viewport.Resize(w, h)

	// The image field is stored in NDC of the old fit; rebuild it for the new one
	g.refitImageField()
}
