package game

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bonfire/telemetry"
	"github.com/pthm-cable/bonfire/ui"
)

// bannerSeconds is how long a transient HUD message stays up.
const bannerSeconds = 2.0

const controlsLegend = "SPACE mode | </> image | O folder | C camera | S screenshot | D debug | H hide | F11 fullscreen"

// Draw renders the particle layer and the UI for the current frame.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	// Particle layer is drawn offscreen so screenshots exclude the UI
	g.points.Render(g.frame, g.packer.Count(), float32(g.cfg.Renderer.PointScale))
	if g.shotPending {
		g.shotPending = false
		g.saveScreenshot(time.Now())
	}
	if g.webcam && g.showDebug {
		g.preview.Update(g.camFrame)
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	g.points.Draw()

	if g.showUI {
		g.drawUI()
	}

	rl.EndDrawing()

	if g.bannerTimer > 0 {
		g.bannerTimer -= float64(rl.GetFrameTime())
		if g.bannerTimer <= 0 {
			g.banner = ""
		}
	}
}

// drawUI draws the HUD, the debug panel and the control buttons.
func (g *Game) drawUI() {
	screenW := int32(g.viewport.ScreenW)
	screenH := int32(g.viewport.ScreenH)

	status := ""
	if g.status != nil {
		status = g.status.Error()
	}
	g.hud.Draw(ui.HUDData{
		Selection:    g.ModeName(),
		State:        g.StateName(),
		Source:       g.source(),
		Field:        g.ctx.Field.Kind().String(),
		Points:       g.ctx.Field.Len(),
		Particles:    g.packer.Count(),
		FPS:          rl.GetFPS(),
		Webcam:       g.webcam,
		Motion:       g.motion.Active(),
		MotionLevel:  g.motion.Level(),
		Overridden:   g.controller.Overridden(),
		Status:       status,
		Banner:       g.banner,
		ScreenWidth:  screenW,
		ScreenHeight: screenH,
	})
	g.hud.DrawControls(screenH, controlsLegend)

	if g.showDebug {
		g.debug.Draw(ui.DebugData{
			MotionLevel: g.motion.Level(),
			Enter:       g.cfg.Motion.EnterThreshold,
			Exit:        g.cfg.Motion.ExitThreshold,
			Motion:      g.motion.Active(),
			Overridden:  g.controller.Overridden(),
			Elapsed:     g.controller.Elapsed(),
			Perf:        g.perfCollector.Stats(),
		})
		if g.webcam {
			g.preview.Draw(g.viewport.ScreenH)
		}
	}

	action := g.controls.Draw(ui.ControlState{
		Selection: g.ModeName(),
		Webcam:    g.webcam,
		Debug:     g.showDebug,
	}, screenW, screenH-30)
	g.handleAction(action)
}

// handleAction maps a button press onto the control surface.
func (g *Game) handleAction(a ui.Action) {
	switch a {
	case ui.ActionCycleMode:
		g.CycleMode()
	case ui.ActionPrevImage:
		g.PrevImage()
	case ui.ActionNextImage:
		g.NextImage()
	case ui.ActionOpenFolder:
		g.pickImageDir()
	case ui.ActionToggleWebcam:
		g.ToggleWebcam()
	case ui.ActionScreenshot:
		g.Screenshot()
	case ui.ActionToggleDebug:
		g.showDebug = !g.showDebug
	}
}

// saveScreenshot exports the particle layer to the screenshot directory.
func (g *Game) saveScreenshot(now time.Time) {
	dir := g.screenshotDir
	if dir == "" {
		dir = "result"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create screenshot dir", "dir", dir, "error", err)
		return
	}

	path := filepath.Join(dir, g.ScreenshotName(now))
	if err := g.points.Export(path); err != nil {
		slog.Error("failed to save screenshot", "error", err)
		g.showBanner(fmt.Sprintf("screenshot failed: %v", err))
		return
	}

	slog.Info("screenshot saved", "path", path)
	g.recordEvent(telemetry.NewScreenshotEvent(g.tick, g.dt, path))
	g.showBanner("Screenshot saved: " + filepath.Base(path))
}

func (g *Game) showBanner(msg string) {
	g.banner = msg
	g.bannerTimer = bannerSeconds
}
