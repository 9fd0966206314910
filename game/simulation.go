package game

import (
	"context"
	"errors"
	"image"
	"log/slog"

	"github.com/pthm-cable/bonfire/capture"
	"github.com/pthm-cable/bonfire/imagesource"
	"github.com/pthm-cable/bonfire/systems"
	"github.com/pthm-cable/bonfire/telemetry"
)

// Update handles input and advances one frame. Used in graphical mode.
func (g *Game) Update() {
	g.handleInput()
	g.step()
}

// UpdateHeadless advances one frame without input handling or rendering.
func (g *Game) UpdateHeadless() {
	g.step()
}

// step runs a single frame: queued controls, camera, motion, mode, particles, pack.
func (g *Game) step() {
	dt := g.dt
	g.perfCollector.StartTick()

	prevMode := g.controller.Mode()

	// 1. Controls queued since the last frame
	g.perfCollector.StartPhase(telemetry.PhaseImageSwitch)
	g.applyRequests()

	// 2. Newest camera frame, if any
	g.perfCollector.StartPhase(telemetry.PhaseCapture)
	frame := g.pollCamera()

	// 3. Motion signal and camera field
	g.perfCollector.StartPhase(telemetry.PhaseMotion)
	active := g.motion.Update(frame, float64(dt))
	if active != g.lastMotion {
		g.lastMotion = active
		g.recordEvent(telemetry.NewMotionEvent(g.tick, dt, active, g.motion.Level()))
	}
	if g.webcam {
		g.refreshCameraField(frame, float64(dt))
	}

	// 4. Mode controller
	g.perfCollector.StartPhase(telemetry.PhaseMode)
	mode := g.controller.OnTick(float64(dt), active)
	if mode != prevMode {
		g.collector.RecordModeChange()
		g.recordEvent(telemetry.NewModeChangeEvent(g.tick, dt, prevMode.String(), mode.String(), g.controller.Overridden()))
	}
	g.ctx.Mode = g.modes.Params(mode)

	// 5. Particles
	g.perfCollector.StartPhase(telemetry.PhaseParticles)
	respawns := g.pool.Update(dt, g.ctx)

	// 6. Packed frame for the renderer
	g.perfCollector.StartPhase(telemetry.PhasePack)
	g.frame = g.packer.Pack(g.pool.Particles())

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordFrame(mode, active, g.controller.Overridden(), g.motion.Level(), respawns)
	g.tick++
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// applyRequests drains the control queue in arrival order.
func (g *Game) applyRequests() {
	g.reqMu.Lock()
	g.batch = append(g.batch[:0], g.requests...)
	g.requests = g.requests[:0]
	g.reqMu.Unlock()

	for _, r := range g.batch {
		switch r.kind {
		case reqCycleMode:
			from := g.controller.Selection()
			to := g.controller.Cycle()
			g.recordEvent(telemetry.NewSelectionEvent(g.tick, g.dt, from.String(), to.String()))
		case reqSelectMode:
			from := g.controller.Selection()
			if from == r.selection {
				continue
			}
			g.controller.Select(r.selection)
			g.recordEvent(telemetry.NewSelectionEvent(g.tick, g.dt, from.String(), g.controller.Selection().String()))
		case reqNextImage:
			g.switchImage(1)
		case reqPrevImage:
			g.switchImage(-1)
		case reqToggleWebcam:
			if g.webcam {
				g.stopWebcam("toggle")
			} else {
				g.startWebcam()
			}
		case reqOpenLibrary:
			g.startLibraryLoad(r.dir)
		case reqInstallLibrary:
			g.installLibrary(r.load)
		case reqStatus:
			g.status = r.err
		}
	}
}

// switchImage steps the library and rebuilds the edge field. On a decode
// failure the previous field and viewport stay active and the error becomes
// the game status.
func (g *Game) switchImage(step int) {
	var (
		e   *imagesource.Entry
		err error
	)
	if step < 0 {
		e, err = g.library.Prev()
	} else {
		e, err = g.library.Next()
	}
	if err != nil {
		g.status = err
		return
	}

	field, err := g.buildImageField(e)
	if err != nil {
		g.status = err
		g.collector.RecordDecodeFailure()
		g.recordEvent(telemetry.NewDecodeFailureEvent(g.tick, g.dt, g.image, e.Name, err))
		slog.Warn("image switch failed, keeping current field", "image", e.Name, "kept", g.image, "error", err)
		return
	}

	from := g.image
	g.setImageField(e, field)
	g.status = nil
	g.collector.RecordImageSwitch()
	g.recordEvent(telemetry.NewImageSwitchEvent(g.tick, g.dt, from, e.Name, field.Kind().String()))
}

// buildImageField fits the viewport to the entry and builds its spawn field.
func (g *Game) buildImageField(e *imagesource.Entry) (*systems.SpawnField, error) {
	return buildField(e, g.viewport, g.cfg.Edge)
}

// refitImageField rebuilds the image field for the current viewport from the
// entry that produced it. The library cursor may sit on a broken entry after
// a failed switch, so it is not consulted.
func (g *Game) refitImageField() {
	if g.imageEntry == nil {
		return
	}
	field, err := g.buildImageField(g.imageEntry)
	if err != nil {
		slog.Warn("refit failed, keeping field", "image", g.imageEntry.Name, "error", err)
		return
	}
	g.setImageField(g.imageEntry, field)
}

// setImageField installs the field of a decoded image. While the camera field
// is active the image field is held until the webcam is turned off.
func (g *Game) setImageField(e *imagesource.Entry, field *systems.SpawnField) {
	g.image = e.Name
	g.imageEntry = e
	g.imageField = field
	if !g.webcam {
		g.ctx.SetField(field)
	}
}

// startWebcam opens the camera and starts polling it. The image field stays
// in use until the first camera frame arrives.
func (g *Game) startWebcam() {
	if g.webcam {
		return
	}
	src, err := g.openCamera()
	if err != nil {
		if !errors.Is(err, capture.ErrCameraUnavailable) {
			err = errors.Join(capture.ErrCameraUnavailable, err)
		}
		g.status = err
		g.recordEvent(telemetry.NewWebcamEvent(g.tick, g.dt, false, err.Error()))
		slog.Warn("webcam unavailable", "error", err)
		return
	}

	g.poller = capture.NewPoller(src, g.cfg.Capture.Width, g.cfg.Capture.Height)
	g.poller.Start(context.Background())
	g.webcam = true
	g.camFrame = nil
	g.fieldTimer = 0
	g.motion.MarkUnavailable()
	g.recordEvent(telemetry.NewWebcamEvent(g.tick, g.dt, true, ""))
}

// stopWebcam stops polling, clears motion and restores the image field.
func (g *Game) stopWebcam(reason string) {
	if !g.webcam {
		return
	}
	if err := g.poller.Stop(); err != nil {
		slog.Warn("closing camera", "error", err)
	}
	g.poller = nil
	g.webcam = false
	g.camFrame = nil
	g.motion.MarkUnavailable()
	g.ctx.SetField(g.imageField)
	g.recordEvent(telemetry.NewWebcamEvent(g.tick, g.dt, false, reason))
}

// pollCamera returns the newest camera frame, or nil when none arrived.
// A camera that stopped delivering is turned off.
func (g *Game) pollCamera() *image.Gray {
	if g.poller == nil {
		return nil
	}
	if !g.poller.IsAvailable() {
		g.status = g.poller.Err()
		g.stopWebcam("unavailable")
		return nil
	}
	frame, ok := g.poller.PollFrame()
	if !ok {
		return nil
	}
	return frame
}

// refreshCameraField rebuilds the camera spawn field from the newest frame
// every capture.field_interval seconds.
func (g *Game) refreshCameraField(frame *image.Gray, dt float64) {
	g.fieldTimer += dt
	if frame != nil {
		g.camFrame = frame
	}
	if g.camFrame == nil {
		return
	}
	if g.ctx.Field.Kind() == systems.FieldCamera && g.fieldTimer < g.cfg.Capture.FieldInterval {
		return
	}
	g.fieldTimer = 0
	g.ctx.SetField(systems.BuildCameraField(g.camFrame, g.motion.DiffMap(), g.cfg.Capture.BrightnessShare, cameraSource))
}
