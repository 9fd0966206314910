package game

import (
	"fmt"
	"time"

	"github.com/pthm-cable/bonfire/systems"
)

type requestKind uint8

const (
	reqCycleMode requestKind = iota
	reqSelectMode
	reqNextImage
	reqPrevImage
	reqToggleWebcam
	reqOpenLibrary
	reqInstallLibrary
	reqStatus
)

// request is a control action applied at the next frame boundary.
type request struct {
	kind      requestKind
	selection systems.Selection
	dir       string
	load      *libraryLoad
	err       error
}

// enqueue is safe to call from any goroutine.
func (g *Game) enqueue(r request) {
	g.reqMu.Lock()
	g.requests = append(g.requests, r)
	g.reqMu.Unlock()
}

// CycleMode advances the selection Auto → Humanity → Ember → Auto.
func (g *Game) CycleMode() { g.enqueue(request{kind: reqCycleMode}) }

// SelectMode sets the selection directly.
func (g *Game) SelectMode(s systems.Selection) {
	g.enqueue(request{kind: reqSelectMode, selection: s})
}

// NextImage switches to the following image of the library.
func (g *Game) NextImage() { g.enqueue(request{kind: reqNextImage}) }

// PrevImage switches to the preceding image of the library.
func (g *Game) PrevImage() { g.enqueue(request{kind: reqPrevImage}) }

// ToggleWebcam switches between the image field and the camera field.
func (g *Game) ToggleWebcam() { g.enqueue(request{kind: reqToggleWebcam}) }

// OpenImageDir replaces the image library with the images of dir. The folder
// is decoded in the background and installed at a later frame boundary; the
// current library stays when dir has no usable image.
func (g *Game) OpenImageDir(dir string) {
	g.enqueue(request{kind: reqOpenLibrary, dir: dir})
}

// ImageDir returns the folder of the current library.
func (g *Game) ImageDir() string {
	return g.library.Dir()
}

// Screenshot saves the next rendered frame. Ignored when headless.
func (g *Game) Screenshot() {
	if !g.headless {
		g.shotPending = true
	}
}

// ModeName returns the user selection: auto, humanity or ember.
func (g *Game) ModeName() string {
	return g.controller.SelectionName()
}

// StateName returns the active mode: Humanity or Ember.
func (g *Game) StateName() string {
	return g.controller.Mode().String()
}

// ActiveImage returns the name of the current image, empty when none loaded.
func (g *Game) ActiveImage() string {
	return g.image
}

// WebcamActive reports whether the camera field is in use.
func (g *Game) WebcamActive() bool {
	return g.webcam
}

// MotionActive reports the debounced motion signal.
func (g *Game) MotionActive() bool {
	return g.motion.Active()
}

// MotionLevel returns the smoothed motion level.
func (g *Game) MotionLevel() float64 {
	return g.motion.Level()
}

// Overridden reports whether motion is holding the mode in Ember.
func (g *Game) Overridden() bool {
	return g.controller.Overridden()
}

// source names what the particles are spawning from.
func (g *Game) source() string {
	if g.webcam {
		return cameraSource
	}
	if g.image == "" {
		return "none"
	}
	return g.image
}

// ScreenshotName returns the file name for a screenshot taken at now:
// <YYYYMMDD_HHMMSS>_<source|cam>_<selection>_<state>.png.
func (g *Game) ScreenshotName(now time.Time) string {
	state := "humanity"
	if g.controller.Mode() == systems.ModeEmber {
		state = "ember"
	}
	return fmt.Sprintf("%s_%s_%s_%s.png", now.Format("20060102_150405"), g.source(), g.ModeName(), state)
}
