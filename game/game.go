// Package game wires the image library, camera, mode controller and particle
// pool into the per-frame loop driven by main.
package game

import (
	"image"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/bonfire/camera"
	"github.com/pthm-cable/bonfire/capture"
	"github.com/pthm-cable/bonfire/config"
	"github.com/pthm-cable/bonfire/imagesource"
	"github.com/pthm-cable/bonfire/renderer"
	"github.com/pthm-cable/bonfire/systems"
	"github.com/pthm-cable/bonfire/telemetry"
	"github.com/pthm-cable/bonfire/ui"
)

// cameraSource is the source name used for camera spawn fields.
const cameraSource = "cam"

// Options configures game initialization.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	ScreenshotDir  string
	ImageDir       string // Overrides images.dir when set
	Headless       bool
	Webcam         bool // Start with the camera field active

	// Config overrides the global configuration when set.
	Config *config.Config
	// CameraSource opens the camera. Nil uses a synthetic noise camera.
	CameraSource func() (capture.Source, error)
	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete frame loop state.
type Game struct {
	cfg *config.Config
	rng *rand.Rand
	dt  float32

	viewport  *camera.Viewport
	library   *imagesource.Library
	imagesCfg config.ImagesConfig

	// Field built from the current image; kept while the camera field is active
	image      string
	imageEntry *imagesource.Entry // entry imageField was built from
	imageField *systems.SpawnField

	modes      systems.ModeSet
	controller *systems.ModeController
	motion     *systems.MotionSignal
	ctx        *systems.SimContext
	pool       *systems.ParticlePool
	packer     *systems.FramePacker
	frame      []float32

	// Camera
	openCamera func() (capture.Source, error)
	poller     *capture.Poller
	webcam     bool
	camFrame   *image.Gray
	fieldTimer float64
	lastMotion bool

	// Controls queued until the next frame boundary. The folder dialog and
	// library loads enqueue from their own goroutines.
	reqMu    sync.Mutex
	requests []request
	batch    []request
	status   error

	// Background folder loads
	loads      sync.WaitGroup
	loadSeq    uint64
	dialogOpen atomic.Bool

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// Rendering, nil when headless
	headless      bool
	points        *renderer.PointRenderer
	preview       *renderer.CameraPreview
	hud           *ui.HUD
	controls      *ui.ControlPanel
	debug         *ui.DebugPanel
	showUI        bool
	showDebug     bool
	screenshotDir string
	shotPending   bool
	banner        string
	bannerTimer   float64

	tick int32
}

// NewGameWithOptions creates a new game instance with the given options.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	g := &Game{
		cfg:           cfg,
		rng:           rand.New(rand.NewSource(seed)),
		dt:            cfg.Derived.DT32,
		viewport:      camera.New(cfg.Derived.ScreenW32, cfg.Derived.ScreenH32),
		modes:         systems.NewModeSet(cfg.Modes),
		controller:    systems.NewModeController(systems.AutoParamsFromConfig(cfg.Auto)),
		motion:        systems.NewMotionSignal(systems.MotionParamsFromConfig(cfg.Motion)),
		packer:        systems.NewFramePacker(cfg.Pool.Capacity),
		openCamera:    opts.CameraSource,
		collector:     telemetry.NewCollector(statsWindow, cfg.Derived.DT32),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
		headless:      opts.Headless,
		showUI:        true,
		screenshotDir: opts.ScreenshotDir,
	}
	if g.openCamera == nil {
		g.openCamera = g.noiseCamera
	}
	if cfg.Screen.TargetFPS > 0 {
		g.perfCollector.SetFrameBudget(time.Second / time.Duration(cfg.Screen.TargetFPS))
	}

	g.pool = systems.NewParticlePool(
		cfg.Pool.Capacity,
		systems.NewFadeCurve(cfg.Fade.FadeIn, cfg.Fade.FadeOut),
		systems.PhysicsParamsFromConfig(cfg.Physics),
		g.rng,
	)

	imagesCfg := cfg.Images
	if opts.ImageDir != "" {
		imagesCfg.Dir = opts.ImageDir
	}
	lib, err := imagesource.Open(imagesCfg)
	if err != nil {
		slog.Warn("image library unavailable, using uniform field", "dir", imagesCfg.Dir, "error", err)
		lib = &imagesource.Library{}
	}
	g.library = lib
	g.imagesCfg = imagesCfg

	g.ctx = systems.NewSimContext(nil, g.modes.Params(g.controller.Mode()))
	g.loadInitialImage()
	g.pool.Prime(g.ctx)
	g.frame = g.packer.Pack(g.pool.Particles())

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
	}
	g.outputManager = om
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if opts.Webcam {
		g.startWebcam()
	}

	if !opts.Headless {
		g.points = renderer.NewPointRenderer(g.viewport, cfg.Renderer.SpriteSize)
		g.preview = renderer.NewCameraPreview()
		g.hud = ui.NewHUD()
		g.controls = ui.NewControlPanel()
		g.debug = ui.NewDebugPanel(10, 80, 240)
	}

	slog.Info("game initialized",
		"seed", seed,
		"particles", g.pool.Len(),
		"images", g.library.Len(),
		"image", g.image,
		"field", g.ctx.Field.Kind().String(),
		"spawn_points", g.ctx.Field.Len(),
	)
	return g
}

// loadInitialImage builds the starting field. An empty library, or a
// starting image that fails to decode, leaves a uniform field.
func (g *Game) loadInitialImage() {
	g.imageField = systems.NewSpawnField(nil, 0, 0, "", systems.FieldUniform)
	g.ctx.SetField(g.imageField)

	e, err := g.library.Current()
	if err != nil {
		slog.Warn("no images, spawning uniformly", "dir", g.library.Dir())
		return
	}
	field, err := g.buildImageField(e)
	if err != nil {
		g.status = err
		slog.Warn("initial image failed, spawning uniformly", "image", e.Name, "error", err)
		return
	}
	g.setImageField(e, field)
}

// noiseCamera is the default camera: synthetic blob motion at capture resolution.
func (g *Game) noiseCamera() (capture.Source, error) {
	return capture.NewNoiseSource(g.rng.Int63(), g.cfg.Capture.Width, g.cfg.Capture.Height,
		time.Second/30, true), nil
}

// Tick returns the number of frames stepped.
func (g *Game) Tick() int32 {
	return g.tick
}

// Frame returns the packed particle buffer of the last step.
func (g *Game) Frame() []float32 {
	return g.frame
}

// ParticleCount returns the number of particles in the packed frame.
func (g *Game) ParticleCount() int {
	return g.packer.Count()
}

// Particles exposes the pool slots.
func (g *Game) Particles() []systems.Particle {
	return g.pool.Particles()
}

// Field returns the active spawn field.
func (g *Game) Field() *systems.SpawnField {
	return g.ctx.Field
}

// Viewport returns the shared fitted viewport.
func (g *Game) Viewport() *camera.Viewport {
	return g.viewport
}

// Status returns the last non-fatal error, such as an image that failed to
// decode. It is cleared by the next successful image switch.
func (g *Game) Status() error {
	return g.status
}

// Unload releases render resources, stops the camera and closes output files.
func (g *Game) Unload() {
	g.stopWebcam("shutdown")
	if g.points != nil {
		g.points.Unload()
		g.preview.Unload()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
