// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Pool      PoolConfig      `yaml:"pool"`
	Fade      FadeConfig      `yaml:"fade"`
	Edge      EdgeConfig      `yaml:"edge"`
	Modes     ModesConfig     `yaml:"modes"`
	Auto      AutoConfig      `yaml:"auto"`
	Motion    MotionConfig    `yaml:"motion"`
	Images    ImagesConfig    `yaml:"images"`
	Capture   CaptureConfig   `yaml:"capture"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds the integration step and shared motion shaping.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`
	Deceleration float64 `yaml:"deceleration"` // Fraction of launch velocity lost by end of life
	WobbleFreq   float64 `yaml:"wobble_freq"`  // Horizontal wobble angular frequency (rad/s)
	ShrinkTo     float64 `yaml:"shrink_to"`    // Size fraction remaining at end of life
}

// PoolConfig holds particle pool sizing.
type PoolConfig struct {
	Capacity int `yaml:"capacity"`
}

// FadeConfig holds the alpha envelope as fractions of lifetime.
// Rising edge ends at FadeIn, falling edge starts at FadeOut.
type FadeConfig struct {
	FadeIn  float64 `yaml:"fade_in"`
	FadeOut float64 `yaml:"fade_out"`
}

// EdgeConfig holds edge detection and spawn weighting parameters.
type EdgeConfig struct {
	ProcessWidth     int     `yaml:"process_width"`      // Columns of the processing grid
	LowThreshold     float64 `yaml:"low_threshold"`      // Weak edge threshold on normalized gradient
	HighThreshold    float64 `yaml:"high_threshold"`     // Strong edge threshold on normalized gradient
	MagnitudeFloor   float64 `yaml:"magnitude_floor"`    // Edge pixels below this are not candidates
	MinEdgeFraction  float64 `yaml:"min_edge_fraction"`  // Below this share of pixels, fall back to brightness
	MinEdgePoints    int     `yaml:"min_edge_points"`    // Absolute minimum edge candidates
	BrightnessFloor  float64 `yaml:"brightness_floor"`   // Luma below this is excluded in brightness fallback
	EdgeWeight       float64 `yaml:"edge_weight"`        // Constant weight for being on an edge
	GradientWeight   float64 `yaml:"gradient_weight"`    // Weight per unit gradient magnitude
	BrightnessWeight float64 `yaml:"brightness_weight"`  // Weight per unit luma
}

// RangeConfig is a closed [min, max] interval.
type RangeConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// AccentConfig is a rare override color picked at spawn.
type AccentConfig struct {
	Chance float64    `yaml:"chance"`
	Color  [3]float64 `yaml:"color"`
}

// ModeConfig holds the physics and palette of one visual mode.
type ModeConfig struct {
	Rise         RangeConfig    `yaml:"rise"`          // Upward speed (NDC/s)
	Drift        RangeConfig    `yaml:"drift"`         // Horizontal speed magnitude (NDC/s), random sign
	Size         RangeConfig    `yaml:"size"`          // Point size in pixels
	Lifetime     RangeConfig    `yaml:"lifetime"`      // Seconds
	Tint         [3]float64     `yaml:"tint"`          // Palette tint RGB
	TintStrength float64        `yaml:"tint_strength"` // 0 = source color, 1 = tint
	Saturation   float64        `yaml:"saturation"`    // Saturation multiplier applied before tinting
	DarkFloor    float64        `yaml:"dark_floor"`    // Minimum per-channel value
	SpawnDensity float64        `yaml:"spawn_density"` // Peak alpha scalar; sets visual density under additive blending
	Wobble       float64        `yaml:"wobble"`        // Horizontal wobble amplitude (NDC/s)
	Accents      []AccentConfig `yaml:"accents"`
}

// ModesConfig holds both mode parameter sets.
type ModesConfig struct {
	Humanity ModeConfig `yaml:"humanity"`
	Ember    ModeConfig `yaml:"ember"`
}

// AutoConfig holds the automatic cycling policy.
type AutoConfig struct {
	HumanityDwell float64 `yaml:"humanity_dwell"` // Seconds in Humanity per cycle
	EmberDwell    float64 `yaml:"ember_dwell"`    // Seconds in Ember per cycle
	Cooldown      float64 `yaml:"cooldown"`       // Quiet seconds before a motion override releases
}

// MotionConfig holds motion detection thresholds.
type MotionConfig struct {
	Window         int     `yaml:"window"`          // Samples averaged into the motion level
	EnterThreshold float64 `yaml:"enter_threshold"` // Level above which motion starts
	ExitThreshold  float64 `yaml:"exit_threshold"`  // Level below which motion may end
	EnterHold      float64 `yaml:"enter_hold"`      // Seconds above enter before raising
	ExitHold       float64 `yaml:"exit_hold"`       // Seconds below exit before clearing
	StaleAfter     float64 `yaml:"stale_after"`     // Seconds without frames before decaying to no motion
}

// ImagesConfig holds the image folder settings.
type ImagesConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
	Preferred  string   `yaml:"preferred"` // File name to start on, if present
}

// CaptureConfig holds camera reduction settings.
type CaptureConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	FieldInterval   float64 `yaml:"field_interval"`    // Seconds between camera spawn field rebuilds
	BrightnessShare float64 `yaml:"brightness_share"` // Camera spawn weight share of brightness (rest is motion)
}

// RendererConfig holds point sprite settings.
type RendererConfig struct {
	PointScale float64 `yaml:"point_scale"`
	SpriteSize int     `yaml:"sprite_size"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // Physics.DT as float32
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
	Aspect    float32 // Screen width / height
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects settings the simulation cannot run with.
func (c *Config) validate() error {
	if c.Pool.Capacity <= 0 {
		return fmt.Errorf("pool.capacity must be positive, got %d", c.Pool.Capacity)
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.Edge.LowThreshold > c.Edge.HighThreshold {
		return fmt.Errorf("edge.low_threshold %.3f above edge.high_threshold %.3f",
			c.Edge.LowThreshold, c.Edge.HighThreshold)
	}
	if c.Motion.ExitThreshold > c.Motion.EnterThreshold {
		return fmt.Errorf("motion.exit_threshold %.3f above motion.enter_threshold %.3f",
			c.Motion.ExitThreshold, c.Motion.EnterThreshold)
	}
	if c.Fade.FadeIn < 0 || c.Fade.FadeIn > c.Fade.FadeOut || c.Fade.FadeOut > 1 {
		return fmt.Errorf("fade fractions must satisfy 0 <= fade_in <= fade_out <= 1, got %.2f/%.2f",
			c.Fade.FadeIn, c.Fade.FadeOut)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.Aspect = c.Derived.ScreenW32 / c.Derived.ScreenH32

	if c.Edge.ProcessWidth <= 0 {
		c.Edge.ProcessWidth = 240
	}
	if c.Motion.Window <= 0 {
		c.Motion.Window = 1
	}
	if len(c.Images.Extensions) == 0 {
		c.Images.Extensions = []string{".jpg", ".jpeg", ".png", ".webp", ".bmp"}
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
