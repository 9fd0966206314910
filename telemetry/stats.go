package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Pool
	Particles   int     `csv:"particles"`
	Respawns    int     `csv:"respawns"`
	RespawnRate float64 `csv:"respawns_per_sec"`

	// Share of frames in each state
	EmberFraction    float64 `csv:"ember_frac"`
	MotionFraction   float64 `csv:"motion_frac"`
	OverrideFraction float64 `csv:"override_frac"`
	ModeChanges      int     `csv:"mode_changes"`

	// Spawn field at window end
	Image       string `csv:"image"`
	FieldKind   string `csv:"field_kind"`
	SpawnPoints int    `csv:"spawn_points"`

	// Image switching
	ImageSwitches  int `csv:"image_switches"`
	DecodeFailures int `csv:"decode_failures"`

	// Motion level during window
	MotionLevelMean float64 `csv:"motion_level_mean"`
	MotionLevelMax  float64 `csv:"motion_level_max"`

	// Particle distribution (sampled at window end)
	AlphaMean float64 `csv:"alpha_mean"`
	AlphaP10  float64 `csv:"alpha_p10"`
	AlphaP50  float64 `csv:"alpha_p50"`
	AlphaP90  float64 `csv:"alpha_p90"`
	SizeMean  float64 `csv:"size_mean"`
	SizeP50   float64 `csv:"size_p50"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution returns the mean and 10th/50th/90th percentiles.
// values is sorted in place.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sort.Float64s(values)
	p10 = Percentile(values, 0.10)
	p50 = Percentile(values, 0.50)
	p90 = Percentile(values, 0.90)
	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("respawns", s.Respawns),
		slog.Float64("respawns_per_sec", s.RespawnRate),
		slog.Float64("ember_frac", s.EmberFraction),
		slog.Float64("motion_frac", s.MotionFraction),
		slog.Float64("override_frac", s.OverrideFraction),
		slog.Int("mode_changes", s.ModeChanges),
		slog.String("image", s.Image),
		slog.String("field_kind", s.FieldKind),
		slog.Int("spawn_points", s.SpawnPoints),
		slog.Int("image_switches", s.ImageSwitches),
		slog.Int("decode_failures", s.DecodeFailures),
		slog.Float64("motion_level_mean", s.MotionLevelMean),
		slog.Float64("motion_level_max", s.MotionLevelMax),
		slog.Float64("alpha_mean", s.AlphaMean),
		slog.Float64("alpha_p50", s.AlphaP50),
		slog.Float64("size_mean", s.SizeMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"respawns_per_sec", s.RespawnRate,
		"ember_frac", s.EmberFraction,
		"motion_frac", s.MotionFraction,
		"override_frac", s.OverrideFraction,
		"image", s.Image,
		"field_kind", s.FieldKind,
		"spawn_points", s.SpawnPoints,
		"alpha_mean", s.AlphaMean,
		"size_mean", s.SizeMean,
	)
}
