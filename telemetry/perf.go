package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for one frame step.
const (
	PhaseImageSwitch = "image_switch"
	PhaseCapture     = "capture"
	PhaseMotion      = "motion"
	PhaseMode        = "mode"
	PhaseParticles   = "particles"
	PhasePack        = "pack"
	PhaseRender      = "render"
	PhaseTelemetry   = "telemetry"
)

// Phases lists every phase in frame order.
var Phases = []string{
	PhaseImageSwitch, PhaseCapture, PhaseMotion, PhaseMode,
	PhaseParticles, PhasePack, PhaseRender, PhaseTelemetry,
}

// PerfCollector times frame steps and their phases over a ring of the last
// windowSize ticks. Phases not in Phases are registered on first use.
type PerfCollector struct {
	windowSize int
	budget     time.Duration

	names []string
	index map[string]int

	// Rings indexed by slot; phase rings are indexed [phase][slot]
	ticks  []time.Duration
	phases [][]time.Duration
	slot   int
	filled int

	tickStart  time.Time
	phaseStart time.Time
	current    int // phase index being timed, -1 for none

	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging windowSize ticks
// (120 is two seconds at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	p := &PerfCollector{
		windowSize: windowSize,
		index:      make(map[string]int),
		ticks:      make([]time.Duration, windowSize),
		current:    -1,
	}
	for _, name := range Phases {
		p.register(name)
	}
	return p
}

// SetFrameBudget sets the per-frame time the budget share is measured against.
func (p *PerfCollector) SetFrameBudget(d time.Duration) {
	p.budget = d
}

func (p *PerfCollector) register(name string) int {
	if i, ok := p.index[name]; ok {
		return i
	}
	i := len(p.names)
	p.names = append(p.names, name)
	p.index[name] = i
	p.phases = append(p.phases, make([]time.Duration, p.windowSize))
	return i
}

// StartTick begins timing a new frame step.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = -1
	for i := range p.phases {
		p.phases[i][p.slot] = 0
	}
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.current = p.register(phase)
	p.phaseStart = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.current >= 0 {
		p.phases[p.current][p.slot] += now.Sub(p.phaseStart)
	}
}

// EndTick finishes the current tick and advances the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.current = -1

	p.ticks[p.slot] = now.Sub(p.tickStart)
	p.slot = (p.slot + 1) % p.windowSize
	if p.filled < p.windowSize {
		p.filled++
	}
}

// RecordFrame marks a presented frame for FPS measurement.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Average duration and share of tick time per phase
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	// Average tick as a percentage of the frame budget, 0 without a budget
	BudgetPct float64

	// Presented frames (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.filled == 0 {
		return s
	}

	ticks := make([]float64, p.filled)
	for i := range ticks {
		ticks[i] = float64(p.ticks[i])
	}
	sort.Float64s(ticks)

	avg := stat.Mean(ticks, nil)
	s.AvgTickDuration = time.Duration(avg)
	s.MinTickDuration = time.Duration(ticks[0])
	s.MaxTickDuration = time.Duration(ticks[len(ticks)-1])
	s.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil))
	if avg > 0 {
		s.TicksPerSecond = float64(time.Second) / avg
	}
	if p.budget > 0 {
		s.BudgetPct = avg / float64(p.budget) * 100
	}

	for pi, name := range p.names {
		var sum time.Duration
		for i := 0; i < p.filled; i++ {
			sum += p.phases[pi][i]
		}
		if sum == 0 {
			continue
		}
		phaseAvg := sum / time.Duration(p.filled)
		s.PhaseAvg[name] = phaseAvg
		if avg > 0 {
			s.PhasePct[name] = float64(phaseAvg) / avg * 100
		}
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.BudgetPct > 0 {
		attrs = append(attrs, slog.Float64("budget_pct", s.BudgetPct))
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd      int32   `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	MinTickUS      int64   `csv:"min_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	P95TickUS      int64   `csv:"p95_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	BudgetPct      float64 `csv:"budget_pct"`
	FPS            float64 `csv:"fps"`
	ImageSwitchPct float64 `csv:"image_switch_pct"`
	CapturePct     float64 `csv:"capture_pct"`
	MotionPct      float64 `csv:"motion_pct"`
	ModePct        float64 `csv:"mode_pct"`
	ParticlesPct   float64 `csv:"particles_pct"`
	PackPct        float64 `csv:"pack_pct"`
	RenderPct      float64 `csv:"render_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		MinTickUS:      s.MinTickDuration.Microseconds(),
		MaxTickUS:      s.MaxTickDuration.Microseconds(),
		P95TickUS:      s.P95TickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		BudgetPct:      s.BudgetPct,
		FPS:            s.FPS,
		ImageSwitchPct: s.PhasePct[PhaseImageSwitch],
		CapturePct:     s.PhasePct[PhaseCapture],
		MotionPct:      s.PhasePct[PhaseMotion],
		ModePct:        s.PhasePct[PhaseMode],
		ParticlesPct:   s.PhasePct[PhaseParticles],
		PackPct:        s.PhasePct[PhasePack],
		RenderPct:      s.PhasePct[PhaseRender],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
