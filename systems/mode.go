package systems

import (
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/bonfire/config"
)

// Mode identifies the active visual mode.
type Mode uint8

const (
	ModeHumanity Mode = iota
	ModeEmber
)

// String returns the display name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeEmber:
		return "Ember"
	default:
		return "Humanity"
	}
}

// Range is a closed [Min, Max] interval sampled uniformly.
type Range struct {
	Min, Max float32
}

// Sample returns a uniform value in [Min, Max].
func (r Range) Sample(rng *rand.Rand) float32 {
	return r.Min + rng.Float32()*(r.Max-r.Min)
}

// Contains reports whether v lies in the interval.
func (r Range) Contains(v float32) bool {
	return v >= r.Min && v <= r.Max
}

// Accent is a rare replacement color rolled at spawn.
type Accent struct {
	Chance float64
	Color  colorful.Color
}

// ModeParams is the fixed parameter set of one mode. Passed by value, never mutated.
type ModeParams struct {
	Mode Mode

	Rise     Range // upward speed, NDC/s
	Drift    Range // horizontal speed magnitude, NDC/s
	Size     Range // pixels
	Lifetime Range // seconds

	Tint         colorful.Color
	TintStrength float64
	Saturation   float64
	DarkFloor    float64
	Accents      []Accent

	SpawnDensity float32 // peak alpha
	Wobble       float32 // NDC/s
}

func rangeFromConfig(r config.RangeConfig) Range {
	return Range{Min: float32(r.Min), Max: float32(r.Max)}
}

func colorFromConfig(c [3]float64) colorful.Color {
	return colorful.Color{R: c[0], G: c[1], B: c[2]}
}

// ModeParamsFromConfig builds the parameter set for a mode.
func ModeParamsFromConfig(mode Mode, mc config.ModeConfig) ModeParams {
	accents := make([]Accent, 0, len(mc.Accents))
	for _, a := range mc.Accents {
		accents = append(accents, Accent{Chance: a.Chance, Color: colorFromConfig(a.Color)})
	}
	density := float32(mc.SpawnDensity)
	if density <= 0 || density > 1 {
		density = 1
	}
	return ModeParams{
		Mode:         mode,
		Rise:         rangeFromConfig(mc.Rise),
		Drift:        rangeFromConfig(mc.Drift),
		Size:         rangeFromConfig(mc.Size),
		Lifetime:     rangeFromConfig(mc.Lifetime),
		Tint:         colorFromConfig(mc.Tint),
		TintStrength: mc.TintStrength,
		Saturation:   mc.Saturation,
		DarkFloor:    mc.DarkFloor,
		Accents:      accents,
		SpawnDensity: density,
		Wobble:       float32(mc.Wobble),
	}
}

// Colorize maps a sampled source color into the mode palette: saturation
// multiplier, blend toward the tint, dark floor, then an optional accent roll.
func (p ModeParams) Colorize(r, g, b float32, rng *rand.Rand) (float32, float32, float32) {
	roll := rng.Float64()
	for _, a := range p.Accents {
		if roll < a.Chance {
			return float32(a.Color.R), float32(a.Color.G), float32(a.Color.B)
		}
		roll -= a.Chance
	}

	c := colorful.Color{R: float64(r), G: float64(g), B: float64(b)}
	h, s, v := c.Hsv()
	s *= p.Saturation
	if s > 1 {
		s = 1
	}
	c = colorful.Hsv(h, s, v).BlendRgb(p.Tint, p.TintStrength).Clamped()

	if c.R < p.DarkFloor {
		c.R = p.DarkFloor
	}
	if c.G < p.DarkFloor {
		c.G = p.DarkFloor
	}
	if c.B < p.DarkFloor {
		c.B = p.DarkFloor
	}
	return float32(c.R), float32(c.G), float32(c.B)
}

// ModeSet holds the parameters of every mode.
type ModeSet struct {
	Humanity ModeParams
	Ember    ModeParams
}

// NewModeSet builds both parameter sets from config.
func NewModeSet(cfg config.ModesConfig) ModeSet {
	return ModeSet{
		Humanity: ModeParamsFromConfig(ModeHumanity, cfg.Humanity),
		Ember:    ModeParamsFromConfig(ModeEmber, cfg.Ember),
	}
}

// Params returns the parameter set for a mode.
func (s ModeSet) Params(m Mode) ModeParams {
	if m == ModeEmber {
		return s.Ember
	}
	return s.Humanity
}
