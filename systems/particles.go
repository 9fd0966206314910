package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/bonfire/config"
)

// minLifetime keeps lifetimes strictly positive so respawn always makes progress.
const minLifetime = 1e-3

// Particle is one slot of the pool. Position and velocity are in NDC.
type Particle struct {
	X, Y   float32
	VX, VY float32

	R, G, B float32
	Alpha   float32

	Size     float32 // current size in pixels
	BaseSize float32 // size at spawn

	Age      float32
	Lifetime float32

	Peak   float32 // alpha at the fade plateau
	Phase  float32 // wobble phase offset
	Wobble float32 // wobble amplitude captured at spawn
}

// PhysicsParams shapes motion for every particle regardless of mode.
type PhysicsParams struct {
	Deceleration float32 // fraction of launch velocity lost by end of life
	WobbleFreq   float32 // rad/s
	ShrinkTo     float32 // size fraction remaining at end of life
}

// PhysicsParamsFromConfig converts the physics section.
func PhysicsParamsFromConfig(c config.PhysicsConfig) PhysicsParams {
	return PhysicsParams{
		Deceleration: clamp01(float32(c.Deceleration)),
		WobbleFreq:   float32(c.WobbleFreq),
		ShrinkTo:     clamp01(float32(c.ShrinkTo)),
	}
}

// SimContext carries the state shared by every slot during one update:
// the active spawn field, its sampler and the active mode parameters.
type SimContext struct {
	Field   *SpawnField
	Sampler Sampler
	Mode    ModeParams
}

// NewSimContext builds a context for a field and mode.
func NewSimContext(field *SpawnField, mode ModeParams) *SimContext {
	return &SimContext{Field: field, Sampler: field.Sampler(), Mode: mode}
}

// SetField swaps the active spawn field.
func (c *SimContext) SetField(field *SpawnField) {
	c.Field = field
	c.Sampler = field.Sampler()
}

func (c *SimContext) sampler() Sampler {
	if c.Sampler == nil {
		return uniformSampler{}
	}
	return c.Sampler
}

// ParticlePool owns a fixed number of particle slots. Dead particles are
// respawned in place; the backing slice is never reallocated.
type ParticlePool struct {
	particles []Particle
	fade      FadeCurve
	physics   PhysicsParams
	rng       *rand.Rand

	// Wobble clock in radians, wrapped to [0, 2π)
	clock float32
}

// NewParticlePool allocates capacity slots.
func NewParticlePool(capacity int, fade FadeCurve, physics PhysicsParams, rng *rand.Rand) *ParticlePool {
	if capacity < 0 {
		capacity = 0
	}
	return &ParticlePool{
		particles: make([]Particle, capacity),
		fade:      fade,
		physics:   physics,
		rng:       rng,
	}
}

// Len returns the pool capacity. It never changes.
func (p *ParticlePool) Len() int { return len(p.particles) }

// Particles returns the slots in slot order. Callers must not retain the slice
// across updates.
func (p *ParticlePool) Particles() []Particle { return p.particles }

// Prime spawns every slot and staggers ages inside each lifetime so that
// respawns spread evenly across frames.
func (p *ParticlePool) Prime(ctx *SimContext) {
	s := ctx.sampler()
	for i := range p.particles {
		p.SpawnOne(i, s, ctx.Mode)
		pt := &p.particles[i]
		pt.Age = p.rng.Float32() * pt.Lifetime
		p.settle(pt)
	}
}

// SpawnOne resets a slot from the sampler under the given mode.
func (p *ParticlePool) SpawnOne(slot int, sampler Sampler, mode ModeParams) {
	sp := sampler.Sample(p.rng)
	r, g, b := mode.Colorize(sp.R, sp.G, sp.B, p.rng)

	vx := mode.Drift.Sample(p.rng)
	if p.rng.Float32() < 0.5 {
		vx = -vx
	}

	lifetime := mode.Lifetime.Sample(p.rng)
	if lifetime < minLifetime {
		lifetime = minLifetime
	}
	size := mode.Size.Sample(p.rng)

	p.particles[slot] = Particle{
		X:        sp.X,
		Y:        sp.Y,
		VX:       vx,
		VY:       mode.Rise.Sample(p.rng),
		R:        r,
		G:        g,
		B:        b,
		Alpha:    0,
		Size:     size,
		BaseSize: size,
		Age:      0,
		Lifetime: lifetime,
		Peak:     mode.SpawnDensity,
		Phase:    p.rng.Float32() * 2 * math.Pi,
		Wobble:   mode.Wobble,
	}
}

// Update advances every slot by dt and respawns the ones whose age reached
// their lifetime. Returns the number of respawns.
func (p *ParticlePool) Update(dt float32, ctx *SimContext) int {
	s := ctx.sampler()
	mode := ctx.Mode

	p.clock = wrapAngle(p.clock+dt*p.physics.WobbleFreq-math.Pi) + math.Pi
	clock := p.clock
	decel := p.physics.Deceleration

	respawns := 0
	for i := range p.particles {
		pt := &p.particles[i]
		pt.Age += dt
		if pt.Age >= pt.Lifetime {
			p.SpawnOne(i, s, mode)
			respawns++
			continue
		}

		t := pt.Age / pt.Lifetime
		slow := 1 - decel*t
		wobble := pt.Wobble * fastSin(clock+pt.Phase)

		pt.X += (pt.VX*slow + wobble) * dt
		pt.Y += pt.VY * slow * dt
		p.settle(pt)
	}
	return respawns
}

// settle recomputes the age-derived attributes of a particle.
func (p *ParticlePool) settle(pt *Particle) {
	t := clamp01(pt.Age / pt.Lifetime)
	pt.Size = pt.BaseSize * (1 - (1-p.physics.ShrinkTo)*t)
	pt.Alpha = pt.Peak * p.fade.Alpha(pt.Age, pt.Lifetime)
}
