package systems

// Per-particle attribute offsets in the packed buffer.
const (
	AttribX = iota
	AttribY
	AttribR
	AttribG
	AttribB
	AttribAlpha
	AttribSize

	AttribCount // floats per particle
)

// FramePacker lays particle state out as a flat float32 buffer in slot order.
// The buffer is allocated once and reused every frame.
type FramePacker struct {
	buf   []float32
	count int
}

// NewFramePacker allocates a buffer for capacity particles.
func NewFramePacker(capacity int) *FramePacker {
	if capacity < 0 {
		capacity = 0
	}
	return &FramePacker{buf: make([]float32, capacity*AttribCount)}
}

// Pack writes the particles into the buffer and returns it. The returned slice
// is overwritten by the next call.
func (fp *FramePacker) Pack(particles []Particle) []float32 {
	n := len(particles) * AttribCount
	if n > cap(fp.buf) {
		fp.buf = make([]float32, n)
	}
	buf := fp.buf[:n]

	for i := range particles {
		pt := &particles[i]
		o := i * AttribCount
		buf[o+AttribX] = pt.X
		buf[o+AttribY] = pt.Y
		buf[o+AttribR] = pt.R
		buf[o+AttribG] = pt.G
		buf[o+AttribB] = pt.B
		buf[o+AttribAlpha] = pt.Alpha
		buf[o+AttribSize] = pt.Size
	}

	fp.count = len(particles)
	return buf
}

// Count returns the number of particles in the last packed buffer.
func (fp *FramePacker) Count() int { return fp.count }

// Buffer returns the last packed buffer.
func (fp *FramePacker) Buffer() []float32 { return fp.buf[:fp.count*AttribCount] }
