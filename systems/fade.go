package systems

// FadeCurve is the alpha envelope over a particle's life: a linear rise until
// In, a plateau at 1, and a linear fall from Out to the end. In and Out are
// fractions of lifetime with 0 <= In <= Out <= 1.
type FadeCurve struct {
	In, Out float32
}

// NewFadeCurve clamps the fractions into a valid envelope.
func NewFadeCurve(in, out float64) FadeCurve {
	fi := clamp01(float32(in))
	fo := clamp01(float32(out))
	if fo < fi {
		fo = fi
	}
	return FadeCurve{In: fi, Out: fo}
}

// Alpha returns the envelope value in [0, 1] at the given age.
func (f FadeCurve) Alpha(age, lifetime float32) float32 {
	if lifetime <= 0 {
		return 0
	}
	t := clamp01(age / lifetime)

	switch {
	case t < f.In:
		return t / f.In
	case t <= f.Out:
		return 1
	case f.Out >= 1:
		return 1
	default:
		return clamp01((1 - t) / (1 - f.Out))
	}
}
