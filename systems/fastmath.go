package systems

import "math"

// Fast math functions for the per-particle update loop.
// These avoid float32->float64 conversions that Go's math package requires.

// fastSin approximates sin(x) using a polynomial. Accurate to ~0.001 for all x.
func fastSin(x float32) float32 {
	// Normalize to [-π, π]
	x = wrapAngle(x)
	const pi = math.Pi
	const pi2 = pi * pi
	ax := absf(x)
	y := 4 * x * (pi - ax) / pi2
	// Correction: improves accuracy
	return 0.225*(y*absf(y)-y) + y
}

// wrapAngle wraps angle to [-pi, pi].
func wrapAngle(a float32) float32 {
	if a > math.Pi || a < -math.Pi {
		a = float32(math.Remainder(float64(a), 2*math.Pi))
	}
	return a
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
