package systems

import (
	"math"
	"testing"
)

func TestFadeCurve_Segments(t *testing.T) {
	f := NewFadeCurve(0.2, 0.6)
	const life = 10

	if a := f.Alpha(0, life); a != 0 {
		t.Errorf("expected alpha 0 at birth, got %f", a)
	}
	if a := f.Alpha(1, life); math.Abs(float64(a-0.5)) > 1e-6 {
		t.Errorf("expected alpha 0.5 halfway up the rise, got %f", a)
	}
	if a := f.Alpha(4, life); a != 1 {
		t.Errorf("expected plateau alpha 1, got %f", a)
	}
	if a := f.Alpha(8, life); math.Abs(float64(a-0.5)) > 1e-6 {
		t.Errorf("expected alpha 0.5 halfway down the fall, got %f", a)
	}
	if a := f.Alpha(life, life); a != 0 {
		t.Errorf("expected alpha 0 at death, got %f", a)
	}
}

func TestFadeCurve_Monotonic(t *testing.T) {
	f := NewFadeCurve(0.15, 0.45)
	const life = 3

	prev := float32(-1)
	for i := 0; i <= 1000; i++ {
		age := float32(i) / 1000 * life
		a := f.Alpha(age, life)
		if a < 0 || a > 1 {
			t.Fatalf("alpha %f out of range at age %f", a, age)
		}
		t01 := age / life
		switch {
		case t01 <= f.In:
			if a < prev {
				t.Fatalf("rising edge decreased at age %f", age)
			}
		case t01 > f.Out:
			if a > prev {
				t.Fatalf("falling edge increased at age %f", age)
			}
		}
		prev = a
	}
}

func TestFadeCurve_Clamping(t *testing.T) {
	f := NewFadeCurve(0.8, 0.2)
	if f.In != 0.8 || f.Out != 0.8 {
		t.Errorf("expected out raised to in, got %f/%f", f.In, f.Out)
	}
	if a := f.Alpha(1, 0); a != 0 {
		t.Errorf("expected alpha 0 for zero lifetime, got %f", a)
	}

	instant := NewFadeCurve(0, 1)
	if a := instant.Alpha(0, 1); a != 1 {
		t.Errorf("expected full alpha with no rise, got %f", a)
	}
}
