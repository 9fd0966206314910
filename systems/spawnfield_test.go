package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/bonfire/config"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

func TestSpawnField_WeightedRatio(t *testing.T) {
	field := NewSpawnField([]SpawnPoint{
		{X: -0.5, Y: 0, Weight: 3},
		{X: 0.5, Y: 0, Weight: 1},
	}, 0, 0, "pair", FieldEdges)
	s := field.Sampler()
	if s.Uniform() {
		t.Fatal("expected weighted sampler")
	}

	rng := rand.New(rand.NewSource(42))
	const samples = 40000
	left := 0
	for i := 0; i < samples; i++ {
		if s.Sample(rng).X < 0 {
			left++
		}
	}

	ratio := float64(left) / samples
	if math.Abs(ratio-0.75) > 0.015 {
		t.Errorf("expected ~75%% of spawns on the weight-3 point, got %.3f", ratio)
	}
}

func TestSpawnField_ZeroWeightNeverSelected(t *testing.T) {
	field := NewSpawnField([]SpawnPoint{
		{X: -0.5, Weight: 0},
		{X: 0.5, Weight: 1},
		{X: 0.9, Weight: -2},
	}, 0, 0, "zero", FieldEdges)

	if field.Point(2).Weight != 0 {
		t.Errorf("negative weight should clamp to 0, got %f", field.Point(2).Weight)
	}

	rng := rand.New(rand.NewSource(42))
	s := field.Sampler()
	for i := 0; i < 5000; i++ {
		if x := s.Sample(rng).X; x != 0.5 {
			t.Fatalf("sample %d picked a zero-weight point at x=%f", i, x)
		}
	}
}

func TestSpawnField_JitterStaysInCell(t *testing.T) {
	field := NewSpawnField([]SpawnPoint{{X: 0.2, Y: -0.3, Weight: 1}}, 0.01, 0.02, "jitter", FieldEdges)
	rng := rand.New(rand.NewSource(42))
	s := field.Sampler()

	for i := 0; i < 1000; i++ {
		p := s.Sample(rng)
		if math.Abs(float64(p.X-0.2)) > 0.01+1e-6 || math.Abs(float64(p.Y+0.3)) > 0.02+1e-6 {
			t.Fatalf("jittered point (%f, %f) left its cell", p.X, p.Y)
		}
	}
}

func TestSpawnField_DegenerateUsesUniform(t *testing.T) {
	testCases := []struct {
		name  string
		field *SpawnField
	}{
		{"nil", nil},
		{"empty", NewSpawnField(nil, 0, 0, "empty", FieldEdges)},
		{"all zero", NewSpawnField([]SpawnPoint{{Weight: 0}, {Weight: 0}}, 0, 0, "zero", FieldEdges)},
	}

	rng := rand.New(rand.NewSource(42))
	for _, tc := range testCases {
		s := tc.field.Sampler()
		if !s.Uniform() {
			t.Errorf("%s: expected uniform sampler", tc.name)
			continue
		}
		for i := 0; i < 100; i++ {
			p := s.Sample(rng)
			if p.X < -1 || p.X > 1 || p.Y < -1 || p.Y > 1 {
				t.Errorf("%s: uniform sample (%f, %f) outside viewport", tc.name, p.X, p.Y)
				break
			}
		}
	}
}

func TestSpawnField_TotalWeight(t *testing.T) {
	field := NewSpawnField([]SpawnPoint{{Weight: 1.5}, {Weight: 2.5}}, 0, 0, "total", FieldBrightness)
	if math.Abs(field.TotalWeight()-4) > 1e-9 {
		t.Errorf("expected total weight 4, got %f", field.TotalWeight())
	}
	if field.Kind() != FieldBrightness || field.Kind().String() != "brightness" {
		t.Errorf("unexpected kind %v", field.Kind())
	}
	if field.Source() != "total" {
		t.Errorf("unexpected source %q", field.Source())
	}
}
