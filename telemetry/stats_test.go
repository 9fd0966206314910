package telemetry

import (
	"log/slog"
	"math"
	"testing"
)

func TestPercentile_Interpolates(t *testing.T) {
	alphas := []float64{0, 0.25, 0.5, 0.75, 1}

	cases := map[float64]float64{
		-1:    0,
		0:     0,
		0.125: 0.125,
		0.5:   0.5,
		0.9:   0.9,
		2:     1,
	}
	for p, want := range cases {
		if got := Percentile(alphas, p); math.Abs(got-want) > 1e-9 {
			t.Errorf("Percentile(p=%v) = %v, want %v", p, got, want)
		}
	}
	if Percentile(nil, 0.5) != 0 {
		t.Error("expected 0 for no samples")
	}
	if Percentile([]float64{0.7}, 0.1) != 0.7 {
		t.Error("expected the only sample")
	}
}

func TestComputeDistribution_UnsortedInput(t *testing.T) {
	sizes := []float64{4, 2, 5, 3, 1}
	mean, p10, p50, p90 := ComputeDistribution(sizes)

	if mean != 3 || p50 != 3 {
		t.Errorf("expected mean and median 3, got %v and %v", mean, p50)
	}
	if math.Abs(p10-1.4) > 1e-9 || math.Abs(p90-4.6) > 1e-9 {
		t.Errorf("expected p10 1.4 and p90 4.6, got %v and %v", p10, p90)
	}
	if sizes[0] != 1 || sizes[4] != 5 {
		t.Errorf("expected values sorted in place, got %v", sizes)
	}

	mean, p10, p50, p90 = ComputeDistribution(nil)
	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty input should return zeros")
	}
}

func TestWindowStats_LogValue(t *testing.T) {
	s := WindowStats{WindowEndTick: 600, Particles: 25000, Image: "dunes", FieldKind: "edges"}
	v := s.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("expected group value, got %v", v.Kind())
	}

	found := map[string]slog.Value{}
	for _, a := range v.Group() {
		found[a.Key] = a.Value
	}
	if found["particles"].Int64() != 25000 {
		t.Errorf("expected particles 25000, got %v", found["particles"])
	}
	if found["image"].String() != "dunes" || found["field_kind"].String() != "edges" {
		t.Errorf("unexpected source attrs %v / %v", found["image"], found["field_kind"])
	}
}
