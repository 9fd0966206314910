package systems

import "testing"

func TestFramePacker_LengthIsFixed(t *testing.T) {
	pool, modes := newTestPool(257, 42)
	ctx := NewSimContext(grayField(), modes.Ember)
	pool.Prime(ctx)
	fp := NewFramePacker(pool.Len())

	for frame := 0; frame < 200; frame++ {
		respawns := pool.Update(testDT, ctx)
		buf := fp.Pack(pool.Particles())
		if len(buf) != pool.Len()*AttribCount {
			t.Fatalf("frame %d (%d respawns): expected %d floats, got %d",
				frame, respawns, pool.Len()*AttribCount, len(buf))
		}
		if fp.Count() != pool.Len() {
			t.Fatalf("frame %d: expected count %d, got %d", frame, pool.Len(), fp.Count())
		}
	}
}

func TestFramePacker_SlotOrderLayout(t *testing.T) {
	particles := []Particle{
		{X: 0.1, Y: 0.2, R: 0.3, G: 0.4, B: 0.5, Alpha: 0.6, Size: 7},
		{X: -0.1, Y: -0.2, R: 1, G: 0.9, B: 0.8, Alpha: 0.25, Size: 3},
	}
	fp := NewFramePacker(len(particles))
	buf := fp.Pack(particles)

	for i, p := range particles {
		o := i * AttribCount
		got := []float32{buf[o+AttribX], buf[o+AttribY], buf[o+AttribR], buf[o+AttribG],
			buf[o+AttribB], buf[o+AttribAlpha], buf[o+AttribSize]}
		want := []float32{p.X, p.Y, p.R, p.G, p.B, p.Alpha, p.Size}
		for k := range want {
			if got[k] != want[k] {
				t.Errorf("particle %d attribute %d: expected %f, got %f", i, k, want[k], got[k])
			}
		}
	}
}

func TestFramePacker_ReusesBuffer(t *testing.T) {
	particles := make([]Particle, 1000)
	fp := NewFramePacker(len(particles))

	first := fp.Pack(particles)
	second := fp.Pack(particles)
	if &first[0] != &second[0] {
		t.Error("expected the same backing buffer across frames")
	}

	allocs := testing.AllocsPerRun(100, func() {
		fp.Pack(particles)
	})
	if allocs != 0 {
		t.Errorf("expected zero allocations per pack, got %.1f", allocs)
	}
}

func TestFramePacker_Empty(t *testing.T) {
	fp := NewFramePacker(0)
	if buf := fp.Pack(nil); len(buf) != 0 {
		t.Errorf("expected empty buffer, got %d floats", len(buf))
	}
	if len(fp.Buffer()) != 0 {
		t.Error("expected empty last buffer")
	}
}
