package systems

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/pthm-cable/bonfire/camera"
	"github.com/pthm-cable/bonfire/config"
)

func makeGrid(w, h int, fill func(x, y int) color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill(x, y))
		}
	}
	return img
}

func fittedViewport(w, h int) *camera.Viewport {
	vp := camera.New(float32(w), float32(h))
	vp.Fit(w, h)
	return vp
}

// ---------- Gradient and hysteresis passes ----------

func TestSobelMagnitude_UniformIsZero(t *testing.T) {
	luma := make([]float64, 16)
	for i := range luma {
		luma[i] = 0.4
	}
	for i, v := range sobelMagnitude(luma, 4, 4) {
		if v != 0 {
			t.Fatalf("expected zero gradient at %d, got %f", i, v)
		}
	}
}

func TestSobelMagnitude_StepNormalized(t *testing.T) {
	// Vertical step between columns 3 and 4
	w, h := 8, 4
	luma := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 4; x < w; x++ {
			luma[y*w+x] = 1
		}
	}

	mag := sobelMagnitude(luma, w, h)
	if math.Abs(mag[1*w+3]-1) > 1e-9 || math.Abs(mag[1*w+4]-1) > 1e-9 {
		t.Errorf("expected normalized peak on both sides of the step, got %f and %f", mag[1*w+3], mag[1*w+4])
	}
	if mag[1*w+0] != 0 || mag[1*w+7] != 0 {
		t.Errorf("expected flat regions to have zero gradient")
	}
}

func TestHysteresis_WeakNeedsStrongNeighbour(t *testing.T) {
	mag := []float64{0.05, 0.2, 0.5, 0.2, 0.05, 0, 0.2, 0.2}
	edges := hysteresis(mag, len(mag), 1, 0.1, 0.3)

	want := []bool{false, true, true, true, false, false, false, false}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("pixel %d: expected edge=%v, got %v", i, want[i], edges[i])
		}
	}
}

func TestHysteresis_DiagonalChain(t *testing.T) {
	// Strong pixel at (0,0), weak chain along the diagonal
	w, h := 4, 4
	mag := make([]float64, w*h)
	mag[0] = 0.9
	mag[1*w+1] = 0.15
	mag[2*w+2] = 0.15
	mag[3*w+3] = 0.15
	mag[3*w+0] = 0.15 // weak, isolated

	edges := hysteresis(mag, w, h, 0.1, 0.3)
	for _, i := range []int{0, 1*w + 1, 2*w + 2, 3*w + 3} {
		if !edges[i] {
			t.Errorf("expected diagonal pixel %d linked", i)
		}
	}
	if edges[3*w+0] {
		t.Error("isolated weak pixel should not be an edge")
	}
}

// ---------- BuildSpawnField ----------

func TestBuildSpawnField_EdgesFromSquare(t *testing.T) {
	grid := makeGrid(64, 64, func(x, y int) color.RGBA {
		if x >= 16 && x < 48 && y >= 16 && y < 48 {
			return color.RGBA{255, 200, 100, 255}
		}
		return color.RGBA{0, 0, 0, 255}
	})

	field, err := BuildSpawnField(grid, fittedViewport(64, 64), config.Cfg().Edge, "square")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if field.Kind() != FieldEdges {
		t.Fatalf("expected edge field, got %v", field.Kind())
	}
	if field.Len() == 0 || field.Len() > 64*64/4 {
		t.Errorf("expected a thin edge set, got %d points", field.Len())
	}

	// Every candidate sits on the square outline, within one cell of it
	for i := 0; i < field.Len(); i++ {
		p := field.Point(i)
		if p.Weight <= 0 {
			t.Fatalf("candidate %d has non-positive weight", i)
		}
		ax, ay := math.Abs(float64(p.X)), math.Abs(float64(p.Y))
		edge := math.Max(ax, ay)
		if edge < 0.45 || edge > 0.55 {
			t.Fatalf("candidate %d at (%f, %f) is not on the outline", i, p.X, p.Y)
		}
	}
}

func TestBuildSpawnField_UniformColorFallsBackToBrightness(t *testing.T) {
	grid := makeGrid(32, 32, func(x, y int) color.RGBA {
		return color.RGBA{128, 128, 128, 255}
	})

	field, err := BuildSpawnField(grid, fittedViewport(32, 32), config.Cfg().Edge, "gray")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if field.Kind() != FieldBrightness {
		t.Errorf("expected brightness fallback, got %v", field.Kind())
	}
	if field.Len() != 32*32 {
		t.Errorf("expected every pixel as candidate, got %d", field.Len())
	}
	if field.Sampler().Uniform() {
		t.Error("brightness field should sample by weight")
	}
}

func TestBuildSpawnField_BlackFallsBackToUniform(t *testing.T) {
	grid := makeGrid(16, 8, func(x, y int) color.RGBA {
		return color.RGBA{0, 0, 0, 255}
	})

	field, err := BuildSpawnField(grid, fittedViewport(16, 8), config.Cfg().Edge, "black")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if field.Kind() != FieldUniform {
		t.Errorf("expected uniform fallback, got %v", field.Kind())
	}
	if field.Len() != 16*8 {
		t.Errorf("expected %d points, got %d", 16*8, field.Len())
	}
	if math.Abs(field.TotalWeight()-16*8) > 1e-9 {
		t.Errorf("expected unit weights, total %f", field.TotalWeight())
	}
}

func TestBuildSpawnField_EmptyImage(t *testing.T) {
	vp := fittedViewport(8, 8)
	edge := config.Cfg().Edge

	if _, err := BuildSpawnField(nil, vp, edge, "nil"); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage for nil grid, got %v", err)
	}
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := BuildSpawnField(empty, vp, edge, "empty"); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage for empty grid, got %v", err)
	}
}

func TestBuildSpawnField_LetterboxedCoordinates(t *testing.T) {
	// Square grid on a wide screen: content spans the middle of the screen
	vp := camera.New(200, 100)
	vp.Fit(10, 10)
	grid := makeGrid(10, 10, func(x, y int) color.RGBA {
		return color.RGBA{200, 200, 200, 255}
	})

	field, err := BuildSpawnField(grid, vp, config.Cfg().Edge, "boxed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < field.Len(); i++ {
		if x := field.Point(i).X; x < -0.5 || x > 0.5 {
			t.Fatalf("point %d at x=%f outside the pillarboxed content", i, x)
		}
	}
}

// ---------- BuildCameraField ----------

func TestBuildCameraField_MirroredAndWeighted(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 4, 2))
	frame.Pix[0] = 255

	field := BuildCameraField(frame, nil, 0.6, "cam")
	if field.Kind() != FieldCamera {
		t.Errorf("expected camera field, got %v", field.Kind())
	}
	if field.Len() != 1 {
		t.Fatalf("expected one lit pixel, got %d", field.Len())
	}

	p := field.Point(0)
	if math.Abs(float64(p.X-0.75)) > 1e-6 || math.Abs(float64(p.Y-0.5)) > 1e-6 {
		t.Errorf("expected mirrored position (0.75, 0.5), got (%f, %f)", p.X, p.Y)
	}
	if math.Abs(float64(p.Weight-0.6)) > 1e-6 {
		t.Errorf("expected weight 0.6, got %f", p.Weight)
	}
}

func TestBuildCameraField_MotionContributes(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 2, 1))
	diff := []float64{0, 1}

	field := BuildCameraField(frame, diff, 0.6, "cam")
	if field.Len() != 1 {
		t.Fatalf("expected only the moving pixel, got %d", field.Len())
	}
	if math.Abs(float64(field.Point(0).Weight-0.4)) > 1e-6 {
		t.Errorf("expected motion weight 0.4, got %f", field.Point(0).Weight)
	}
}

func TestBuildCameraField_DarkStillFrameIsUniform(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 8, 6))
	field := BuildCameraField(frame, nil, 0.6, "cam")
	if !field.Sampler().Uniform() {
		t.Error("expected uniform sampling for a dark still frame")
	}
}

func TestEdgeMaps_ThresholdAndFraction(t *testing.T) {
	grid := makeGrid(32, 32, func(x, y int) color.RGBA {
		if x >= 8 && x < 24 && y >= 8 && y < 24 {
			return color.RGBA{R: 255, G: 255, B: 255, A: 255}
		}
		return color.RGBA{A: 255}
	})
	m, err := ComputeEdgeMaps(grid, 0.1, 0.3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := m.EdgeFraction(0)
	if base <= 0 || base >= 0.5 {
		t.Fatalf("expected a thin edge band, got fraction %f", base)
	}
	if m.EdgeFraction(1.01) != 0 {
		t.Error("expected no edges above a floor past the maximum magnitude")
	}

	// Thresholds above every magnitude leave nothing
	m.Threshold(1.5, 2)
	if m.EdgeFraction(0) != 0 {
		t.Errorf("expected no edges after raising thresholds, got %f", m.EdgeFraction(0))
	}
	m.Threshold(0.1, 0.3)
	if m.EdgeFraction(0) != base {
		t.Errorf("expected fraction %f restored, got %f", base, m.EdgeFraction(0))
	}
}
