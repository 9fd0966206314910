package systems

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/bonfire/camera"
	"github.com/pthm-cable/bonfire/config"
)

var (
	// ErrEmptyImage is returned when the processing grid has no pixels.
	ErrEmptyImage = errors.New("image has no pixels")

	// ErrEmptySpawnField signals that a candidate strategy produced too few
	// points. BuildSpawnField handles it by falling back; it never escapes.
	ErrEmptySpawnField = errors.New("spawn field has no candidates")
)

// Luma weights (ITU-R BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// EdgeMaps holds the intermediate maps of one edge field build.
// All slices are row-major, W*H long.
type EdgeMaps struct {
	W, H      int
	Luma      []float64 // [0, 1]
	Magnitude []float64 // Sobel magnitude normalized to [0, 1]
	Edges     []bool    // hysteresis edge map
	R, G, B   []float32 // source colors
}

// ComputeEdgeMaps runs the luma, gradient and hysteresis passes over a grid.
func ComputeEdgeMaps(grid *image.RGBA, low, high float64) (*EdgeMaps, error) {
	if grid == nil {
		return nil, ErrEmptyImage
	}
	b := grid.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	m := &EdgeMaps{
		W:    w,
		H:    h,
		Luma: make([]float64, w*h),
		R:    make([]float32, w*h),
		G:    make([]float32, w*h),
		B:    make([]float32, w*h),
	}
	for y := 0; y < h; y++ {
		row := grid.Pix[y*grid.Stride : y*grid.Stride+w*4]
		for x := 0; x < w; x++ {
			i := y*w + x
			r := float32(row[x*4]) / 255
			g := float32(row[x*4+1]) / 255
			bl := float32(row[x*4+2]) / 255
			m.R[i], m.G[i], m.B[i] = r, g, bl
			m.Luma[i] = lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(bl)
		}
	}

	m.Magnitude = sobelMagnitude(m.Luma, w, h)
	m.Edges = hysteresis(m.Magnitude, w, h, low, high)
	return m, nil
}

// Threshold recomputes the edge map from the stored magnitudes.
func (m *EdgeMaps) Threshold(low, high float64) {
	m.Edges = hysteresis(m.Magnitude, m.W, m.H, low, high)
}

// EdgeFraction returns the share of pixels that are edges with a magnitude
// of at least floor.
func (m *EdgeMaps) EdgeFraction(floor float64) float64 {
	if len(m.Edges) == 0 {
		return 0
	}
	count := 0
	for i, e := range m.Edges {
		if e && m.Magnitude[i] >= floor {
			count++
		}
	}
	return float64(count) / float64(len(m.Edges))
}

// sobelMagnitude returns the Euclidean magnitude of the 3x3 Sobel pair,
// normalized by its maximum. Borders sample with clamped coordinates.
func sobelMagnitude(luma []float64, w, h int) []float64 {
	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return luma[y*w+x]
	}

	mag := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, tc, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			ml, mr := at(x-1, y), at(x+1, y)
			bl, bc, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)
			mag[y*w+x] = math.Sqrt(gx*gx + gy*gy)
		}
	}

	if peak := floats.Max(mag); peak > 0 {
		floats.Scale(1/peak, mag)
	}
	return mag
}

// hysteresis links edges: pixels at or above high are strong, pixels at or
// above low are weak and kept only when 8-connected to a strong pixel.
func hysteresis(mag []float64, w, h int, low, high float64) []bool {
	edges := make([]bool, w*h)
	stack := make([]int, 0, 256)

	for i, v := range mag {
		if v < high || edges[i] || v <= 0 {
			continue
		}
		edges[i] = true
		stack = append(stack, i)

		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cx, cy := cur%w, cur/w

			for dy := -1; dy <= 1; dy++ {
				ny := cy + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := cx + dx
					if (dx == 0 && dy == 0) || nx < 0 || nx >= w {
						continue
					}
					n := ny*w + nx
					if !edges[n] && mag[n] >= low && mag[n] > 0 {
						edges[n] = true
						stack = append(stack, n)
					}
				}
			}
		}
	}
	return edges
}

// BuildSpawnField converts a processing grid into a spawn field. The viewport
// must already be fitted to the grid's source image. Sparse edge maps fall
// back to brightness, and empty brightness maps to every pixel.
func BuildSpawnField(grid *image.RGBA, vp *camera.Viewport, p config.EdgeConfig, source string) (*SpawnField, error) {
	m, err := ComputeEdgeMaps(grid, p.LowThreshold, p.HighThreshold)
	if err != nil {
		return nil, fmt.Errorf("building spawn field for %s: %w", source, err)
	}

	jx, jy := vp.CellNDC(m.W, m.H)
	toNDC := func(i int) (float32, float32) {
		return vp.GridToNDC(float32(i%m.W), float32(i/m.W), m.W, m.H)
	}

	points, err := edgeCandidates(m, p, toNDC)
	if err == nil {
		return NewSpawnField(points, jx, jy, source, FieldEdges), nil
	}
	if !errors.Is(err, ErrEmptySpawnField) {
		return nil, err
	}

	points, err = brightnessCandidates(m, p, toNDC)
	if err == nil {
		return NewSpawnField(points, jx, jy, source, FieldBrightness), nil
	}

	return NewSpawnField(uniformCandidates(m, toNDC), jx, jy, source, FieldUniform), nil
}

// minEdgeCandidates returns the viable edge count for a grid of n pixels.
func minEdgeCandidates(p config.EdgeConfig, n int) int {
	min := int(p.MinEdgeFraction * float64(n))
	if p.MinEdgePoints > min {
		min = p.MinEdgePoints
	}
	if min < 1 {
		min = 1
	}
	return min
}

func edgeCandidates(m *EdgeMaps, p config.EdgeConfig, toNDC func(int) (float32, float32)) ([]SpawnPoint, error) {
	count := 0
	for i, e := range m.Edges {
		if e && m.Magnitude[i] >= p.MagnitudeFloor {
			count++
		}
	}
	if count < minEdgeCandidates(p, len(m.Edges)) {
		return nil, ErrEmptySpawnField
	}

	points := make([]SpawnPoint, 0, count)
	for i, e := range m.Edges {
		if !e || m.Magnitude[i] < p.MagnitudeFloor {
			continue
		}
		x, y := toNDC(i)
		w := p.EdgeWeight + p.GradientWeight*m.Magnitude[i] + p.BrightnessWeight*m.Luma[i]
		points = append(points, SpawnPoint{
			X: x, Y: y,
			Weight: float32(w),
			R:      m.R[i], G: m.G[i], B: m.B[i],
		})
	}
	return points, nil
}

func brightnessCandidates(m *EdgeMaps, p config.EdgeConfig, toNDC func(int) (float32, float32)) ([]SpawnPoint, error) {
	points := make([]SpawnPoint, 0, len(m.Luma)/4)
	for i, l := range m.Luma {
		if l < p.BrightnessFloor || l <= 0 {
			continue
		}
		x, y := toNDC(i)
		points = append(points, SpawnPoint{
			X: x, Y: y,
			Weight: float32(l),
			R:      m.R[i], G: m.G[i], B: m.B[i],
		})
	}
	if len(points) == 0 {
		return nil, ErrEmptySpawnField
	}
	return points, nil
}

func uniformCandidates(m *EdgeMaps, toNDC func(int) (float32, float32)) []SpawnPoint {
	points := make([]SpawnPoint, len(m.Luma))
	for i := range points {
		x, y := toNDC(i)
		points[i] = SpawnPoint{
			X: x, Y: y,
			Weight: 1,
			R:      m.R[i], G: m.G[i], B: m.B[i],
		}
	}
	return points
}

// BuildCameraField builds a spawn field from a grayscale camera frame and its
// per-pixel motion map. Weights mix brightness and motion; X is mirrored so the
// field behaves like a mirror. diff may be nil.
func BuildCameraField(frame *image.Gray, diff []float64, brightnessShare float64, source string) *SpawnField {
	if frame == nil {
		return NewSpawnField(nil, 0, 0, source, FieldCamera)
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return NewSpawnField(nil, 0, 0, source, FieldCamera)
	}
	if len(diff) != w*h {
		diff = nil
	}

	points := make([]SpawnPoint, 0, w*h)
	for y := 0; y < h; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+w]
		for x := 0; x < w; x++ {
			l := float32(row[x]) / 255
			weight := float64(l) * brightnessShare
			if diff != nil {
				weight += diff[y*w+x] * (1 - brightnessShare)
			}
			if weight <= 0 {
				continue
			}
			points = append(points, SpawnPoint{
				X:      1 - (float32(x)+0.5)/float32(w)*2,
				Y:      1 - (float32(y)+0.5)/float32(h)*2,
				Weight: float32(weight),
				R:      l, G: l, B: l,
			})
		}
	}
	return NewSpawnField(points, 1/float32(w), 1/float32(h), source, FieldCamera)
}
