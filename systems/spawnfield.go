package systems

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// FieldKind records which strategy produced a spawn field.
type FieldKind uint8

const (
	FieldEdges      FieldKind = iota // edge map candidates
	FieldBrightness                  // brightness map fallback
	FieldUniform                     // every pixel, equal weight
	FieldCamera                      // camera brightness + motion
)

// String returns the strategy name.
func (k FieldKind) String() string {
	switch k {
	case FieldEdges:
		return "edges"
	case FieldBrightness:
		return "brightness"
	case FieldUniform:
		return "uniform"
	case FieldCamera:
		return "camera"
	default:
		return "unknown"
	}
}

// SpawnPoint is one candidate birth location in NDC with its weight and color.
type SpawnPoint struct {
	X, Y    float32
	Weight  float32
	R, G, B float32
}

// SpawnField is an immutable weighted set of spawn points built from one image.
type SpawnField struct {
	points  []SpawnPoint
	cum     []float64 // cumulative weights, len(points)
	total   float64
	jitterX float32 // half cell extents in NDC
	jitterY float32
	source  string
	kind    FieldKind
}

// NewSpawnField builds a field over the given points. Negative weights are
// treated as zero. The points slice is owned by the field afterwards.
func NewSpawnField(points []SpawnPoint, jitterX, jitterY float32, source string, kind FieldKind) *SpawnField {
	f := &SpawnField{
		points:  points,
		cum:     make([]float64, len(points)),
		jitterX: jitterX,
		jitterY: jitterY,
		source:  source,
		kind:    kind,
	}
	weights := make([]float64, len(points))
	for i := range points {
		if points[i].Weight < 0 {
			points[i].Weight = 0
		}
		weights[i] = float64(points[i].Weight)
	}
	if len(weights) > 0 {
		floats.CumSum(f.cum, weights)
		f.total = f.cum[len(f.cum)-1]
	}
	return f
}

// Len returns the number of candidate points.
func (f *SpawnField) Len() int { return len(f.points) }

// Point returns candidate i.
func (f *SpawnField) Point(i int) SpawnPoint { return f.points[i] }

// TotalWeight returns the sum of candidate weights.
func (f *SpawnField) TotalWeight() float64 { return f.total }

// Source returns the identifier of the image or device the field was built from.
func (f *SpawnField) Source() string { return f.source }

// Kind returns the strategy that produced the field.
func (f *SpawnField) Kind() FieldKind { return f.kind }

// Sampler returns the sampling strategy for this field. A nil or empty field
// (or one whose weights sum to zero) samples uniformly across the viewport.
func (f *SpawnField) Sampler() Sampler {
	if f == nil || len(f.points) == 0 || f.total <= 0 {
		return uniformSampler{}
	}
	return weightedSampler{field: f}
}

// Sampler picks spawn locations. The set of implementations is closed:
// weighted candidates or the uniform viewport fallback.
type Sampler interface {
	// Sample returns a jittered spawn point.
	Sample(rng *rand.Rand) SpawnPoint
	// Uniform reports whether this is the degenerate fallback.
	Uniform() bool
}

// weightedSampler picks candidates with probability proportional to weight
// using binary search over the cumulative table.
type weightedSampler struct {
	field *SpawnField
}

func (s weightedSampler) Sample(rng *rand.Rand) SpawnPoint {
	f := s.field
	// u in (0, total] so zero-weight candidates are never selected
	u := (1 - rng.Float64()) * f.total
	i := sort.SearchFloat64s(f.cum, u)
	if i >= len(f.points) {
		i = len(f.points) - 1
	}
	p := f.points[i]
	p.X += (rng.Float32()*2 - 1) * f.jitterX
	p.Y += (rng.Float32()*2 - 1) * f.jitterY
	return p
}

func (s weightedSampler) Uniform() bool { return false }

// neutralGray is the source color of uniform fallback spawns.
const neutralGray = 0.5

// uniformSampler spawns anywhere in the viewport.
type uniformSampler struct{}

func (uniformSampler) Sample(rng *rand.Rand) SpawnPoint {
	return SpawnPoint{
		X:      rng.Float32()*2 - 1,
		Y:      rng.Float32()*2 - 1,
		Weight: 1,
		R:      neutralGray,
		G:      neutralGray,
		B:      neutralGray,
	}
}

func (uniformSampler) Uniform() bool { return true }
