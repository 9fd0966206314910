package main

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/bonfire/camera"
	"github.com/pthm-cable/bonfire/config"
	"github.com/pthm-cable/bonfire/imagesource"
	"github.com/pthm-cable/bonfire/systems"
)

// fallbackPenalty is added per image whose edge map would fall back to brightness.
const fallbackPenalty = 1.0

// sample is one decoded image prepared for repeated thresholding.
type sample struct {
	name string
	maps *systems.EdgeMaps
}

// FitnessEvaluator scores edge parameters against a target edge density over
// every image of a library.
type FitnessEvaluator struct {
	params  *ParamVector
	base    config.EdgeConfig
	target  float64
	samples []sample

	mu        sync.Mutex
	lastStats EvalStats
}

// EvalStats summarizes one evaluation.
type EvalStats struct {
	MeanFraction float64
	StdFraction  float64
	Fallbacks    int
}

// NewFitnessEvaluator decodes the library and prepares processing grids at
// the configured screen size.
func NewFitnessEvaluator(params *ParamVector, cfg *config.Config, target float64) (*FitnessEvaluator, error) {
	lib, err := imagesource.Open(cfg.Images)
	if err != nil {
		return nil, err
	}
	if lib.Len() == 0 {
		return nil, fmt.Errorf("no images in %s", cfg.Images.Dir)
	}

	fe := &FitnessEvaluator{params: params, base: cfg.Edge, target: target}
	for i := 0; i < lib.Len(); i++ {
		e, _ := lib.Current()
		vp := camera.New(cfg.Derived.ScreenW32, cfg.Derived.ScreenH32)
		grid, err := imagesource.Grid(e, vp, cfg.Edge.ProcessWidth)
		if err == nil {
			maps, err := systems.ComputeEdgeMaps(grid, cfg.Edge.LowThreshold, cfg.Edge.HighThreshold)
			if err == nil {
				fe.samples = append(fe.samples, sample{name: e.Name, maps: maps})
			}
		}
		lib.Next()
	}
	if len(fe.samples) == 0 {
		return nil, fmt.Errorf("no decodable images in %s", cfg.Images.Dir)
	}
	return fe, nil
}

// Images returns the number of images scored per evaluation.
func (fe *FitnessEvaluator) Images() int {
	return len(fe.samples)
}

// LastStats returns the summary of the most recent evaluation.
func (fe *FitnessEvaluator) LastStats() EvalStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStats
}

// Evaluate scores raw parameter values (lower = better): squared distance of
// each image's edge fraction from the target, plus a penalty per fallback.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	edge := fe.base
	fe.params.ApplyToConfig(&edge, raw)

	fractions := make([]float64, len(fe.samples))
	fallback := make([]bool, len(fe.samples))

	// Samples are independent; each goroutine owns its edge maps
	var wg sync.WaitGroup
	for i := range fe.samples {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			m := fe.samples[idx].maps
			m.Threshold(edge.LowThreshold, edge.HighThreshold)
			fractions[idx] = m.EdgeFraction(edge.MagnitudeFloor)

			need := edge.MinEdgeFraction
			if n := float64(edge.MinEdgePoints) / float64(len(m.Edges)); n > need {
				need = n
			}
			fallback[idx] = fractions[idx] < need
		}(i)
	}
	wg.Wait()

	var loss float64
	fallbacks := 0
	for i, f := range fractions {
		d := f - fe.target
		loss += d * d
		if fallback[i] {
			loss += fallbackPenalty
			fallbacks++
		}
	}
	loss /= float64(len(fractions))

	mean, std := stat.MeanStdDev(fractions, nil)
	fe.mu.Lock()
	fe.lastStats = EvalStats{MeanFraction: mean, StdFraction: std, Fallbacks: fallbacks}
	fe.mu.Unlock()

	return loss
}

// ImageRow is the per-image result for one parameter vector.
type ImageRow struct {
	Image        string  `csv:"image"`
	EdgeFraction float64 `csv:"edge_fraction"`
	Fallback     bool    `csv:"fallback"`
}

// Report thresholds every image with raw parameter values and returns one row per image.
func (fe *FitnessEvaluator) Report(raw []float64) []ImageRow {
	edge := fe.base
	fe.params.ApplyToConfig(&edge, raw)

	rows := make([]ImageRow, len(fe.samples))
	for i, s := range fe.samples {
		s.maps.Threshold(edge.LowThreshold, edge.HighThreshold)
		f := s.maps.EdgeFraction(edge.MagnitudeFloor)
		rows[i] = ImageRow{
			Image:        s.name,
			EdgeFraction: f,
			Fallback:     f < edge.MinEdgeFraction || f*float64(len(s.maps.Edges)) < float64(edge.MinEdgePoints),
		}
	}
	return rows
}
