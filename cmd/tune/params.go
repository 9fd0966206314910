package main

import "github.com/pthm-cable/bonfire/config"

// ParamSpec defines a single tunable edge parameter.
type ParamSpec struct {
	Name    string  // Column name in the log
	Path    string  // Config path
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value
}

// ParamVector holds the set of tunable parameters.
// The high threshold is tuned as a gap above the low one so that low <= high
// holds for every point the optimizer visits.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of edge parameters, starting from cfg.
func NewParamVector(cfg config.EdgeConfig) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "low_threshold", Path: "edge.low_threshold", Min: 0.01, Max: 0.5, Default: cfg.LowThreshold},
			{Name: "threshold_gap", Path: "edge.high_threshold", Min: 0.0, Max: 0.6, Default: cfg.HighThreshold - cfg.LowThreshold},
			{Name: "magnitude_floor", Path: "edge.magnitude_floor", Min: 0.0, Max: 0.4, Default: cfg.MagnitudeFloor},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into an edge config.
func (pv *ParamVector) ApplyToConfig(cfg *config.EdgeConfig, values []float64) {
	c := pv.Clamp(values)
	cfg.LowThreshold = c[0]
	cfg.HighThreshold = c[0] + c[1]
	cfg.MagnitudeFloor = c[2]
}
