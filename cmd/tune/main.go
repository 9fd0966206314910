// Package main tunes the edge detection thresholds so that the images of a
// library reach a target edge density without falling back to brightness.
//
// Usage: go run ./cmd/tune -images image -target 0.06 -output tune_out
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/bonfire/config"
)

// EvalRow is one line of tune_log.csv.
type EvalRow struct {
	Eval           int     `csv:"eval"`
	Loss           float64 `csv:"loss"`
	LowThreshold   float64 `csv:"low_threshold"`
	HighThreshold  float64 `csv:"high_threshold"`
	MagnitudeFloor float64 `csv:"magnitude_floor"`
	MeanFraction   float64 `csv:"mean_fraction"`
	StdFraction    float64 `csv:"std_fraction"`
	Fallbacks      int     `csv:"fallbacks"`
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	imageDir := flag.String("images", "", "Image folder (empty = use config)")
	target := flag.Float64("target", 0.06, "Target share of edge pixels per image")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *imageDir != "" {
		cfg.Images.Dir = *imageDir
	}

	params := NewParamVector(cfg.Edge)
	evaluator, err := NewFitnessEvaluator(params, cfg, *target)
	if err != nil {
		log.Fatalf("failed to prepare images: %v", err)
	}

	logFile, err := os.Create(filepath.Join(*outputDir, "tune_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestLoss := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			loss := evaluator.Evaluate(raw)
			evalCount++

			if loss < bestLoss {
				bestLoss = loss
				bestParams = raw
			}

			s := evaluator.LastStats()
			row := []EvalRow{{
				Eval:           evalCount,
				Loss:           loss,
				LowThreshold:   raw[0],
				HighThreshold:  raw[0] + raw[1],
				MagnitudeFloor: raw[2],
				MeanFraction:   s.MeanFraction,
				StdFraction:    s.StdFraction,
				Fallbacks:      s.Fallbacks,
			}}
			// Header with the first row only
			if evalCount == 1 {
				err = gocsv.Marshal(row, logFile)
			} else {
				err = gocsv.MarshalWithoutHeaders(row, logFile)
			}
			if err != nil {
				log.Printf("failed to write log row: %v", err)
			}

			fmt.Printf("Eval %d/%d: loss=%.6f mean=%.4f fallbacks=%d (best=%.6f)\n",
				evalCount, *maxEvals, loss, s.MeanFraction, s.Fallbacks, bestLoss)
			return loss
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation
	}
	method := &optimize.NelderMead{
		SimplexSize: 0.2,
	}

	fmt.Printf("Tuning %d parameters over %d images, target edge fraction %.3f\n",
		params.Dim(), evaluator.Images(), *target)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, time.Since(startTime).Round(time.Second))
	fmt.Printf("Best loss: %.6f\n", bestLoss)

	best, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(&best.Edge, bestParams)
	fmt.Printf("  low_threshold: %.4f\n  high_threshold: %.4f\n  magnitude_floor: %.4f\n",
		best.Edge.LowThreshold, best.Edge.HighThreshold, best.Edge.MagnitudeFloor)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := best.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}

	reportPath := filepath.Join(*outputDir, "per_image.csv")
	reportFile, err := os.Create(reportPath)
	if err != nil {
		log.Fatalf("failed to create report: %v", err)
	}
	defer reportFile.Close()
	if err := gocsv.MarshalFile(evaluator.Report(bestParams), reportFile); err != nil {
		log.Printf("failed to write report: %v", err)
	}
}
