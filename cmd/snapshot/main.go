// Snapshot tool - runs the simulation offscreen and writes one frame to a PNG.
//
// Usage: go run ./cmd/snapshot -images image -mode ember -ticks 300 -out result
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bonfire/config"
	"github.com/pthm-cable/bonfire/game"
	"github.com/pthm-cable/bonfire/renderer"
	"github.com/pthm-cable/bonfire/systems"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	imageDir := flag.String("images", "", "Image folder (empty = use config)")
	mode := flag.String("mode", "auto", "Mode selection: auto, humanity or ember")
	skip := flag.Int("skip", 0, "Advance the library by N images before rendering")
	ticks := flag.Int("ticks", 300, "Simulation ticks before capture")
	seed := flag.Int64("seed", 1, "RNG seed")
	outDir := flag.String("out", "result", "Output directory")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	sel, err := systems.ParseSelection(*mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// The simulation itself needs no window
	g := game.NewGameWithOptions(game.Options{
		Seed:     *seed,
		ImageDir: *imageDir,
		Headless: true,
	})
	defer g.Unload()

	g.SelectMode(sel)
	g.UpdateHeadless()
	for i := 0; i < *skip; i++ {
		g.NextImage()
		g.UpdateHeadless()
	}
	for int(g.Tick()) < *ticks {
		g.UpdateHeadless()
	}
	if err := g.Status(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Bonfire Snapshot")
	defer rl.CloseWindow()

	points := renderer.NewPointRenderer(g.Viewport(), cfg.Renderer.SpriteSize)
	defer points.Unload()
	points.Render(g.Frame(), g.ParticleCount(), float32(cfg.Renderer.PointScale))

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}
	outPath := filepath.Join(*outDir, g.ScreenshotName(time.Now()))
	if err := points.Export(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to export image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Snapshot rendered to: %s (%dx%d, %d particles)\n",
		outPath, cfg.Screen.Width, cfg.Screen.Height, g.ParticleCount())
}
