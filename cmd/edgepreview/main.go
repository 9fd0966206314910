// Edge field preview tool - interactive thresholds over the image library.
//
// Usage: go run ./cmd/edgepreview -images image
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/bonfire/camera"
	"github.com/pthm-cable/bonfire/config"
	"github.com/pthm-cable/bonfire/imagesource"
	"github.com/pthm-cable/bonfire/systems"
)

const (
	windowWidth  = 1100
	windowHeight = 640
	previewW     = 720
	previewH     = 540
	panelWidth   = windowWidth - previewW - 30
)

var (
	weakColor   = colorful.Color{R: 0.9, G: 0.35, B: 0.1}
	strongColor = colorful.Color{R: 1, G: 0.95, B: 0.7}
)

// previewState holds the current image and its maps.
type previewState struct {
	vp      *camera.Viewport
	edge    config.EdgeConfig
	name    string
	grid    *image.RGBA
	maps    *systems.EdgeMaps
	field   *systems.SpawnField
	texture rl.Texture2D
	loaded  bool
	status  string
}

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	imageDir := flag.String("images", "", "Image folder (empty = use config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *imageDir != "" {
		cfg.Images.Dir = *imageDir
	}
	lib, err := imagesource.Open(cfg.Images)
	if err != nil {
		log.Fatalf("failed to open images: %v", err)
	}

	rl.InitWindow(windowWidth, windowHeight, "Edge Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	st := &previewState{
		vp:   camera.New(previewW, previewH),
		edge: cfg.Edge,
	}
	defer st.unload()

	st.load(func() (*imagesource.Entry, error) { return lib.Current() })

	for !rl.WindowShouldClose() {
		needsRegen := false

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		if st.loaded {
			w, h := float32(st.maps.W), float32(st.maps.H)
			rl.DrawTexturePro(
				st.texture,
				rl.Rectangle{X: 0, Y: 0, Width: w, Height: h},
				rl.Rectangle{X: 10, Y: 10, Width: previewW, Height: previewH},
				rl.Vector2{X: 0, Y: 0},
				0,
				rl.White,
			)
		}
		rl.DrawRectangleLines(10, 10, previewW, previewH, rl.DarkGray)

		statsY := int32(previewH + 25)
		if st.loaded {
			frac := st.maps.EdgeFraction(st.edge.MagnitudeFloor)
			rl.DrawText(fmt.Sprintf("%s  %dx%d  edges %.2f%%", st.name, st.maps.W, st.maps.H, frac*100), 15, statsY, 16, rl.DarkGray)
			if st.field != nil {
				rl.DrawText(fmt.Sprintf("Field: %s  %d candidates", st.field.Kind(), st.field.Len()), 15, statsY+20, 16, rl.DarkGray)
			}
		}
		if st.status != "" {
			rl.DrawText(st.status, 15, statsY+40, 16, rl.Maroon)
		}

		// Control panel
		panelX := float32(previewW + 20)
		panelY := float32(10)

		rl.DrawText("Edge Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		if v, changed := slider(panelX, &panelY, "Low threshold", st.edge.LowThreshold, 0, 1); changed {
			st.edge.LowThreshold = v
			if st.edge.HighThreshold < v {
				st.edge.HighThreshold = v
			}
			needsRegen = true
		}
		if v, changed := slider(panelX, &panelY, "High threshold", st.edge.HighThreshold, 0, 1); changed {
			st.edge.HighThreshold = v
			if st.edge.LowThreshold > v {
				st.edge.LowThreshold = v
			}
			needsRegen = true
		}
		if v, changed := slider(panelX, &panelY, "Magnitude floor", st.edge.MagnitudeFloor, 0, 1); changed {
			st.edge.MagnitudeFloor = v
			needsRegen = true
		}
		if v, changed := slider(panelX, &panelY, "Min edge fraction", st.edge.MinEdgeFraction, 0, 0.2); changed {
			st.edge.MinEdgeFraction = v
			needsRegen = true
		}
		if v, changed := slider(panelX, &panelY, "Brightness floor", st.edge.BrightnessFloor, 0, 1); changed {
			st.edge.BrightnessFloor = v
			needsRegen = true
		}

		panelY += 10
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "< Prev") {
			st.load(lib.Prev)
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Next >") {
			st.load(lib.Next)
		}
		panelY += 40
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 250, Height: 30}, "Reset to Config") {
			st.edge = cfg.Edge
			needsRegen = true
		}

		rl.EndDrawing()

		if needsRegen && st.loaded {
			st.rethreshold()
		}
	}
}

// slider draws a labeled slider and advances y. It reports whether the value changed.
func slider(x float32, y *float32, label string, value, lo, hi float64) (float64, bool) {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	nv := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprintf("%.2f", lo), fmt.Sprintf("%.2f", hi),
		float32(value), float32(lo), float32(hi),
	)
	rl.DrawText(fmt.Sprintf("%.3f", value), int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.DarkGray)
	*y += 35
	if nv != float32(value) {
		return float64(nv), true
	}
	return value, false
}

// load decodes the entry returned by pick and rebuilds the maps and texture.
func (st *previewState) load(pick func() (*imagesource.Entry, error)) {
	e, err := pick()
	if err != nil {
		st.status = err.Error()
		return
	}
	grid, err := imagesource.Grid(e, st.vp, st.edge.ProcessWidth)
	if err != nil {
		st.status = err.Error()
		return
	}
	maps, err := systems.ComputeEdgeMaps(grid, st.edge.LowThreshold, st.edge.HighThreshold)
	if err != nil {
		st.status = err.Error()
		return
	}
	field, err := systems.BuildSpawnField(grid, st.vp, st.edge, e.Name)
	if err != nil {
		st.status = err.Error()
	} else {
		st.status = ""
	}

	if st.loaded && (int(st.texture.Width) != maps.W || int(st.texture.Height) != maps.H) {
		rl.UnloadTexture(st.texture)
		st.loaded = false
	}
	if !st.loaded {
		img := rl.GenImageColor(maps.W, maps.H, rl.Black)
		st.texture = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		st.loaded = true
	}

	st.name = e.Name
	st.maps = maps
	st.field = field
	st.grid = grid
	updateTexture(st.texture, maps, st.edge.MagnitudeFloor)
}

// rethreshold reruns hysteresis and the field build with the current parameters.
func (st *previewState) rethreshold() {
	st.maps.Threshold(st.edge.LowThreshold, st.edge.HighThreshold)
	field, err := systems.BuildSpawnField(st.grid, st.vp, st.edge, st.name)
	if err != nil {
		st.status = err.Error()
	} else {
		st.status = ""
		st.field = field
	}
	updateTexture(st.texture, st.maps, st.edge.MagnitudeFloor)
}

func (st *previewState) unload() {
	if st.loaded {
		rl.UnloadTexture(st.texture)
	}
}

// updateTexture draws dimmed luma with edge candidates colored by gradient
// magnitude. Edges under the floor are drawn gray.
func updateTexture(texture rl.Texture2D, m *systems.EdgeMaps, floor float64) {
	pixels := make([]color.RGBA, m.W*m.H)
	for i := range pixels {
		l := uint8(m.Luma[i] * 90)
		pixels[i] = color.RGBA{R: l, G: l, B: l, A: 255}
		if !m.Edges[i] {
			continue
		}
		if m.Magnitude[i] < floor {
			pixels[i] = color.RGBA{R: 110, G: 110, B: 110, A: 255}
			continue
		}
		r, g, b := weakColor.BlendLab(strongColor, m.Magnitude[i]).Clamped().RGB255()
		pixels[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}
