// Package renderer draws the packed particle buffer with raylib.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bonfire/camera"
	"github.com/pthm-cable/bonfire/systems"
)

// PointRenderer draws particles as additive glow sprites into an offscreen
// target, so the particle layer can be exported without the UI on top.
type PointRenderer struct {
	vp *camera.Viewport

	sprite     rl.Texture2D
	spriteSize float32

	target           rl.RenderTexture2D
	targetW, targetH int32
	initialized      bool
}

// NewPointRenderer creates a renderer with a radial glow sprite of the given
// pixel size. Must be called after the raylib window is created.
func NewPointRenderer(vp *camera.Viewport, spriteSize int) *PointRenderer {
	if spriteSize < 2 {
		spriteSize = 32
	}

	img := rl.NewImageFromImage(glowSprite(spriteSize))
	sprite := rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(sprite, rl.FilterBilinear)
	rl.UnloadImage(img)

	r := &PointRenderer{
		vp:         vp,
		sprite:     sprite,
		spriteSize: float32(spriteSize),
	}
	r.ensureTarget()
	return r
}

// glowSprite builds a white sprite whose alpha falls off smoothly from the center.
func glowSprite(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := (float64(x) - c) / c
			dy := (float64(y) - c) / c
			d := math.Sqrt(dx*dx + dy*dy)
			a := 0.0
			if d < 1 {
				// Gaussian core, forced to zero at the rim
				a = math.Exp(-4*d*d) * (1 - d)
			}
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: uint8(a*255 + 0.5)})
		}
	}
	return img
}

// ensureTarget (re)creates the offscreen target when the screen size changes.
func (r *PointRenderer) ensureTarget() {
	w, h := int32(r.vp.ScreenW), int32(r.vp.ScreenH)
	if r.initialized && w == r.targetW && h == r.targetH {
		return
	}
	if r.initialized {
		rl.UnloadRenderTexture(r.target)
	}
	r.target = rl.LoadRenderTexture(w, h)
	r.targetW, r.targetH = w, h
	r.initialized = true
}

// Render draws count particles of a packed buffer into the offscreen target.
// Call outside BeginDrawing/EndDrawing.
func (r *PointRenderer) Render(buf []float32, count int, pointScale float32) {
	r.ensureTarget()

	rl.BeginTextureMode(r.target)
	rl.ClearBackground(rl.Black)
	rl.BeginBlendMode(rl.BlendAdditive)

	src := rl.Rectangle{X: 0, Y: 0, Width: r.spriteSize, Height: r.spriteSize}
	for i := 0; i < count; i++ {
		o := i * systems.AttribCount
		if o+systems.AttribCount > len(buf) {
			break
		}
		alpha := buf[o+systems.AttribAlpha]
		if alpha <= 0 {
			continue
		}
		size := buf[o+systems.AttribSize] * pointScale
		x, y := buf[o+systems.AttribX], buf[o+systems.AttribY]
		if !r.vp.IsVisible(x, y, size) {
			continue
		}
		sx, sy := r.vp.NDCToScreen(x, y)

		// The sprite is wider than the visible core; scale so the core matches size
		d := size * 2
		dst := rl.Rectangle{X: sx - d/2, Y: sy - d/2, Width: d, Height: d}
		tint := rl.Color{
			R: toByte(buf[o+systems.AttribR]),
			G: toByte(buf[o+systems.AttribG]),
			B: toByte(buf[o+systems.AttribB]),
			A: toByte(alpha),
		}
		rl.DrawTexturePro(r.sprite, src, dst, rl.Vector2{}, 0, tint)
	}

	rl.EndBlendMode()
	rl.EndTextureMode()
}

// Draw blits the particle layer to the screen.
func (r *PointRenderer) Draw() {
	if !r.initialized {
		return
	}
	// Render textures are stored upside down
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(r.targetW), Height: -float32(r.targetH)}
	dst := rl.Rectangle{X: 0, Y: 0, Width: r.vp.ScreenW, Height: r.vp.ScreenH}
	rl.DrawTexturePro(r.target.Texture, src, dst, rl.Vector2{}, 0, rl.White)
}

// Export writes the particle layer to a PNG file.
func (r *PointRenderer) Export(path string) error {
	if !r.initialized {
		return fmt.Errorf("exporting %s: renderer not initialized", path)
	}
	img := rl.LoadImageFromTexture(r.target.Texture)
	defer rl.UnloadImage(img)

	rl.ImageFlipVertical(img)
	if !rl.ExportImage(*img, path) {
		return fmt.Errorf("exporting %s: write failed", path)
	}
	return nil
}

// Unload frees GPU resources.
func (r *PointRenderer) Unload() {
	rl.UnloadTexture(r.sprite)
	if r.initialized {
		rl.UnloadRenderTexture(r.target)
		r.initialized = false
	}
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
