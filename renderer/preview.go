package renderer

import (
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Camera preview size on screen in pixels.
const (
	previewW = 160
	previewH = 120
)

// CameraPreview shows the reduced camera frame in the bottom-left corner.
type CameraPreview struct {
	tex         rl.Texture2D
	texW, texH  int
	pixels      []color.RGBA
	initialized bool
}

// NewCameraPreview creates an empty preview. The texture is allocated on the
// first frame.
func NewCameraPreview() *CameraPreview {
	return &CameraPreview{}
}

// Update uploads a grayscale frame, mirrored to match the camera field.
func (p *CameraPreview) Update(frame *image.Gray) {
	if frame == nil {
		return
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return
	}
	if !p.initialized || w != p.texW || h != p.texH {
		p.Unload()
		img := rl.GenImageColor(w, h, rl.Black)
		p.tex = rl.LoadTextureFromImage(img)
		rl.SetTextureFilter(p.tex, rl.FilterBilinear)
		rl.UnloadImage(img)
		p.texW, p.texH = w, h
		p.pixels = make([]color.RGBA, w*h)
		p.initialized = true
	}

	for y := 0; y < h; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+w]
		for x := 0; x < w; x++ {
			v := row[w-1-x]
			p.pixels[y*w+x] = color.RGBA{R: v, G: v, B: v, A: 255}
		}
	}
	rl.UpdateTexture(p.tex, p.pixels)
}

// Draw renders the preview at the bottom-left of a screen of height screenH.
func (p *CameraPreview) Draw(screenH float32) {
	if !p.initialized {
		return
	}
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(p.texW), Height: float32(p.texH)}
	dst := rl.Rectangle{X: 0, Y: screenH - previewH, Width: previewW, Height: previewH}
	rl.DrawTexturePro(p.tex, src, dst, rl.Vector2{}, 0, rl.Color{R: 255, G: 255, B: 255, A: 204})
	rl.DrawRectangleLines(0, int32(screenH)-previewH, previewW, previewH, rl.DarkGray)
}

// Unload frees GPU resources.
func (p *CameraPreview) Unload() {
	if p.initialized {
		rl.UnloadTexture(p.tex)
		p.initialized = false
	}
}
