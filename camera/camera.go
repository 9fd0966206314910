// Package camera provides the viewport mapping between image grids, normalized
// device coordinates and screen pixels.
package camera

// Viewport maps a letterboxed content rectangle onto the screen.
// NDC spans [-1, 1] on both axes with +Y pointing up (screen top = +1).
type Viewport struct {
	// Screen dimensions in pixels
	ScreenW, ScreenH float32

	// Content rectangle size in screen pixels, centered on screen.
	// Equal to the screen size until Fit is called.
	FitW, FitH float32

	// Source aspect last passed to Fit (0 = none)
	srcW, srcH float32
}

// New creates a viewport whose content fills the whole screen.
func New(screenW, screenH float32) *Viewport {
	return &Viewport{
		ScreenW: screenW,
		ScreenH: screenH,
		FitW:    screenW,
		FitH:    screenH,
	}
}

// Fit letterboxes content of the given pixel size into the screen, preserving
// its aspect ratio. Returns the fitted size in screen pixels.
func (v *Viewport) Fit(srcW, srcH int) (fitW, fitH int) {
	if srcW <= 0 || srcH <= 0 {
		v.srcW, v.srcH = 0, 0
		v.FitW, v.FitH = v.ScreenW, v.ScreenH
		return int(v.FitW), int(v.FitH)
	}
	v.srcW, v.srcH = float32(srcW), float32(srcH)

	scale := v.ScreenW / v.srcW
	if s := v.ScreenH / v.srcH; s < scale {
		scale = s
	}
	fitW = int(v.srcW * scale)
	fitH = int(v.srcH * scale)
	if fitW < 1 {
		fitW = 1
	}
	if fitH < 1 {
		fitH = 1
	}
	v.FitW = float32(fitW)
	v.FitH = float32(fitH)
	return fitW, fitH
}

// Resize updates screen dimensions and refits the last content size.
func (v *Viewport) Resize(screenW, screenH float32) {
	if screenW == v.ScreenW && screenH == v.ScreenH {
		return
	}
	v.ScreenW = screenW
	v.ScreenH = screenH
	v.Fit(int(v.srcW), int(v.srcH))
}

// offset returns the top-left corner of the content rectangle in screen pixels.
func (v *Viewport) offset() (float32, float32) {
	return (v.ScreenW - v.FitW) / 2, (v.ScreenH - v.FitH) / 2
}

// GridToNDC converts the center of grid cell (gx, gy) of a gridW x gridH grid
// covering the content rectangle into NDC.
func (v *Viewport) GridToNDC(gx, gy float32, gridW, gridH int) (x, y float32) {
	cellW := v.FitW / float32(gridW)
	cellH := v.FitH / float32(gridH)
	ox, oy := v.offset()

	px := ox + gx*cellW + cellW*0.5
	py := oy + gy*cellH + cellH*0.5
	return v.ScreenToNDC(px, py)
}

// CellNDC returns the half extents of one grid cell in NDC, used as spawn jitter.
func (v *Viewport) CellNDC(gridW, gridH int) (hx, hy float32) {
	cellW := v.FitW / float32(gridW)
	cellH := v.FitH / float32(gridH)
	return cellW / v.ScreenW, cellH / v.ScreenH
}

// ScreenToNDC converts screen pixels to NDC (flipping Y).
func (v *Viewport) ScreenToNDC(sx, sy float32) (x, y float32) {
	x = sx/v.ScreenW*2 - 1
	y = 1 - sy/v.ScreenH*2
	return x, y
}

// NDCToScreen converts NDC to screen pixels.
func (v *Viewport) NDCToScreen(x, y float32) (sx, sy float32) {
	sx = (x + 1) * 0.5 * v.ScreenW
	sy = (1 - y) * 0.5 * v.ScreenH
	return sx, sy
}

// IsVisible returns true if a point at NDC (x, y) with the given pixel radius
// could be visible on screen (conservative check for culling).
func (v *Viewport) IsVisible(x, y, radius float32) bool {
	mx := radius * 2 / v.ScreenW
	my := radius * 2 / v.ScreenH
	return x >= -1-mx && x <= 1+mx && y >= -1-my && y <= 1+my
}
