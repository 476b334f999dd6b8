package fix

import "math"

// The host lays out its 3D view and HUD for this shape.
const NativeAspect = float32(16) / 9

// HUD canvas the host draws at, in its own units
const (
	hudCanvasWidth  = 960
	hudCanvasHeight = 544
)

// Geometry is everything derived from the resolution the host applied.
type Geometry struct {
	Width  int
	Height int

	Aspect           float32
	AspectMultiplier float32
	// size of a 16:9 area fitted to the height / to the width
	NativeWidth  float32
	NativeHeight float32

	// 16:9 HUD box centred in the screen
	HUDWidth        float32
	HUDHeight       float32
	HUDWidthOffset  float32
	HUDHeightOffset float32
}

// NewGeometry fits a 16:9 HUD into width x height: full height and
// pillarboxed when the screen is wider, full width and letterboxed when it
// is narrower.
func NewGeometry(width, height int) Geometry {
	g := Geometry{Width: width, Height: height}
	if width <= 0 || height <= 0 {
		return g
	}
	w, h := float32(width), float32(height)
	g.Aspect = w / h
	g.AspectMultiplier = g.Aspect / NativeAspect
	g.NativeWidth = h * NativeAspect
	g.NativeHeight = w / NativeAspect

	if g.Aspect < NativeAspect {
		g.HUDWidth = w
		g.HUDHeight = w / NativeAspect
		g.HUDWidthOffset = 0
		g.HUDHeightOffset = (h - g.HUDHeight) / 2
	} else {
		g.HUDWidth = h * NativeAspect
		g.HUDHeight = h
		g.HUDWidthOffset = (w - g.HUDWidth) / 2
		g.HUDHeightOffset = 0
	}
	return g
}

// AdjustFOV widens a horizontal FOV authored for 16:9 so the vertical
// extent is kept on a narrower screen.
func AdjustFOV(fov, aspect float32) float32 {
	if aspect <= 0 {
		return fov
	}
	half := float64(fov) * math.Pi / 360
	return float32(math.Atan(math.Tan(half)/float64(aspect)*float64(NativeAspect)) * 360 / math.Pi)
}

// HUDSpan is the host's HUD canvas stretched to aspect: the visible extent
// and the (negative) origin shift along the stretched axis.
type HUDSpan struct {
	Extent float32
	Origin float32
}

// HUDWide is the horizontal span for screens wider than 16:9.
func HUDWide(aspect float32) HUDSpan {
	width := ceil(hudCanvasHeight * aspect)
	off := ceil((width - hudCanvasWidth) / 2)
	return HUDSpan{Extent: ceil(width - off), Origin: -off}
}

// HUDTall is the vertical span for screens narrower than 16:9.
func HUDTall(aspect float32) HUDSpan {
	height := ceil(hudCanvasWidth / aspect)
	off := ceil((height - hudCanvasHeight) / 2)
	return HUDSpan{Extent: ceil(height - off), Origin: -off}
}

func ceil(v float32) float32 {
	return float32(math.Ceil(float64(v)))
}

// GameSpeed converts a frame time in milliseconds into the host's
// per-frame step, scaled down by div.
func GameSpeed(frametime, div float32) (float32, bool) {
	if frametime <= 0 || math.IsNaN(float64(frametime)) {
		return 0, false
	}
	return 1000 / frametime / div, true
}
