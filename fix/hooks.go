package fix

import (
	"log/slog"

	"github.com/k2io/wofffix/hookingo"
)

// Offsets into host structures the hooked code works on.
const (
	windowedFlagOffset = 0xC   // int32, 1 = fullscreen, from rsi at the resolution site
	cameraAspectOffset = 0x280 // float32, from rax at the aspect site
	fpsCapOffset       = 0x3C  // float32 on the stack at the FPS cap site
)

// frames per animation step the host assumes
const animationRate = 30

// applyResolution runs where the host commits its window size: width in
// ebx, height in eax.
func (s *State) applyResolution(ctx *hookingo.Context) {
	res := s.cfg.Resolution
	if res.Enabled {
		ctx.Rbx = uint64(res.Width)
		ctx.Rax = uint64(res.Height)
	}
	if ctx.Rsi != 0 {
		fullscreen := int32(1)
		if res.Windowed {
			fullscreen = 0
		}
		*hookingo.Int32At(ctx.Rsi + windowedFlagOffset) = fullscreen
	}

	g := NewGeometry(int(int32(ctx.Rbx)), int(int32(ctx.Rax)))
	if s.setGeometry(g) {
		s.log.Info("resolution applied",
			slog.Int("width", g.Width),
			slog.Int("height", g.Height),
			slog.Float64("aspect", float64(g.Aspect)),
			slog.Float64("aspect_multiplier", float64(g.AspectMultiplier)),
			slog.Float64("native_width", float64(g.NativeWidth)),
			slog.Float64("native_height", float64(g.NativeHeight)),
			slog.Float64("hud_width", float64(g.HUDWidth)),
			slog.Float64("hud_height", float64(g.HUDHeight)),
			slog.Float64("hud_width_offset", float64(g.HUDWidthOffset)),
			slog.Float64("hud_height_offset", float64(g.HUDHeightOffset)),
		)
	}
}

func (s *State) aspectRatio(ctx *hookingo.Context) {
	if ctx.Rax == 0 {
		return
	}
	*hookingo.Float32At(ctx.Rax + cameraAspectOffset) = s.Geometry().Aspect
}

// gameplayFOV adjusts the horizontal FOV in xmm8.
func (s *State) gameplayFOV(ctx *hookingo.Context) {
	aspect := s.Geometry().Aspect
	if aspect >= NativeAspect || aspect <= 0 {
		return
	}
	x := &ctx.XMM[8]
	x.SetF32(0, AdjustFOV(x.F32(0), aspect))
}

// cutsceneFOV adjusts the FOV the host keeps as float bits in eax.
func (s *State) cutsceneFOV(ctx *hookingo.Context) {
	aspect := s.Geometry().Aspect
	if aspect >= NativeAspect || aspect <= 0 {
		return
	}
	ctx.Rax = hookingo.WithLowF32(AdjustFOV(hookingo.LowF32(ctx.Rax), aspect))
}

// hud stretches the HUD canvas along whichever axis exceeds 16:9.
func (s *State) hud(ctx *hookingo.Context) {
	aspect := s.Geometry().Aspect
	switch {
	case aspect > NativeAspect:
		span := HUDWide(aspect)
		// the width goes in as an integer
		ctx.XMM[2].SetU32(0, uint32(int32(span.Extent)))
		ctx.XMM[1].SetF32(0, span.Origin)
	case aspect > 0 && aspect < NativeAspect:
		span := HUDTall(aspect)
		ctx.XMM[0].SetF32(0, span.Extent)
		ctx.XMM[3].SetF32(0, span.Origin)
	}
}

func (s *State) fpsCap(ctx *hookingo.Context) {
	if ctx.Rsp == 0 {
		return
	}
	*hookingo.Float32At(ctx.Rsp + fpsCapOffset) = 0
}

func (s *State) captureFrametime(ctx *hookingo.Context) {
	s.setFrametime(ctx.XMM[0].F32(0))
}

func (s *State) gameSpeed(div float32) hookingo.MidFunc {
	return func(ctx *hookingo.Context) {
		if v, ok := GameSpeed(s.Frametime(), div); ok {
			ctx.XMM[0].SetF32(0, v)
		}
	}
}

func (s *State) shadowResolution(ctx *hookingo.Context) {
	ctx.Rax = uint64(uint32(s.cfg.Shadow.Resolution))
}
