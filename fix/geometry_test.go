package fix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeometryWide(t *testing.T) {
	g := NewGeometry(2560, 1080)
	assert.InDelta(t, 2560.0/1080.0, g.Aspect, 1e-5)
	assert.InDelta(t, (2560.0/1080.0)/(16.0/9.0), g.AspectMultiplier, 1e-5)
	assert.InDelta(t, 1920, g.HUDWidth, 1e-3)
	assert.InDelta(t, 1080, g.HUDHeight, 1e-3)
	assert.InDelta(t, 320, g.HUDWidthOffset, 1e-3)
	assert.Equal(t, float32(0), g.HUDHeightOffset)
	assert.InDelta(t, 1920, g.NativeWidth, 1e-3)
	assert.InDelta(t, 1440, g.NativeHeight, 1e-3)
}

func TestGeometryNarrow(t *testing.T) {
	g := NewGeometry(1920, 1440)
	assert.InDelta(t, 1920, g.HUDWidth, 1e-3)
	assert.InDelta(t, 1080, g.HUDHeight, 1e-3)
	assert.Equal(t, float32(0), g.HUDWidthOffset)
	assert.InDelta(t, 180, g.HUDHeightOffset, 1e-3)
}

func TestGeometryNative(t *testing.T) {
	g := NewGeometry(1920, 1080)
	assert.InDelta(t, 1, g.AspectMultiplier, 1e-5)
	assert.InDelta(t, 1920, g.HUDWidth, 1e-3)
	assert.InDelta(t, 0, g.HUDWidthOffset, 1e-3)
	assert.InDelta(t, 0, g.HUDHeightOffset, 1e-3)
}

func TestGeometryZero(t *testing.T) {
	g := NewGeometry(0, 1080)
	assert.Equal(t, Geometry{Height: 1080}, g)
}

func TestAdjustFOV(t *testing.T) {
	assert.InDelta(t, 70, AdjustFOV(70, NativeAspect), 1e-3)
	// 90 degrees at 16:9 keeps its vertical extent at 4:3
	assert.InDelta(t, 106.26, AdjustFOV(90, 4.0/3.0), 1e-2)
	assert.Equal(t, float32(70), AdjustFOV(70, 0))
}

func TestHUDSpans(t *testing.T) {
	assert.Equal(t, HUDSpan{Extent: 1125, Origin: -165}, HUDWide(2560.0/1080.0))
	assert.Equal(t, HUDSpan{Extent: 572, Origin: -28}, HUDTall(1.6))
}

func TestGameSpeed(t *testing.T) {
	v, ok := GameSpeed(16, 1)
	assert.True(t, ok)
	assert.InDelta(t, 62.5, v, 1e-4)

	v, ok = GameSpeed(20, 30)
	assert.True(t, ok)
	assert.InDelta(t, 50.0/30.0, v, 1e-4)

	_, ok = GameSpeed(0, 1)
	assert.False(t, ok)
	_, ok = GameSpeed(-1, 1)
	assert.False(t, ok)
}
