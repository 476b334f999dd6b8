//go:build windows

package display

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestDevModeLayout(t *testing.T) {
	var dm devMode
	assert.Equal(t, uintptr(220), unsafe.Sizeof(dm))
	assert.Equal(t, uintptr(168), unsafe.Offsetof(dm.BitsPerPel))
	assert.Equal(t, uintptr(172), unsafe.Offsetof(dm.PelsWidth))
	assert.Equal(t, uintptr(176), unsafe.Offsetof(dm.PelsHeight))
}

func TestDesktop(t *testing.T) {
	w, h := Desktop()
	assert.Positive(t, w)
	assert.Positive(t, h)
}
