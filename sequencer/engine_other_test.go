//go:build !windows

package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/k2io/wofffix/hookingo"
	"github.com/k2io/wofffix/internal/gate"
	"github.com/k2io/wofffix/internal/logging"
)

func TestEngineMidUnsupported(t *testing.T) {
	e := Engine{Log: logging.Discard()}
	err := e.Mid("site", 0x1000, func(*hookingo.Context) {})
	assert.ErrorIs(t, err, hookingo.ErrUnsupported)
}

func TestAttachOutsideWindows(t *testing.T) {
	ready := gate.NewReady()
	assert.Nil(t, Attach(AttachOptions{Config: "WOFFFix.ini", Log: logging.Discard(), Ready: ready}))
	// nothing will ever set it otherwise
	assert.True(t, ready.IsSet())
}
