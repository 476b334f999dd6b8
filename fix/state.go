// Package fix holds the values the hooks share and the hooks themselves.
package fix

import (
	"errors"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/k2io/wofffix/config"
	"github.com/k2io/wofffix/hookingo"
)

// ErrUnsupported means a feature needs APIs this platform lacks.
var ErrUnsupported = errors.New("feature not supported on this platform")

// Hooker installs hooks on behalf of a feature.
type Hooker interface {
	Mid(name string, target uintptr, cb hookingo.MidFunc) error
	Inline(name string, target, replacement uintptr) (*hookingo.InlineHook, error)
}

// State is shared by every hook callback. Callbacks run on host threads
// without locks, so each mutable field has exactly one writer, noted
// beside it, and is read and written atomically.
type State struct {
	// written once by NewState before any hook exists
	cfg           config.Config
	desktopWidth  int
	desktopHeight int
	log           *slog.Logger
	// from the configured size, until the host applies one
	initial Geometry

	// writer: the resolution hook
	geometry atomic.Pointer[Geometry]
	// float32 bits, milliseconds; writer: the frame time hook
	frametime atomic.Uint32
	// writer: the CreateWindowExW hook
	windowCalls atomic.Int32
}

func NewState(cfg config.Config, desktopWidth, desktopHeight int, log *slog.Logger) *State {
	return &State{
		cfg:           cfg,
		desktopWidth:  desktopWidth,
		desktopHeight: desktopHeight,
		log:           log,
		initial:       NewGeometry(cfg.Resolution.Width, cfg.Resolution.Height),
	}
}

func (s *State) Config() config.Config {
	return s.cfg
}

// Geometry is the latest resolution-derived layout.
func (s *State) Geometry() Geometry {
	if g := s.geometry.Load(); g != nil {
		return *g
	}
	return s.initial
}

func (s *State) setGeometry(g Geometry) bool {
	if old := s.geometry.Load(); old != nil && *old == g {
		return false
	}
	s.geometry.Store(&g)
	return true
}

// Frametime is the host's last reported frame duration in milliseconds.
func (s *State) Frametime() float32 {
	return math.Float32frombits(s.frametime.Load())
}

func (s *State) setFrametime(v float32) {
	s.frametime.Store(math.Float32bits(v))
}

// WindowCalls counts CreateWindowExW calls seen so far.
func (s *State) WindowCalls() int {
	return int(s.windowCalls.Load())
}

// restyle reports whether window creation number n (from 1) should be
// made borderless.
func (s *State) restyle(n int32) bool {
	return int(n) <= s.cfg.Resolution.WindowCallLimit
}
