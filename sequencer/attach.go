package sequencer

import (
	"log/slog"

	"github.com/k2io/wofffix/internal/gate"
)

// AttachOptions is what the loaded library hands to Attach.
type AttachOptions struct {
	// path of the INI file
	Config string
	Log    *slog.Logger
	// set once Run is over; a load-time gate waits on it
	Ready *gate.Ready
	// Gated means the host is already held by a gate armed during library
	// load, so Attach does not arm its own.
	Gated bool
}
