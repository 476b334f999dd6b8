//go:build !windows

package sequencer

import "log/slog"

// Attach needs a Windows host; elsewhere there is nothing to patch and
// Ready is set straight away.
func Attach(opts AttachOptions) *Sequencer {
	opts.Log.Warn("not a Windows process, nothing installed", slog.String("config", opts.Config))
	if opts.Ready != nil {
		opts.Ready.Set()
	}
	return nil
}
