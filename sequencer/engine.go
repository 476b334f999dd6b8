package sequencer

import (
	"fmt"
	"log/slog"

	"github.com/k2io/wofffix/hookingo"
)

// Engine installs hooks with hookingo and logs each one.
type Engine struct {
	Log *slog.Logger
}

func (e Engine) Mid(name string, target uintptr, cb hookingo.MidFunc) error {
	h, err := hookingo.InstallMid(target, cb)
	if err != nil {
		return err
	}
	h.OnPanic(e.panicked(name))
	e.Log.Debug("mid hook installed", slog.String("site", name), slog.String("target", fmt.Sprintf("%#x", target)))
	return nil
}

func (e Engine) Inline(name string, target, replacement uintptr) (*hookingo.InlineHook, error) {
	h, err := hookingo.InstallInline(target, replacement)
	if err != nil {
		return nil, err
	}
	e.Log.Debug("inline hook installed",
		slog.String("function", name),
		slog.String("target", fmt.Sprintf("%#x", target)),
		slog.String("trampoline", fmt.Sprintf("%#x", h.Trampoline())))
	return h, nil
}

// panicked logs the first failure of a site's callback, then every
// thousandth, since a broken per-frame hook would otherwise flood the log.
func (e Engine) panicked(name string) func(v any, n int64) {
	return func(v any, n int64) {
		if n == 1 || n%1000 == 0 {
			e.Log.Error("hook callback panicked", slog.String("site", name), slog.Any("panic", v), slog.Int64("count", n))
		}
	}
}
