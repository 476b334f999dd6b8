// Package logging sets up the structured log written beside the module.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Open truncates dir/name and returns a logger writing to it. Every record
// is written straight through so a crash in the host loses nothing.
func Open(dir, name string) (*slog.Logger, io.Closer, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return New(f), f, nil
}

// New logs to w at debug level and above.
func New(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Console is the fallback when the log file cannot be opened.
func Console() *slog.Logger {
	return New(console())
}

// Discard drops everything.
func Discard() *slog.Logger {
	return New(io.Discard)
}

// Module is what the banner says about the host executable.
type Module struct {
	Name      string
	Path      string
	Base      uintptr
	Timestamp uint32
}

// Banner records who loaded and into what.
func Banner(l *slog.Logger, fix, version, logPath string, m Module) {
	l.Info("----------")
	l.Info("loaded", slog.String("fix", fix), slog.String("version", version))
	l.Info("----------")
	l.Info("log file", slog.String("path", logPath))
	l.Info("module",
		slog.String("name", m.Name),
		slog.String("path", m.Path),
		slog.String("address", fmt.Sprintf("%#x", m.Base)),
		slog.Uint64("timestamp", uint64(m.Timestamp)))
	l.Info("----------")
}
