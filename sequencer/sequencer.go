// Package sequencer runs the fix's startup: read the configuration, find
// every enabled feature in the host image, install its hooks and finally
// let the host continue.
package sequencer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/k2io/wofffix/config"
	"github.com/k2io/wofffix/fix"
	"github.com/k2io/wofffix/internal/gate"
	"github.com/k2io/wofffix/scan"
)

// State of a Sequencer. It only moves forward.
type State int32

const (
	Attached State = iota
	Scanning
	Installing
	Ready
)

func (s State) String() string {
	switch s {
	case Attached:
		return "attached"
	case Scanning:
		return "scanning"
	case Installing:
		return "installing"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// ErrAlreadyRun is returned by every Run after the first.
var ErrAlreadyRun = errors.New("sequencer already run")

// Options wires a Sequencer to the process.
type Options struct {
	// Image is scanned for every feature's patterns.
	Image scan.Region
	// Hooker installs what the scan found.
	Hooker fix.Hooker
	// Config loads the options; an error means defaults were returned.
	Config func() (config.Config, error)
	// Desktop is the screen size for the window hooks.
	Desktop func() (int, int)
	// Ready is set when Run finishes.
	Ready *gate.Ready
	Log   *slog.Logger
	// Features defaults to fix.Features().
	Features []fix.Feature
}

// Report says what happened to each enabled feature.
type Report struct {
	Installed []string
	// a pattern was not found
	Skipped []string
	// found, but a hook could not be installed
	Failed []string
}

type Sequencer struct {
	opts  Options
	state atomic.Int32
	fix   atomic.Pointer[fix.State]
}

func New(opts Options) *Sequencer {
	if opts.Features == nil {
		opts.Features = fix.Features()
	}
	return &Sequencer{opts: opts}
}

func (s *Sequencer) State() State {
	return State(s.state.Load())
}

// Fix is the shared state built by Run, or nil before it.
func (s *Sequencer) Fix() *fix.State {
	return s.fix.Load()
}

// plan is one feature whose sites were all found.
type plan struct {
	feature fix.Feature
	addrs   []uintptr
}

// Run performs the whole startup once. The Ready flag is set when it
// returns, whatever was or was not installed, so the host never waits
// forever.
func (s *Sequencer) Run() (Report, error) {
	if !s.state.CompareAndSwap(int32(Attached), int32(Scanning)) {
		return Report{}, ErrAlreadyRun
	}
	defer func() {
		s.state.Store(int32(Ready))
		if s.opts.Ready != nil {
			s.opts.Ready.Set()
		}
		s.opts.Log.Info("ready")
	}()

	var report Report
	cfg, err := s.opts.Config()
	if err != nil {
		s.opts.Log.Warn("config file not read, all fixes off", slog.Any("err", err))
	}
	cfg.Log(s.opts.Log)

	w, h := 0, 0
	if s.opts.Desktop != nil {
		w, h = s.opts.Desktop()
	}
	st := fix.NewState(cfg, w, h, s.opts.Log)
	s.fix.Store(st)

	plans := s.scan(cfg, &report)

	s.state.Store(int32(Installing))
	for _, p := range plans {
		if err := s.install(st, p); err != nil {
			s.opts.Log.Error("hook failed", slog.String("feature", p.feature.Name), slog.Any("err", err))
			report.Failed = append(report.Failed, p.feature.Name)
			continue
		}
		report.Installed = append(report.Installed, p.feature.Name)
	}
	return report, nil
}

func (s *Sequencer) scan(cfg config.Config, report *Report) []plan {
	var plans []plan
	base := s.opts.Image.Start()
	for _, f := range s.opts.Features {
		if !f.Enabled(cfg) {
			continue
		}
		p := plan{feature: f}
		for _, site := range f.Sites {
			addr, ok := site.Pattern.Find(s.opts.Image)
			if !ok {
				s.opts.Log.Error("pattern scan failed", slog.String("feature", f.Name), slog.String("site", site.Name))
				break
			}
			addr += site.Offset
			s.opts.Log.Info("address found", slog.String("site", site.Name), slog.String("rva", fmt.Sprintf("%#x", addr-base)))
			p.addrs = append(p.addrs, addr)
		}
		if len(p.addrs) != len(f.Sites) {
			report.Skipped = append(report.Skipped, f.Name)
			continue
		}
		plans = append(plans, p)
	}
	return plans
}

// install hooks every site of p, then anything the feature adds itself.
// A failure stops the feature but keeps hooks already in place; they are
// harmless on their own.
func (s *Sequencer) install(st *fix.State, p plan) error {
	for i, site := range p.feature.Sites {
		if err := s.opts.Hooker.Mid(site.Name, p.addrs[i], site.Hook(st)); err != nil {
			return fmt.Errorf("%s: %w", site.Name, err)
		}
	}
	if p.feature.Install != nil {
		return p.feature.Install(st, s.opts.Hooker)
	}
	return nil
}
