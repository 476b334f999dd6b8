//go:build windows

package sequencer

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/k2io/wofffix/config"
	"github.com/k2io/wofffix/iat"
	"github.com/k2io/wofffix/internal/display"
	"github.com/k2io/wofffix/internal/gate"
	"github.com/k2io/wofffix/internal/image"
)

// The host calls memset from its C runtime early in startup; holding that
// call holds the host.
const (
	gateModule   = "VCRUNTIME140.dll"
	gateFunction = "memset"
)

const threadPriorityHighest = 2

var (
	modkernel32           = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadPriority = modkernel32.NewProc("SetThreadPriority")
)

// memsetGate is published before the table entry points at memsetHook.
var memsetGate atomic.Pointer[iat.Interceptor]

var memsetCallback = windows.NewCallback(memsetHook)

func memsetHook(dst, val, size uintptr) uintptr {
	g := memsetGate.Load()
	g.Enter()
	r, _, _ := syscall.SyscallN(g.Original(), dst, val, size)
	return r
}

// Attach is process attach: unless a load-time gate already holds the
// host it arms the memset gate itself, then starts a Sequencer on its own
// OS thread. Failures are logged; the host always continues.
func Attach(opts AttachOptions) *Sequencer {
	log, ready := opts.Log, opts.Ready
	if ready == nil {
		ready = gate.NewReady()
	}
	img, err := image.Executable()
	if err != nil {
		log.Error("host image not readable, nothing installed", slog.Any("err", err))
		ready.Set()
		return nil
	}
	if !opts.Gated {
		if err := armGate(img, ready); err != nil {
			log.Warn("startup gate not armed", slog.Any("err", err))
		}
	}

	seq := New(Options{
		Image:  img,
		Hooker: Engine{Log: log},
		Config: func() (config.Config, error) {
			return config.Load(opts.Config, display.Desktop)
		},
		Desktop: display.Desktop,
		Ready:   ready,
		Log:     log,
	})
	go func() {
		// the thread ends with this goroutine
		runtime.LockOSThread()
		procSetThreadPriority.Call(uintptr(windows.CurrentThread()), threadPriorityHighest)
		if _, err := seq.Run(); err != nil {
			log.Error("startup", slog.Any("err", err))
		}
		if g := memsetGate.Load(); g != nil {
			g.Log(log)
		}
	}()
	return seq
}

func armGate(img *image.Image, ready *gate.Ready) error {
	rt, err := image.Module(gateModule)
	if err != nil {
		return err
	}
	original, err := windows.GetProcAddress(windows.Handle(rt.Base), gateFunction)
	if err != nil {
		return fmt.Errorf("%s!%s: %w", gateModule, gateFunction, err)
	}
	g := iat.NewInterceptor(original, ready)
	memsetGate.Store(g)
	return g.Arm(img, gateModule, memsetCallback)
}
