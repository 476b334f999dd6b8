package iat

import (
	"log/slog"
	"sync/atomic"

	"github.com/k2io/wofffix/internal/image"
)

// State of an Interceptor.
type State int32

const (
	// Armed: the slot points at the replacement and nobody has come through
	Armed State = iota
	// Fired: the first caller restored the slot
	Fired
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	}
	return "unknown"
}

// Waiter blocks until some condition holds.
type Waiter interface {
	Wait()
}

// Interceptor is a one-shot import hook. The first call through it puts
// the original pointer back so later calls never see the hook, then holds
// the calling thread until the Waiter releases it.
type Interceptor struct {
	original uintptr
	ready    Waiter
	slot     Slot
	state    atomic.Int32
	calls    atomic.Int64
	err      atomic.Pointer[error]
}

// NewInterceptor prepares a hook that forwards to original once ready
// lets it through. Publish the returned value to the replacement before
// calling Arm.
func NewInterceptor(original uintptr, ready Waiter) *Interceptor {
	return &Interceptor{original: original, ready: ready}
}

// Arm points the slot of dll in img that currently holds the original at
// replacement.
func (i *Interceptor) Arm(img *image.Image, dll string, replacement uintptr) error {
	e, err := Find(img, dll, i.original)
	if err != nil {
		return err
	}
	return i.ArmSlot(e, replacement)
}

// ArmSlot is Arm for an already located slot.
func (i *Interceptor) ArmSlot(s Slot, replacement uintptr) error {
	i.slot = s
	return s.Store(replacement)
}

// fire performs the Armed to Fired transition; only one caller ever gets
// true.
func (i *Interceptor) fire() bool {
	return i.state.CompareAndSwap(int32(Armed), int32(Fired))
}

// Enter is the first thing the replacement does. Callers that raced in
// behind the first one wait as well, so no call gets through early.
func (i *Interceptor) Enter() {
	i.calls.Add(1)
	if i.fire() {
		if err := i.slot.Store(i.original); err != nil {
			i.err.Store(&err)
		}
	}
	i.ready.Wait()
}

// Original is the function the replacement forwards to.
func (i *Interceptor) Original() uintptr {
	return i.original
}

func (i *Interceptor) State() State {
	return State(i.state.Load())
}

// Calls counts entries through the replacement.
func (i *Interceptor) Calls() int64 {
	return i.calls.Load()
}

// Err reports a failure to restore the slot.
func (i *Interceptor) Err() error {
	if p := i.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Log records what the gate saw.
func (i *Interceptor) Log(log *slog.Logger) {
	LogGate(log, i.State(), i.Calls(), i.Err())
}

// LogGate records the outcome of a startup gate, at error level when the
// slot could not be put back.
func LogGate(log *slog.Logger, state State, calls int64, err error) {
	attrs := []any{slog.String("state", state.String()), slog.Int64("calls", calls)}
	if err != nil {
		log.Error("startup gate", append(attrs, slog.Any("err", err))...)
		return
	}
	log.Info("startup gate", attrs...)
}
