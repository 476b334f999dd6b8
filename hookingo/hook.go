// Package hookingo redirects x86-64 code inside the current process.
//
// Two kinds of hook are supported. An inline hook sends every call of a
// function to a replacement and keeps a trampoline through which the
// original can still be reached. A mid hook stops at one instruction
// boundary, hands the live registers to a callback, writes whatever the
// callback changed back into the CPU and carries on with the original
// instruction stream.
//
// Both work the same way at the patch site: enough whole instructions are
// displaced to fit a jump, those instructions are copied (and rebased when
// PC-relative) behind the trampoline or stub, and the trampoline ends with
// a jump back to the first untouched instruction.
package hookingo

import (
	"errors"
	"sync"

	"github.com/k2io/wofffix/internal/memory"
)

// patch is what every hook owns at its target.
type patch struct {
	// first byte of the redirected instruction
	target uintptr
	// bytes of the target before it was overwritten
	origin []byte
	// where the displaced instructions were copied to
	trampoline uintptr
}

var (
	// hooks applied with target addresses as keys
	hooks map[uintptr]*patch
	// protect the hooks map
	lock sync.Mutex
)

var (
	// ErrDoubleHook means already hooked
	ErrDoubleHook = errors.New("double hook")
	// ErrHookNotFound means the hook not found
	ErrHookNotFound = errors.New("hook not found")
	// ErrRelativeAddr means a displaced instruction cannot be moved
	ErrRelativeAddr = errors.New("relative address in instruction")
	// ErrUnsupported means the platform has no way to enter a callback
	ErrUnsupported = errors.New("mid hooks not supported on this platform")
	// ErrNilCallback means a mid hook was requested without a callback
	ErrNilCallback = errors.New("nil callback")
)

func init() {
	hooks = make(map[uintptr]*patch)
}

// Remove puts the original bytes back at target. A thread already inside
// the trampoline or stub will still run to completion through it, so
// removal is only safe when no caller can be mid-flight.
func Remove(target uintptr) error {
	lock.Lock()
	defer lock.Unlock()
	p, ok := hooks[target]
	if !ok || p == nil {
		return ErrHookNotFound
	}
	if err := memory.WriteCode(p.target, p.origin); err != nil {
		return err
	}
	delete(hooks, target)
	return nil
}

// install displaces the instructions at target and points them at the code
// emitted by build. build receives the arena address its code will live at
// and the original instructions to carry along; it returns the full
// trampoline image and the offset within it that the patch jumps to.
func install(target uintptr, size int, build func(at uintptr, code []byte) ([]byte, int, error)) (*patch, error) {
	lock.Lock()
	defer lock.Unlock()
	if _, ok := hooks[target]; ok {
		return nil, ErrDoubleHook
	}
	at, err := arena.alloc(size, target)
	if err != nil {
		return nil, err
	}
	done := false
	defer func() {
		if !done {
			arena.release(at, size)
		}
	}()
	need := longJumpLen
	if reachable(target+shortJumpLen, at) && reachable(target+shortJumpLen, at+uintptr(size)) {
		need = shortJumpLen
	}
	window := memory.Slice(target, maxDisplaced)
	n, err := ensureLength(window, need)
	if err != nil {
		return nil, err
	}
	code, entry, err := build(at, window[:n])
	if err != nil {
		return nil, err
	}
	if len(code) > size {
		return nil, errors.New("trampoline larger than reserved")
	}
	copy(memory.Slice(at, uintptr(len(code))), code)

	dest := at + uintptr(entry)
	var jmp []byte
	if need == shortJumpLen {
		jmp = jmpRel32(target, dest)
	} else {
		jmp = jmpAbs(dest)
	}
	for len(jmp) < n {
		jmp = append(jmp, nop)
	}
	p := &patch{
		target:     target,
		origin:     append([]byte(nil), window[:n]...),
		trampoline: at,
	}
	if err := memory.WriteCode(target, jmp); err != nil {
		return nil, err
	}
	hooks[target] = p
	done = true
	return p, nil
}
