package hookingo

// InlineHook sends every call of Target to Replacement.
type InlineHook struct {
	*patch
	replacement uintptr
}

// size reserved for an inline trampoline: displaced code, the jump back
// and the relay to the replacement
const inlineSize = maxDisplaced + 2*longJumpLen

// InstallInline redirects the function at target to replacement. Calls
// made through Trampoline run the original function.
func InstallInline(target, replacement uintptr) (*InlineHook, error) {
	p, err := install(target, inlineSize, func(at uintptr, code []byte) ([]byte, int, error) {
		return inlineTrampoline(at, target, code, replacement)
	})
	if err != nil {
		return nil, err
	}
	return &InlineHook{patch: p, replacement: replacement}, nil
}

// inlineTrampoline lays out
//
//	at:     displaced instructions
//	        JMP target+len(code)
//	relay:  JMP replacement
//
// and returns the relay offset as the patch destination.
func inlineTrampoline(at, target uintptr, code []byte, replacement uintptr) ([]byte, int, error) {
	moved, err := relocate(code, target, at)
	if err != nil {
		return nil, 0, err
	}
	out := append(moved, jmpAbs(target+uintptr(len(code)))...)
	relay := len(out)
	out = append(out, jmpAbs(replacement)...)
	return out, relay, nil
}

func (h *InlineHook) Target() uintptr {
	return h.target
}

func (h *InlineHook) Replacement() uintptr {
	return h.replacement
}

// Trampoline is the address to call for the original behaviour.
func (h *InlineHook) Trampoline() uintptr {
	return h.trampoline
}
