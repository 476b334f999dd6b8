//go:build windows

package hookingo

import "syscall"

// Call runs the original function with the platform calling convention.
func (h *InlineHook) Call(args ...uintptr) uintptr {
	r, _, _ := syscall.SyscallN(h.trampoline, args...)
	return r
}
