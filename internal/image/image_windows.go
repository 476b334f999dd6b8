//go:build windows

package image

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

func moduleFileName(h windows.Handle) string {
	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, err := windows.GetModuleFileName(h, &buf[0], uint32(len(buf)))
	if err != nil {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func open(h windows.Handle) (*Image, error) {
	path := moduleFileName(h)
	return Map(filepath.Base(path), path, uintptr(h))
}

// Executable is the image the process was started from.
func Executable() (*Image, error) {
	var h windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &h); err != nil {
		return nil, err
	}
	return open(h)
}

// Module is a loaded library such as "VCRUNTIME140.dll".
func Module(name string) (*Image, error) {
	var h windows.Handle
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	if err := windows.GetModuleHandleEx(0, p, &h); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrNoModule, err)
	}
	return open(h)
}

// Containing is the module whose mapping holds addr; used to locate this
// library's own file.
func Containing(addr uintptr) (*Image, error) {
	var h windows.Handle
	const flags = windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS |
		windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT
	if err := windows.GetModuleHandleEx(flags, (*uint16)(unsafe.Pointer(addr)), &h); err != nil {
		return nil, err
	}
	return open(h)
}
