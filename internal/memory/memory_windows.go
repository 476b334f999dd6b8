//go:build windows

package memory

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	memFree = 0x10000
	// allocation granularity on every supported Windows version
	allocGranularity = 0x10000
	// stay a little inside the signed 32-bit displacement
	reach = 0x7ff00000
)

var (
	modkernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procFlushInstructionCache = modkernel32.NewProc("FlushInstructionCache")
)

func init() {
	pageSize = uintptr(windows.Getpagesize())
}

// unprotect makes the span writable and returns a func restoring exactly
// the protection it had before.
func unprotect(addr, size uintptr, code bool) (func() error, error) {
	var old uint32
	prot := uint32(windows.PAGE_EXECUTE_READWRITE)
	if !code {
		prot = windows.PAGE_READWRITE
	}
	err := windows.VirtualProtect(addr, size, prot, &old)
	if err != nil {
		return nil, err
	}
	return func() error {
		var tmp uint32
		return windows.VirtualProtect(addr, size, old, &tmp)
	}, nil
}

func flushCode(addr, size uintptr) error {
	r, _, err := procFlushInstructionCache.Call(uintptr(windows.CurrentProcess()), addr, size)
	if r == 0 {
		return err
	}
	return nil
}

func tryAlloc(addr, size uintptr) uintptr {
	var mbi windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
		return 0
	}
	if mbi.State != memFree || mbi.RegionSize < size {
		return 0
	}
	p, err := windows.VirtualAlloc(addr, size,
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return 0
	}
	return p
}

// allocExec walks outward from near one allocation granule at a time until
// a free region accepts the reservation.
func allocExec(near, size uintptr) (uintptr, error) {
	if near == 0 {
		return windows.VirtualAlloc(0, size,
			windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	}
	base := near &^ (allocGranularity - 1)
	for step := uintptr(allocGranularity); step < reach; step += allocGranularity {
		if base+step > base {
			if p := tryAlloc(base+step, size); p != 0 {
				return p, nil
			}
		}
		if base > step {
			if p := tryAlloc(base-step, size); p != 0 {
				return p, nil
			}
		}
	}
	return 0, ErrNoNearMemory
}
