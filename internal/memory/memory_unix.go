//go:build !windows

package memory

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func init() {
	pageSize = uintptr(unix.Getpagesize())
}

func mprotectPages(addr, size uintptr, prot int) error {
	start, length := pageSpan(addr, size)
	for i := uintptr(0); i < length; i += pageSize {
		err := unix.Mprotect(Slice(start+i, pageSize), prot)
		if err != nil {
			return err
		}
	}
	return nil
}

// unprotect makes the span writable. Code pages go back to read+exec;
// data pages are left read+write since their prior protection is not
// queryable here.
func unprotect(addr, size uintptr, code bool) (func() error, error) {
	err := mprotectPages(addr, size, unix.PROT_EXEC|unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return nil, err
	}
	return func() error {
		if code {
			return mprotectPages(addr, size, unix.PROT_EXEC|unix.PROT_READ)
		}
		return mprotectPages(addr, size, unix.PROT_READ|unix.PROT_WRITE)
	}, nil
}

func flushCode(addr, size uintptr) error {
	return nil
}

// mmap takes no placement hint here, so near is only advisory.
func allocExec(near, size uintptr) (uintptr, error) {
	b, err := unix.Mmap(-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, err
	}
	return uintptr(unsafe.Pointer(&b[0])), nil
}
