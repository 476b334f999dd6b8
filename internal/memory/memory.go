// Package memory reads and patches the current process's own address
// space: page protection, executable allocation and raw views.
package memory

import (
	"encoding/binary"
	"errors"
	"unsafe"
)

var (
	// ErrNoNearMemory means no free region was found within rel32 reach
	ErrNoNearMemory = errors.New("no executable memory within reach")
)

var pageSize uintptr

// Slice views size bytes at addr. The caller guarantees the range is mapped.
func Slice(addr, size uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

// PageSize is the protection granularity of the host.
func PageSize() uintptr {
	return pageSize
}

func pageSpan(addr, size uintptr) (uintptr, uintptr) {
	start := pageSize * (addr / pageSize)
	length := pageSize * ((addr + size + pageSize - 1 - start) / pageSize)
	return start, length
}

// WriteCode overwrites instruction bytes at addr. The pages are made
// writable for the copy, set back to executable afterwards and the
// instruction cache is flushed.
func WriteCode(addr uintptr, code []byte) error {
	restore, err := unprotect(addr, uintptr(len(code)), true)
	if err != nil {
		return err
	}
	copy(Slice(addr, uintptr(len(code))), code)
	if err := restore(); err != nil {
		return err
	}
	return flushCode(addr, uintptr(len(code)))
}

// WritePointer stores a pointer-sized value at addr, which may live in a
// read-only data page such as an import address table.
func WritePointer(addr, value uintptr) error {
	restore, err := unprotect(addr, unsafe.Sizeof(value), false)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(Slice(addr, 8), uint64(value))
	return restore()
}

// ReadPointer loads a pointer-sized value at addr.
func ReadPointer(addr uintptr) uintptr {
	return uintptr(binary.LittleEndian.Uint64(Slice(addr, 8)))
}

// AllocExec maps size bytes of read/write/execute memory, preferring a
// region within 32-bit displacement of near. Whether the result really is
// reachable has to be checked by the caller.
func AllocExec(near, size uintptr) (uintptr, error) {
	return allocExec(near, size)
}
