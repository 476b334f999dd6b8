package hookingo

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// XMM is one 128-bit vector register.
type XMM [16]byte

func (x *XMM) F32(lane int) float32 {
	return math.Float32frombits(x.U32(lane))
}

func (x *XMM) SetF32(lane int, v float32) {
	x.SetU32(lane, math.Float32bits(v))
}

func (x *XMM) U32(lane int) uint32 {
	return binary.LittleEndian.Uint32(x[lane*4:])
}

func (x *XMM) SetU32(lane int, v uint32) {
	binary.LittleEndian.PutUint32(x[lane*4:], v)
}

func (x *XMM) F64(lane int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(x[lane*8:]))
}

func (x *XMM) SetF64(lane int, v float64) {
	binary.LittleEndian.PutUint64(x[lane*8:], math.Float64bits(v))
}

// Context is the processor state at a mid hook. The field order is the
// frame the stub pushes, lowest address first, so the stub's frame can be
// read as a Context directly.
type Context struct {
	XMM [16]XMM
	// stack pointer at the hooked instruction; changes are not written back
	Rsp    uint64
	R15    uint64
	R14    uint64
	R13    uint64
	R12    uint64
	R11    uint64
	R10    uint64
	R9     uint64
	R8     uint64
	Rdi    uint64
	Rsi    uint64
	Rbp    uint64
	Rbx    uint64
	Rdx    uint64
	Rcx    uint64
	Rax    uint64
	Rflags uint64
}

// bytes the stub reserves below the general registers
const xmmFrame = 16 * 16

// pushes made before the XMM area: flags, 15 registers, entry rsp
const gprFrame = 17 * 8

// Float32At views a float32 in host memory, typically a register plus a
// field offset. The address must be mapped.
func Float32At(addr uint64) *float32 {
	return (*float32)(ptr(addr))
}

// Int32At views an int32 in host memory.
func Int32At(addr uint64) *int32 {
	return (*int32)(ptr(addr))
}

// LowF32 reinterprets the low 32 bits of a general register as a float.
func LowF32(r uint64) float32 {
	return math.Float32frombits(uint32(r))
}

// WithLowF32 is v's bits zero-extended to a full register, the way a
// write to the 32-bit form of the register leaves it.
func WithLowF32(v float32) uint64 {
	return uint64(math.Float32bits(v))
}

func ptr(addr uint64) unsafe.Pointer {
	return unsafe.Pointer(uintptr(addr))
}
