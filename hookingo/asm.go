// Copyright (C) 2022 K2 Cyber Security Inc.

package hookingo

import "encoding/binary"

const (
	nop          = 0x90
	shortJumpLen = 5
	longJumpLen  = 14
)

// jmpRel32 is JMP rel32 placed at from.
func jmpRel32(from, to uintptr) []byte {
	addr := to - from - shortJumpLen
	return []byte{
		0xe9,
		byte(addr), byte(addr >> 8),
		byte(addr >> 16), byte(addr >> 24),
	}
}

// jmpAbs is JMP [RIP+0] followed by the 64-bit destination. It needs no
// scratch register, unlike the MOV RAX / JMP RAX form.
func jmpAbs(to uintptr) []byte {
	seq := []byte{0xff, 0x25, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	binary.LittleEndian.PutUint64(seq[6:], uint64(to))
	return seq
}

// emitter appends encoded instructions.
type emitter struct {
	buf []byte
}

func (e *emitter) raw(b ...byte) *emitter {
	e.buf = append(e.buf, b...)
	return e
}

func (e *emitter) imm32(v uint32) *emitter {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
	return e
}

func (e *emitter) imm64(v uint64) *emitter {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
	return e
}

// general registers in hardware encoding order
const (
	rax = iota
	rcx
	rdx
	rbx
	rsp
	rbp
	rsi
	rdi
	r8
	r9
	r10
	r11
	r12
	r13
	r14
	r15
)

func (e *emitter) push(r int) *emitter {
	if r >= r8 {
		return e.raw(0x41, 0x50+byte(r-r8))
	}
	return e.raw(0x50 + byte(r))
}

func (e *emitter) pop(r int) *emitter {
	if r >= r8 {
		return e.raw(0x41, 0x58+byte(r-r8))
	}
	return e.raw(0x58 + byte(r))
}

// movdqu [rsp+disp32], xmmN
func (e *emitter) storeXMM(n int, disp uint32) *emitter {
	e.raw(0xf3)
	if n >= 8 {
		e.raw(0x44)
	}
	return e.raw(0x0f, 0x7f, 0x84|byte(n&7)<<3, 0x24).imm32(disp)
}

// movdqu xmmN, [rsp+disp32]
func (e *emitter) loadXMM(n int, disp uint32) *emitter {
	e.raw(0xf3)
	if n >= 8 {
		e.raw(0x44)
	}
	return e.raw(0x0f, 0x6f, 0x84|byte(n&7)<<3, 0x24).imm32(disp)
}
