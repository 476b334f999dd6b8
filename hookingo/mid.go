// Copyright (C) 2022 K2 Cyber Security Inc.

package hookingo

import (
	"sync/atomic"
	"unsafe"
)

// MidFunc sees and may change the registers at a mid hook. It runs on the
// host thread that reached the hook and must return quickly.
type MidFunc func(ctx *Context)

// MidHook calls a MidFunc each time execution reaches Target.
type MidHook struct {
	*patch
	id       int
	callback MidFunc
	panics   atomic.Int64
	onPanic  atomic.Pointer[func(v any, n int64)]
}

// the dispatcher indexes this by hook id without taking lock
var midTable atomic.Pointer[[]*MidHook]

// reserved per stub; the generated code is a little under 400 bytes
const midSize = 512

// InstallMid arranges for cb to run whenever execution reaches target,
// which must be the first byte of an instruction.
func InstallMid(target uintptr, cb MidFunc) (*MidHook, error) {
	if cb == nil {
		return nil, ErrNilCallback
	}
	if dispatcher == 0 {
		return nil, ErrUnsupported
	}
	h := &MidHook{callback: cb}
	p, err := install(target, midSize, func(at uintptr, code []byte) ([]byte, int, error) {
		// install holds lock, so the table can only grow here
		h.id = register(h)
		return midStub(at, target, code, uint64(h.id), dispatcher)
	})
	if err != nil {
		return nil, err
	}
	h.patch = p
	return h, nil
}

func register(h *MidHook) int {
	var next []*MidHook
	if cur := midTable.Load(); cur != nil {
		next = append(next, *cur...)
	}
	next = append(next, h)
	midTable.Store(&next)
	return len(next) - 1
}

// midStub generates
//
//	pushfq; push rax..r15 (not rsp)
//	lea rax, [rsp+0x80]; push rax           ; rsp at the hooked instruction
//	sub rsp, 0x100; movdqu [rsp+16*n], xmmN
//	mov rcx, rsp; mov rdx, id               ; dispatch(frame, id)
//	mov rbx, rsp; and rsp, -16; sub rsp, 0x20
//	mov rax, dispatcher; call rax
//	mov rsp, rbx
//	movdqu xmmN, [rsp+16*n]; add rsp, 0x108
//	pop r15..rax; popfq
//	displaced instructions
//	jmp target+len(code)
func midStub(at, target uintptr, code []byte, id uint64, dispatch uintptr) ([]byte, int, error) {
	e := &emitter{}
	e.raw(0x9c) // pushfq
	for r := rax; r <= r15; r++ {
		if r == rsp {
			continue
		}
		e.push(r)
	}
	e.raw(0x48, 0x8d, 0x84, 0x24).imm32(16 * 8) // lea rax, [rsp+0x80]
	e.push(rax)
	e.raw(0x48, 0x81, 0xec).imm32(xmmFrame) // sub rsp, imm32
	for n := 0; n < 16; n++ {
		e.storeXMM(n, uint32(n*16))
	}
	e.raw(0x48, 0x89, 0xe1)                   // mov rcx, rsp
	e.raw(0x48, 0xba).imm64(id)               // mov rdx, imm64
	e.raw(0x48, 0x89, 0xe3)                   // mov rbx, rsp
	e.raw(0x48, 0x83, 0xe4, 0xf0)             // and rsp, -16
	e.raw(0x48, 0x83, 0xec, 0x20)             // sub rsp, 0x20
	e.raw(0x48, 0xb8).imm64(uint64(dispatch)) // mov rax, imm64
	e.raw(0xff, 0xd0)                         // call rax
	e.raw(0x48, 0x89, 0xdc)                   // mov rsp, rbx
	for n := 0; n < 16; n++ {
		e.loadXMM(n, uint32(n*16))
	}
	e.raw(0x48, 0x81, 0xc4).imm32(xmmFrame + 8) // add rsp, imm32
	for r := r15; r >= rax; r-- {
		if r == rsp {
			continue
		}
		e.pop(r)
	}
	e.raw(0x9d) // popfq

	moved, err := relocate(code, target, at+uintptr(len(e.buf)))
	if err != nil {
		return nil, 0, err
	}
	e.raw(moved...)
	e.raw(jmpAbs(target + uintptr(len(code)))...)
	return e.buf, 0, nil
}

// dispatch is entered from every stub. frame points at the saved
// registers; the callback works on a copy which is then written back in
// one store, with Rsp kept as it was.
func dispatch(frame, id uintptr) uintptr {
	table := midTable.Load()
	if table == nil || id >= uintptr(len(*table)) {
		return 0
	}
	h := (*table)[id]
	raw := (*Context)(unsafe.Pointer(frame))
	h.invoke(raw)
	return 0
}

func (h *MidHook) invoke(raw *Context) {
	defer func() {
		// a failing callback leaves the registers untouched rather than
		// taking the host down
		if v := recover(); v != nil {
			n := h.panics.Add(1)
			if f := h.onPanic.Load(); f != nil {
				(*f)(v, n)
			}
		}
	}()
	c := *raw
	h.callback(&c)
	c.Rsp = raw.Rsp
	*raw = c
}

func (h *MidHook) Target() uintptr {
	return h.target
}

// Panics counts callback invocations that panicked.
func (h *MidHook) Panics() int64 {
	return h.panics.Load()
}

// OnPanic has f called, on the thread that reached the hook, with every
// recovered value and the count so far.
func (h *MidHook) OnPanic(f func(v any, n int64)) {
	h.onPanic.Store(&f)
}
