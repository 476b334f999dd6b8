//go:build windows

package main

/*
#include <stdint.h>
#include <windows.h>

// 0 idle, 1 armed, 2 fired
static volatile LONG gateState;
static volatile LONG gateCalls;
static volatile LONG gateRestoreFailed;
static void **gateSlot;
static void *gateOriginal;
static HANDLE gateEvent;

typedef void *(*memsetFunc)(void *, int, size_t);

static int gateStore(void **slot, void *value) {
	DWORD old;
	if (!VirtualProtect(slot, sizeof(void *), PAGE_READWRITE, &old)) {
		return 0;
	}
	InterlockedExchangePointer(slot, value);
	VirtualProtect(slot, sizeof(void *), old, &old);
	return 1;
}

// The first caller puts the table entry back; every caller that reached
// this function waits for the event before doing the real memset.
static void *gateMemset(void *dst, int val, size_t n) {
	InterlockedIncrement(&gateCalls);
	if (InterlockedCompareExchange(&gateState, 2, 1) == 1) {
		if (!gateStore(gateSlot, gateOriginal)) {
			InterlockedExchange(&gateRestoreFailed, 1);
		}
	}
	WaitForSingleObject(gateEvent, INFINITE);
	return ((memsetFunc)gateOriginal)(dst, val, n);
}

static int gateArmSlot(void **slot, void *original) {
	if (gateState != 0) {
		return 0;
	}
	gateEvent = CreateEventW(NULL, TRUE, FALSE, NULL);
	if (gateEvent == NULL) {
		return 0;
	}
	gateSlot = slot;
	gateOriginal = original;
	gateState = 1;
	if (!gateStore(slot, (void *)gateMemset)) {
		gateState = 0;
		return 0;
	}
	return 1;
}

// gateFind walks the import descriptors of the host executable for the
// entry of dll that holds original.
static void **gateFind(const char *dll, void *original) {
	BYTE *base = (BYTE *)GetModuleHandleW(NULL);
	IMAGE_DOS_HEADER *dos = (IMAGE_DOS_HEADER *)base;
	IMAGE_NT_HEADERS64 *nt = (IMAGE_NT_HEADERS64 *)(base + dos->e_lfanew);
	IMAGE_DATA_DIRECTORY dir = nt->OptionalHeader.DataDirectory[IMAGE_DIRECTORY_ENTRY_IMPORT];
	if (dir.VirtualAddress == 0) {
		return NULL;
	}
	IMAGE_IMPORT_DESCRIPTOR *d = (IMAGE_IMPORT_DESCRIPTOR *)(base + dir.VirtualAddress);
	for (; d->Name != 0; d++) {
		if (lstrcmpiA((const char *)(base + d->Name), dll) != 0) {
			continue;
		}
		void **thunk = (void **)(base + d->FirstThunk);
		for (; *thunk != NULL; thunk++) {
			if (*thunk == original) {
				return thunk;
			}
		}
	}
	return NULL;
}

// Runs from DllMain on the loader thread, before the host gets back
// control and long before the Go runtime has run init.
__attribute__((constructor)) static void gateAttach(void) {
	HMODULE rt = GetModuleHandleA("VCRUNTIME140.dll");
	if (rt == NULL) {
		return;
	}
	void *original = (void *)GetProcAddress(rt, "memset");
	if (original == NULL) {
		return;
	}
	void **slot = gateFind("VCRUNTIME140.dll", original);
	if (slot != NULL) {
		gateArmSlot(slot, original);
	}
}

static void gateRelease(void) {
	if (gateEvent != NULL) {
		SetEvent(gateEvent);
	}
}

static LONG gateStatus(void) { return gateState; }
static LONG gateCallCount(void) { return gateCalls; }
static LONG gateRestoreFailure(void) { return gateRestoreFailed; }
static void *gateReplacement(void) { return (void *)gateMemset; }
static int gateArm(uintptr_t slot, uintptr_t original) { return gateArmSlot((void **)slot, (void *)original); }
*/
import "C"

import (
	"errors"
	"log/slog"
	"unsafe"

	"github.com/k2io/wofffix/iat"
)

// errRestore means the first memset caller could not put the import entry
// back; later calls keep entering the gate.
var errRestore = errors.New("memset entry not restored")

// earlyGate reports whether the load-time gate holds the host.
func earlyGate() bool {
	return C.gateStatus() != 0
}

// gateState maps the load-time gate onto the interceptor states.
func gateState() iat.State {
	if C.gateStatus() == 2 {
		return iat.Fired
	}
	return iat.Armed
}

func gateCalls() int64 {
	return int64(C.gateCallCount())
}

func gateErr() error {
	if C.gateRestoreFailure() != 0 {
		return errRestore
	}
	return nil
}

// releaseGate lets every thread held in the gate through to memset.
func releaseGate() {
	C.gateRelease()
}

func gateReplacement() uintptr {
	return uintptr(C.gateReplacement())
}

// armSlot points slot at the gate. It only succeeds once per process.
func armSlot(slot *uintptr, original uintptr) bool {
	return C.gateArm(C.uintptr_t(uintptr(unsafe.Pointer(slot))), C.uintptr_t(original)) != 0
}

// logGate records what the load-time gate saw once the host has been let
// go.
func logGate(log *slog.Logger) {
	if earlyGate() {
		iat.LogGate(log, gateState(), gateCalls(), gateErr())
	}
}
