package iat

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/Binject/debug/pe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k2io/wofffix/internal/image"
)

// package level so the fake image does not move while its cells are patched
var mapped [0x200]byte

func fakeImage(t *testing.T) *image.Image {
	t.Helper()
	mapped = [0x200]byte{}
	view := mapped[:]
	put32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(view[off:], v) }
	put64 := func(off int, v uint64) { binary.LittleEndian.PutUint64(view[off:], v) }

	// descriptor 0: KERNEL32.dll
	put32(0x40+0, 0x180)
	put32(0x40+12, 0x100)
	put32(0x40+16, 0x140)
	// descriptor 1: VCRUNTIME140.dll
	put32(0x54+0, 0x190)
	put32(0x54+12, 0x120)
	put32(0x54+16, 0x160)
	// 0x68: null descriptor

	copy(view[0x100:], "KERNEL32.dll\x00")
	copy(view[0x120:], "VCRUNTIME140.dll\x00")

	put64(0x140, 0x1111)
	put64(0x148, 0x2222)
	put64(0x160, 0xaaaa)
	put64(0x168, 0xbbbb)

	base := uintptr(unsafe.Pointer(&mapped[0]))
	return image.New("game.exe", base, view, pe.DataDirectory{VirtualAddress: 0x40, Size: 3 * descriptorSize})
}

func TestFind(t *testing.T) {
	img := fakeImage(t)

	e, err := Find(img, "vcruntime140.DLL", 0xbbbb)
	require.NoError(t, err)
	assert.Equal(t, img.Base+0x168, e.Addr)
	assert.Equal(t, uintptr(0xbbbb), e.Load())

	e, err = Find(img, "KERNEL32.dll", 0x1111)
	require.NoError(t, err)
	assert.Equal(t, img.Base+0x140, e.Addr)

	// pointer belongs to another dependency
	_, err = Find(img, "KERNEL32.dll", 0xaaaa)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = Find(img, "USER32.dll", 0x1111)
	assert.ErrorIs(t, err, ErrModuleNotImported)

	img.Imports = pe.DataDirectory{}
	_, err = Find(img, "KERNEL32.dll", 0x1111)
	assert.ErrorIs(t, err, ErrNoImports)
}

func TestPatchAndRestore(t *testing.T) {
	img := fakeImage(t)

	e, err := Patch(img, "VCRUNTIME140.dll", 0xaaaa, 0xcccc)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xcccc), binary.LittleEndian.Uint64(mapped[0x160:]))
	assert.Equal(t, uint64(0xbbbb), binary.LittleEndian.Uint64(mapped[0x168:]))

	// looking up the original again fails until it is put back
	_, err = Find(img, "VCRUNTIME140.dll", 0xaaaa)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	_, err = Patch(img, "VCRUNTIME140.dll", 0xcccc, 0xaaaa)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0xaaaa), e.Load())
}
