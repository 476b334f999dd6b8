// Package image describes a module mapped into the current process: where
// it lives, how large it is and where its import directory sits.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/Binject/debug/pe"

	"github.com/k2io/wofffix/internal/memory"
)

var (
	// ErrNotPE means the mapped headers are not a PE32+ image
	ErrNotPE = errors.New("not a PE32+ image")
	// ErrNoModule means the named module is not loaded
	ErrNoModule = errors.New("module not loaded")
)

// index of the import table in the optional header data directories
const directoryImport = 1

// Image is a module mapped by the loader. The loader owns the memory; an
// Image only reads it and patches bytes inside it.
type Image struct {
	Name      string
	Path      string
	Base      uintptr
	Size      uintptr
	Timestamp uint32
	// import descriptor table, RVA and size
	Imports pe.DataDirectory

	view []byte
}

// New wraps an already located mapping.
func New(name string, base uintptr, view []byte, imports pe.DataDirectory) *Image {
	return &Image{
		Name:    name,
		Base:    base,
		Size:    uintptr(len(view)),
		Imports: imports,
		view:    view,
	}
}

func (img *Image) Start() uintptr {
	return img.Base
}

// Bytes is the whole mapping from the DOS header to SizeOfImage.
func (img *Image) Bytes() []byte {
	return img.view
}

// At converts an RVA into an absolute address.
func (img *Image) At(rva uint32) uintptr {
	return img.Base + uintptr(rva)
}

// Contains reports whether rva..rva+n lies inside the mapping.
func (img *Image) Contains(rva uint32, n int) bool {
	return uint64(rva)+uint64(n) <= uint64(len(img.view))
}

func (img *Image) String() string {
	return fmt.Sprintf("%s@%#x+%#x", img.Name, img.Base, img.Size)
}

// Built is the link time stamp from the COFF header.
func (img *Image) Built() time.Time {
	return time.Unix(int64(img.Timestamp), 0).UTC()
}

// sizeOfImage reads SizeOfImage out of the headers at the start of hdr.
func sizeOfImage(hdr []byte) (uint32, error) {
	if len(hdr) < 0x40 || hdr[0] != 'M' || hdr[1] != 'Z' {
		return 0, ErrNotPE
	}
	lfanew := binary.LittleEndian.Uint32(hdr[0x3c:])
	// signature, file header, then SizeOfImage 56 bytes into the optional header
	off := uint64(lfanew) + 4 + 20 + 56
	if off+4 > uint64(len(hdr)) {
		return 0, ErrNotPE
	}
	if string(hdr[lfanew:lfanew+4]) != "PE\x00\x00" {
		return 0, ErrNotPE
	}
	if binary.LittleEndian.Uint16(hdr[lfanew+24:]) != 0x20b {
		return 0, ErrNotPE
	}
	return binary.LittleEndian.Uint32(hdr[off:]), nil
}

// memoryReaderAt lets the PE parser read a mapped image in place.
type memoryReaderAt struct {
	data []byte
}

func (r *memoryReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off >= int64(len(r.data)) {
		return 0, fmt.Errorf("offset %#x out of range", off)
	}
	n = copy(p, r.data[off:])
	if n < len(p) {
		err = fmt.Errorf("short read at %#x", off)
	}
	return n, err
}

// Map describes the module whose headers are at base.
func Map(name, path string, base uintptr) (*Image, error) {
	size, err := sizeOfImage(memory.Slice(base, memory.PageSize()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	view := memory.Slice(base, uintptr(size))
	f, err := pe.NewFileFromMemory(&memoryReaderAt{data: view})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer f.Close()
	oh, ok := f.OptionalHeader.(*pe.OptionalHeader64)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotPE)
	}
	img := New(name, base, view, oh.DataDirectory[directoryImport])
	img.Path = path
	img.Timestamp = f.FileHeader.TimeDateStamp
	return img, nil
}
