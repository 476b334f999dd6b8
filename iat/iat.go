// Package iat rewrites entries of a module's import address table.
package iat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/k2io/wofffix/internal/image"
	"github.com/k2io/wofffix/internal/memory"
)

var (
	// ErrNoImports means the image has no import directory
	ErrNoImports = errors.New("image has no import directory")
	// ErrModuleNotImported means no descriptor names the dependency
	ErrModuleNotImported = errors.New("module not imported")
	// ErrEntryNotFound means no slot of the dependency holds the pointer
	ErrEntryNotFound = errors.New("import entry not found")
)

// Slot is one patchable function pointer.
type Slot interface {
	Load() uintptr
	Store(v uintptr) error
}

// Entry is an import address table cell inside a mapped image.
type Entry struct {
	Module string
	Addr   uintptr
}

func (e *Entry) Load() uintptr {
	return memory.ReadPointer(e.Addr)
}

// Store writes v into the table. The page is made writable for the store
// and gets its previous protection back.
func (e *Entry) Store(v uintptr) error {
	return memory.WritePointer(e.Addr, v)
}

// IMAGE_IMPORT_DESCRIPTOR
type descriptor struct {
	OriginalFirstThunk uint32
	TimeDateStamp      uint32
	ForwarderChain     uint32
	Name               uint32
	FirstThunk         uint32
}

const descriptorSize = 20

func cstring(view []byte, rva uint32) string {
	if uint64(rva) >= uint64(len(view)) {
		return ""
	}
	s := view[rva:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

// Find locates the slot of dll in img's import table whose current value
// is fn. Module names compare case-insensitively, as the loader does.
func Find(img *image.Image, dll string, fn uintptr) (*Entry, error) {
	view := img.Bytes()
	dir := img.Imports
	if dir.VirtualAddress == 0 {
		return nil, ErrNoImports
	}
	imported := false
	for off := dir.VirtualAddress; img.Contains(off, descriptorSize); off += descriptorSize {
		d := descriptor{
			OriginalFirstThunk: binary.LittleEndian.Uint32(view[off:]),
			TimeDateStamp:      binary.LittleEndian.Uint32(view[off+4:]),
			ForwarderChain:     binary.LittleEndian.Uint32(view[off+8:]),
			Name:               binary.LittleEndian.Uint32(view[off+12:]),
			FirstThunk:         binary.LittleEndian.Uint32(view[off+16:]),
		}
		// null descriptor marks end
		if d.OriginalFirstThunk == 0 && d.Name == 0 && d.FirstThunk == 0 {
			break
		}
		if !strings.EqualFold(cstring(view, d.Name), dll) {
			continue
		}
		imported = true
		for thunk := d.FirstThunk; img.Contains(thunk, 8); thunk += 8 {
			v := binary.LittleEndian.Uint64(view[thunk:])
			if v == 0 {
				break
			}
			if uintptr(v) == fn {
				return &Entry{Module: dll, Addr: img.At(thunk)}, nil
			}
		}
	}
	if !imported {
		return nil, fmt.Errorf("%s: %w by %s", dll, ErrModuleNotImported, img.Name)
	}
	return nil, fmt.Errorf("%s!%#x: %w", dll, fn, ErrEntryNotFound)
}

// Patch replaces the slot of dll that resolves to old with repl.
func Patch(img *image.Image, dll string, old, repl uintptr) (*Entry, error) {
	e, err := Find(img, dll, old)
	if err != nil {
		return nil, err
	}
	if err := e.Store(repl); err != nil {
		return nil, err
	}
	return e, nil
}
