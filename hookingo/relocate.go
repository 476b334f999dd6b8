// Copyright (C) 2022 K2 Cyber Security Inc.

package hookingo

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/arch/x86/x86asm"
)

// a 14 byte absolute jump plus one maximal instruction
const maxDisplaced = 32

type info struct {
	length int
	// PC-relative field, zero size when there is none
	pcrel, pcrelOff int
}

func analysis(src []byte) (inf info, err error) {
	inst, err := x86asm.Decode(src, 64)
	if err != nil {
		return
	}
	inf.length = inst.Len
	inf.pcrel = inst.PCRel
	inf.pcrelOff = inst.PCRelOff
	if inf.pcrel != 0 {
		return
	}
	// the decoder should always report these, but be sure nothing
	// position dependent slips through as plain bytes
	for _, a := range inst.Args {
		if mem, ok := a.(x86asm.Mem); ok && mem.Base == x86asm.RIP {
			err = fmt.Errorf("%w: %v", ErrRelativeAddr, inst)
			return
		} else if _, ok := a.(x86asm.Rel); ok {
			err = fmt.Errorf("%w: %v", ErrRelativeAddr, inst)
			return
		}
	}
	return
}

// ensureLength returns the length of the shortest run of whole
// instructions at the start of src that covers size bytes.
func ensureLength(src []byte, size int) (int, error) {
	length := 0
	for length < size {
		i, err := analysis(src[length:])
		if err != nil {
			return 0, err
		}
		length += i.length
	}
	return length, nil
}

func reachable(from, to uintptr) bool {
	d := int64(to) - int64(from)
	return d >= math.MinInt32 && d <= math.MaxInt32
}

// relocate copies the whole instructions in code, which were decoded at
// from, so that they behave the same when executed at to. 32-bit
// PC-relative fields are rebased; narrower ones cannot be.
func relocate(code []byte, from, to uintptr) ([]byte, error) {
	out := make([]byte, 0, len(code))
	for pos := 0; pos < len(code); {
		inf, err := analysis(code[pos:])
		if err != nil {
			return nil, err
		}
		raw := append([]byte(nil), code[pos:pos+inf.length]...)
		switch inf.pcrel {
		case 0:
		case 4:
			disp := int64(int32(binary.LittleEndian.Uint32(raw[inf.pcrelOff:])))
			end := int64(from) + int64(pos+inf.length)
			dest := end + disp
			newEnd := int64(to) + int64(pos+inf.length)
			if !reachable(uintptr(newEnd), uintptr(dest)) {
				return nil, fmt.Errorf("%w: target out of reach at +%#x", ErrRelativeAddr, pos)
			}
			binary.LittleEndian.PutUint32(raw[inf.pcrelOff:], uint32(int32(dest-newEnd)))
		default:
			return nil, fmt.Errorf("%w: %d byte displacement at +%#x", ErrRelativeAddr, inf.pcrel, pos)
		}
		out = append(out, raw...)
		pos += inf.length
	}
	return out, nil
}
