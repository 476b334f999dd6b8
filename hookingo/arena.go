package hookingo

import (
	"github.com/k2io/wofffix/internal/memory"
)

const blockSize = 0x10000

type block struct {
	base uintptr
	used uintptr
}

// codeArena hands out executable memory for trampolines and stubs. Blocks
// are never freed; hooks live as long as the process. Callers hold lock.
type codeArena struct {
	blocks []*block
}

var arena codeArena

func span(size int) uintptr {
	return (uintptr(size) + 15) &^ 15
}

func (a *codeArena) alloc(size int, near uintptr) (uintptr, error) {
	n := span(size)
	for _, b := range a.blocks {
		if b.used+n > blockSize {
			continue
		}
		at := b.base + b.used
		if near != 0 && !(reachable(near, at) && reachable(near, at+n)) {
			continue
		}
		b.used += n
		return at, nil
	}
	base, err := memory.AllocExec(near, blockSize)
	if err != nil {
		return 0, err
	}
	b := &block{base: base, used: n}
	a.blocks = append(a.blocks, b)
	return base, nil
}

// release gives back the allocation at at when it is the newest one in its
// block. Older allocations stay reserved.
func (a *codeArena) release(at uintptr, size int) {
	n := span(size)
	for _, b := range a.blocks {
		if at >= b.base && b.base+b.used == at+n {
			b.used -= n
			return
		}
	}
}
