// Package scan locates byte signatures inside a mapped module image.
//
// A signature is written the way it is copied out of a disassembler:
//
//	"89 ?? ?? 89 ?? ?? E9 ?? ?? ?? ??"
//
// where every "??" (or "?") position matches any byte.
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmptyPattern means the signature has no bytes at all
	ErrEmptyPattern = errors.New("empty pattern")
	// ErrBadToken means a token is neither a hex byte nor a wildcard
	ErrBadToken = errors.New("bad pattern token")
)

// Pattern is an ordered sequence of (byte, wildcard) pairs.
type Pattern struct {
	text  string
	value []byte
	wild  []bool
	// index of the first literal byte, -1 when every byte is a wildcard
	anchor int
}

// Parse converts the textual form of a signature.
func Parse(text string) (Pattern, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Pattern{}, ErrEmptyPattern
	}
	p := Pattern{
		text:   text,
		value:  make([]byte, len(fields)),
		wild:   make([]bool, len(fields)),
		anchor: -1,
	}
	for i, f := range fields {
		if f == "?" || f == "??" {
			p.wild[i] = true
			continue
		}
		if len(f) != 2 {
			return Pattern{}, fmt.Errorf("%w %q at %d", ErrBadToken, f, i)
		}
		b, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return Pattern{}, fmt.Errorf("%w %q at %d", ErrBadToken, f, i)
		}
		p.value[i] = byte(b)
		if p.anchor < 0 {
			p.anchor = i
		}
	}
	return p, nil
}

// MustParse is like Parse but panics on error. Use it for signatures
// declared as package constants.
func MustParse(text string) Pattern {
	p, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("scan: %s: %v", text, err))
	}
	return p
}

// Len is the number of bytes the pattern spans.
func (p Pattern) Len() int {
	return len(p.value)
}

func (p Pattern) String() string {
	return p.text
}

// Index returns the offset of the first run in data matching p, or -1.
func (p Pattern) Index(data []byte) int {
	n := len(p.value)
	if n == 0 || len(data) < n {
		return -1
	}
	last := len(data) - n
	if p.anchor < 0 {
		return 0
	}
	first := p.value[p.anchor]
	for off := 0; off <= last; {
		// candidate positions are those where the anchor byte lines up
		i := bytes.IndexByte(data[off+p.anchor:last+p.anchor+1], first)
		if i < 0 {
			return -1
		}
		off += i
		if p.matchAt(data, off) {
			return off
		}
		off++
	}
	return -1
}

func (p Pattern) matchAt(data []byte, off int) bool {
	for i, v := range p.value {
		if !p.wild[i] && data[off+i] != v {
			return false
		}
	}
	return true
}

// Region is a mapped memory range that can be searched.
type Region interface {
	Start() uintptr
	Bytes() []byte
}

// Find scans r for p and returns the absolute address of the first match.
// A false result is the expected outcome when the host binary is a
// different build; callers skip the feature.
func (p Pattern) Find(r Region) (uintptr, bool) {
	off := p.Index(r.Bytes())
	if off < 0 {
		return 0, false
	}
	return r.Start() + uintptr(off), true
}
