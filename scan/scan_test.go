package scan

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type region struct {
	base uintptr
	data []byte
}

func (r region) Start() uintptr { return r.base }
func (r region) Bytes() []byte  { return r.data }

func TestParse(t *testing.T) {
	p, err := Parse("89 ?? ? E9 0f")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Len())
	assert.Equal(t, []byte{0x89, 0, 0, 0xe9, 0x0f}, p.value)
	assert.Equal(t, []bool{false, true, true, false, false}, p.wild)
	assert.Equal(t, 0, p.anchor)

	p, err = Parse("?? ?? 48")
	require.NoError(t, err)
	assert.Equal(t, 2, p.anchor)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrEmptyPattern)
	_, err = Parse("89 GG")
	assert.ErrorIs(t, err, ErrBadToken)
	_, err = Parse("890")
	assert.ErrorIs(t, err, ErrBadToken)

	assert.Panics(t, func() { MustParse("zz") })
}

func TestIndexEmbedded(t *testing.T) {
	p := MustParse("F3 0F ?? ?? ?? ?? 48 ?? C3")
	rng := rand.New(rand.NewSource(1))
	for k := 0; k < 200; k += 7 {
		data := make([]byte, 256)
		rng.Read(data)
		// keep the random filler free of the anchor byte so no earlier
		// offset can match
		for i := range data {
			if data[i] == 0xF3 {
				data[i] = 0
			}
		}
		copy(data[k:], []byte{0xF3, 0x0F, 0x11, 0x22, 0x33, 0x44, 0x48, 0x55, 0xC3})
		assert.Equal(t, k, p.Index(data), "offset %d", k)
	}
}

func TestIndexFirstMatchWins(t *testing.T) {
	p := MustParse("AA ?? CC")
	data := []byte{0, 0xAA, 1, 0xCC, 0xAA, 2, 0xCC}
	assert.Equal(t, 1, p.Index(data))
}

func TestIndexOverlappingNearMiss(t *testing.T) {
	p := MustParse("AA AA BB")
	// every prefix is present but no full run
	data := []byte{0xAA, 0xAA, 0xAA, 0xAC, 0xAA, 0xBB, 0xAA}
	assert.Equal(t, -1, p.Index(data))

	data = append(data, 0xAA, 0xBB)
	assert.Equal(t, 6, p.Index(data))
}

func TestIndexBounds(t *testing.T) {
	p := MustParse("01 02 03")
	assert.Equal(t, -1, p.Index(nil))
	assert.Equal(t, -1, p.Index([]byte{1, 2}))
	assert.Equal(t, 0, p.Index([]byte{1, 2, 3}))
	// match must fit entirely before the end
	assert.Equal(t, -1, p.Index([]byte{9, 9, 1, 2}))

	all := MustParse("?? ??")
	assert.Equal(t, 0, all.Index([]byte{5, 6, 7}))
	assert.Equal(t, -1, all.Index([]byte{5}))
}

func TestFind(t *testing.T) {
	p := MustParse("E8 ?? ?? ?? ?? 85 C0")
	r := region{base: 0x140000000, data: []byte{0x90, 0x90, 0xE8, 1, 2, 3, 4, 0x85, 0xC0}}
	addr, ok := p.Find(r)
	require.True(t, ok)
	assert.Equal(t, uintptr(0x140000002), addr)

	r.data[7] = 0x84
	_, ok = p.Find(r)
	assert.False(t, ok)
}
