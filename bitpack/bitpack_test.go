package bitpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	// IPv4's version/IHL byte: 4-bit version, 4-bit IHL.
	packed := Pack64(F(4, 4), F(4, 5))
	assert.Equal(t, uint64(0x45), packed)

	fields := Unpack64(packed, 4, 4)
	assert.Equal(t, []uint64{4, 5}, fields)
}

func TestPackUnpack_FlagsAndFragOffset(t *testing.T) {
	// 3-bit flags, 13-bit fragment offset, packed into 16 bits.
	packed := Pack64(F(3, 0x2), F(13, 0x1234&0x1fff))
	fields := Unpack64(packed, 3, 13)
	assert.Equal(t, uint64(0x2), fields[0])
	assert.Equal(t, uint64(0x1234&0x1fff), fields[1])
}

func TestPack64_MasksOverflowingValues(t *testing.T) {
	packed := Pack64(F(4, 0xff), F(4, 0xff))
	assert.Equal(t, uint64(0xff), packed)
}

func TestPack64_ZeroFields(t *testing.T) {
	assert.Equal(t, uint64(0), Pack64())
	assert.Equal(t, []uint64{}, Unpack64(0))
}

func TestPack64_PanicsOnOverflow(t *testing.T) {
	assert.Panics(t, func() {
		Pack64(F(40, 0), F(40, 0))
	})
}
