package endian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_U16(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02})
	v, err := c.U16BE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v)

	c = NewCursor([]byte{0x01, 0x02})
	v, err = c.U16LE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), v)
}

func TestCursor_U32(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02, 0x03, 0x04})
	v, err := c.U32BE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), v)

	c = NewCursor([]byte{0x01, 0x02, 0x03, 0x04})
	v, err = c.U32LE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), v)
}

func TestCursor_U64(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	c := NewCursor(buf)
	v, err := c.U64BE()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v)

	c = NewCursor(buf)
	v, err = c.U64LE()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0807060504030201), v)
}

func TestCursor_NeedMore(t *testing.T) {
	c := NewCursor([]byte{0x01})
	_, err := c.U16BE()
	assert.ErrorIs(t, err, ErrNeedMore)
}

func TestCursor_BytesIsView(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	c := NewCursor(buf)
	b, err := c.Bytes(4)
	require.NoError(t, err)
	b[0] = 0xff
	assert.Equal(t, byte(0xff), buf[0], "Bytes must not copy")
}

func TestCursor_CopyBytesIsIndependent(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	c := NewCursor(buf)
	b, err := c.CopyBytes(4)
	require.NoError(t, err)
	b[0] = 0xff
	assert.Equal(t, byte(1), buf[0], "CopyBytes must not alias the source")
}

func TestSinkRoundTripsWithCursor(t *testing.T) {
	s := NewSink()
	s.PutU8(0x7f)
	s.PutU16BE(0x1234)
	s.PutU16LE(0x1234)
	s.PutU32BE(0xdeadbeef)
	s.PutU32LE(0xdeadbeef)
	s.PutU64BE(0x0102030405060708)
	s.PutMac([6]byte{1, 2, 3, 4, 5, 6})

	c := NewCursor(s.Bytes())

	u8, err := c.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x7f), u8)

	be16, err := c.U16BE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), be16)

	le16, err := c.U16LE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), le16)

	be32, err := c.U32BE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), be32)

	le32, err := c.U32LE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), le32)

	be64, err := c.U64BE()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), be64)

	mac, err := c.Mac()
	require.NoError(t, err)
	assert.Equal(t, [6]byte{1, 2, 3, 4, 5, 6}, mac)

	assert.Equal(t, 0, c.Len())
}

func TestCursor_AdvanceAndRemaining(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3, 4, 5})
	require.NoError(t, c.Advance(2))
	assert.Equal(t, []byte{3, 4, 5}, c.Remaining())
	assert.ErrorIs(t, c.Advance(10), ErrNeedMore)
}
