// Package endian provides the byte-ordering primitives that every PDU
// decoder and capture-file reader in this module builds on: a read cursor
// over a byte slice, a write sink that grows a byte slice, and explicit
// big-endian / little-endian entry points for multi-byte integers.
package endian

import "errors"

// ErrNeedMore is returned by a Cursor decode method when fewer bytes
// remain than the method needs. Callers that are dissecting a PDU treat
// this as a recoverable "packet too short" condition; callers reading a
// capture file treat it as a framing error.
var ErrNeedMore = errors.New("endian: need more bytes")

// Cursor reads sequentially through a byte slice, advancing its position
// as each field is decoded. It never copies the underlying slice; byte
// spans handed back by Bytes/Remaining are views into the original data.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a Cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Len returns the number of unread bytes.
func (c *Cursor) Len() int {
	return len(c.buf) - c.pos
}

// Pos returns the current read offset from the start of the original buffer.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns a view of the unread portion of the buffer.
func (c *Cursor) Remaining() []byte {
	return c.buf[c.pos:]
}

// Advance skips n bytes without decoding them, e.g. to step over padding.
func (c *Cursor) Advance(n int) error {
	if c.Len() < n {
		return ErrNeedMore
	}
	c.pos += n
	return nil
}

// Bytes returns the next n bytes as a view into the underlying buffer,
// without copying, and advances past them.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if c.Len() < n {
		return nil, ErrNeedMore
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// CopyBytes is like Bytes but returns an independent copy, for callers
// that need to retain the data past the lifetime of the source buffer.
func (c *Cursor) CopyBytes(n int) ([]byte, error) {
	b, err := c.Bytes(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// U8 decodes a single byte. Byte-sized fields have no endianness.
func (c *Cursor) U8() (uint8, error) {
	if c.Len() < 1 {
		return 0, ErrNeedMore
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// I8 decodes a single signed byte.
func (c *Cursor) I8() (int8, error) {
	v, err := c.U8()
	return int8(v), err
}

// U16BE decodes a big-endian 16-bit unsigned integer.
func (c *Cursor) U16BE() (uint16, error) {
	b, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// U16LE decodes a little-endian 16-bit unsigned integer.
func (c *Cursor) U16LE() (uint16, error) {
	b, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[1])<<8 | uint16(b[0]), nil
}

// I16BE decodes a big-endian 16-bit signed integer.
func (c *Cursor) I16BE() (int16, error) {
	v, err := c.U16BE()
	return int16(v), err
}

// I16LE decodes a little-endian 16-bit signed integer.
func (c *Cursor) I16LE() (int16, error) {
	v, err := c.U16LE()
	return int16(v), err
}

// U32BE decodes a big-endian 32-bit unsigned integer.
func (c *Cursor) U32BE() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// U32LE decodes a little-endian 32-bit unsigned integer.
func (c *Cursor) U32LE() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0]), nil
}

// I32BE decodes a big-endian 32-bit signed integer.
func (c *Cursor) I32BE() (int32, error) {
	v, err := c.U32BE()
	return int32(v), err
}

// I32LE decodes a little-endian 32-bit signed integer.
func (c *Cursor) I32LE() (int32, error) {
	v, err := c.U32LE()
	return int32(v), err
}

// U64BE decodes a big-endian 64-bit unsigned integer.
func (c *Cursor) U64BE() (uint64, error) {
	hi, err := c.U32BE()
	if err != nil {
		return 0, err
	}
	lo, err := c.U32BE()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// U64LE decodes a little-endian 64-bit unsigned integer.
func (c *Cursor) U64LE() (uint64, error) {
	lo, err := c.U32LE()
	if err != nil {
		return 0, err
	}
	hi, err := c.U32LE()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// I64BE decodes a big-endian 64-bit signed integer.
func (c *Cursor) I64BE() (int64, error) {
	v, err := c.U64BE()
	return int64(v), err
}

// I64LE decodes a little-endian 64-bit signed integer.
func (c *Cursor) I64LE() (int64, error) {
	v, err := c.U64LE()
	return int64(v), err
}

// Mac decodes a 6-byte hardware address.
func (c *Cursor) Mac() ([6]byte, error) {
	var out [6]byte
	b, err := c.Bytes(6)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}
