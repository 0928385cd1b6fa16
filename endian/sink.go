package endian

// Sink accumulates serialized bytes. PDUs write their header and trailer
// fields into a Sink in the same order a Cursor would decode them.
type Sink struct {
	buf []byte
}

// NewSink returns an empty Sink.
func NewSink() *Sink {
	return &Sink{}
}

// NewSinkCap returns an empty Sink with room pre-reserved, for callers
// that know the final serialized length up front (see pdu.TotalLen).
func NewSinkCap(n int) *Sink {
	return &Sink{buf: make([]byte, 0, n)}
}

// Bytes returns the accumulated bytes.
func (s *Sink) Bytes() []byte {
	return s.buf
}

// Len returns the number of bytes written so far.
func (s *Sink) Len() int {
	return len(s.buf)
}

// Write implements io.Writer so a Sink can be passed to checksum
// accumulators and other stdlib APIs that write into a byte sink.
func (s *Sink) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// PutBytes appends b verbatim.
func (s *Sink) PutBytes(b []byte) {
	s.buf = append(s.buf, b...)
}

// PutU8 appends a single byte.
func (s *Sink) PutU8(v uint8) {
	s.buf = append(s.buf, v)
}

// PutI8 appends a single signed byte.
func (s *Sink) PutI8(v int8) {
	s.PutU8(uint8(v))
}

// PutU16BE appends a big-endian 16-bit unsigned integer.
func (s *Sink) PutU16BE(v uint16) {
	s.buf = append(s.buf, byte(v>>8), byte(v))
}

// PutU16LE appends a little-endian 16-bit unsigned integer.
func (s *Sink) PutU16LE(v uint16) {
	s.buf = append(s.buf, byte(v), byte(v>>8))
}

// PutI16BE appends a big-endian 16-bit signed integer.
func (s *Sink) PutI16BE(v int16) { s.PutU16BE(uint16(v)) }

// PutI16LE appends a little-endian 16-bit signed integer.
func (s *Sink) PutI16LE(v int16) { s.PutU16LE(uint16(v)) }

// PutU32BE appends a big-endian 32-bit unsigned integer.
func (s *Sink) PutU32BE(v uint32) {
	s.buf = append(s.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// PutU32LE appends a little-endian 32-bit unsigned integer.
func (s *Sink) PutU32LE(v uint32) {
	s.buf = append(s.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// PutI32BE appends a big-endian 32-bit signed integer.
func (s *Sink) PutI32BE(v int32) { s.PutU32BE(uint32(v)) }

// PutI32LE appends a little-endian 32-bit signed integer.
func (s *Sink) PutI32LE(v int32) { s.PutU32LE(uint32(v)) }

// PutU64BE appends a big-endian 64-bit unsigned integer.
func (s *Sink) PutU64BE(v uint64) {
	s.PutU32BE(uint32(v >> 32))
	s.PutU32BE(uint32(v))
}

// PutU64LE appends a little-endian 64-bit unsigned integer.
func (s *Sink) PutU64LE(v uint64) {
	s.PutU32LE(uint32(v))
	s.PutU32LE(uint32(v >> 32))
}

// PutI64BE appends a big-endian 64-bit signed integer.
func (s *Sink) PutI64BE(v int64) { s.PutU64BE(uint64(v)) }

// PutI64LE appends a little-endian 64-bit signed integer.
func (s *Sink) PutI64LE(v int64) { s.PutU64LE(uint64(v)) }

// PutMac appends a 6-byte hardware address.
func (s *Sink) PutMac(addr [6]byte) {
	s.buf = append(s.buf, addr[:]...)
}

// PutZeros appends n zero bytes, used for padding.
func (s *Sink) PutZeros(n int) {
	for i := 0; i < n; i++ {
		s.buf = append(s.buf, 0)
	}
}
