package pdu

import "github.com/vociferix/sniffle/endian"

// Raw is the fallback PDU used when dissection stops before the full
// payload is understood: a dissector table miss, a length too short for
// any registered dissector, or an explicit decision to stop dissecting.
// It carries the undissected bytes verbatim and re-serializes them
// unchanged.
type Raw struct {
	Base
	Data []byte
}

// NewRaw wraps data in a Raw PDU. data is retained, not copied.
func NewRaw(data []byte) *Raw {
	return &Raw{Data: data}
}

func (r *Raw) HeaderLen() int {
	return len(r.Data)
}

func (r *Raw) SerializeHeader(s *endian.Sink) error {
	s.PutBytes(r.Data)
	return nil
}

// MakeCanonical is a no-op: raw bytes have no derived fields.
func (r *Raw) MakeCanonical() {}

func (r *Raw) Clone() PDU {
	data := make([]byte, len(r.Data))
	copy(data, r.Data)
	return &Raw{Data: data}
}
