package sniffle

import (
	"time"

	"github.com/vociferix/sniffle/pdu"
)

// RawPacket is a single captured frame before dissection: the bytes as
// captured, the link type naming how to interpret them, and the metadata
// every capture file format attaches to a record.
type RawPacket struct {
	LinkType LinkType

	// Timestamp is the time the frame was captured.
	Timestamp time.Time

	// OrigLen is the frame's length on the wire. It can exceed
	// len(Data) when the capture truncated the frame to a snaplen; a
	// RawPacket constructed from a live capture with no truncation has
	// OrigLen == len(Data).
	OrigLen int

	// Data is the captured bytes, possibly fewer than OrigLen.
	Data []byte

	// Device is the interface the frame was captured on, or nil if that
	// information isn't available (e.g. read from a pcap file, which
	// carries no per-interface metadata).
	Device Device
}

// CapLen returns the number of bytes actually captured.
func (p *RawPacket) CapLen() int {
	return len(p.Data)
}

// Truncated reports whether the capture cut the frame short of its
// original length.
func (p *RawPacket) Truncated() bool {
	return p.OrigLen > len(p.Data)
}

// Packet is a RawPacket whose bytes have been dissected into a PDU tree.
type Packet struct {
	LinkType  LinkType
	Timestamp time.Time
	OrigLen   int
	PDU       pdu.PDU
	Device    Device
}

// CapLen returns the serialized length of the dissected PDU tree, which
// equals the number of bytes that were actually captured.
func (p *Packet) CapLen() int {
	return pdu.TotalLen(p.PDU)
}

// Truncated reports whether the capture cut the frame short of its
// original length.
func (p *Packet) Truncated() bool {
	return p.OrigLen > p.CapLen()
}
