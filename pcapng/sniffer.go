package pcapng

import (
	"time"

	"github.com/vociferix/sniffle"
)

// NextPacket reads blocks until it finds an Enhanced Packet Block or
// Simple Packet Block, skipping over Section Header, Interface
// Description, Name Resolution, Interface Statistics, Decryption
// Secrets, and systemd Journal Export blocks along the way, and returns
// it as a RawPacket. It returns io.EOF, unwrapped, once the stream ends
// cleanly between blocks.
//
// Callers that need the skipped blocks too (to copy a capture through
// unchanged, or to read DSB key-log secrets) should call NextBlock
// directly instead.
func (r *Reader) NextPacket() (*sniffle.RawPacket, error) {
	for {
		block, err := r.NextBlock()
		if err != nil {
			return nil, err
		}
		switch b := block.(type) {
		case *EnhancedPacketBlock:
			var linkType sniffle.LinkType
			if int(b.InterfaceID) < len(r.ifaces) {
				linkType = r.ifaces[b.InterfaceID].LinkType
			}
			var ts time.Time
			if b.Timestamp != nil {
				ts = *b.Timestamp
			}
			return &sniffle.RawPacket{
				LinkType:  linkType,
				Timestamp: ts,
				OrigLen:   int(b.OrigLen),
				Data:      b.Data,
			}, nil
		case *SimplePacketBlock:
			var linkType sniffle.LinkType
			if len(r.ifaces) > 0 {
				linkType = r.ifaces[0].LinkType
			}
			return &sniffle.RawPacket{
				LinkType: linkType,
				OrigLen:  int(b.OrigLen),
				Data:     b.Data,
			}, nil
		default:
			continue
		}
	}
}
