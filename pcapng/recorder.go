package pcapng

import (
	"fmt"
	"io"
	"net"

	"github.com/vociferix/sniffle"
	"github.com/vociferix/sniffle/endian"
	"github.com/vociferix/sniffle/pdu"
)

type ifaceKey struct {
	device   string
	linkType sniffle.LinkType
	snapLen  uint32
}

type ifaceInfo struct {
	id       uint32
	tsOffset int64
}

// Recorder wraps a Writer with the bookkeeping a live capture needs: it
// opens a section up front with a single option-free Section Header
// Block, then lazily declares a new Interface Description Block the
// first time it sees a packet whose (device name, link type, snap
// length) triple hasn't been recorded yet, so repeated captures from the
// same device share one interface entry instead of growing one per
// packet.
type Recorder struct {
	w      *Writer
	ifaces map[ifaceKey]*ifaceInfo
}

// NewRecorder opens w's section and returns a Recorder ready to accept
// packets.
func NewRecorder(w io.WriteSeeker) (*Recorder, error) {
	writer := NewWriter(w)
	if err := writer.WriteSHB(nil); err != nil {
		return nil, err
	}
	return &Recorder{w: writer, ifaces: make(map[ifaceKey]*ifaceInfo)}, nil
}

// WriteRaw records pkt, declaring a new interface first if this is the
// first packet seen for pkt's (device, link type, snapLen) combination.
// The interface's if_tsoffset option is pinned to that first packet's
// whole-second timestamp, so every packet on the interface (including the
// first) is recorded at nanosecond resolution relative to it.
func (rec *Recorder) WriteRaw(pkt *sniffle.RawPacket, snapLen uint32) error {
	key := ifaceKey{linkType: pkt.LinkType, snapLen: snapLen}
	if pkt.Device != nil {
		key.device = pkt.Device.Name()
	}

	info, known := rec.ifaces[key]
	if !known {
		tsOffset := pkt.Timestamp.Unix()
		if err := rec.writeIDB(pkt.Device, pkt.LinkType, snapLen, tsOffset); err != nil {
			return err
		}
		info = &ifaceInfo{id: uint32(len(rec.ifaces)), tsOffset: tsOffset}
		rec.ifaces[key] = info
	}

	ts := tsEncode(pkt.Timestamp, info.tsOffset)
	return rec.w.WriteEPB(info.id, ts, uint32(pkt.OrigLen), pkt.Data, nil)
}

func (rec *Recorder) writeIDB(dev sniffle.Device, linkType sniffle.LinkType, snapLen uint32, tsOffset int64) error {
	var opts OptionList
	if dev != nil {
		opts = opts.AddString(OptIfName, dev.Name())
		if desc := dev.Description(); desc != "" {
			opts = opts.AddString(OptIfDescr, desc)
		}
		for _, addr := range dev.IPv4Addrs() {
			opts = opts.AddIPv4Iface(OptIfIPv4Addr, addr, net.CIDRMask(32, 32))
		}
		for _, addr := range dev.IPv6Addrs() {
			opts = opts.AddIPv6Iface(OptIfIPv6Addr, addr, 128)
		}
		if mac, ok := dev.MACAddr(); ok {
			opts = opts.AddMac(OptIfMACAddr, mac)
		}
	}
	opts = opts.AddI64(OptIfTSOffset, tsOffset)
	opts = opts.AddU8(OptIfTSResol, 9)
	return rec.w.WriteIDB(uint16(linkType), snapLen, opts)
}

// WritePacket serializes pkt's PDU tree and records it like WriteRaw,
// deriving the link type from the tree's root PDU.
func (rec *Recorder) WritePacket(pkt *sniffle.Packet, snapLen uint32) error {
	root := pdu.Root(pkt.PDU)
	linkType, ok := sniffle.LinkTypeOf(root)
	if !ok {
		return sniffle.ErrUnknownLinkType
	}

	s := endian.NewSink()
	if err := pdu.Serialize(pkt.PDU, s); err != nil {
		return fmt.Errorf("pcapng: serializing packet: %v", err)
	}

	origLen := pkt.OrigLen
	if origLen == 0 {
		origLen = s.Len()
	}

	return rec.WriteRaw(&sniffle.RawPacket{
		LinkType:  linkType,
		Timestamp: pkt.Timestamp,
		OrigLen:   origLen,
		Data:      s.Bytes(),
		Device:    pkt.Device,
	}, snapLen)
}

// Finalize patches the section's length field. Call it once after the
// last packet has been written.
func (rec *Recorder) Finalize() error {
	return rec.w.Finalize()
}
