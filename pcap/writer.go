package pcap

import (
	"fmt"
	"io"

	"github.com/vociferix/sniffle"
	"github.com/vociferix/sniffle/endian"
	"github.com/vociferix/sniffle/pdu"
)

// Writer writes packets to a legacy pcap capture file. It starts in an
// unopened state and writes the 24-byte file header lazily, on the first
// packet, deriving the file's link type from that packet unless one was
// set explicitly with SetLinkType first. Every subsequent packet must
// share that link type; pcap has no per-record link type field the way
// pcapng does.
type Writer struct {
	w     io.Writer
	ready bool

	linkType    sniffle.LinkType
	linkTypeSet bool
	snapLen     uint32
	nanoseconds bool
}

// NewWriter returns a Writer with the default snap length and microsecond
// timestamp resolution. Nothing is written to w until the first packet.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, snapLen: DefaultSnapLen}
}

// SetSnapLen overrides the default snap length. It must be called before
// the first packet is written.
func (w *Writer) SetSnapLen(n uint32) error {
	if w.ready {
		return ErrAlreadyOpen
	}
	w.snapLen = n
	return nil
}

// SetNanoseconds selects nanosecond timestamp resolution instead of the
// default microsecond resolution. It must be called before the first
// packet is written.
func (w *Writer) SetNanoseconds(nano bool) error {
	if w.ready {
		return ErrAlreadyOpen
	}
	w.nanoseconds = nano
	return nil
}

// SetLinkType fixes the file's link type up front instead of deriving it
// from the first packet. It must be called before the first packet is
// written.
func (w *Writer) SetLinkType(lt sniffle.LinkType) error {
	if w.ready {
		return ErrAlreadyOpen
	}
	w.linkType = lt
	w.linkTypeSet = true
	return nil
}

// WriteRaw writes a captured frame. The first call opens the file,
// deriving the link type from pkt if SetLinkType wasn't called already;
// every later call must carry the same link type.
func (w *Writer) WriteRaw(pkt *sniffle.RawPacket) error {
	if !w.ready {
		if !w.linkTypeSet {
			w.linkType = pkt.LinkType
		}
		if err := w.open(); err != nil {
			return err
		}
	} else if pkt.LinkType != w.linkType {
		return fmt.Errorf("%w: file is %v, packet is %v", ErrLinkTypeMismatch, w.linkType, pkt.LinkType)
	}
	return w.writeRecord(pkt)
}

// WritePacket serializes pkt's PDU tree and writes it like WriteRaw. The
// link type is derived from the tree's root PDU type if it wasn't fixed
// by SetLinkType or a prior WriteRaw/WritePacket call.
func (w *Writer) WritePacket(pkt *sniffle.Packet) error {
	root := pdu.Root(pkt.PDU)
	if !w.ready && !w.linkTypeSet {
		lt, ok := sniffle.LinkTypeOf(root)
		if !ok {
			return ErrNoLinkType
		}
		w.linkType = lt
	} else if w.ready {
		if lt, ok := sniffle.LinkTypeOf(root); ok && lt != w.linkType {
			return fmt.Errorf("%w: file is %v, packet is %v", ErrLinkTypeMismatch, w.linkType, lt)
		}
	}

	s := endian.NewSink()
	if err := pdu.Serialize(pkt.PDU, s); err != nil {
		return fmt.Errorf("pcap: serializing packet: %v", err)
	}

	origLen := pkt.OrigLen
	if origLen == 0 {
		origLen = s.Len()
	}

	return w.WriteRaw(&sniffle.RawPacket{
		LinkType:  w.linkType,
		Timestamp: pkt.Timestamp,
		OrigLen:   origLen,
		Data:      s.Bytes(),
	})
}

func (w *Writer) open() error {
	hdr := endian.NewSink()
	if w.nanoseconds {
		hdr.PutU32LE(MagicNano)
	} else {
		hdr.PutU32LE(MagicMicro)
	}
	hdr.PutU16LE(2)
	hdr.PutU16LE(4)
	hdr.PutI32LE(0)
	hdr.PutU32LE(0)
	hdr.PutU32LE(w.snapLen)
	hdr.PutU32LE(uint32(w.linkType))
	if _, err := w.w.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("pcap: writing file header: %v", err)
	}
	w.ready = true
	return nil
}

func (w *Writer) writeRecord(pkt *sniffle.RawPacket) error {
	data := pkt.Data
	if uint32(len(data)) > w.snapLen {
		return fmt.Errorf("%w: %d bytes, snap length %d", ErrExceedsSnapLen, len(data), w.snapLen)
	}

	sec := uint32(pkt.Timestamp.Unix())
	var frac uint32
	if w.nanoseconds {
		frac = uint32(pkt.Timestamp.Nanosecond())
	} else {
		frac = uint32(pkt.Timestamp.Nanosecond() / 1000)
	}

	origLen := pkt.OrigLen
	if origLen == 0 {
		origLen = len(pkt.Data)
	}

	s := endian.NewSinkCap(RecordHeaderLen + len(data))
	s.PutU32LE(sec)
	s.PutU32LE(frac)
	s.PutU32LE(uint32(len(data)))
	s.PutU32LE(uint32(origLen))
	s.PutBytes(data)

	if _, err := w.w.Write(s.Bytes()); err != nil {
		return fmt.Errorf("pcap: writing record: %v", err)
	}
	return nil
}
