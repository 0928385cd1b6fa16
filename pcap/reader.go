package pcap

import (
	"fmt"
	"io"
	"time"

	"github.com/vociferix/sniffle"
	"github.com/vociferix/sniffle/endian"
)

type byteOrder int

const (
	orderBE byteOrder = iota
	orderLE
)

// Reader reads packets from a legacy pcap capture file. It determines the
// file's byte order and timestamp resolution from the magic number in the
// file header, the same way tcpdump-family readers do, so the same Reader
// handles files written on either a big- or little-endian host.
type Reader struct {
	r           io.Reader
	order       byteOrder
	nanoseconds bool

	VersionMajor uint16
	VersionMinor uint16
	ThisZone     int32
	SigFigs      uint32
	SnapLen      uint32
	LinkType     sniffle.LinkType
}

// NewReader reads and validates the file header from r, leaving r
// positioned at the start of the first record.
func NewReader(r io.Reader) (*Reader, error) {
	hdr := make([]byte, FileHeaderLen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("pcap: reading file header: %v", err)
	}

	be, _ := endian.NewCursor(hdr[:4]).U32BE()
	le, _ := endian.NewCursor(hdr[:4]).U32LE()

	var order byteOrder
	var nano bool
	switch {
	case be == MagicMicro:
		order, nano = orderBE, false
	case be == MagicNano:
		order, nano = orderBE, true
	case le == MagicMicro:
		order, nano = orderLE, false
	case le == MagicNano:
		order, nano = orderLE, true
	default:
		return nil, ErrBadMagic
	}

	rd := &Reader{r: r, order: order, nanoseconds: nano}
	c := endian.NewCursor(hdr[4:])

	var err error
	if rd.VersionMajor, err = rd.u16(c); err != nil {
		return nil, err
	}
	if rd.VersionMinor, err = rd.u16(c); err != nil {
		return nil, err
	}
	if rd.ThisZone, err = rd.i32(c); err != nil {
		return nil, err
	}
	if rd.SigFigs, err = rd.u32(c); err != nil {
		return nil, err
	}
	if rd.SnapLen, err = rd.u32(c); err != nil {
		return nil, err
	}
	network, err := rd.u32(c)
	if err != nil {
		return nil, err
	}
	rd.LinkType = sniffle.LinkType(network)

	return rd, nil
}

func (r *Reader) u16(c *endian.Cursor) (uint16, error) {
	if r.order == orderBE {
		return c.U16BE()
	}
	return c.U16LE()
}

func (r *Reader) u32(c *endian.Cursor) (uint32, error) {
	if r.order == orderBE {
		return c.U32BE()
	}
	return c.U32LE()
}

func (r *Reader) i32(c *endian.Cursor) (int32, error) {
	if r.order == orderBE {
		return c.I32BE()
	}
	return c.I32LE()
}

// Next reads the next packet record. It returns io.EOF, unwrapped, once
// the file ends cleanly between records.
func (r *Reader) Next() (*sniffle.RawPacket, error) {
	hdr := make([]byte, RecordHeaderLen)
	if _, err := io.ReadFull(r.r, hdr); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("pcap: reading record header: %v", err)
	}

	c := endian.NewCursor(hdr)
	tsSec, err := r.u32(c)
	if err != nil {
		return nil, fmt.Errorf("pcap: reading record header: %v", err)
	}
	tsFrac, err := r.u32(c)
	if err != nil {
		return nil, fmt.Errorf("pcap: reading record header: %v", err)
	}
	inclLen, err := r.u32(c)
	if err != nil {
		return nil, fmt.Errorf("pcap: reading record header: %v", err)
	}
	origLen, err := r.u32(c)
	if err != nil {
		return nil, fmt.Errorf("pcap: reading record header: %v", err)
	}

	data := make([]byte, inclLen)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, fmt.Errorf("pcap: reading record payload: %v", err)
	}

	var ts time.Time
	if r.nanoseconds {
		ts = time.Unix(int64(tsSec), int64(tsFrac))
	} else {
		ts = time.Unix(int64(tsSec), int64(tsFrac)*1000)
	}

	return &sniffle.RawPacket{
		LinkType:  r.LinkType,
		Timestamp: ts,
		OrigLen:   int(origLen),
		Data:      data,
	}, nil
}
