// Package ethernet implements the Ethernet II link-layer PDU, one of this
// module's two worked dissector examples (the other is protocols/ipv4). It
// demonstrates the pattern every higher-layer protocol package follows:
// register a dissector table during init(), dissect into a pdu.PDU tree
// bounded by the session's registered tables, and recompute derived fields
// (here, the ethertype and trailer) in MakeCanonical.
package ethernet

import (
	"errors"
	"fmt"

	"github.com/vociferix/sniffle"
	"github.com/vociferix/sniffle/dissect"
	"github.com/vociferix/sniffle/endian"
	"github.com/vociferix/sniffle/pdu"
)

// EthertypeTableName is the session table Dissectors for a particular
// ethertype register into.
const EthertypeTableName = "ethernet.ethertype"

// HeuristicTableName is the session table consulted when no Ethertype
// dissector claims a frame's payload.
const HeuristicTableName = "ethernet.heuristic"

// Well-known ethertypes this package cares about directly. Higher-layer
// packages register their own constants alongside their dissectors.
const (
	EthertypeIPv4 uint16 = 0x0800
	EthertypeIPv6 uint16 = 0x86DD
	EthertypeARP  uint16 = 0x0806
)

// autoTrailerMin is the minimum Ethernet payload size (the bytes after the
// 14-byte header, excluding the 4-byte FCS this module never sees): frames
// carrying less are padded up to it.
const autoTrailerMin = 46

// TrailerKind distinguishes how an EthernetII's trailer bytes were
// classified during dissection.
type TrailerKind int

const (
	// TrailerAuto means the trailer is exactly the zero-padding required
	// to bring the frame up to autoTrailerMin bytes of payload, and will
	// be regenerated automatically on serialization.
	TrailerAuto TrailerKind = iota
	// TrailerZeros means the trailer is all zeros but not the length
	// MakeCanonical would produce; it is preserved as-is.
	TrailerZeros
	// TrailerManual means the trailer contains non-zero bytes and is
	// preserved verbatim.
	TrailerManual
)

// Trailer is the bytes (if any) following an EthernetII's inner PDU,
// classified per spec so a capture that already padded a short frame
// round-trips byte-for-byte instead of silently growing or shrinking it.
type Trailer struct {
	Kind TrailerKind
	N    int    // byte count, valid when Kind == TrailerZeros
	Data []byte // verbatim bytes, valid when Kind == TrailerManual
}

// AutoTrailer returns a Trailer that regenerates zero-padding as needed.
func AutoTrailer() Trailer { return Trailer{Kind: TrailerAuto} }

// ZerosTrailer returns a Trailer of n zero bytes, preserved literally
// rather than recomputed from the inner PDU's length.
func ZerosTrailer(n int) Trailer { return Trailer{Kind: TrailerZeros, N: n} }

// ManualTrailer returns a Trailer carrying data verbatim.
func ManualTrailer(data []byte) Trailer { return Trailer{Kind: TrailerManual, Data: data} }

// EthernetII is the Ethernet II link-layer PDU: a 14-byte header (two MAC
// addresses and an ethertype) followed by the encapsulated payload and an
// optional zero-padding trailer.
type EthernetII struct {
	pdu.Base
	DstAddr   [6]byte
	SrcAddr   [6]byte
	Ethertype uint16
	Trailer   Trailer
}

// NewEthernetII returns an EthernetII with the given addresses, an
// automatically derived ethertype, and automatic trailer padding.
func NewEthernetII(dst, src [6]byte) *EthernetII {
	return &EthernetII{DstAddr: dst, SrcAddr: src, Trailer: AutoTrailer()}
}

func (e *EthernetII) HeaderLen() int { return 14 }

func (e *EthernetII) TrailerLen() int { return len(e.trailerBytes()) }

func (e *EthernetII) SerializeHeader(s *endian.Sink) error {
	s.PutMac(e.DstAddr)
	s.PutMac(e.SrcAddr)
	s.PutU16BE(e.Ethertype)
	return nil
}

func (e *EthernetII) SerializeTrailer(s *endian.Sink) error {
	s.PutBytes(e.trailerBytes())
	return nil
}

func (e *EthernetII) innerLen() int {
	if inner := e.Inner(); inner != nil {
		return pdu.TotalLen(inner)
	}
	return 0
}

func (e *EthernetII) autoTrailerLen() int {
	n := autoTrailerMin - e.innerLen()
	if n < 0 {
		return 0
	}
	return n
}

func (e *EthernetII) trailerBytes() []byte {
	switch e.Trailer.Kind {
	case TrailerZeros:
		return make([]byte, e.Trailer.N)
	case TrailerManual:
		return e.Trailer.Data
	default:
		return make([]byte, e.autoTrailerLen())
	}
}

// MakeCanonical recomputes the ethertype from the inner PDU's registered
// ethertype, if any, and resets the trailer to automatic padding.
func (e *EthernetII) MakeCanonical() {
	if inner := e.Inner(); inner != nil {
		if et, ok := EthertypeOf(inner); ok {
			e.Ethertype = et
		}
	}
	e.Trailer = AutoTrailer()
}

func (e *EthernetII) Clone() pdu.PDU {
	c := *e
	c.Base = pdu.Base{}
	if e.Trailer.Kind == TrailerManual {
		c.Trailer.Data = append([]byte(nil), e.Trailer.Data...)
	}
	return &c
}

// Dissect parses data as an Ethernet II frame: the 14-byte header, then the
// payload dispatched first against the Ethertype table, then the
// heuristic table, then as raw bytes, then the remaining bytes classified
// as the trailer.
func Dissect(data []byte, parent pdu.PDU, session *dissect.Session) (pdu.PDU, error) {
	c := endian.NewCursor(data)
	dst, err := c.Mac()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	src, err := c.Mac()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	etype, err := c.U16BE()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	body := c.Remaining()

	e := &EthernetII{DstAddr: dst, SrcAddr: src, Ethertype: etype}

	var innerLen int
	if len(body) > 0 {
		inner, err := dissectBody(body, e, session, etype)
		if err != nil {
			return nil, err
		}
		pdu.SetInner(e, inner)
		innerLen = pdu.TotalLen(inner)
		if innerLen > len(body) {
			innerLen = len(body)
		}
	}
	e.Trailer = classifyTrailer(body[innerLen:], innerLen)
	return e, nil
}

// dissectBody dispatches body against the Ethertype table, then the
// heuristic table, falling back to raw bytes only when every candidate
// declined the data (ErrNoMatch). Any other error, fatal by construction,
// aborts dissection of the whole frame instead of masquerading as an
// unrecognized payload.
func dissectBody(body []byte, parent pdu.PDU, session *dissect.Session, etype uint16) (pdu.PDU, error) {
	inner, err := dissect.DissectTable[uint16](session, EthertypeTableName, etype, body, parent)
	if err == nil {
		return inner, nil
	}
	if !errors.Is(err, dissect.ErrNoMatch) {
		return nil, err
	}
	inner, err = dissect.DissectHeuristic(session, HeuristicTableName, body, parent)
	if err == nil {
		return inner, nil
	}
	if !errors.Is(err, dissect.ErrNoMatch) {
		return nil, err
	}
	return pdu.NewRaw(append([]byte(nil), body...)), nil
}

func classifyTrailer(trailer []byte, innerLen int) Trailer {
	autoLen := autoTrailerMin - innerLen
	if autoLen < 0 {
		autoLen = 0
	}
	if allZero(trailer) {
		if len(trailer) == autoLen {
			return AutoTrailer()
		}
		return ZerosTrailer(len(trailer))
	}
	return ManualTrailer(append([]byte(nil), trailer...))
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func dissectLinkType(data []byte, session *dissect.Session) (pdu.PDU, error) {
	p, err := Dissect(data, nil, session)
	if err != nil {
		return nil, fmt.Errorf("ethernet: %w", err)
	}
	return p, nil
}

func init() {
	dissect.RegisterTableSetup(func(s *dissect.Session) {
		dissect.RegisterTable(s, EthertypeTableName, dissect.NewKeyedTable[uint16]())
		dissect.RegisterTable(s, HeuristicTableName, dissect.NewHeuristicTable())
	})
	sniffle.RegisterLinkType(sniffle.LinkTypeEthernet, dissectLinkType, &EthernetII{})
}
