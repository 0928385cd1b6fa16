// Package ipv4 implements the IPv4 network-layer PDU, the second of this
// module's two worked dissector examples (the other is protocols/ethernet).
// Beyond the fixed 20-byte header it demonstrates option TLV parsing,
// bit-packed sub-byte fields (via the bitpack package), and a checksum that
// MakeCanonical recomputes from the rest of the header.
package ipv4

import (
	"errors"
	"fmt"

	"github.com/vociferix/sniffle/bitpack"
	"github.com/vociferix/sniffle/dissect"
	"github.com/vociferix/sniffle/endian"
	"github.com/vociferix/sniffle/pdu"
	"github.com/vociferix/sniffle/protocols/ethernet"
)

// IPProtoTableName is the session table Dissectors for a particular IP
// protocol number register into.
const IPProtoTableName = "ipv4.proto"

// HeuristicTableName is the session table consulted when no protocol
// dissector claims an IPv4 payload.
const HeuristicTableName = "ipv4.heuristic"

// Well-known IP protocol numbers this package cares about directly.
// Higher-layer packages register their own constants alongside their
// dissectors.
const (
	ProtoICMP uint8 = 1
	ProtoTCP  uint8 = 6
	ProtoUDP  uint8 = 17
)

const minHeaderLen = 20

// PaddingKind distinguishes how an IPv4's option-area padding was
// classified during dissection.
type PaddingKind int

const (
	// PaddingAuto means the padding is exactly the zero bytes needed to
	// round the option area up to a 4-byte boundary, and will be
	// regenerated automatically on serialization.
	PaddingAuto PaddingKind = iota
	// PaddingManual means the padding bytes are preserved verbatim,
	// either because they're non-zero or because there were too many of
	// them to be alignment padding.
	PaddingManual
)

// Padding is the bytes (if any) following an IPv4's option list, up to the
// header length.
type Padding struct {
	Kind PaddingKind
	Data []byte // verbatim bytes, valid when Kind == PaddingManual
}

// IPv4 is the IPv4 network-layer PDU.
type IPv4 struct {
	pdu.Base
	Version        uint8
	IHL            uint8
	DSCP           uint8
	ECN            uint8
	TotalLength    uint16
	Identification uint16
	Flags          uint8
	FragmentOffset uint16
	TTL            uint8
	Protocol       uint8
	Checksum       uint16
	SrcAddr        [4]byte
	DstAddr        [4]byte
	Options        []Option
	Padding        Padding
}

// NewIPv4 returns an IPv4 with version 4, automatic header length, total
// length, protocol, and checksum (all recomputed by MakeCanonical).
func NewIPv4(src, dst [4]byte) *IPv4 {
	return &IPv4{Version: 4, IHL: 5, TTL: 64, SrcAddr: src, DstAddr: dst, Padding: Padding{Kind: PaddingAuto}}
}

func (ip *IPv4) optsLen() int {
	n := 0
	for _, o := range ip.Options {
		n += optionActualLen(o)
	}
	return n
}

func (ip *IPv4) autoPaddingLen() int {
	n := ip.optsLen()
	rem := n % 4
	if rem == 0 {
		return 0
	}
	return 4 - rem
}

func (ip *IPv4) paddingBytes() []byte {
	switch ip.Padding.Kind {
	case PaddingManual:
		return ip.Padding.Data
	default:
		return make([]byte, ip.autoPaddingLen())
	}
}

func (ip *IPv4) HeaderLen() int {
	return minHeaderLen + ip.optsLen() + len(ip.paddingBytes())
}

func (ip *IPv4) TrailerLen() int { return 0 }

func (ip *IPv4) SerializeHeader(s *endian.Sink) error {
	verIHL := bitpack.Pack64(bitpack.F(4, uint64(ip.Version)), bitpack.F(4, uint64(ip.IHL)))
	dscpEcn := bitpack.Pack64(bitpack.F(6, uint64(ip.DSCP)), bitpack.F(2, uint64(ip.ECN)))
	flagsFrag := bitpack.Pack64(bitpack.F(3, uint64(ip.Flags)), bitpack.F(13, uint64(ip.FragmentOffset)))

	s.PutU8(uint8(verIHL))
	s.PutU8(uint8(dscpEcn))
	s.PutU16BE(ip.TotalLength)
	s.PutU16BE(ip.Identification)
	s.PutU16BE(uint16(flagsFrag))
	s.PutU8(ip.TTL)
	s.PutU8(ip.Protocol)
	s.PutU16BE(ip.Checksum)
	s.PutBytes(ip.SrcAddr[:])
	s.PutBytes(ip.DstAddr[:])
	for _, o := range ip.Options {
		serializeOption(o, s)
	}
	s.PutBytes(ip.paddingBytes())
	return nil
}

func (ip *IPv4) SerializeTrailer(s *endian.Sink) error { return nil }

// MakeCanonical resets padding to automatic, fixes the version field,
// recomputes IHL and total length from the actual header/payload sizes
// (clamping IHL to its 4-bit maximum and total length to its 16-bit
// maximum rather than overflowing), recomputes the protocol field from
// the inner PDU's registered IP protocol number, and recomputes the
// header checksum last, once every other field is final.
func (ip *IPv4) MakeCanonical() {
	ip.Padding = Padding{Kind: PaddingAuto}
	ip.Version = 4

	ihl := ip.HeaderLen() / 4
	if ihl > 15 {
		ihl = 15
	}
	ip.IHL = uint8(ihl)

	total := ip.HeaderLen()
	if inner := ip.Inner(); inner != nil {
		total += pdu.TotalLen(inner)
	}
	if total > 65535 {
		total = 65535
	}
	ip.TotalLength = uint16(total)

	if inner := ip.Inner(); inner != nil {
		if proto, ok := IPProtoOf(inner); ok {
			ip.Protocol = proto
		}
	}

	ip.Checksum = 0
	s := endian.NewSink()
	ip.SerializeHeader(s)
	ip.Checksum = onesComplementChecksum(s.Bytes())
}

func (ip *IPv4) Clone() pdu.PDU {
	c := *ip
	c.Base = pdu.Base{}
	c.Options = append([]Option(nil), ip.Options...)
	if ip.Padding.Kind == PaddingManual {
		c.Padding.Data = append([]byte(nil), ip.Padding.Data...)
	}
	return &c
}

// onesComplementChecksum computes the Internet checksum (RFC 791 §3.1)
// over buf: the one's-complement sum of 16-bit big-endian words, with
// carries folded back in and the final sum complemented.
func onesComplementChecksum(buf []byte) uint16 {
	var sum uint32
	n := len(buf)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(buf[i])<<8 | uint32(buf[i+1])
	}
	if n%2 == 1 {
		sum += uint32(buf[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}

// Dissect parses data as an IPv4 packet: the fixed 20-byte header, any
// options and padding up to IHL*4 bytes, then the payload bounded by
// TotalLength (or the buffer's own length, whichever is shorter, since a
// capture may have truncated the frame) and dispatched first against the
// protocol table, then the heuristic table, then as raw bytes. Any bytes
// between the inner PDU's consumed length and the TotalLength/buffer
// bound are attached as a raw-bytes PDU nested inside the inner PDU,
// rather than dropped.
func Dissect(data []byte, parent pdu.PDU, session *dissect.Session) (pdu.PDU, error) {
	c := endian.NewCursor(data)

	b0, err := c.U8()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	vh := bitpack.Unpack64(uint64(b0), 4, 4)
	version, ihl := uint8(vh[0]), uint8(vh[1])
	if ihl < 5 {
		return nil, dissect.Fatal(fmt.Errorf("ipv4: header length %d below minimum", ihl))
	}

	b1, err := c.U8()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	de := bitpack.Unpack64(uint64(b1), 6, 2)

	totalLen, err := c.U16BE()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	ident, err := c.U16BE()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	ff, err := c.U16BE()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	flagsFrag := bitpack.Unpack64(uint64(ff), 3, 13)

	ttl, err := c.U8()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	proto, err := c.U8()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	checksum, err := c.U16BE()
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	srcB, err := c.Bytes(4)
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	var src, dst [4]byte
	copy(src[:], srcB)
	dstB, err := c.Bytes(4)
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	copy(dst[:], dstB)

	optsAndPadLen := int(ihl)*4 - minHeaderLen
	optsAndPad, err := c.Bytes(optsAndPadLen)
	if err != nil {
		return nil, dissect.Recoverable(err)
	}
	opts, padding := decodeOptions(optsAndPad)

	ip := &IPv4{
		Version:        version,
		IHL:            ihl,
		DSCP:           uint8(de[0]),
		ECN:            uint8(de[1]),
		TotalLength:    totalLen,
		Identification: ident,
		Flags:          uint8(flagsFrag[0]),
		FragmentOffset: uint16(flagsFrag[1]),
		TTL:            ttl,
		Protocol:       proto,
		Checksum:       checksum,
		SrcAddr:        src,
		DstAddr:        dst,
		Options:        opts,
		Padding:        padding,
	}

	payloadBound := int(totalLen) - int(ihl)*4
	available := c.Len()
	if payloadBound < 0 || payloadBound > available {
		payloadBound = available
	}
	payload, _ := c.Bytes(payloadBound)

	if len(payload) > 0 {
		inner, err := dissectPayload(payload, ip, session, proto)
		if err != nil {
			return nil, err
		}
		pdu.SetInner(ip, inner)
		consumed := pdu.TotalLen(inner)
		if consumed > len(payload) {
			consumed = len(payload)
		}
		if leftover := payload[consumed:]; len(leftover) > 0 {
			attachLeftover(inner, leftover)
		}
	}

	return ip, nil
}

// attachLeftover finds the deepest PDU in p's inner chain that has no
// inner of its own, and attaches leftover as a raw-bytes PDU there, so
// bytes beyond what any dissector claimed are preserved rather than
// discarded.
func attachLeftover(p pdu.PDU, leftover []byte) {
	deepest := p
	for {
		next := deepest.Base().Inner()
		if next == nil {
			break
		}
		deepest = next
	}
	pdu.SetInner(deepest, pdu.NewRaw(append([]byte(nil), leftover...)))
}

// dissectPayload dispatches payload against the protocol table, then the
// heuristic table, falling back to raw bytes only when every candidate
// declined the data (ErrNoMatch). Any other error, fatal by construction,
// aborts dissection of the whole packet instead of masquerading as an
// unrecognized payload.
func dissectPayload(payload []byte, parent pdu.PDU, session *dissect.Session, proto uint8) (pdu.PDU, error) {
	inner, err := dissect.DissectTable[uint8](session, IPProtoTableName, proto, payload, parent)
	if err == nil {
		return inner, nil
	}
	if !errors.Is(err, dissect.ErrNoMatch) {
		return nil, err
	}
	inner, err = dissect.DissectHeuristic(session, HeuristicTableName, payload, parent)
	if err == nil {
		return inner, nil
	}
	if !errors.Is(err, dissect.ErrNoMatch) {
		return nil, err
	}
	return pdu.NewRaw(append([]byte(nil), payload...)), nil
}

func dissectEthertype(data []byte, parent pdu.PDU, session *dissect.Session) (pdu.PDU, error) {
	p, err := Dissect(data, parent, session)
	if err != nil {
		return nil, fmt.Errorf("ipv4: %w", err)
	}
	return p, nil
}

func init() {
	dissect.RegisterTableSetup(func(s *dissect.Session) {
		dissect.RegisterTable(s, IPProtoTableName, dissect.NewKeyedTable[uint8]())
		dissect.RegisterTable(s, HeuristicTableName, dissect.NewHeuristicTable())
	})
	dissect.RegisterDissectSetup(func(s *dissect.Session) {
		if table, ok := dissect.GetTable[*dissect.KeyedTable[uint16]](s, ethernet.EthertypeTableName); ok {
			table.Register(ethernet.EthertypeIPv4, 0, dissectEthertype)
		}
	})
	ethernet.RegisterEthertype(&IPv4{}, ethernet.EthertypeIPv4)
}
