package ipv4

import (
	"github.com/vociferix/sniffle/bitpack"
	"github.com/vociferix/sniffle/endian"
)

// OptionType is an IPv4 option's one-byte type octet: copied flag (bit 7),
// option class (bits 6-5), and option number (bits 4-0), taken as a whole
// since most well-known options are more naturally identified by their
// combined octet value than by decomposing it.
type OptionType uint8

// Well-known IPv4 option types. Anything not listed here round-trips as a
// RawOption.
const (
	OptEOOL    OptionType = 0
	OptNOP     OptionType = 1
	OptSEC     OptionType = 130
	OptLSRR    OptionType = 131
	OptTS      OptionType = 68
	OptESEC    OptionType = 133
	OptCIPSO   OptionType = 134
	OptRR      OptionType = 7
	OptSID     OptionType = 136
	OptSSRR    OptionType = 137
	OptZSU     OptionType = 10
	OptMTUP    OptionType = 11
	OptMTUR    OptionType = 12
	OptFINN    OptionType = 205
	OptVISA    OptionType = 142
	OptENCODE  OptionType = 15
	OptIMITD   OptionType = 144
	OptEIP     OptionType = 145
	OptTR      OptionType = 82
	OptADDEXT  OptionType = 147
	OptRTRALT  OptionType = 148
	OptSDB     OptionType = 149
	OptDPS     OptionType = 151
	OptUMP     OptionType = 152
	OptQS      OptionType = 25
)

// Classification is the value carried by a Security option. Only eight bit
// patterns are standardized; anything else is preserved as its raw byte.
type Classification uint8

const (
	ClassificationReserved4    Classification = 0b00000001
	ClassificationTopSecret    Classification = 0b00111101
	ClassificationSecret       Classification = 0b01011010
	ClassificationConfidential Classification = 0b10010110
	ClassificationReserved3    Classification = 0b01100110
	ClassificationReserved2    Classification = 0b11001100
	ClassificationUnclassified Classification = 0b10101011
	ClassificationReserved1    Classification = 0b11110001
)

// TimestampFlag selects how a Timestamp option's entries are laid out.
type TimestampFlag uint8

const (
	TimestampFlagTsOnly            TimestampFlag = 0
	TimestampFlagAddrAndTs         TimestampFlag = 1
	TimestampFlagPrespecifiedAddrs TimestampFlag = 3
)

// TimestampEntry is one 4-byte slot of a Timestamp option: a
// millisecond-since-midnight-UTC timestamp in Time, or, when HasAddr is
// set, an address in Addr. With the address-carrying flags, each address
// entry is followed by a separate timestamp entry.
type TimestampEntry struct {
	HasAddr bool
	Addr    [4]byte
	Time    uint32
}

// Option is implemented by every IPv4 option value, typed or raw.
type Option interface {
	OptionType() OptionType
}

// EOOLOption is the End of Options List marker: a single type byte, no
// length, no value.
type EOOLOption struct{}

func (EOOLOption) OptionType() OptionType { return OptEOOL }

// NOPOption is the No Operation padding option: a single type byte, no
// length, no value.
type NOPOption struct{}

func (NOPOption) OptionType() OptionType { return OptNOP }

// BasicSecurity is the Security option (type 130).
type BasicSecurity struct {
	Classification Classification
	Authority      []byte
}

func (BasicSecurity) OptionType() OptionType { return OptSEC }

// ExtendedSecurity is the Extended Security option (type 133).
type ExtendedSecurity struct {
	Format  uint8
	SecInfo []byte
}

func (ExtendedSecurity) OptionType() OptionType { return OptESEC }

// RouteRecord is shared by the Loose Source Route (131), Record Route (7),
// and Strict Source Route (137) options, which differ only in semantics,
// not wire shape: a pointer byte followed by a list of IPv4 addresses.
type RouteRecord struct {
	Kind    OptionType
	Pointer uint8
	Routes  [][4]byte
}

func (r RouteRecord) OptionType() OptionType { return r.Kind }

// Timestamp is the Internet Timestamp option (type 68).
type Timestamp struct {
	Pointer  uint8
	Overflow uint8
	Flag     TimestampFlag
	Entries  []TimestampEntry
}

func (Timestamp) OptionType() OptionType { return OptTS }

// StreamID is the Stream ID option (type 136).
type StreamID struct {
	ID uint16
}

func (StreamID) OptionType() OptionType { return OptSID }

// MTU is shared by the MTU Probe (11) and MTU Reply (12) options, each a
// bare 16-bit value.
type MTU struct {
	Kind  OptionType
	Value uint16
}

func (m MTU) OptionType() OptionType { return m.Kind }

// Traceroute is the Traceroute option (type 82).
type Traceroute struct {
	ID          uint16
	OutHops     uint16
	ReturnHops  uint16
	OrigAddr    [4]byte
}

func (Traceroute) OptionType() OptionType { return OptTR }

// RouterAlert is the Router Alert option (type 148).
type RouterAlert struct {
	Value uint16
}

func (RouterAlert) OptionType() OptionType { return OptRTRALT }

// QuickStart is the Quick-Start option (type 25).
type QuickStart struct {
	Func    uint8
	RateReq uint8
	TTL     uint8
	Nonce   uint32
}

func (QuickStart) OptionType() OptionType { return OptQS }

// OpaqueOption covers the well-known options whose value this module has
// no typed structure for beyond "a block of bytes belonging to a known
// option number" (CIPSO, ZSU, FINN, VISA, ENCODE, IMITD, EIP, AddExt, SDB,
// DPS, UMP).
type OpaqueOption struct {
	Kind OptionType
	Data []byte
}

func (o OpaqueOption) OptionType() OptionType { return o.Kind }

// RawOption is the fallback for option types this package does not
// recognize, or whose declared length didn't leave enough bytes to parse.
// HasLen is false only for EOOL/NOP-shaped single-byte unknown options, or
// an option truncated before its length byte.
type RawOption struct {
	Kind   OptionType
	HasLen bool
	Len    uint8
	Data   []byte
}

func (o RawOption) OptionType() OptionType { return o.Kind }

// optionValueLen returns the option's value length (excluding the type and
// length octets) and whether it carries a length octet at all. Only
// EOOL/NOP lack one.
func optionValueLen(o Option) (n int, hasLen bool) {
	switch v := o.(type) {
	case EOOLOption, NOPOption:
		return 0, false
	case BasicSecurity:
		return 1 + len(v.Authority), true
	case ExtendedSecurity:
		return 1 + len(v.SecInfo), true
	case RouteRecord:
		return 1 + len(v.Routes)*4, true
	case Timestamp:
		return 2 + len(v.Entries)*4, true
	case StreamID:
		return 2, true
	case MTU:
		return 2, true
	case Traceroute:
		return 10, true
	case RouterAlert:
		return 2, true
	case QuickStart:
		return 6, true
	case OpaqueOption:
		return len(v.Data), true
	default:
		return 0, true
	}
}

// optionLengthByte maps a value length to the wire length octet: n+2,
// saturating at 255 if that would overflow a byte.
func optionLengthByte(n int) uint8 {
	if n > 253 {
		return 255
	}
	return uint8(n + 2)
}

// optionActualLen is the true number of bytes an option occupies on the
// wire, used for header-length and auto-padding accounting. It differs
// from optionLengthByte only for the pathological case of a value longer
// than 253 bytes, where the wire length octet saturates but the real byte
// count does not.
func optionActualLen(o Option) int {
	if raw, ok := o.(RawOption); ok {
		if !raw.HasLen && len(raw.Data) == 0 {
			return 1
		}
		return 2 + len(raw.Data)
	}
	switch o.(type) {
	case EOOLOption, NOPOption:
		return 1
	}
	n, _ := optionValueLen(o)
	return n + 2
}

func encodeOptionValue(o Option, s *endian.Sink) {
	switch v := o.(type) {
	case BasicSecurity:
		s.PutU8(uint8(v.Classification))
		s.PutBytes(v.Authority)
	case ExtendedSecurity:
		s.PutU8(v.Format)
		s.PutBytes(v.SecInfo)
	case RouteRecord:
		s.PutU8(v.Pointer)
		for _, addr := range v.Routes {
			s.PutBytes(addr[:])
		}
	case Timestamp:
		of := bitpack.Pack64(bitpack.F(4, uint64(v.Overflow)), bitpack.F(4, uint64(v.Flag)))
		s.PutU8(v.Pointer)
		s.PutU8(uint8(of))
		for _, e := range v.Entries {
			if e.HasAddr {
				s.PutBytes(e.Addr[:])
			} else {
				s.PutU32BE(e.Time)
			}
		}
	case StreamID:
		s.PutU16BE(v.ID)
	case MTU:
		s.PutU16BE(v.Value)
	case Traceroute:
		s.PutU16BE(v.ID)
		s.PutU16BE(v.OutHops)
		s.PutU16BE(v.ReturnHops)
		s.PutBytes(v.OrigAddr[:])
	case RouterAlert:
		s.PutU16BE(v.Value)
	case QuickStart:
		frr := bitpack.Pack64(bitpack.F(4, uint64(v.Func)), bitpack.F(4, uint64(v.RateReq)))
		s.PutU8(uint8(frr))
		s.PutU8(v.TTL)
		nr := bitpack.Pack64(bitpack.F(30, uint64(v.Nonce)), bitpack.F(2, 0))
		s.PutU32BE(uint32(nr))
	case OpaqueOption:
		s.PutBytes(v.Data)
	}
}

// serializeOption writes one option's full wire representation: type
// octet, length octet (if any), and value.
func serializeOption(o Option, s *endian.Sink) {
	if raw, ok := o.(RawOption); ok {
		s.PutU8(uint8(raw.Kind))
		if raw.HasLen {
			s.PutU8(raw.Len)
		}
		s.PutBytes(raw.Data)
		return
	}
	s.PutU8(uint8(o.OptionType()))
	n, hasLen := optionValueLen(o)
	if hasLen {
		s.PutU8(optionLengthByte(n))
		encodeOptionValue(o, s)
	}
}

// decodeOptions parses the option-and-padding area of an IPv4 header
// (everything after the fixed 20 bytes), stopping option decoding at an
// EOOL option, then classifying whatever bytes remain as automatic or
// manual padding.
func decodeOptions(buf []byte) ([]Option, Padding) {
	c := endian.NewCursor(buf)
	var opts []Option
	for c.Len() > 0 {
		opt := decodeOption(c)
		opts = append(opts, opt)
		if opt.OptionType() == OptEOOL {
			break
		}
	}
	padding := c.Remaining()
	optsLen := c.Pos()
	autoLen := (4 - optsLen%4) % 4
	pad := Padding{Kind: PaddingManual, Data: append([]byte(nil), padding...)}
	if len(padding) == autoLen && allZero(padding) {
		pad = Padding{Kind: PaddingAuto}
	}
	return opts, pad
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func decodeOption(c *endian.Cursor) Option {
	typeByte, err := c.U8()
	if err != nil {
		return RawOption{}
	}
	ot := OptionType(typeByte)
	if ot == OptEOOL {
		return EOOLOption{}
	}
	if ot == OptNOP {
		return NOPOption{}
	}

	length, err := c.U8()
	if err != nil {
		return RawOption{Kind: ot, HasLen: false}
	}
	valLen := int(length) - 2
	if valLen < 0 {
		valLen = 0
	}
	val, err := c.Bytes(valLen)
	if err != nil {
		rest, _ := c.Bytes(c.Len())
		return RawOption{Kind: ot, HasLen: true, Len: length, Data: append([]byte(nil), rest...)}
	}

	switch ot {
	case OptSEC:
		if len(val) < 1 {
			break
		}
		return BasicSecurity{Classification: Classification(val[0]), Authority: append([]byte(nil), val[1:]...)}
	case OptESEC:
		if len(val) < 1 {
			break
		}
		return ExtendedSecurity{Format: val[0], SecInfo: append([]byte(nil), val[1:]...)}
	case OptLSRR, OptRR, OptSSRR:
		if len(val) < 1 {
			break
		}
		rr := RouteRecord{Kind: ot, Pointer: val[0]}
		rest := val[1:]
		for len(rest) >= 4 {
			var addr [4]byte
			copy(addr[:], rest[:4])
			rr.Routes = append(rr.Routes, addr)
			rest = rest[4:]
		}
		return rr
	case OptTS:
		if len(val) < 2 {
			break
		}
		fields := bitpack.Unpack64(uint64(val[1]), 4, 4)
		ts := Timestamp{
			Pointer:  val[0],
			Overflow: uint8(fields[0]),
			Flag:     TimestampFlag(fields[1]),
		}
		rest := val[2:]
		switch ts.Flag {
		case TimestampFlagAddrAndTs, TimestampFlagPrespecifiedAddrs:
			for len(rest) >= 8 {
				var addr [4]byte
				copy(addr[:], rest[:4])
				ms := uint32(rest[4])<<24 | uint32(rest[5])<<16 | uint32(rest[6])<<8 | uint32(rest[7])
				ts.Entries = append(ts.Entries, TimestampEntry{HasAddr: true, Addr: addr}, TimestampEntry{Time: ms})
				rest = rest[8:]
			}
		default:
			for len(rest) >= 4 {
				ms := uint32(rest[0])<<24 | uint32(rest[1])<<16 | uint32(rest[2])<<8 | uint32(rest[3])
				ts.Entries = append(ts.Entries, TimestampEntry{Time: ms})
				rest = rest[4:]
			}
		}
		return ts
	case OptSID:
		if len(val) != 2 {
			break
		}
		return StreamID{ID: uint16(val[0])<<8 | uint16(val[1])}
	case OptMTUP, OptMTUR:
		if len(val) != 2 {
			break
		}
		return MTU{Kind: ot, Value: uint16(val[0])<<8 | uint16(val[1])}
	case OptTR:
		if len(val) != 10 {
			break
		}
		var orig [4]byte
		copy(orig[:], val[6:10])
		return Traceroute{
			ID:         uint16(val[0])<<8 | uint16(val[1]),
			OutHops:    uint16(val[2])<<8 | uint16(val[3]),
			ReturnHops: uint16(val[4])<<8 | uint16(val[5]),
			OrigAddr:   orig,
		}
	case OptRTRALT:
		if len(val) != 2 {
			break
		}
		return RouterAlert{Value: uint16(val[0])<<8 | uint16(val[1])}
	case OptQS:
		if len(val) != 6 {
			break
		}
		frr := bitpack.Unpack64(uint64(val[0]), 4, 4)
		nr := uint32(val[2])<<24 | uint32(val[3])<<16 | uint32(val[4])<<8 | uint32(val[5])
		nonce := bitpack.Unpack64(uint64(nr), 30, 2)
		return QuickStart{Func: uint8(frr[0]), RateReq: uint8(frr[1]), TTL: val[1], Nonce: uint32(nonce[0])}
	case OptCIPSO, OptZSU, OptFINN, OptVISA, OptENCODE, OptIMITD, OptEIP, OptADDEXT, OptSDB, OptDPS, OptUMP:
		return OpaqueOption{Kind: ot, Data: append([]byte(nil), val...)}
	}
	return RawOption{Kind: ot, HasLen: true, Len: length, Data: append([]byte(nil), val...)}
}
