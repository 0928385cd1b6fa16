package pcapng

import (
	"fmt"
	"net"

	"github.com/vociferix/sniffle/endian"
)

// Option is one code/value pair from a block's option list. Value is the
// raw, unpadded option payload; use the OptionList typed accessors to
// interpret it.
type Option struct {
	Code  uint16
	Value []byte
}

// OptionList is an ordered sequence of options, as they appear (or will
// appear) in a block, not including the terminating end-of-options
// marker.
type OptionList []Option

// decodeOptions reads an option list from data until it is exhausted or
// an end-of-options marker (code 0, length 0) is read. Each option's value
// is padded to a 4-byte boundary on the wire; decodeOptions strips that
// padding. The code/length fields are read in the block's own byte order;
// option values themselves (and everything Writer emits) are always
// little-endian, the convention virtually every real pcapng writer uses
// regardless of its block framing's declared byte order.
func decodeOptions(data []byte, bigEndian bool) (OptionList, error) {
	var opts OptionList
	c := endian.NewCursor(data)
	u16 := c.U16LE
	if bigEndian {
		u16 = c.U16BE
	}
	for c.Len() > 0 {
		code, err := u16()
		if err != nil {
			return nil, fmt.Errorf("pcapng: reading option code: %v", err)
		}
		length, err := u16()
		if err != nil {
			return nil, fmt.Errorf("pcapng: reading option length: %v", err)
		}
		if code == OptEndOfOpt && length == 0 {
			return opts, nil
		}
		value, err := c.CopyBytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("pcapng: reading option value: %v", err)
		}
		pad := (4 - int(length)%4) % 4
		if err := c.Advance(pad); err != nil {
			return nil, fmt.Errorf("pcapng: reading option padding: %v", err)
		}
		opts = append(opts, Option{Code: code, Value: value})
	}
	return opts, nil
}

// encode writes the option list to s, including the terminating
// end-of-options marker, padding every value to a 4-byte boundary.
func (opts OptionList) encode(s *endian.Sink) {
	for _, opt := range opts {
		s.PutU16LE(opt.Code)
		s.PutU16LE(uint16(len(opt.Value)))
		s.PutBytes(opt.Value)
		pad := (4 - len(opt.Value)%4) % 4
		s.PutZeros(pad)
	}
	s.PutU16LE(OptEndOfOpt)
	s.PutU16LE(0)
}

// Get returns the first option with the given code.
func (opts OptionList) Get(code uint16) (Option, bool) {
	for _, o := range opts {
		if o.Code == code {
			return o, true
		}
	}
	return Option{}, false
}

// All returns every option with the given code, in order.
func (opts OptionList) All(code uint16) []Option {
	var out []Option
	for _, o := range opts {
		if o.Code == code {
			out = append(out, o)
		}
	}
	return out
}

// String returns the first option with the given code, decoded as UTF-8
// text (the pcapng spec's convention for comment/name/description/os/
// hardware/user-application options).
func (opts OptionList) String(code uint16) (string, bool) {
	o, ok := opts.Get(code)
	if !ok {
		return "", false
	}
	return string(o.Value), true
}

// U8 returns the first option with the given code, decoded as a single
// byte.
func (opts OptionList) U8(code uint16) (uint8, bool) {
	o, ok := opts.Get(code)
	if !ok || len(o.Value) < 1 {
		return 0, false
	}
	return o.Value[0], true
}

// U32 returns the first option with the given code, decoded as a
// little-endian 32-bit unsigned integer.
func (opts OptionList) U32(code uint16) (uint32, bool) {
	o, ok := opts.Get(code)
	if !ok {
		return 0, false
	}
	v, err := endian.NewCursor(o.Value).U32LE()
	if err != nil {
		return 0, false
	}
	return v, true
}

// U64 returns the first option with the given code, decoded as a
// little-endian 64-bit unsigned integer.
func (opts OptionList) U64(code uint16) (uint64, bool) {
	o, ok := opts.Get(code)
	if !ok {
		return 0, false
	}
	v, err := endian.NewCursor(o.Value).U64LE()
	if err != nil {
		return 0, false
	}
	return v, true
}

// I64 returns the first option with the given code, decoded as a
// little-endian 64-bit signed integer.
func (opts OptionList) I64(code uint16) (int64, bool) {
	o, ok := opts.Get(code)
	if !ok {
		return 0, false
	}
	v, err := endian.NewCursor(o.Value).I64LE()
	if err != nil {
		return 0, false
	}
	return v, true
}

// IPv4Iface decodes an if_IPv4addr-shaped option (4-byte address followed
// by a 4-byte netmask) from the first option with the given code.
func (opts OptionList) IPv4Iface(code uint16) (addr net.IP, mask net.IPMask, ok bool) {
	o, found := opts.Get(code)
	if !found || len(o.Value) != 8 {
		return nil, nil, false
	}
	return net.IP(o.Value[:4]), net.IPMask(o.Value[4:]), true
}

// IPv6Iface decodes an if_IPv6addr-shaped option (16-byte address followed
// by a 1-byte prefix length) from the first option with the given code.
func (opts OptionList) IPv6Iface(code uint16) (addr net.IP, prefixLen uint8, ok bool) {
	o, found := opts.Get(code)
	if !found || len(o.Value) != 17 {
		return nil, 0, false
	}
	return net.IP(o.Value[:16]), o.Value[16], true
}

// Mac decodes a 6-byte hardware address from the first option with the
// given code.
func (opts OptionList) Mac(code uint16) (net.HardwareAddr, bool) {
	o, ok := opts.Get(code)
	if !ok || len(o.Value) != 6 {
		return nil, false
	}
	return net.HardwareAddr(o.Value), true
}

// AddString appends a UTF-8 text option.
func (opts OptionList) AddString(code uint16, s string) OptionList {
	return append(opts, Option{Code: code, Value: []byte(s)})
}

// AddU8 appends a single-byte option.
func (opts OptionList) AddU8(code uint16, v uint8) OptionList {
	return append(opts, Option{Code: code, Value: []byte{v}})
}

// AddU32 appends a little-endian 32-bit unsigned option.
func (opts OptionList) AddU32(code uint16, v uint32) OptionList {
	s := endian.NewSinkCap(4)
	s.PutU32LE(v)
	return append(opts, Option{Code: code, Value: s.Bytes()})
}

// AddI64 appends a little-endian 64-bit signed option.
func (opts OptionList) AddI64(code uint16, v int64) OptionList {
	s := endian.NewSinkCap(8)
	s.PutI64LE(v)
	return append(opts, Option{Code: code, Value: s.Bytes()})
}

// AddIPv4Iface appends an if_IPv4addr-shaped option.
func (opts OptionList) AddIPv4Iface(code uint16, addr net.IP, mask net.IPMask) OptionList {
	v := make([]byte, 0, 8)
	v = append(v, addr.To4()...)
	v = append(v, mask...)
	return append(opts, Option{Code: code, Value: v})
}

// AddIPv6Iface appends an if_IPv6addr-shaped option.
func (opts OptionList) AddIPv6Iface(code uint16, addr net.IP, prefixLen uint8) OptionList {
	v := make([]byte, 0, 17)
	v = append(v, addr.To16()...)
	v = append(v, prefixLen)
	return append(opts, Option{Code: code, Value: v})
}

// AddMac appends a 6-byte hardware address option.
func (opts OptionList) AddMac(code uint16, addr net.HardwareAddr) OptionList {
	return append(opts, Option{Code: code, Value: []byte(addr)})
}
