// Package pcapng reads and writes the pcapng capture file format: a
// sequence of self-describing, length-framed blocks (type | length | body
// | length) grouped into sections, each section opened by a Section
// Header Block that fixes the byte order the rest of the section is
// written in.
package pcapng

import "errors"

// Block type codes, as assigned by the pcapng specification.
const (
	BlockTypeSHB uint32 = 0x0A0D0D0A
	BlockTypeIDB uint32 = 0x00000001
	BlockTypePKT uint32 = 0x00000002 // obsolete Packet Block, read-only passthrough
	BlockTypeSPB uint32 = 0x00000003
	BlockTypeNRB uint32 = 0x00000004
	BlockTypeISB uint32 = 0x00000005
	BlockTypeEPB uint32 = 0x00000006
	BlockTypeSJB uint32 = 0x00000009
	BlockTypeDSB uint32 = 0x0000000A
)

// ByteOrderMagic is the 32-bit value every Section Header Block starts
// with, written so that reading it back in the section's own byte order
// always yields this constant; reading it in the wrong order yields its
// byte-swapped form, which is how a reader detects the section's byte
// order.
const ByteOrderMagic uint32 = 0x1A2B3C4D

// Option codes shared by every block's option list.
const (
	OptEndOfOpt uint16 = 0
	OptComment  uint16 = 1
)

// Option codes specific to an Interface Description Block.
const (
	OptIfName       uint16 = 2
	OptIfDescr      uint16 = 3
	OptIfIPv4Addr   uint16 = 4
	OptIfIPv6Addr   uint16 = 5
	OptIfMACAddr    uint16 = 6
	OptIfEUIAddr    uint16 = 7
	OptIfSpeed      uint16 = 8
	OptIfTSResol    uint16 = 9
	OptIfTZone      uint16 = 10
	OptIfFilter     uint16 = 11
	OptIfOS         uint16 = 12
	OptIfFCSLen     uint16 = 13
	OptIfTSOffset   uint16 = 14
	OptIfHardware   uint16 = 15
)

// Option codes specific to a Section Header Block.
const (
	OptSHBHardware uint16 = 2
	OptSHBOS       uint16 = 3
	OptSHBUserAppl uint16 = 4
)

// Option codes specific to an Enhanced/Simple Packet Block.
const (
	OptEPBFlags    uint16 = 2
	OptEPBHash     uint16 = 3
	OptEPBDropCnt  uint16 = 4
	OptEPBPacketID uint16 = 5
	OptEPBQueue    uint16 = 6
	OptEPBVerdict  uint16 = 7
)

const blockFramingLen = 12 // type(4) + length(4) ... length(4)

var (
	// ErrTruncated is returned when a block's declared length runs past
	// the data actually available.
	ErrTruncated = errors.New("pcapng: truncated block")

	// ErrLengthMismatch is returned when a block's leading and trailing
	// length fields disagree.
	ErrLengthMismatch = errors.New("pcapng: block length fields disagree")

	// ErrBadSHB is returned when a Section Header Block's byte-order
	// magic doesn't match either endianness.
	ErrBadSHB = errors.New("pcapng: bad section header byte-order magic")

	// ErrNoSection is returned by the Reader when a non-SHB block is
	// encountered before any Section Header Block has been read.
	ErrNoSection = errors.New("pcapng: block encountered before any section header")

	// ErrUnknownInterface is returned (wrapped) when a Simple Packet Block
	// appears before any Interface Description Block in the current
	// section. An Enhanced Packet Block whose interface ID no prior IDB
	// declared is returned without error, with a nil Timestamp.
	ErrUnknownInterface = errors.New("pcapng: unknown interface id")

	// ErrNoOpenBlock is returned by Writer.WriteBody/EndBlock when no
	// block is currently open.
	ErrNoOpenBlock = errors.New("pcapng: no open block")

	// ErrOpenBlock is returned by Writer.Finalize when a block was begun
	// with BeginBlock but never closed with EndBlock.
	ErrOpenBlock = errors.New("pcapng: writer finalized with an open block")
)
