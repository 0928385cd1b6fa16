package pcapng

import (
	"strings"
	"time"

	"github.com/vociferix/sniffle"
)

// Block is implemented by every block type this package understands, plus
// UnknownBlock for any block type it doesn't. A Reader's NextBlock returns
// a Block; callers type-switch on the concrete type to handle each kind.
type Block interface {
	// Type returns the block's 32-bit type code.
	Type() uint32
}

// SectionHeaderBlock opens a new section and fixes the byte order the
// rest of the section is read in. Reading one resets a Reader's notion of
// "current section": interface IDs in Enhanced/Simple Packet Blocks and
// Interface Statistics Blocks are only valid within the section that
// defined them.
type SectionHeaderBlock struct {
	Major     uint16
	Minor     uint16
	Length    int64 // -1 if the writer didn't know it up front
	Options   OptionList
	BigEndian bool
}

func (b *SectionHeaderBlock) Type() uint32 { return BlockTypeSHB }

// InterfaceDescriptionBlock declares an interface a section's packet
// blocks can reference by index (the 0-based count of IDBs seen so far in
// the section). TSResol/TSOffset cache their option lookups the first
// time they're called, since every Enhanced Packet Block referencing this
// interface needs them to scale its timestamp.
type InterfaceDescriptionBlock struct {
	LinkType sniffle.LinkType
	SnapLen  uint32
	Options  OptionList

	tsresol  *uint8
	tsoffset *int64
}

func (b *InterfaceDescriptionBlock) Type() uint32 { return BlockTypeIDB }

// TSResol returns the interface's if_tsresol option, defaulting to 6
// (microseconds) when absent, matching the pcapng specification's default.
func (b *InterfaceDescriptionBlock) TSResol() uint8 {
	if b.tsresol == nil {
		v, ok := b.Options.U8(OptIfTSResol)
		if !ok {
			v = 6
		}
		b.tsresol = &v
	}
	return *b.tsresol
}

// TSOffset returns the interface's if_tsoffset option, defaulting to 0
// (timestamps are seconds-since-epoch already) when absent.
func (b *InterfaceDescriptionBlock) TSOffset() int64 {
	if b.tsoffset == nil {
		v, ok := b.Options.I64(OptIfTSOffset)
		if !ok {
			v = 0
		}
		b.tsoffset = &v
	}
	return *b.tsoffset
}

// EnhancedPacketBlock carries one captured packet along with the ID of
// the interface it was captured on. Timestamp is filled in by Reader
// using that interface's TSResol/TSOffset; it is nil until the Reader
// that produced this block has resolved it.
type EnhancedPacketBlock struct {
	InterfaceID   uint32
	TimestampHigh uint32
	TimestampLow  uint32
	CapturedLen   uint32
	OrigLen       uint32
	Data          []byte
	Options       OptionList

	// Timestamp is filled in by Reader.NextBlock, which knows the
	// declaring interface's TSResol/TSOffset; it is nil until then.
	Timestamp *time.Time
}

func (b *EnhancedPacketBlock) Type() uint32 { return BlockTypeEPB }

// RawTimestamp reassembles the block's 64-bit timestamp field from its
// high/low halves, in the interface's own tick units.
func (b *EnhancedPacketBlock) RawTimestamp() uint64 {
	return uint64(b.TimestampHigh)<<32 | uint64(b.TimestampLow)
}

// SimplePacketBlock carries one captured packet with no interface
// reference and no options, the pcapng spec's minimal packet record.
// SimplePacketBlocks are only valid in a section whose first (and only)
// interface has already been declared by an IDB.
type SimplePacketBlock struct {
	OrigLen uint32
	Data    []byte
}

func (b *SimplePacketBlock) Type() uint32 { return BlockTypeSPB }

// NRBRecord is one DNS-name-to-address record within a
// NameResolutionBlock.
type NRBRecord struct {
	Type  uint16
	Value []byte
}

// NameResolutionBlock carries a list of name/address records, terminated
// on the wire by a zero-type, zero-length record, which decodeOptions-
// style parsing strips before returning Records.
type NameResolutionBlock struct {
	Records []NRBRecord
	Options OptionList
}

func (b *NameResolutionBlock) Type() uint32 { return BlockTypeNRB }

// InterfaceStatisticsBlock carries capture statistics for one interface,
// snapshotted at Timestamp.
type InterfaceStatisticsBlock struct {
	InterfaceID   uint32
	TimestampHigh uint32
	TimestampLow  uint32
	Options       OptionList
}

func (b *InterfaceStatisticsBlock) Type() uint32 { return BlockTypeISB }

// RawTimestamp reassembles the block's 64-bit timestamp field.
func (b *InterfaceStatisticsBlock) RawTimestamp() uint64 {
	return uint64(b.TimestampHigh)<<32 | uint64(b.TimestampLow)
}

// DSBSecretsTypeTLSKeyLog identifies a DecryptionSecretsBlock's Data as an
// NSS-style TLS key log file, the one DSB payload the pcapng spec
// standardizes a text structure for.
const DSBSecretsTypeTLSKeyLog uint32 = 0x544C534B

// DecryptionSecretsBlock carries an opaque secrets blob tagged with a
// format identifier.
type DecryptionSecretsBlock struct {
	SecretsType uint32
	Data        []byte
	Options     OptionList
}

func (b *DecryptionSecretsBlock) Type() uint32 { return BlockTypeDSB }

// KeyLogLines splits a TLS-key-log DecryptionSecretsBlock's Data into its
// individual NSS-style lines. It returns nil if SecretsType isn't
// DSBSecretsTypeTLSKeyLog.
func (b *DecryptionSecretsBlock) KeyLogLines() []string {
	if b.SecretsType != DSBSecretsTypeTLSKeyLog {
		return nil
	}
	trimmed := strings.TrimRight(string(b.Data), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// SystemdJournalExportBlock carries one or more systemd journal export
// format entries verbatim; this module doesn't parse the journal export
// format itself, only preserves it.
type SystemdJournalExportBlock struct {
	Data []byte
}

func (b *SystemdJournalExportBlock) Type() uint32 { return BlockTypeSJB }

// UnknownBlock preserves a block of a type this package doesn't otherwise
// model, so a Reader/Writer pair round-trips a file containing block
// types this package has never heard of.
type UnknownBlock struct {
	BlockType uint32
	Data      []byte
}

func (b *UnknownBlock) Type() uint32 { return b.BlockType }
