// Package pcap reads and writes the legacy pcap capture file format: a
// 24-byte file header followed by a sequence of 16-byte record headers
// each immediately followed by that record's captured bytes.
package pcap

import "errors"

// Magic numbers identify both the file as pcap and the timestamp
// resolution and byte order the rest of the header uses: reading the four
// magic bytes as-is against these constants tells a reader which byte
// order the rest of the file was written in.
const (
	MagicMicro uint32 = 0xa1b2c3d4 // sub-second field is microseconds
	MagicNano  uint32 = 0xa1b23c4d // sub-second field is nanoseconds
)

const (
	// FileHeaderLen is the size in bytes of the pcap file header.
	FileHeaderLen = 24
	// RecordHeaderLen is the size in bytes of a pcap per-packet record
	// header.
	RecordHeaderLen = 16
	// DefaultSnapLen is used by Writer when the caller doesn't specify
	// one; it is large enough to never truncate ordinary captures.
	DefaultSnapLen = 262144
)

// ErrBadMagic is returned by Reader when the first four bytes of a file
// don't match any known pcap magic number.
var ErrBadMagic = errors.New("pcap: bad magic number")

// ErrLinkTypeMismatch is returned by Writer.WriteRaw when a packet's
// LinkType doesn't match the LinkType the file was opened with. A legacy
// pcap file has one link type for the whole file; pcapng is the format to
// reach for when a capture mixes link types.
var ErrLinkTypeMismatch = errors.New("pcap: packet link type does not match file link type")

// ErrAlreadyOpen is returned by Writer's configuration setters once the
// file header has already been written, which happens the moment the
// first packet is written and its link type becomes fixed for the file.
var ErrAlreadyOpen = errors.New("pcap: writer already wrote its file header")

// ErrNoLinkType is returned by Writer.WritePacket when the packet's root
// PDU type isn't registered in the link-type registry, so the writer has
// no LinkType to open the file with.
var ErrNoLinkType = errors.New("pcap: packet's root PDU has no registered link type")

// ErrExceedsSnapLen is returned by Writer.WriteRaw/WritePacket when a
// packet's serialized length is larger than the file's snap length. A
// legacy pcap file has no per-record flag for "this record was truncated
// by the capturing process" the way pcapng does, so silently slicing the
// data would misrepresent a packet the caller never asked to truncate.
var ErrExceedsSnapLen = errors.New("pcap: packet data exceeds snap length")
