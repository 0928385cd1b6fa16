package pcapng

import (
	"fmt"
	"io"

	"github.com/vociferix/sniffle"
	"github.com/vociferix/sniffle/endian"
)

// Reader pulls blocks from a pcapng stream, tracking enough per-section
// state (byte order, declared interfaces) to make sense of blocks that
// reference an interface by index. NextBlock returns io.EOF, unwrapped,
// once the stream ends cleanly between blocks.
type Reader struct {
	r           io.Reader
	bigEndian   bool
	haveSection bool
	ifaces      []*InterfaceDescriptionBlock
}

// NewReader returns a Reader over r. The first call to NextBlock must
// read a Section Header Block; any other block type there is an error.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) u16(c *endian.Cursor) (uint16, error) {
	if r.bigEndian {
		return c.U16BE()
	}
	return c.U16LE()
}

func (r *Reader) u32(c *endian.Cursor) (uint32, error) {
	if r.bigEndian {
		return c.U32BE()
	}
	return c.U32LE()
}

// NextBlock reads and decodes the next block in the stream.
func (r *Reader) NextBlock() (Block, error) {
	typeBuf := make([]byte, 4)
	if _, err := io.ReadFull(r.r, typeBuf); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("pcapng: reading block type: %v", err)
	}

	// BlockTypeSHB's bytes (0x0A 0x0D 0x0D 0x0A) read the same value in
	// either byte order, so probing for it doesn't require already
	// knowing the section's order.
	probablyBlockType, _ := endian.NewCursor(typeBuf).U32BE()
	if probablyBlockType == BlockTypeSHB {
		return r.readSHB()
	}
	if !r.haveSection {
		return nil, ErrNoSection
	}

	blockType, _ := r.u32(endian.NewCursor(typeBuf))

	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r.r, lenBuf); err != nil {
		return nil, fmt.Errorf("pcapng: reading block length: %v", err)
	}
	totalLen, _ := r.u32(endian.NewCursor(lenBuf))
	if totalLen < blockFramingLen || totalLen%4 != 0 {
		return nil, fmt.Errorf("pcapng: invalid block length %d", totalLen)
	}

	body := make([]byte, int(totalLen)-blockFramingLen)
	if _, err := io.ReadFull(r.r, body); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("pcapng: reading block body: %w", ErrTruncated)
		}
		return nil, fmt.Errorf("pcapng: reading block body: %v", err)
	}

	trailerBuf := make([]byte, 4)
	if _, err := io.ReadFull(r.r, trailerBuf); err != nil {
		return nil, fmt.Errorf("pcapng: reading block trailer length: %v", err)
	}
	trailerLen, _ := r.u32(endian.NewCursor(trailerBuf))
	if trailerLen != totalLen {
		return nil, ErrLengthMismatch
	}

	return r.decodeBlock(blockType, body)
}

func (r *Reader) readSHB() (Block, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r.r, lenBuf); err != nil {
		return nil, fmt.Errorf("pcapng: reading SHB length: %v", err)
	}
	magicBuf := make([]byte, 4)
	if _, err := io.ReadFull(r.r, magicBuf); err != nil {
		return nil, fmt.Errorf("pcapng: reading SHB magic: %v", err)
	}

	magicBE, _ := endian.NewCursor(magicBuf).U32BE()
	magicLE, _ := endian.NewCursor(magicBuf).U32LE()

	var bigEndian bool
	switch ByteOrderMagic {
	case magicBE:
		bigEndian = true
	case magicLE:
		bigEndian = false
	default:
		return nil, ErrBadSHB
	}

	var totalLen uint32
	if bigEndian {
		totalLen, _ = endian.NewCursor(lenBuf).U32BE()
	} else {
		totalLen, _ = endian.NewCursor(lenBuf).U32LE()
	}
	if totalLen < 16 || totalLen%4 != 0 {
		return nil, fmt.Errorf("pcapng: invalid SHB length %d", totalLen)
	}

	rest := make([]byte, int(totalLen)-16)
	if _, err := io.ReadFull(r.r, rest); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("pcapng: reading SHB body: %w", ErrTruncated)
		}
		return nil, fmt.Errorf("pcapng: reading SHB body: %v", err)
	}

	trailerBuf := make([]byte, 4)
	if _, err := io.ReadFull(r.r, trailerBuf); err != nil {
		return nil, fmt.Errorf("pcapng: reading SHB trailer length: %v", err)
	}
	var trailerLen uint32
	if bigEndian {
		trailerLen, _ = endian.NewCursor(trailerBuf).U32BE()
	} else {
		trailerLen, _ = endian.NewCursor(trailerBuf).U32LE()
	}
	if trailerLen != totalLen {
		return nil, ErrLengthMismatch
	}

	r.bigEndian = bigEndian
	r.haveSection = true
	r.ifaces = nil // a new Section Header Block starts a fresh section

	c := endian.NewCursor(rest)
	major, err := r.u16(c)
	if err != nil {
		return nil, fmt.Errorf("pcapng: reading SHB version: %v", err)
	}
	minor, err := r.u16(c)
	if err != nil {
		return nil, fmt.Errorf("pcapng: reading SHB version: %v", err)
	}
	var sectionLen int64
	if bigEndian {
		sectionLen, err = c.I64BE()
	} else {
		sectionLen, err = c.I64LE()
	}
	if err != nil {
		return nil, fmt.Errorf("pcapng: reading SHB section length: %v", err)
	}

	opts, err := decodeOptions(c.Remaining(), bigEndian)
	if err != nil {
		return nil, err
	}

	return &SectionHeaderBlock{
		Major:     major,
		Minor:     minor,
		Length:    sectionLen,
		Options:   opts,
		BigEndian: bigEndian,
	}, nil
}

func (r *Reader) decodeBlock(blockType uint32, body []byte) (Block, error) {
	switch blockType {
	case BlockTypeIDB:
		return r.decodeIDB(body)
	case BlockTypeEPB:
		return r.decodeEPB(body)
	case BlockTypeSPB:
		return r.decodeSPB(body)
	case BlockTypeNRB:
		return r.decodeNRB(body)
	case BlockTypeISB:
		return r.decodeISB(body)
	case BlockTypeDSB:
		return r.decodeDSB(body)
	case BlockTypeSJB:
		return &SystemdJournalExportBlock{Data: append([]byte(nil), body...)}, nil
	default:
		return &UnknownBlock{BlockType: blockType, Data: append([]byte(nil), body...)}, nil
	}
}

func (r *Reader) decodeIDB(body []byte) (Block, error) {
	c := endian.NewCursor(body)
	linkType, err := r.u16(c)
	if err != nil {
		return nil, fmt.Errorf("pcapng: reading IDB link type: %v", err)
	}
	if _, err := c.U16LE(); err != nil { // reserved
		return nil, fmt.Errorf("pcapng: reading IDB reserved field: %v", err)
	}
	snapLen, err := r.u32(c)
	if err != nil {
		return nil, fmt.Errorf("pcapng: reading IDB snaplen: %v", err)
	}
	opts, err := decodeOptions(c.Remaining(), r.bigEndian)
	if err != nil {
		return nil, err
	}
	idb := &InterfaceDescriptionBlock{
		LinkType: sniffle.LinkType(linkType),
		SnapLen:  snapLen,
		Options:  opts,
	}
	r.ifaces = append(r.ifaces, idb)
	return idb, nil
}

func (r *Reader) decodeEPB(body []byte) (Block, error) {
	c := endian.NewCursor(body)
	ifaceID, err := r.u32(c)
	if err != nil {
		return nil, fmt.Errorf("pcapng: reading EPB interface id: %v", err)
	}
	tsHigh, err := r.u32(c)
	if err != nil {
		return nil, err
	}
	tsLow, err := r.u32(c)
	if err != nil {
		return nil, err
	}
	capLen, err := r.u32(c)
	if err != nil {
		return nil, err
	}
	origLen, err := r.u32(c)
	if err != nil {
		return nil, err
	}
	data, err := c.CopyBytes(int(capLen))
	if err != nil {
		return nil, fmt.Errorf("pcapng: reading EPB packet data: %v", err)
	}
	pad := (4 - int(capLen)%4) % 4
	if err := c.Advance(pad); err != nil {
		return nil, fmt.Errorf("pcapng: reading EPB packet data padding: %v", err)
	}
	opts, err := decodeOptions(c.Remaining(), r.bigEndian)
	if err != nil {
		return nil, err
	}

	epb := &EnhancedPacketBlock{
		InterfaceID:   ifaceID,
		TimestampHigh: tsHigh,
		TimestampLow:  tsLow,
		CapturedLen:   capLen,
		OrigLen:       origLen,
		Data:          data,
		Options:       opts,
	}

	if int(ifaceID) < len(r.ifaces) {
		idb := r.ifaces[ifaceID]
		ts := tsCalc(epb.RawTimestamp(), idb.TSResol(), idb.TSOffset())
		epb.Timestamp = &ts
	}

	return epb, nil
}

func (r *Reader) decodeSPB(body []byte) (Block, error) {
	if len(r.ifaces) == 0 {
		return nil, fmt.Errorf("pcapng: simple packet block with no preceding interface description: %w", ErrUnknownInterface)
	}
	c := endian.NewCursor(body)
	origLen, err := r.u32(c)
	if err != nil {
		return nil, fmt.Errorf("pcapng: reading SPB original length: %v", err)
	}
	idb := r.ifaces[0]
	capLen := c.Len()
	if idb.SnapLen != 0 && uint32(capLen) > idb.SnapLen {
		capLen = int(idb.SnapLen)
	}
	if int(origLen) < capLen {
		capLen = int(origLen)
	}
	data, err := c.CopyBytes(capLen)
	if err != nil {
		return nil, fmt.Errorf("pcapng: reading SPB packet data: %v", err)
	}
	return &SimplePacketBlock{OrigLen: origLen, Data: data}, nil
}

func (r *Reader) decodeNRB(body []byte) (Block, error) {
	c := endian.NewCursor(body)
	var records []NRBRecord
	for {
		recType, err := r.u16(c)
		if err != nil {
			return nil, fmt.Errorf("pcapng: reading NRB record type: %v", err)
		}
		recLen, err := r.u16(c)
		if err != nil {
			return nil, fmt.Errorf("pcapng: reading NRB record length: %v", err)
		}
		if recType == 0 && recLen == 0 {
			break
		}
		value, err := c.CopyBytes(int(recLen))
		if err != nil {
			return nil, fmt.Errorf("pcapng: reading NRB record value: %v", err)
		}
		pad := (4 - int(recLen)%4) % 4
		if err := c.Advance(pad); err != nil {
			return nil, fmt.Errorf("pcapng: reading NRB record padding: %v", err)
		}
		records = append(records, NRBRecord{Type: recType, Value: value})
	}
	opts, err := decodeOptions(c.Remaining(), r.bigEndian)
	if err != nil {
		return nil, err
	}
	return &NameResolutionBlock{Records: records, Options: opts}, nil
}

func (r *Reader) decodeISB(body []byte) (Block, error) {
	c := endian.NewCursor(body)
	ifaceID, err := r.u32(c)
	if err != nil {
		return nil, err
	}
	tsHigh, err := r.u32(c)
	if err != nil {
		return nil, err
	}
	tsLow, err := r.u32(c)
	if err != nil {
		return nil, err
	}
	opts, err := decodeOptions(c.Remaining(), r.bigEndian)
	if err != nil {
		return nil, err
	}
	return &InterfaceStatisticsBlock{
		InterfaceID:   ifaceID,
		TimestampHigh: tsHigh,
		TimestampLow:  tsLow,
		Options:       opts,
	}, nil
}

func (r *Reader) decodeDSB(body []byte) (Block, error) {
	c := endian.NewCursor(body)
	secretsType, err := r.u32(c)
	if err != nil {
		return nil, err
	}
	secretsLen, err := r.u32(c)
	if err != nil {
		return nil, err
	}
	data, err := c.CopyBytes(int(secretsLen))
	if err != nil {
		return nil, fmt.Errorf("pcapng: reading DSB secrets data: %v", err)
	}
	pad := (4 - int(secretsLen)%4) % 4
	if err := c.Advance(pad); err != nil {
		return nil, fmt.Errorf("pcapng: reading DSB secrets padding: %v", err)
	}
	opts, err := decodeOptions(c.Remaining(), r.bigEndian)
	if err != nil {
		return nil, err
	}
	return &DecryptionSecretsBlock{SecretsType: secretsType, Data: data, Options: opts}, nil
}
