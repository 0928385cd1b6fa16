package pcapng

import (
	"fmt"
	"io"

	"github.com/vociferix/sniffle/endian"
)

type blockPatch struct {
	totalLenOffset int64
	bodyStart      int64
}

// Writer writes pcapng blocks to a seekable sink. Every block's leading
// length field is written as a placeholder when the block is opened and
// patched to its real value when the block is closed, which is why Writer
// needs Seek rather than plain Write: the total length isn't known until
// the body has been written.
//
// Writer tracks open blocks on an explicit stack rather than relying on a
// destructor to close them, since Go has none; a Writer left with an open
// block when Finalize is called reports ErrOpenBlock instead of silently
// producing a truncated file.
type Writer struct {
	w io.WriteSeeker

	openBlocks []blockPatch

	haveSection      bool
	sectionLenOffset int64
	sectionBodyStart int64
}

// NewWriter returns a Writer over w. Nothing is written until the first
// WriteSHB call.
func NewWriter(w io.WriteSeeker) *Writer {
	return &Writer{w: w}
}

// BeginBlock writes blockType and a placeholder length field, and pushes
// the block onto the open-block stack. Callers write the block's body
// with WriteBody, then close it with EndBlock.
func (w *Writer) BeginBlock(blockType uint32) error {
	pos, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("pcapng: seeking to begin block: %v", err)
	}
	s := endian.NewSinkCap(8)
	s.PutU32LE(blockType)
	s.PutU32LE(0)
	if _, err := w.w.Write(s.Bytes()); err != nil {
		return fmt.Errorf("pcapng: writing block header: %v", err)
	}
	w.openBlocks = append(w.openBlocks, blockPatch{totalLenOffset: pos, bodyStart: pos + 8})
	return nil
}

// WriteBody writes b as (more of) the currently open block's body.
func (w *Writer) WriteBody(b []byte) error {
	if len(w.openBlocks) == 0 {
		return ErrNoOpenBlock
	}
	if _, err := w.w.Write(b); err != nil {
		return fmt.Errorf("pcapng: writing block body: %v", err)
	}
	return nil
}

// EndBlock pads the open block's body to a 4-byte boundary, writes the
// trailing length field, and patches the leading length field written by
// BeginBlock, popping the block off the open-block stack.
func (w *Writer) EndBlock() error {
	if len(w.openBlocks) == 0 {
		return ErrNoOpenBlock
	}
	p := w.openBlocks[len(w.openBlocks)-1]
	w.openBlocks = w.openBlocks[:len(w.openBlocks)-1]

	pos, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("pcapng: seeking to end block: %v", err)
	}
	bodyLen := pos - p.bodyStart
	if pad := (4 - int(bodyLen%4)) % 4; pad > 0 {
		if _, err := w.w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("pcapng: writing block padding: %v", err)
		}
		pos += int64(pad)
	}

	total := uint32(pos - p.totalLenOffset + 4)
	trailer := endian.NewSinkCap(4)
	trailer.PutU32LE(total)
	if _, err := w.w.Write(trailer.Bytes()); err != nil {
		return fmt.Errorf("pcapng: writing block trailer length: %v", err)
	}

	if _, err := w.w.Seek(p.totalLenOffset+4, io.SeekStart); err != nil {
		return fmt.Errorf("pcapng: seeking to patch block length: %v", err)
	}
	lead := endian.NewSinkCap(4)
	lead.PutU32LE(total)
	if _, err := w.w.Write(lead.Bytes()); err != nil {
		return fmt.Errorf("pcapng: patching block length: %v", err)
	}

	if _, err := w.w.Seek(pos+4, io.SeekStart); err != nil {
		return fmt.Errorf("pcapng: seeking past patched block: %v", err)
	}
	return nil
}

// WriteSHB opens a new section: it closes (patching the length of) any
// section already open, then writes a Section Header Block with the
// given options. The section's own length field is written as -1 (the
// pcapng convention for "unknown up front") and patched by the next
// WriteSHB call or by Finalize.
func (w *Writer) WriteSHB(opts OptionList) error {
	if err := w.closeSection(); err != nil {
		return err
	}
	if err := w.BeginBlock(BlockTypeSHB); err != nil {
		return err
	}

	body := endian.NewSink()
	body.PutU32LE(ByteOrderMagic)
	body.PutU16LE(1)
	body.PutU16LE(0)
	body.PutI64LE(-1)
	opts.encode(body)

	pos, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("pcapng: seeking in SHB: %v", err)
	}
	sectionLenOffset := pos + 8 // past the magic(4) + version(4) fields

	if err := w.WriteBody(body.Bytes()); err != nil {
		return err
	}
	if err := w.EndBlock(); err != nil {
		return err
	}

	w.sectionLenOffset = sectionLenOffset
	w.sectionBodyStart, err = w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("pcapng: seeking after SHB: %v", err)
	}
	w.haveSection = true
	return nil
}

func (w *Writer) closeSection() error {
	if !w.haveSection {
		return nil
	}
	endPos, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("pcapng: seeking to close section: %v", err)
	}
	length := endPos - w.sectionBodyStart // bytes following the SHB itself, per the pcapng spec
	if _, err := w.w.Seek(w.sectionLenOffset, io.SeekStart); err != nil {
		return fmt.Errorf("pcapng: seeking to patch section length: %v", err)
	}
	s := endian.NewSinkCap(8)
	s.PutI64LE(length)
	if _, err := w.w.Write(s.Bytes()); err != nil {
		return fmt.Errorf("pcapng: patching section length: %v", err)
	}
	if _, err := w.w.Seek(endPos, io.SeekStart); err != nil {
		return fmt.Errorf("pcapng: seeking back after patching section length: %v", err)
	}
	w.haveSection = false
	return nil
}

// WriteIDB writes an Interface Description Block. Interface IDs are
// implicit: the Nth IDB written in a section is interface N, matching the
// pcapng specification.
func (w *Writer) WriteIDB(linkType uint16, snapLen uint32, opts OptionList) error {
	if err := w.BeginBlock(BlockTypeIDB); err != nil {
		return err
	}
	body := endian.NewSink()
	body.PutU16LE(linkType)
	body.PutU16LE(0)
	body.PutU32LE(snapLen)
	opts.encode(body)
	if err := w.WriteBody(body.Bytes()); err != nil {
		return err
	}
	return w.EndBlock()
}

// WriteEPB writes an Enhanced Packet Block referencing interface ifaceID,
// with a raw 64-bit timestamp tick count in that interface's own
// resolution.
func (w *Writer) WriteEPB(ifaceID uint32, ts uint64, origLen uint32, data []byte, opts OptionList) error {
	if err := w.BeginBlock(BlockTypeEPB); err != nil {
		return err
	}
	body := endian.NewSink()
	body.PutU32LE(ifaceID)
	body.PutU32LE(uint32(ts >> 32))
	body.PutU32LE(uint32(ts))
	body.PutU32LE(uint32(len(data)))
	body.PutU32LE(origLen)
	body.PutBytes(data)
	body.PutZeros((4 - len(data)%4) % 4)
	opts.encode(body)
	if err := w.WriteBody(body.Bytes()); err != nil {
		return err
	}
	return w.EndBlock()
}

// WriteSPB writes a Simple Packet Block, valid only when the section has
// exactly one interface.
func (w *Writer) WriteSPB(origLen uint32, data []byte) error {
	if err := w.BeginBlock(BlockTypeSPB); err != nil {
		return err
	}
	body := endian.NewSink()
	body.PutU32LE(origLen)
	body.PutBytes(data)
	if err := w.WriteBody(body.Bytes()); err != nil {
		return err
	}
	return w.EndBlock()
}

// WriteDSB writes a Decryption Secrets Block.
func (w *Writer) WriteDSB(secretsType uint32, data []byte, opts OptionList) error {
	if err := w.BeginBlock(BlockTypeDSB); err != nil {
		return err
	}
	body := endian.NewSink()
	body.PutU32LE(secretsType)
	body.PutU32LE(uint32(len(data)))
	body.PutBytes(data)
	pad := (4 - len(data)%4) % 4
	body.PutZeros(pad)
	opts.encode(body)
	if err := w.WriteBody(body.Bytes()); err != nil {
		return err
	}
	return w.EndBlock()
}

// Finalize patches the current section's length field. It returns
// ErrOpenBlock if a block begun with BeginBlock was never closed with
// EndBlock.
func (w *Writer) Finalize() error {
	if len(w.openBlocks) != 0 {
		return ErrOpenBlock
	}
	return w.closeSection()
}
