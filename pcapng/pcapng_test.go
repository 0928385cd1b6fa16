package pcapng

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vociferix/sniffle"
	"github.com/vociferix/sniffle/endian"
)

// memWriteSeeker is a minimal in-memory io.WriteSeeker, since bytes.Buffer
// doesn't implement Seek and Writer needs to patch length fields after the
// fact.
type memWriteSeeker struct {
	buf []byte
	pos int64
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = int64(len(m.buf))
	}
	m.pos = base + offset
	return m.pos, nil
}

func TestOptionList_EncodeDecodeRoundTrip(t *testing.T) {
	var opts OptionList
	opts = opts.AddString(OptComment, "hello")
	opts = opts.AddU8(OptIfTSResol, 9)
	opts = opts.AddU32(OptIfSpeed, 1_000_000_000)
	opts = opts.AddI64(OptIfTSOffset, -5)

	s := endian.NewSink()
	opts.encode(s)

	decoded, err := decodeOptions(s.Bytes(), false)
	require.NoError(t, err)
	require.Len(t, decoded, 4)

	str, ok := decoded.String(OptComment)
	assert.True(t, ok)
	assert.Equal(t, "hello", str)

	u8, ok := decoded.U8(OptIfTSResol)
	assert.True(t, ok)
	assert.Equal(t, uint8(9), u8)

	u32, ok := decoded.U32(OptIfSpeed)
	assert.True(t, ok)
	assert.Equal(t, uint32(1_000_000_000), u32)

	i64, ok := decoded.I64(OptIfTSOffset)
	assert.True(t, ok)
	assert.Equal(t, int64(-5), i64)
}

func TestOptionList_PaddingToFourByteBoundary(t *testing.T) {
	var opts OptionList
	opts = opts.AddString(OptComment, "abc") // 3-byte value, needs 1 byte of padding
	s := endian.NewSink()
	opts.encode(s)

	// code(2) + len(2) + value(3) + pad(1) + terminator(4) == 12
	assert.Equal(t, 12, s.Len())

	decoded, err := decodeOptions(s.Bytes(), false)
	require.NoError(t, err)
	str, ok := decoded.String(OptComment)
	require.True(t, ok)
	assert.Equal(t, "abc", str)
}

func TestOptionList_IPv4AndMacRoundTrip(t *testing.T) {
	var opts OptionList
	addr := net.ParseIP("192.0.2.1")
	mask := net.CIDRMask(24, 32)
	mac := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}

	opts = opts.AddIPv4Iface(OptIfIPv4Addr, addr, mask)
	opts = opts.AddMac(OptIfMACAddr, mac)

	s := endian.NewSink()
	opts.encode(s)
	decoded, err := decodeOptions(s.Bytes(), false)
	require.NoError(t, err)

	gotAddr, gotMask, ok := decoded.IPv4Iface(OptIfIPv4Addr)
	require.True(t, ok)
	assert.True(t, gotAddr.Equal(addr.To4()))
	assert.Equal(t, net.IPMask(mask), gotMask)

	gotMac, ok := decoded.Mac(OptIfMACAddr)
	require.True(t, ok)
	assert.Equal(t, mac, gotMac)
}

func TestTSCalc_MicrosecondDefault(t *testing.T) {
	// 1_600_000_000 seconds and 500_000 microseconds since epoch.
	raw := uint64(1_600_000_000)*1_000_000 + 500_000
	got := tsCalc(raw, 6, 0)
	want := time.Unix(1_600_000_000, 500_000*1000).UTC()
	assert.True(t, got.Equal(want))
}

func TestTSCalc_PowerOfTwoResolution(t *testing.T) {
	// tsresol with the high bit set: units of 2^-20 seconds.
	const res = 20
	raw := uint64(10)<<res | (1 << (res - 1)) // 10.5 seconds, roughly
	got := tsCalc(raw, 0x80|res, 0)
	assert.Equal(t, int64(10), got.Unix())
}

func TestTSCalc_NegativeOffsetSaturatesAtZero(t *testing.T) {
	got := tsCalc(2_000_000, 6, -100) // 2 seconds of ticks, offset -100s
	assert.Equal(t, int64(0), got.Unix())
}

func TestTSEncode_RoundTripsWithTSCalc(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 123_000_000, time.UTC)
	offset := int64(1_700_000_000)
	raw := tsEncode(ts, offset)
	got := tsCalc(raw, 9, offset)
	assert.True(t, ts.Equal(got))
}

func TestWriterReader_SingleSectionRoundTrip(t *testing.T) {
	m := &memWriteSeeker{}
	w := NewWriter(m)

	require.NoError(t, w.WriteSHB(nil))
	require.NoError(t, w.WriteIDB(uint16(sniffle.LinkTypeEthernet), 65535, nil))
	require.NoError(t, w.WriteEPB(0, 123456789, 4, []byte{1, 2, 3, 4}, nil))
	require.NoError(t, w.WriteEPB(0, 223456789, 3, []byte{5, 6, 7}, nil))
	require.NoError(t, w.Finalize())

	r := NewReader(bytes.NewReader(m.buf))

	shb, err := r.NextBlock()
	require.NoError(t, err)
	_, ok := shb.(*SectionHeaderBlock)
	require.True(t, ok)

	idbBlock, err := r.NextBlock()
	require.NoError(t, err)
	idb, ok := idbBlock.(*InterfaceDescriptionBlock)
	require.True(t, ok)
	assert.Equal(t, sniffle.LinkTypeEthernet, idb.LinkType)
	assert.Equal(t, uint32(65535), idb.SnapLen)

	epb1Block, err := r.NextBlock()
	require.NoError(t, err)
	epb1, ok := epb1Block.(*EnhancedPacketBlock)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, epb1.Data)
	assert.Equal(t, uint32(4), epb1.OrigLen)
	assert.Equal(t, uint64(123456789), epb1.RawTimestamp())

	epb2Block, err := r.NextBlock()
	require.NoError(t, err)
	epb2, ok := epb2Block.(*EnhancedPacketBlock)
	require.True(t, ok)
	assert.Equal(t, []byte{5, 6, 7}, epb2.Data)

	_, err = r.NextBlock()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriterReader_MultipleSections(t *testing.T) {
	m := &memWriteSeeker{}
	w := NewWriter(m)

	require.NoError(t, w.WriteSHB(nil))
	require.NoError(t, w.WriteIDB(uint16(sniffle.LinkTypeEthernet), 65535, nil))
	require.NoError(t, w.WriteEPB(0, 1, 1, []byte{0xAA}, nil))

	require.NoError(t, w.WriteSHB(nil)) // opens a second section, closing the first
	require.NoError(t, w.WriteIDB(uint16(sniffle.LinkTypeRaw), 65535, nil))
	require.NoError(t, w.WriteEPB(0, 2, 1, []byte{0xBB}, nil))
	require.NoError(t, w.Finalize())

	r := NewReader(bytes.NewReader(m.buf))

	var linkTypes []sniffle.LinkType
	var packets [][]byte
	for {
		b, err := r.NextBlock()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		switch v := b.(type) {
		case *InterfaceDescriptionBlock:
			linkTypes = append(linkTypes, v.LinkType)
		case *EnhancedPacketBlock:
			packets = append(packets, v.Data)
		}
	}

	assert.Equal(t, []sniffle.LinkType{sniffle.LinkTypeEthernet, sniffle.LinkTypeRaw}, linkTypes)
	require.Len(t, packets, 2)
	assert.Equal(t, []byte{0xAA}, packets[0])
	assert.Equal(t, []byte{0xBB}, packets[1])
}

func TestReader_NoSectionBeforeSHB(t *testing.T) {
	m := &memWriteSeeker{}
	w := NewWriter(m)
	// Write an IDB's raw bytes without ever opening a section.
	require.NoError(t, w.BeginBlock(BlockTypeIDB))
	require.NoError(t, w.WriteBody([]byte{0, 0, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, w.EndBlock())

	r := NewReader(bytes.NewReader(m.buf))
	_, err := r.NextBlock()
	assert.ErrorIs(t, err, ErrNoSection)
}

func TestWriter_EndBlockWithoutBeginErrors(t *testing.T) {
	m := &memWriteSeeker{}
	w := NewWriter(m)
	assert.ErrorIs(t, w.EndBlock(), ErrNoOpenBlock)
	assert.ErrorIs(t, w.WriteBody([]byte{1}), ErrNoOpenBlock)
}

func TestWriter_FinalizeWithOpenBlockErrors(t *testing.T) {
	m := &memWriteSeeker{}
	w := NewWriter(m)
	require.NoError(t, w.WriteSHB(nil))
	require.NoError(t, w.BeginBlock(BlockTypeIDB))
	assert.ErrorIs(t, w.Finalize(), ErrOpenBlock)
}

func TestReader_BadSHBMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x0A, 0x0D, 0x0D, 0x0A}) // SHB type
	buf.Write([]byte{28, 0, 0, 0})            // length placeholder
	buf.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF}) // bogus byte-order magic
	buf.Write(make([]byte, 16))

	r := NewReader(&buf)
	_, err := r.NextBlock()
	assert.ErrorIs(t, err, ErrBadSHB)
}

func TestDecryptionSecretsBlock_KeyLogLines(t *testing.T) {
	dsb := &DecryptionSecretsBlock{
		SecretsType: DSBSecretsTypeTLSKeyLog,
		Data:        []byte("CLIENT_RANDOM aaa bbb\nCLIENT_RANDOM ccc ddd\n"),
	}
	lines := dsb.KeyLogLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "CLIENT_RANDOM aaa bbb", lines[0])
	assert.Equal(t, "CLIENT_RANDOM ccc ddd", lines[1])
}

func TestDecryptionSecretsBlock_KeyLogLinesWrongType(t *testing.T) {
	dsb := &DecryptionSecretsBlock{SecretsType: 0x12345678, Data: []byte("not a key log")}
	assert.Nil(t, dsb.KeyLogLines())
}

func TestReader_UnknownBlockPassthrough(t *testing.T) {
	m := &memWriteSeeker{}
	w := NewWriter(m)
	require.NoError(t, w.WriteSHB(nil))
	require.NoError(t, w.BeginBlock(0xDEADBEEF))
	require.NoError(t, w.WriteBody([]byte{1, 2, 3, 4}))
	require.NoError(t, w.EndBlock())
	require.NoError(t, w.Finalize())

	r := NewReader(bytes.NewReader(m.buf))
	_, err := r.NextBlock() // SHB
	require.NoError(t, err)
	block, err := r.NextBlock()
	require.NoError(t, err)
	unk, ok := block.(*UnknownBlock)
	require.True(t, ok)
	assert.Equal(t, uint32(0xDEADBEEF), unk.BlockType)
	assert.Equal(t, []byte{1, 2, 3, 4}, unk.Data)
}

func TestReader_NextPacketSkipsNonPacketBlocks(t *testing.T) {
	m := &memWriteSeeker{}
	w := NewWriter(m)
	require.NoError(t, w.WriteSHB(nil))
	require.NoError(t, w.WriteIDB(uint16(sniffle.LinkTypeEthernet), 65535, nil))
	require.NoError(t, w.WriteDSB(DSBSecretsTypeTLSKeyLog, []byte("secret\n"), nil))
	require.NoError(t, w.WriteEPB(0, 1_000_000_000, 2, []byte{0x01, 0x02}, nil))
	require.NoError(t, w.Finalize())

	r := NewReader(bytes.NewReader(m.buf))
	pkt, err := r.NextPacket()
	require.NoError(t, err)
	assert.Equal(t, sniffle.LinkTypeEthernet, pkt.LinkType)
	assert.Equal(t, []byte{0x01, 0x02}, pkt.Data)

	_, err = r.NextPacket()
	assert.ErrorIs(t, err, io.EOF)
}

type stubDevice struct {
	name string
	mac  net.HardwareAddr
}

func (d stubDevice) Name() string            { return d.name }
func (d stubDevice) Description() string     { return "" }
func (d stubDevice) IPv4Addrs() []net.IP     { return nil }
func (d stubDevice) IPv6Addrs() []net.IP     { return nil }
func (d stubDevice) MACAddr() (net.HardwareAddr, bool) {
	if d.mac == nil {
		return nil, false
	}
	return d.mac, true
}

func TestRecorder_GroupsPacketsByInterface(t *testing.T) {
	m := &memWriteSeeker{}
	rec, err := NewRecorder(m)
	require.NoError(t, err)

	dev := stubDevice{name: "eth0"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, rec.WriteRaw(&sniffle.RawPacket{
		LinkType: sniffle.LinkTypeEthernet, Timestamp: base, OrigLen: 3,
		Data: []byte{1, 2, 3}, Device: dev,
	}, 65535))
	require.NoError(t, rec.WriteRaw(&sniffle.RawPacket{
		LinkType: sniffle.LinkTypeEthernet, Timestamp: base.Add(2 * time.Second), OrigLen: 2,
		Data: []byte{4, 5}, Device: dev,
	}, 65535))
	require.NoError(t, rec.Finalize())

	r := NewReader(bytes.NewReader(m.buf))
	var idbCount int
	var packets [][]byte
	for {
		b, err := r.NextBlock()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		switch v := b.(type) {
		case *InterfaceDescriptionBlock:
			idbCount++
			assert.Equal(t, sniffle.LinkTypeEthernet, v.LinkType)
		case *EnhancedPacketBlock:
			packets = append(packets, v.Data)
		}
	}
	assert.Equal(t, 1, idbCount, "both packets share one interface")
	require.Len(t, packets, 2)
}
