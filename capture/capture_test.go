package capture

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vociferix/sniffle"
	"github.com/vociferix/sniffle/dissect"
	"github.com/vociferix/sniffle/mockcapture"
	"github.com/vociferix/sniffle/pcap"
	"github.com/vociferix/sniffle/pdu"
)

// A dedicated, unused-elsewhere LinkType so registering a test dissector
// for it can't interfere with any real protocol package's registration.
// No root PDU type is registered for it, so *pdu.Raw stays without a
// link type (TestTransmitter_SendUnknownLinkTypeErrors relies on that).
const testLinkType sniffle.LinkType = 0xF00D

func init() {
	sniffle.RegisterLinkType(testLinkType, func(data []byte, session *dissect.Session) (pdu.PDU, error) {
		return pdu.NewRaw(data), nil
	}, nil)
}

// stubDevice is a minimal capture.Device for tests that only need a canned
// sequence of frames and a record of what was written back, without the
// ceremony of gomock expectations.
type stubDevice struct {
	packets []*sniffle.RawPacket
	i       int
	written []writtenFrame
}

type writtenFrame struct {
	linkType sniffle.LinkType
	data     []byte
}

func (d *stubDevice) Name() string                         { return "stub0" }
func (d *stubDevice) Description() string                  { return "" }
func (d *stubDevice) IPv4Addrs() []net.IP                  { return nil }
func (d *stubDevice) IPv6Addrs() []net.IP                  { return nil }
func (d *stubDevice) MACAddr() (net.HardwareAddr, bool)    { return nil, false }

func (d *stubDevice) ReadPacket() (*sniffle.RawPacket, error) {
	if d.i >= len(d.packets) {
		return nil, io.EOF
	}
	p := d.packets[d.i]
	d.i++
	return p, nil
}

func (d *stubDevice) WriteRaw(linkType sniffle.LinkType, data []byte) error {
	d.written = append(d.written, writtenFrame{linkType, data})
	return nil
}

func (d *stubDevice) Close() error { return nil }

func TestSniffer_NextDissectsRawFrame(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := mockcapture.NewMockDevice(ctrl)

	raw := &sniffle.RawPacket{
		LinkType:  testLinkType,
		Timestamp: time.Unix(1, 0),
		OrigLen:   4,
		Data:      []byte{1, 2, 3, 4},
	}
	dev.EXPECT().ReadPacket().Return(raw, nil)

	s := NewSniffer(dev, dissect.NewSession())
	pkt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, testLinkType, pkt.LinkType)

	inner, ok := pdu.As[*pdu.Raw](pkt.PDU)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, inner.Data)
}

func TestSniffer_NextPropagatesDeviceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := mockcapture.NewMockDevice(ctrl)
	dev.EXPECT().ReadPacket().Return(nil, io.EOF)

	s := NewSniffer(dev, dissect.NewSession())
	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRecordToPcap_RoundTrip(t *testing.T) {
	dev := &stubDevice{packets: []*sniffle.RawPacket{
		{LinkType: sniffle.LinkTypeEthernet, Timestamp: time.Unix(100, 0), OrigLen: 3, Data: []byte{1, 2, 3}},
		{LinkType: sniffle.LinkTypeEthernet, Timestamp: time.Unix(101, 0), OrigLen: 2, Data: []byte{4, 5}},
	}}

	var buf bytes.Buffer
	require.NoError(t, RecordToPcap(dev, &buf, pcap.DefaultSnapLen, 0))

	r, err := pcap.NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, sniffle.LinkTypeEthernet, r.LinkType)

	p1, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, p1.Data)

	p2, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, p2.Data)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRecordToPcap_HeterogeneousLinkTypeErrors(t *testing.T) {
	dev := &stubDevice{packets: []*sniffle.RawPacket{
		{LinkType: sniffle.LinkTypeEthernet, Timestamp: time.Unix(1, 0), OrigLen: 1, Data: []byte{1}},
		{LinkType: sniffle.LinkTypeRaw, Timestamp: time.Unix(2, 0), OrigLen: 1, Data: []byte{2}},
	}}

	var buf bytes.Buffer
	err := RecordToPcap(dev, &buf, pcap.DefaultSnapLen, 0)
	assert.ErrorIs(t, err, ErrHeterogeneousCapture)
}

func TestRecordToPcapNG_WritesCapture(t *testing.T) {
	dev := &stubDevice{packets: []*sniffle.RawPacket{
		{LinkType: sniffle.LinkTypeEthernet, Timestamp: time.Unix(1, 0), OrigLen: 1, Data: []byte{1}},
		{LinkType: sniffle.LinkTypeEthernet, Timestamp: time.Unix(2, 0), OrigLen: 1, Data: []byte{2}},
	}}

	m := &memWriteSeeker{}
	require.NoError(t, RecordToPcapNG(dev, m, 65535, 0))
	assert.NotEmpty(t, m.buf)
}

func TestTransmitter_SendRaw(t *testing.T) {
	dev := &stubDevice{}
	tx := NewTransmitter(dev)
	raw := &sniffle.RawPacket{LinkType: sniffle.LinkTypeEthernet, Data: []byte{9, 9}}
	require.NoError(t, tx.SendRaw(raw))
	require.Len(t, dev.written, 1)
	assert.Equal(t, sniffle.LinkTypeEthernet, dev.written[0].linkType)
	assert.Equal(t, []byte{9, 9}, dev.written[0].data)
}

func TestTransmitter_SendUnknownLinkTypeErrors(t *testing.T) {
	dev := &stubDevice{}
	tx := NewTransmitter(dev)
	pkt := &sniffle.Packet{PDU: pdu.NewRaw([]byte{1})}
	err := tx.Send(pkt)
	assert.ErrorIs(t, err, ErrUnknownLinkType)
}

func TestSniffer_PacketsChannelStopsOnEOF(t *testing.T) {
	dev := &stubDevice{packets: []*sniffle.RawPacket{
		{LinkType: testLinkType, Data: []byte{1}},
	}}
	s := NewSniffer(dev, dissect.NewSession())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var results []SniffResult
	for r := range s.Packets(ctx) {
		results = append(results, r)
	}
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}

// memWriteSeeker is a minimal in-memory io.WriteSeeker, mirroring pcapng's
// own test helper, since RecordToPcapNG needs Seek to patch block lengths.
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
