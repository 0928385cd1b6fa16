package pcap

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vociferix/sniffle"
)

func TestWriterReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	ts := time.Unix(1700000000, 123456000).UTC()
	pkt := &sniffle.RawPacket{
		LinkType:  sniffle.LinkTypeEthernet,
		Timestamp: ts,
		OrigLen:   64,
		Data:      []byte{1, 2, 3, 4, 5},
	}
	require.NoError(t, w.WriteRaw(pkt))
	require.NoError(t, w.WriteRaw(pkt))

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, sniffle.LinkTypeEthernet, r.LinkType)
	assert.Equal(t, uint32(DefaultSnapLen), r.SnapLen)

	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, sniffle.LinkTypeEthernet, got.LinkType)
	assert.Equal(t, 64, got.OrigLen)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, got.Data)
	assert.Equal(t, ts.Unix(), got.Timestamp.Unix())

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriter_RejectsLinkTypeMismatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteRaw(&sniffle.RawPacket{LinkType: sniffle.LinkTypeEthernet, Data: []byte{1}}))
	err := w.WriteRaw(&sniffle.RawPacket{LinkType: sniffle.LinkTypeRaw, Data: []byte{1}})
	assert.ErrorIs(t, err, ErrLinkTypeMismatch)
}

func TestWriter_SetSnapLenAfterOpenFails(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRaw(&sniffle.RawPacket{LinkType: sniffle.LinkTypeEthernet, Data: []byte{1}}))
	assert.ErrorIs(t, w.SetSnapLen(100), ErrAlreadyOpen)
}

func TestWriter_RejectsDataExceedingSnapLen(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.SetSnapLen(3))
	err := w.WriteRaw(&sniffle.RawPacket{
		LinkType: sniffle.LinkTypeEthernet,
		OrigLen:  10,
		Data:     []byte{1, 2, 3, 4, 5},
	})
	assert.ErrorIs(t, err, ErrExceedsSnapLen)
}

func TestReader_RejectsBadMagic(t *testing.T) {
	_, err := NewReader(bytes.NewReader(make([]byte, FileHeaderLen)))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestReader_NanosecondMagic(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.SetNanoseconds(true))
	ts := time.Unix(1700000000, 123456789).UTC()
	require.NoError(t, w.WriteRaw(&sniffle.RawPacket{
		LinkType:  sniffle.LinkTypeEthernet,
		Timestamp: ts,
		Data:      []byte{0xaa},
	}))

	r, err := NewReader(&buf)
	require.NoError(t, err)
	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 123456789, got.Timestamp.Nanosecond())
}
