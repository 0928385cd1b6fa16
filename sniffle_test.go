package sniffle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vociferix/sniffle/dissect"
	"github.com/vociferix/sniffle/endian"
	"github.com/vociferix/sniffle/pdu"
)

type fakePDU struct {
	pdu.Base
	body []byte
}

func (f *fakePDU) HeaderLen() int                            { return len(f.body) }
func (f *fakePDU) SerializeHeader(s *endian.Sink) error      { s.PutBytes(f.body); return nil }
func (f *fakePDU) MakeCanonical()                            {}
func (f *fakePDU) Clone() pdu.PDU                            { return &fakePDU{body: f.body} }

func TestRegisterAndDissectLinkType(t *testing.T) {
	lt := LinkType(0xf00d)
	RegisterLinkType(lt, func(data []byte, s *dissect.Session) (pdu.PDU, error) {
		return &fakePDU{body: data}, nil
	}, &fakePDU{})

	p, err := DissectLinkType(lt, []byte{1, 2, 3}, nil)
	require.NoError(t, err)
	fp, ok := pdu.As[*fakePDU](p)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, fp.body)

	got, ok := LinkTypeOf(p)
	require.True(t, ok)
	assert.Equal(t, lt, got)
}

func TestDissectLinkType_Unknown(t *testing.T) {
	_, err := DissectLinkType(LinkType(0xbeef), nil, nil)
	assert.ErrorIs(t, err, ErrUnknownLinkType)
}

func TestRawPacket_Truncated(t *testing.T) {
	p := &RawPacket{OrigLen: 100, Data: make([]byte, 60)}
	assert.True(t, p.Truncated())
	assert.Equal(t, 60, p.CapLen())

	p2 := &RawPacket{OrigLen: 60, Data: make([]byte, 60)}
	assert.False(t, p2.Truncated())
}

func TestPacket_CapLenFollowsPDUTree(t *testing.T) {
	inner := &fakePDU{body: []byte{1, 2, 3}}
	outer := &fakePDU{body: []byte{9, 9}}
	pdu.SetInner(outer, inner)

	p := &Packet{OrigLen: 5, PDU: outer, Timestamp: time.Now()}
	assert.Equal(t, 5, p.CapLen())
	assert.False(t, p.Truncated())
}
