package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vociferix/sniffle/endian"
)

// stub is a minimal PDU for exercising tree mechanics without pulling in
// a real protocol.
type stub struct {
	Base
	tag        string
	canonCalls int
}

func newStub(tag string) *stub { return &stub{tag: tag} }

func (s *stub) HeaderLen() int { return len(s.tag) }
func (s *stub) SerializeHeader(sink *endian.Sink) error {
	sink.PutBytes([]byte(s.tag))
	return nil
}
func (s *stub) MakeCanonical() { s.canonCalls++ }
func (s *stub) Clone() PDU     { return &stub{tag: s.tag} }

func TestSetInner_LinksBothWays(t *testing.T) {
	a := newStub("a")
	b := newStub("b")
	SetInner(a, b)

	assert.Same(t, PDU(b), a.Base().Inner())
	assert.Same(t, PDU(a), b.Base().Parent())
}

func TestSetInner_DetachesPriorLinks(t *testing.T) {
	a := newStub("a")
	b := newStub("b")
	c := newStub("c")

	SetInner(a, b)
	SetInner(c, b) // b moves from a to c

	assert.Nil(t, a.Base().Inner())
	assert.Same(t, PDU(c), b.Base().Parent())
	assert.Same(t, PDU(b), c.Base().Inner())
}

func TestSetInner_ReplacingInnerDetachesOld(t *testing.T) {
	a := newStub("a")
	b := newStub("b")
	c := newStub("c")

	SetInner(a, b)
	SetInner(a, c)

	assert.Nil(t, b.Base().Parent())
	assert.Same(t, PDU(c), a.Base().Inner())
}

func TestTakeInner(t *testing.T) {
	a := newStub("a")
	b := newStub("b")
	SetInner(a, b)

	taken := TakeInner(a)
	assert.Same(t, PDU(b), taken)
	assert.Nil(t, a.Base().Inner())
	assert.Nil(t, b.Base().Parent())
}

func TestRootAndLeaf(t *testing.T) {
	a, b, c := newStub("a"), newStub("b"), newStub("c")
	SetInner(a, b)
	SetInner(b, c)

	assert.Same(t, PDU(a), Root(c))
	assert.Same(t, PDU(c), Leaf(a))
}

func TestAsAndFind(t *testing.T) {
	a, b, c := newStub("a"), newStub("b"), newStub("c")
	SetInner(a, b)
	SetInner(b, c)

	_, ok := As[*stub](a)
	assert.True(t, ok)

	found, ok := Find[*stub](a)
	require.True(t, ok)
	assert.Equal(t, "a", found.tag)

	upFound, ok := FindUp[*stub](c)
	require.True(t, ok)
	assert.Equal(t, "c", upFound.tag)
}

func TestSerializeAndTotalLen(t *testing.T) {
	a, b, c := newStub("aa"), newStub("bbb"), newStub("c")
	SetInner(a, b)
	SetInner(b, c)

	assert.Equal(t, 6, TotalLen(a))

	s := endian.NewSink()
	require.NoError(t, Serialize(a, s))
	assert.Equal(t, "aabbbc", string(s.Bytes()))
}

func TestMakeAllCanonical_InnermostFirst(t *testing.T) {
	a, b := newStub("a"), newStub("b")
	SetInner(a, b)

	MakeAllCanonical(a)
	assert.Equal(t, 1, a.canonCalls)
	assert.Equal(t, 1, b.canonCalls)
}

func TestClone_DeepCopiesSubtreeWithNilParent(t *testing.T) {
	a, b := newStub("a"), newStub("b")
	SetInner(a, b)

	cloned := Clone(a)
	clonedA, ok := As[*stub](cloned)
	require.True(t, ok)
	assert.NotSame(t, a, clonedA)
	assert.Nil(t, cloned.Base().Parent())

	clonedB, ok := As[*stub](cloned.Base().Inner())
	require.True(t, ok)
	assert.NotSame(t, b, clonedB)
	assert.Equal(t, "b", clonedB.tag)
}

func TestRawPDU_RoundTrip(t *testing.T) {
	r := NewRaw([]byte{1, 2, 3})
	s := endian.NewSink()
	require.NoError(t, Serialize(r, s))
	assert.Equal(t, []byte{1, 2, 3}, s.Bytes())

	cloned := Clone(r).(*Raw)
	cloned.Data[0] = 0xff
	assert.Equal(t, byte(1), r.Data[0], "Clone must not alias source data")
}
