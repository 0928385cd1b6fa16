// Package pdu implements the polymorphic protocol-data-unit tree: a
// doubly-linked chain of typed nodes (Ethernet, IPv4, ...) where each node
// owns the node beneath it and holds a non-owning pointer to the node
// above it. The tree is built by the dissect package while parsing a raw
// frame, walked by callers inspecting or rewriting a packet, and flattened
// back to bytes by Serialize when the packet is re-emitted.
package pdu

import "github.com/vociferix/sniffle/endian"

// PDU is implemented by every protocol layer this module understands.
// Concrete types embed Base for the parent/inner bookkeeping and
// TrailerLen/SerializeTrailer defaults, and implement the rest themselves.
type PDU interface {
	// Base returns the node's embedded Base, giving access to its parent
	// and inner links.
	Base() *Base

	// HeaderLen returns the number of bytes SerializeHeader will write.
	HeaderLen() int

	// TrailerLen returns the number of bytes SerializeTrailer will write.
	// Most protocols have no trailer; Base provides a zero default.
	TrailerLen() int

	// SerializeHeader writes this node's own header fields, not including
	// its inner PDU, to s.
	SerializeHeader(s *endian.Sink) error

	// SerializeTrailer writes this node's own trailer fields, if any,
	// after its inner PDU has already been serialized. Base provides a
	// no-op default.
	SerializeTrailer(s *endian.Sink) error

	// MakeCanonical recomputes any fields that are derived from this
	// node's own state or from its inner PDU (lengths, checksums, type
	// fields), so that the tree re-serializes to a consistent byte
	// sequence. It does not recurse into the inner PDU; callers that want
	// a whole-tree canonicalization use MakeAllCanonical.
	MakeCanonical()

	// Clone returns a new node carrying a copy of this node's own fields,
	// with a nil parent and nil inner — it does not copy the subtree.
	// Callers that want a deep copy of the subtree use the package-level
	// Clone function.
	Clone() PDU
}

// Base is embedded by every concrete PDU type. It holds the non-owning
// parent pointer and the owning inner pointer, and supplies the Base
// accessor plus TrailerLen/SerializeTrailer defaults via promotion, so a
// PDU with no trailer need not implement them itself.
type Base struct {
	parent PDU
	inner  PDU
}

// Base returns b itself; embedding types get this for free through method
// promotion, which is how a concrete type satisfies the PDU.Base() method
// without writing it out.
func (b *Base) Base() *Base {
	return b
}

// Parent returns the non-owning pointer to the PDU that contains this one
// as its inner PDU, or nil at the root of the tree.
func (b *Base) Parent() PDU {
	return b.parent
}

// Inner returns the PDU owned by this node, or nil if this is the
// innermost (leaf) node.
func (b *Base) Inner() PDU {
	return b.inner
}

// TrailerLen is the default implementation for PDUs with no trailer.
func (b *Base) TrailerLen() int {
	return 0
}

// SerializeTrailer is the default implementation for PDUs with no
// trailer.
func (b *Base) SerializeTrailer(s *endian.Sink) error {
	return nil
}

// SetInner makes child the inner PDU of parent, detaching child from any
// prior parent and detaching parent's prior inner PDU from parent, so the
// tree's parent/inner links stay consistent. Passing a nil child clears
// parent's inner slot.
func SetInner(parent PDU, child PDU) {
	pb := parent.Base()
	if old := pb.inner; old != nil {
		old.Base().parent = nil
	}
	if child != nil {
		if oldParent := child.Base().parent; oldParent != nil {
			oldParent.Base().inner = nil
		}
		child.Base().parent = parent
	}
	pb.inner = child
}

// TakeInner detaches and returns parent's inner PDU, leaving parent with
// no inner PDU. Returns nil if parent had none.
func TakeInner(parent PDU) PDU {
	pb := parent.Base()
	child := pb.inner
	if child != nil {
		child.Base().parent = nil
	}
	pb.inner = nil
	return child
}

// Root walks up the parent chain and returns the outermost PDU in p's
// tree.
func Root(p PDU) PDU {
	for {
		parent := p.Base().Parent()
		if parent == nil {
			return p
		}
		p = parent
	}
}

// Leaf walks down the inner chain and returns the innermost PDU in p's
// tree.
func Leaf(p PDU) PDU {
	for {
		inner := p.Base().Inner()
		if inner == nil {
			return p
		}
		p = inner
	}
}

// As attempts to view p itself as a T, analogous to a type assertion. It
// does not walk the tree; see Find for that.
func As[T PDU](p PDU) (T, bool) {
	t, ok := p.(T)
	return t, ok
}

// Find walks from p inward (p itself, then p's inner, and so on) and
// returns the first node that is a T.
func Find[T PDU](p PDU) (T, bool) {
	for cur := p; cur != nil; cur = cur.Base().Inner() {
		if t, ok := cur.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// FindUp walks from p outward (p itself, then p's parent, and so on) and
// returns the first node that is a T.
func FindUp[T PDU](p PDU) (T, bool) {
	for cur := p; cur != nil; cur = cur.Base().Parent() {
		if t, ok := cur.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// Serialize writes p and its entire inner chain to s, header-then-inner
// -then-trailer at every level, so a 3-node tree serializes as
// header(0), header(1), header(2), trailer(2), trailer(1), trailer(0).
func Serialize(p PDU, s *endian.Sink) error {
	if err := p.SerializeHeader(s); err != nil {
		return err
	}
	if inner := p.Base().Inner(); inner != nil {
		if err := Serialize(inner, s); err != nil {
			return err
		}
	}
	return p.SerializeTrailer(s)
}

// TotalLen returns the serialized length of p and its entire inner chain.
func TotalLen(p PDU) int {
	n := p.HeaderLen()
	if inner := p.Base().Inner(); inner != nil {
		n += TotalLen(inner)
	}
	return n + p.TrailerLen()
}

// MakeAllCanonical canonicalizes p's entire inner chain innermost-first,
// so that each node's MakeCanonical sees an already-canonical inner PDU
// when it needs to derive a field (a length or checksum) from it.
func MakeAllCanonical(p PDU) {
	if inner := p.Base().Inner(); inner != nil {
		MakeAllCanonical(inner)
	}
	p.MakeCanonical()
}

// Clone returns a deep copy of the subtree rooted at p: p's own fields are
// copied via p.Clone, then each inner node is recursively cloned and
// re-attached, so the result is structurally identical to p's subtree but
// shares no PDU nodes with it. The clone's parent is always nil.
func Clone(p PDU) PDU {
	if p == nil {
		return nil
	}
	c := p.Clone()
	if inner := p.Base().Inner(); inner != nil {
		SetInner(c, Clone(inner))
	}
	return c
}
