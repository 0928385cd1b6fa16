package ipv4

import (
	"reflect"
	"sync"

	"github.com/vociferix/sniffle/pdu"
)

// The IP-protocol-of-PDU registry mirrors protocols/ethernet's
// ethertype-of-PDU registry, itself mirroring the root package's
// LinkType-of-PDU registry: a protocol package that registers an IP
// protocol number dissector also records which protocol number its PDU
// type corresponds to, so IPv4.MakeCanonical can recompute its own
// Protocol field from whatever inner PDU is actually attached.
var (
	ipProtoMu    sync.RWMutex
	ipProtoByPDU = map[reflect.Type]uint8{}
)

// RegisterIPProto associates proto with the dynamic type of sample, the
// PDU type a dissector registered under that protocol number produces.
// Called from a protocol package's init(), alongside its dissector table
// registration.
func RegisterIPProto(sample pdu.PDU, proto uint8) {
	ipProtoMu.Lock()
	defer ipProtoMu.Unlock()
	ipProtoByPDU[reflect.TypeOf(sample)] = proto
}

// IPProtoOf reports the IP protocol number registered for p's dynamic
// type.
func IPProtoOf(p pdu.PDU) (uint8, bool) {
	ipProtoMu.RLock()
	defer ipProtoMu.RUnlock()
	proto, ok := ipProtoByPDU[reflect.TypeOf(p)]
	return proto, ok
}
