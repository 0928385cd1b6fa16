package ethernet

import (
	"reflect"
	"sync"

	"github.com/vociferix/sniffle/pdu"
)

// The ethertype-of-PDU registry mirrors the root package's LinkType-of-PDU
// registry (sniffle.RegisterLinkType/LinkTypeOf): a protocol package that
// registers an Ethertype dissector also records which ethertype value its
// PDU type corresponds to, so EthernetII.MakeCanonical can recompute its
// own Ethertype field from whatever inner PDU is actually attached rather
// than trusting a stale value.
var (
	ethertypeMu    sync.RWMutex
	ethertypeByPDU = map[reflect.Type]uint16{}
)

// RegisterEthertype associates ethertype with the dynamic type of sample,
// the PDU type a dissector registered under that ethertype produces.
// Called from a protocol package's init(), alongside its dissector table
// registration.
func RegisterEthertype(sample pdu.PDU, ethertype uint16) {
	ethertypeMu.Lock()
	defer ethertypeMu.Unlock()
	ethertypeByPDU[reflect.TypeOf(sample)] = ethertype
}

// EthertypeOf reports the ethertype registered for p's dynamic type.
func EthertypeOf(p pdu.PDU) (uint16, bool) {
	ethertypeMu.RLock()
	defer ethertypeMu.RUnlock()
	et, ok := ethertypeByPDU[reflect.TypeOf(p)]
	return et, ok
}
