package sniffle

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/vociferix/sniffle/dissect"
	"github.com/vociferix/sniffle/pdu"
)

// LinkType identifies the link-layer framing of a captured packet, using
// the same numbering pcap and pcapng files use on the wire (the tcpdump.org
// LINKTYPE_* registry), so a LinkType read from a capture file needs no
// translation before being looked up here.
type LinkType uint32

const (
	LinkTypeNull     LinkType = 0
	LinkTypeEthernet LinkType = 1
	LinkTypeRaw      LinkType = 101
	LinkTypeIPv4     LinkType = 228
	LinkTypeIPv6     LinkType = 229
)

func (lt LinkType) String() string {
	switch lt {
	case LinkTypeNull:
		return "NULL"
	case LinkTypeEthernet:
		return "ETHERNET"
	case LinkTypeRaw:
		return "RAW"
	case LinkTypeIPv4:
		return "IPV4"
	case LinkTypeIPv6:
		return "IPV6"
	default:
		return fmt.Sprintf("LINKTYPE(%d)", uint32(lt))
	}
}

// ErrUnknownLinkType is returned by DissectLinkType when no dissector is
// registered for the requested LinkType.
var ErrUnknownLinkType = errors.New("sniffle: unknown link type")

// LinkTypeDissector parses the outermost layer of a frame captured under
// a particular LinkType.
type LinkTypeDissector func(data []byte, session *dissect.Session) (pdu.PDU, error)

var (
	linkTypeMu         sync.RWMutex
	linkTypeDissectors = map[LinkType]LinkTypeDissector{}
	linkTypeByPDU      = map[reflect.Type]LinkType{}
)

// RegisterLinkType associates lt with a dissector for frames captured
// under it, and with the concrete PDU type that dissector produces at the
// outermost layer, so LinkTypeOf can later map a PDU tree back to the
// LinkType a capture file should record it under. sample is used only for
// its dynamic type; pass a zero-value instance of the PDU the dissector
// returns at the root.
//
// Called from a protocol package's init(), the same registration-by-
// import-side-effect idiom dissect tables use.
func RegisterLinkType(lt LinkType, d LinkTypeDissector, sample pdu.PDU) {
	linkTypeMu.Lock()
	defer linkTypeMu.Unlock()
	linkTypeDissectors[lt] = d
	linkTypeByPDU[reflect.TypeOf(sample)] = lt
}

// DissectLinkType dissects data as a frame captured under lt.
func DissectLinkType(lt LinkType, data []byte, session *dissect.Session) (pdu.PDU, error) {
	linkTypeMu.RLock()
	d, ok := linkTypeDissectors[lt]
	linkTypeMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownLinkType, lt)
	}
	return d(data, session)
}

// LinkTypeOf reports the LinkType a root PDU p should be recorded under,
// based on p's own concrete type. It returns ok=false if p's type was
// never registered as a link-type root.
func LinkTypeOf(p pdu.PDU) (LinkType, bool) {
	linkTypeMu.RLock()
	defer linkTypeMu.RUnlock()
	lt, ok := linkTypeByPDU[reflect.TypeOf(p)]
	return lt, ok
}
