// Package sniffle is a packet-capture toolkit: it reads and writes the two
// dominant on-disk capture formats (legacy pcap and pcapng), and it exposes a
// recursive protocol dissection framework that parses raw link-layer frames
// into a tree of typed protocol data units (PDUs) suitable for inspection,
// modification, and re-serialization.
//
// The subpackages break the toolkit into layers:
//
//	endian     byte-ordering decode/encode primitives
//	bitpack    packing of narrow bit-fields into wire-sized integers
//	pdu        the polymorphic PDU tree
//	dissect    the Session and priority-ordered dissector tables
//	pcap       the legacy pcap file reader/writer
//	pcapng     the pcapng block reader/writer
//	capture    Sniff/Transmit facades tying the above together
//	protocols  worked dissectors (ethernet, ipv4)
package sniffle
