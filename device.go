package sniffle

import "net"

// Device describes a network capture interface well enough to populate a
// pcapng Interface Description Block: a name, a human-readable
// description, and the addresses assigned to it. A live capture backend
// implements this over its own interface type; the capture package and
// pcapng.Recorder only ever consume it through this interface.
type Device interface {
	// Name is the interface's short system name (e.g. "eth0").
	Name() string

	// Description is a human-readable description, or "" if none is
	// available.
	Description() string

	// IPv4Addrs returns the IPv4 addresses assigned to the interface.
	IPv4Addrs() []net.IP

	// IPv6Addrs returns the IPv6 addresses assigned to the interface.
	IPv6Addrs() []net.IP

	// MACAddr returns the interface's hardware address, if it has one.
	MACAddr() (net.HardwareAddr, bool)
}
