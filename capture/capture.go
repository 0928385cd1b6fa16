// Package capture composes the dissection framework and the capture-file
// engines into the two end-user facades spec.md calls Sniff and Transmit: a
// Sniffer that turns a live Device's raw frames into dissected Packets, and
// a Transmitter that serializes Packets back out to one. The live Device
// itself (libpcap, AF_PACKET, NDIS, ...) is an external collaborator; this
// package only defines the seam a backend implements and mockcapture's
// MockDevice stands in for during tests.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vociferix/sniffle"
	"github.com/vociferix/sniffle/dissect"
	"github.com/vociferix/sniffle/endian"
	"github.com/vociferix/sniffle/pcap"
	"github.com/vociferix/sniffle/pcapng"
	"github.com/vociferix/sniffle/pdu"
)

var (
	// ErrUnknownLinkType is returned by Transmitter.Send when the packet's
	// root PDU type was never registered with sniffle.RegisterLinkType, so
	// there is no LinkType to hand the Device.
	ErrUnknownLinkType = errors.New("capture: unknown link type")

	// ErrHeterogeneousCapture is returned by RecordToPcap when a frame
	// arrives with a different link type than the file was opened with;
	// the legacy pcap format has exactly one link type per file, unlike
	// pcapng's per-interface link types.
	ErrHeterogeneousCapture = errors.New("capture: legacy pcap format requires one link type per file")
)

// Device is a live capture/injection interface: the metadata sniffle.Device
// already describes, plus the ability to pull captured frames and push
// outgoing ones. A hardware backend implements this directly; mockcapture
// provides a hand-authored mock for tests that never touch real hardware.
type Device interface {
	sniffle.Device

	// ReadPacket blocks until the next captured frame is available. It
	// returns io.EOF once the device is exhausted (e.g. a file-backed
	// Device at end of input) or has been closed.
	ReadPacket() (*sniffle.RawPacket, error)

	// WriteRaw injects data onto the wire, framed under linkType.
	WriteRaw(linkType sniffle.LinkType, data []byte) error

	// Close releases the device.
	Close() error
}

// Sniffer pulls raw frames from a Device and dissects each one against a
// shared Session, the Sniff side of the spec's Sniff/Transmit pair.
type Sniffer struct {
	dev     Device
	session *dissect.Session
}

// NewSniffer returns a Sniffer reading from dev and dissecting with
// session.
func NewSniffer(dev Device, session *dissect.Session) *Sniffer {
	return &Sniffer{dev: dev, session: session}
}

// Next reads and dissects the next frame. It returns io.EOF when dev is
// exhausted.
func (s *Sniffer) Next() (*sniffle.Packet, error) {
	raw, err := s.dev.ReadPacket()
	if err != nil {
		return nil, err
	}
	p, err := sniffle.DissectLinkType(raw.LinkType, raw.Data, s.session)
	if err != nil {
		return nil, fmt.Errorf("capture: dissecting frame: %v", err)
	}
	return &sniffle.Packet{
		LinkType:  raw.LinkType,
		Timestamp: raw.Timestamp,
		OrigLen:   raw.OrigLen,
		PDU:       p,
		Device:    s.dev,
	}, nil
}

// Packets starts a goroutine that calls Next in a loop and returns the
// results on a channel, stopping when ctx is canceled, Next returns io.EOF,
// or Next returns any other error (reported as the channel's last item's
// Err field before the channel closes). This mirrors the read/process
// pipeline stages a live NDIS or libpcap capture loop runs as background
// goroutines cancelable via context.
func (s *Sniffer) Packets(ctx context.Context) <-chan SniffResult {
	out := make(chan SniffResult)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			pkt, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case out <- SniffResult{Packet: pkt, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

// SniffResult is one item from Sniffer.Packets: either a dissected Packet,
// or a terminal error.
type SniffResult struct {
	Packet *sniffle.Packet
	Err    error
}

// Close releases the underlying Device.
func (s *Sniffer) Close() error {
	return s.dev.Close()
}

// Transmitter serializes Packets and writes them to a Device, the Transmit
// side of the spec's Sniff/Transmit pair.
type Transmitter struct {
	dev Device
}

// NewTransmitter returns a Transmitter writing to dev.
func NewTransmitter(dev Device) *Transmitter {
	return &Transmitter{dev: dev}
}

// Send serializes pkt's PDU tree and writes it to the device, deriving the
// link type from the tree's root PDU via sniffle.LinkTypeOf.
func (t *Transmitter) Send(pkt *sniffle.Packet) error {
	root := pdu.Root(pkt.PDU)
	linkType, ok := sniffle.LinkTypeOf(root)
	if !ok {
		return ErrUnknownLinkType
	}
	sink := endian.NewSink()
	if err := pdu.Serialize(pkt.PDU, sink); err != nil {
		return fmt.Errorf("capture: serializing packet: %v", err)
	}
	return t.dev.WriteRaw(linkType, sink.Bytes())
}

// SendRaw writes raw's bytes to the device verbatim, under its own
// LinkType.
func (t *Transmitter) SendRaw(raw *sniffle.RawPacket) error {
	return t.dev.WriteRaw(raw.LinkType, raw.Data)
}

// Close releases the underlying Device.
func (t *Transmitter) Close() error {
	return t.dev.Close()
}

// RecordToPcap streams frames from dev into a legacy pcap capture written
// to w, stopping after n frames (n <= 0 means until dev is exhausted). It
// returns ErrHeterogeneousCapture if a later frame's link type differs from
// the first, since a pcap file has exactly one link type for its whole
// duration.
func RecordToPcap(dev Device, w io.Writer, snapLen uint32, n int) error {
	writer := pcap.NewWriter(w)
	if err := writer.SetSnapLen(snapLen); err != nil {
		return err
	}
	for i := 0; n <= 0 || i < n; i++ {
		raw, err := dev.ReadPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := writer.WriteRaw(raw); err != nil {
			if errors.Is(err, pcap.ErrLinkTypeMismatch) {
				return ErrHeterogeneousCapture
			}
			return err
		}
	}
	return nil
}

// RecordToPcapNG streams frames from dev into a pcapng capture written to
// w, stopping after n frames (n <= 0 means until dev is exhausted).
// Frames with the same (device, link type, snapLen) combination share one
// Interface Description Block and each distinct combination gets its own,
// the per-interface allocation pcapng.Recorder performs.
func RecordToPcapNG(dev Device, w io.WriteSeeker, snapLen uint32, n int) error {
	rec, err := pcapng.NewRecorder(w)
	if err != nil {
		return err
	}
	for i := 0; n <= 0 || i < n; i++ {
		raw, err := dev.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := rec.WriteRaw(raw, snapLen); err != nil {
			return err
		}
	}
	return rec.Finalize()
}
