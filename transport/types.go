package transport

import "github.com/opd-ai/packetxfer/limits"

// MaxFrameLength bounds one serialized packet. A data packet holds at least one
// full chunk plus its sequence framing, so the bound sits above MaxPacketLength.
const MaxFrameLength = limits.MaxPacketLength + 64*1024

// Transport defines the interface for the connections transfer packets travel over.
// This abstraction allows byte streams (TCP, pipes) and websockets to be used
// interchangeably by the transfer driver.
type Transport interface {
	// Send writes one packet to the peer.
	Send(packet *Packet) error

	// Receive blocks until the next packet arrives. It returns io.EOF once the
	// peer has closed the connection cleanly between packets.
	Receive() (*Packet, error)

	// Close shuts down the transport.
	Close() error
}
