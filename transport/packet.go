// Package transport carries transfer protocol frames between two endpoints.
//
// This package handles the packet envelope and the framing of packets over
// byte streams and websocket connections.
//
// Example:
//
//	tr := transport.NewStreamTransport(conn)
//
//	packet := &transport.Packet{
//	    PacketType: transport.PacketHeader,
//	    Data:       headerBytes,
//	}
//
//	err = tr.Send(packet)
package transport

import (
	"errors"
	"fmt"
)

// PacketType identifies what a transfer packet carries.
type PacketType byte

const (
	// PacketHeader carries a transfer header (length, checksum, name, packet count).
	PacketHeader PacketType = iota + 1
	// PacketData carries a sequence of data chunks.
	PacketData
	// PacketStatus carries a terminal or negotiation status code.
	PacketStatus
	// PacketRequest asks the peer for a header or for specific chunks.
	PacketRequest
)

// String returns a short name for logs.
func (t PacketType) String() string {
	switch t {
	case PacketHeader:
		return "header"
	case PacketData:
		return "data"
	case PacketStatus:
		return "status"
	case PacketRequest:
		return "request"
	default:
		return fmt.Sprintf("packet(%d)", byte(t))
	}
}

// Valid reports whether t is a known packet type.
func (t PacketType) Valid() bool {
	return t >= PacketHeader && t <= PacketRequest
}

// ErrUnknownPacketType indicates a packet whose type byte is not recognised.
var ErrUnknownPacketType = errors.New("unknown packet type")

// Packet represents one transfer protocol packet.
type Packet struct {
	PacketType PacketType
	Data       []byte
}

// Serialize converts a packet to a byte slice for transmission.
func (p *Packet) Serialize() ([]byte, error) {
	if p.Data == nil {
		return nil, errors.New("packet data is nil")
	}

	// Format: [packet type (1 byte)][data (variable length)]
	result := make([]byte, 1+len(p.Data))
	result[0] = byte(p.PacketType)
	copy(result[1:], p.Data)

	return result, nil
}

// ParsePacket converts a byte slice to a Packet structure.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < 1 {
		return nil, errors.New("packet too short")
	}

	packetType := PacketType(data[0])
	if !packetType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPacketType, data[0])
	}

	packet := &Packet{
		PacketType: packetType,
		Data:       make([]byte, len(data)-1),
	}

	copy(packet.Data, data[1:])

	return packet, nil
}
