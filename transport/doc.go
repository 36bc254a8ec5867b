// Package transport implements the packet envelope and the connections that
// carry transfer protocol frames.
//
// # Packet Envelope
//
// Every frame exchanged by the transfer driver is a Packet:
//
//	[packet type (1 byte)][data (variable length)]
//
// Packet types map onto the protocol phases:
//
//   - PacketHeader: a transfer header
//   - PacketData: a count-prefixed sequence of chunks
//   - PacketStatus: a status frame (success, file not found, ...)
//   - PacketRequest: a download request for a header or for chunks
//
// # Transports
//
// StreamTransport length-prefixes each packet with a 4-byte big-endian length
// and works over any io.ReadWriteCloser:
//
//	conn, err := net.Dial("tcp", addr)
//	tr := transport.NewStreamTransport(conn)
//
// WebSocketTransport sends each packet as one binary websocket message:
//
//	tr, err := transport.DialWebSocket(ctx, "ws://host:8765/xfer")
//
// Both reject frames larger than MaxFrameLength before allocating for them,
// and both report a clean close from the peer as io.EOF.
//
// # Thread Safety
//
// Send may be called concurrently. Receive must be driven by a single
// goroutine.
package transport
