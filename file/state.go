package file

import "fmt"

// PacketState describes what the current wire frame of a transfer carries.
type PacketState uint8

const (
	// StateNone indicates no frame has been declared yet.
	StateNone PacketState = iota
	// StateHeaderOnly indicates the frame carries only the transfer header.
	StateHeaderOnly
	// StateDataChunk indicates the frame carries one or more data chunks.
	StateDataChunk
	// StateStatusOnly indicates the frame carries a terminal status.
	StateStatusOnly
)

// String returns a short name for logs.
func (s PacketState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateHeaderOnly:
		return "header"
	case StateDataChunk:
		return "data"
	case StateStatusOnly:
		return "status"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// IsHeader reports whether the frame carries only the header.
func (s PacketState) IsHeader() bool { return s == StateHeaderOnly }

// IsData reports whether the frame carries data chunks.
func (s PacketState) IsData() bool { return s == StateDataChunk }

// IsStatus reports whether the frame carries a status.
func (s PacketState) IsStatus() bool { return s == StateStatusOnly }
