// Package limits provides centralized packet size limits for the transfer protocol.
// This ensures consistent validation across the codec, the reassembly path and the driver.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MinPacketLength is the smallest payload size a single data chunk may be
	// configured with.
	MinPacketLength = 256

	// DefaultPacketLength is the payload size used when none is configured.
	DefaultPacketLength = 64 * 1024

	// MaxPacketLength is the largest payload size a single data chunk may carry.
	// It also bounds the receive buffer allocated for one chunk.
	MaxPacketLength = 10 * 1024 * 1024

	// MaxLogicalNameLength is the longest logical name that fits the 1-byte
	// length prefix used on the wire.
	MaxLogicalNameLength = 255
)

var (
	// ErrPacketLengthOutOfRange indicates a packet length outside [MinPacketLength, MaxPacketLength].
	ErrPacketLengthOutOfRange = errors.New("packet length out of range")

	// ErrChunkTooLarge indicates a chunk payload exceeds MaxPacketLength.
	ErrChunkTooLarge = errors.New("chunk payload too large")

	// ErrNameTooLong indicates a logical name exceeds MaxLogicalNameLength.
	ErrNameTooLong = errors.New("logical name too long")
)

// ClampPacketLength corrects n into [MinPacketLength, MaxPacketLength].
func ClampPacketLength(n uint32) uint32 {
	if n < MinPacketLength {
		return MinPacketLength
	}
	if n > MaxPacketLength {
		return MaxPacketLength
	}
	return n
}

// ValidatePacketLength reports whether n is within the packet length bounds.
// Returns an error with context including the offending value.
func ValidatePacketLength(n uint32) error {
	if n < MinPacketLength || n > MaxPacketLength {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrPacketLengthOutOfRange, n, MinPacketLength, MaxPacketLength)
	}
	return nil
}

// ValidateChunkPayload validates a declared chunk payload length against MaxPacketLength.
// This limit bounds the buffer a receiver allocates for untrusted input.
func ValidateChunkPayload(n uint32) error {
	if n > MaxPacketLength {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrChunkTooLarge, n, MaxPacketLength)
	}
	return nil
}

// ValidateLogicalName validates a logical name against MaxLogicalNameLength.
func ValidateLogicalName(name string) error {
	if len(name) > MaxLogicalNameLength {
		return fmt.Errorf("%w: length %d exceeds limit %d", ErrNameTooLong, len(name), MaxLogicalNameLength)
	}
	return nil
}

// CalcPacketCount returns ceil(totalLength / packetLength). A zero-length
// payload needs no data packets. packetLength is clamped first, so a zero or
// undersized value never divides by zero.
func CalcPacketCount(totalLength, packetLength uint32) uint32 {
	if totalLength == 0 {
		return 0
	}
	pl := uint64(ClampPacketLength(packetLength))
	return uint32((uint64(totalLength) + pl - 1) / pl)
}
