package file

import (
	"errors"

	"github.com/opd-ai/packetxfer/limits"
)

// ErrDirectoryTraversal indicates a logical name that would resolve outside the staging path.
var ErrDirectoryTraversal = errors.New("path contains directory traversal")

// ErrInvalidName indicates a logical name that cannot identify a file.
var ErrInvalidName = errors.New("invalid logical name")

// ErrChunkTooLarge indicates that a chunk exceeds the maximum allowed size.
var ErrChunkTooLarge = limits.ErrChunkTooLarge

// ErrUnsupportedCountWidth indicates a chunk sequence count field width other than 0, 1, 2 or 4.
var ErrUnsupportedCountWidth = errors.New("unsupported count width")

// ErrCountOverflow indicates more elements than the count field can represent.
var ErrCountOverflow = errors.New("count exceeds field width")

// ErrFileNotFound indicates the staged file for a transfer does not exist.
var ErrFileNotFound = errors.New("staged file not found")

// ErrPayloadTooLarge indicates a file longer than a 4-byte length field can describe.
var ErrPayloadTooLarge = errors.New("payload exceeds 4 GiB")

// ErrPacketNotFound indicates a sequence number outside the transfer's packet range.
var ErrPacketNotFound = errors.New("packet not found")

// ErrChecksumMismatch indicates the reassembled content does not match the header digest.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrUnexpectedChunk indicates a chunk whose sequence number or length does not fit the header.
var ErrUnexpectedChunk = errors.New("unexpected chunk")

// ErrUnexpectedPacket indicates a packet type that is not valid at this point of the exchange.
var ErrUnexpectedPacket = errors.New("unexpected packet")

// ErrPacketLengthMismatch indicates peers configured with different packet lengths.
var ErrPacketLengthMismatch = errors.New("packet length mismatch")

// ErrIncomplete indicates a commit was attempted before every chunk arrived.
var ErrIncomplete = errors.New("transfer incomplete")
