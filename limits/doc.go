// Package limits provides centralized packet and name size constants and the
// validation helpers built on them. Every component that chunks, frames, or
// reassembles a payload draws its bounds from here so the sender and receiver
// agree on the same numbers.
//
// # Packet Length Bounds
//
// The configured packet length is the number of payload bytes carried by one
// data chunk:
//
//   - MinPacketLength (256 bytes): requests below this are raised to it.
//   - DefaultPacketLength (64 KiB): used when nothing is configured.
//   - MaxPacketLength (10 MiB): requests above this are lowered to it.
//
// Packet lengths are corrected rather than rejected:
//
//	n := limits.ClampPacketLength(100) // 256
//
// ValidatePacketLength exists for callers that prefer to reject a bad value
// (for example, a configuration file that should be fixed by its author).
//
// # Packet Count
//
// CalcPacketCount is the single definition of how many chunks a payload needs:
//
//	limits.CalcPacketCount(1_000_000, 65536) // 16
//	limits.CalcPacketCount(0, 65536)         // 0, an empty payload has no data chunks
//
// # Error Types
//
//   - ErrPacketLengthOutOfRange: a packet length outside the bounds
//   - ErrChunkTooLarge: a chunk payload above MaxPacketLength
//   - ErrNameTooLong: a logical name that does not fit a 1-byte length prefix
package limits
