package file

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/packetxfer/limits"
)

// Direction indicates which side of a transfer a Context tracks.
type Direction uint8

const (
	// Download represents a payload being received into local staging.
	Download Direction = iota
	// Upload represents a payload being sent from local staging.
	Upload
)

// String returns a short name for logs.
func (d Direction) String() string {
	if d == Upload {
		return "upload"
	}
	return "download"
}

// Context is the per-transfer session state: the header, the chunks held for
// the current exchange, the status code, and packet progress.
//
// A Context belongs to one in-flight transfer and is not safe for concurrent
// mutation. It does not enforce the Header -> Data -> Status ordering; the
// caller declares each phase with TransferHeader, TransferData and
// TransferStatus.
type Context struct {
	id        uuid.UUID
	direction Direction

	header Header
	chunks *ChunkSequence
	status Status
	state  PacketState

	packetLength    uint32
	packetCount     uint32
	currentPacketNo uint32
	transferred     uint64
}

// NewContext creates a context with the packet length clamped into
// [MinPacketLength, MaxPacketLength].
func NewContext(direction Direction, packetLength uint32) *Context {
	c := &Context{
		id:           uuid.New(),
		direction:    direction,
		chunks:       NewChunkSequence(CountWidth8),
		status:       StatusSucceed,
		packetLength: limits.ClampPacketLength(packetLength),
	}

	logrus.WithFields(logrus.Fields{
		"function":      "NewContext",
		"transfer_id":   c.id.String(),
		"direction":     direction.String(),
		"packet_length": c.packetLength,
	}).Debug("Created transfer context")

	return c
}

// ID uniquely identifies the transfer.
func (c *Context) ID() uuid.UUID { return c.id }

// Direction returns whether the context downloads or uploads.
func (c *Context) Direction() Direction { return c.direction }

// Header returns the context's header for in-place configuration.
func (c *Context) Header() *Header { return &c.header }

// SetHeader replaces the header, typically with one read off the wire, and
// recomputes the local packet count. The header's own PacketCount is kept as
// received; Consistent reports whether both agree.
func (c *Context) SetHeader(h Header) {
	c.header = h
	c.packetCount = limits.CalcPacketCount(h.TotalLength, c.packetLength)
}

// Consistent reports whether the header's declared packet count matches the
// count implied by its total length and this context's packet length.
func (c *Context) Consistent() bool {
	return c.header.PacketCount == c.packetCount
}

// Chunks returns the chunks held for the current exchange.
func (c *Context) Chunks() *ChunkSequence { return c.chunks }

// SetChunks replaces the held chunks.
func (c *Context) SetChunks(s *ChunkSequence) { c.chunks = s }

// Status returns the current outcome code.
func (c *Context) Status() Status { return c.status }

// SetStatus records an outcome code.
func (c *Context) SetStatus(s Status) { c.status = s }

// State returns the phase declared for the current frame.
func (c *Context) State() PacketState { return c.state }

// TransferHeader declares that the current frame carries only the header.
func (c *Context) TransferHeader() { c.state = StateHeaderOnly }

// TransferData declares that the current frame carries data chunks.
func (c *Context) TransferData() { c.state = StateDataChunk }

// TransferStatus declares that the current frame carries a status.
func (c *Context) TransferStatus() { c.state = StateStatusOnly }

// IsTransferHeader reports whether the current frame is header-only.
func (c *Context) IsTransferHeader() bool { return c.state.IsHeader() }

// IsTransferData reports whether the current frame carries data.
func (c *Context) IsTransferData() bool { return c.state.IsData() }

// IsTransferStatus reports whether the current frame carries a status.
func (c *Context) IsTransferStatus() bool { return c.state.IsStatus() }

// PacketLength returns the configured payload bytes per chunk.
func (c *Context) PacketLength() uint32 {
	if c.packetLength > limits.MaxPacketLength {
		return limits.MaxPacketLength
	}
	return c.packetLength
}

// SetPacketLength clamps n into [MinPacketLength, MaxPacketLength] and
// recomputes the packet count. Out-of-range values are corrected silently.
func (c *Context) SetPacketLength(n uint32) {
	c.packetLength = limits.ClampPacketLength(n)
	c.packetCount = limits.CalcPacketCount(c.header.TotalLength, c.packetLength)
}

// CalcPacketCount recomputes ceil(totalLength / packetLength) and stores it on
// both the context and the header.
func (c *Context) CalcPacketCount() uint32 {
	c.packetCount = limits.CalcPacketCount(c.header.TotalLength, c.PacketLength())
	c.header.PacketCount = c.packetCount
	return c.packetCount
}

// PacketCount returns the number of data chunks for the payload.
func (c *Context) PacketCount() uint32 { return c.packetCount }

// CurrentPacketNo returns the sequence number of the packet in flight.
func (c *Context) CurrentPacketNo() uint32 { return c.currentPacketNo }

// SetCurrentPacketNo records the sequence number of the packet in flight.
func (c *Context) SetCurrentPacketNo(n uint32) { c.currentPacketNo = n }

// Advance moves to the next packet number.
func (c *Context) Advance() { c.currentPacketNo++ }

// IsLastPacketNo reports whether the current frame finishes the payload:
// either a header-only frame for a zero-packet payload, or the data frame
// carrying sequence number packetCount-1.
func (c *Context) IsLastPacketNo() bool {
	if c.IsTransferHeader() {
		return c.packetCount == 0
	}
	if c.IsTransferData() {
		return c.packetCount > 0 && c.currentPacketNo == c.packetCount-1
	}
	return false
}

// IsFirstPart reports whether any held chunk has sequence number 0.
func (c *Context) IsFirstPart() bool {
	for _, ch := range c.chunks.Chunks() {
		if ch.IsFirstPart() {
			return true
		}
	}
	return false
}

// IsLastPart reports whether any held chunk has sequence number packetCount-1.
func (c *Context) IsLastPart() bool {
	if c.packetCount == 0 {
		return false
	}
	for _, ch := range c.chunks.Chunks() {
		if ch.SequenceNo == c.packetCount-1 {
			return true
		}
	}
	return false
}

// Update recomputes the header from the staged file and the packet count
// from the new length. A missing file sets StatusFileNotFound.
func (c *Context) Update() error {
	if err := c.header.Update(); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			c.status = StatusFileNotFound
		} else {
			c.status = StatusFailed
		}
		logrus.WithFields(logrus.Fields{
			"function":     "Update",
			"transfer_id":  c.id.String(),
			"logical_name": c.header.LogicalName,
			"status":       c.status.String(),
			"error":        err.Error(),
		}).Warn("Failed to update transfer header")
		return err
	}
	c.CalcPacketCount()

	logrus.WithFields(logrus.Fields{
		"function":     "Update",
		"transfer_id":  c.id.String(),
		"logical_name": c.header.LogicalName,
		"total_length": c.header.TotalLength,
		"packet_count": c.packetCount,
		"checksum":     c.header.FormatChecksum(),
	}).Debug("Transfer header updated from staged file")
	return nil
}

// ChunkRange returns the byte offset and payload length of sequence number seq.
func (c *Context) ChunkRange(seq uint32) (int64, int, error) {
	if seq >= c.packetCount {
		return 0, 0, fmt.Errorf("%w: sequence %d of %d", ErrPacketNotFound, seq, c.packetCount)
	}
	pl := int64(c.PacketLength())
	off := int64(seq) * pl
	n := int64(c.header.TotalLength) - off
	if n > pl {
		n = pl
	}
	return off, int(n), nil
}

// LoadChunk reads sequence number seq of the payload from r.
func (c *Context) LoadChunk(r io.ReaderAt, seq uint32) (*Chunk, error) {
	off, n, err := c.ChunkRange(seq)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	read, err := r.ReadAt(buf, off)
	if err != nil && !(errors.Is(err, io.EOF) && read == n) {
		return nil, err
	}
	return NewChunk(seq, buf), nil
}

// MarkTransferred adds n payload bytes to the progress counter.
func (c *Context) MarkTransferred(n int) {
	c.transferred += uint64(n)
}

// Transferred returns the payload bytes moved so far.
func (c *Context) Transferred() uint64 { return c.transferred }

// Progress returns the transfer progress as a percentage.
func (c *Context) Progress() float64 {
	if c.header.TotalLength == 0 {
		return 0.0
	}
	return float64(c.transferred) / float64(c.header.TotalLength) * 100.0
}

// Reset clears the header, chunks, status and progress so the context can be
// reused. ID, direction and packet length are kept.
func (c *Context) Reset() {
	c.header.Reset()
	c.chunks.Reset()
	c.status = StatusSucceed
	c.state = StateNone
	c.packetCount = 0
	c.currentPacketNo = 0
	c.transferred = 0
}
