package file

import (
	"fmt"

	"github.com/opd-ai/packetxfer/limits"
	"github.com/opd-ai/packetxfer/stream"
)

// Chunk is one packet's worth of payload.
//
// Wire layout: sequenceNo (4), payloadLength (4), payload.
type Chunk struct {
	SequenceNo uint32
	Payload    []byte
}

// NewChunk returns a chunk that takes ownership of payload.
func NewChunk(seq uint32, payload []byte) *Chunk {
	return &Chunk{SequenceNo: seq, Payload: payload}
}

// Write emits the chunk. There is no per-chunk checksum; integrity is
// checked once for the whole payload.
func (c *Chunk) Write(w *stream.Writer) error {
	if len(c.Payload) > limits.MaxPacketLength {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrChunkTooLarge, len(c.Payload), limits.MaxPacketLength)
	}
	if err := w.WriteUint32(c.SequenceNo); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(len(c.Payload))); err != nil {
		return err
	}
	return w.WriteBytes(c.Payload)
}

// Read replaces the chunk with the next one on the stream. The receive
// buffer is sized exactly to the declared payload length.
func (c *Chunk) Read(r *stream.Reader) error {
	seq, err := r.ReadUint32()
	if err != nil {
		return err
	}
	n, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if err := limits.ValidateChunkPayload(n); err != nil {
		return err
	}
	payload, err := r.ReadN(int(n))
	if err != nil {
		return err
	}
	c.SequenceNo = seq
	c.Payload = payload
	return nil
}

// CopyFrom replaces this chunk with a copy of other, or, in append mode,
// appends other's payload and keeps this chunk's sequence number.
func (c *Chunk) CopyFrom(other *Chunk, appendMode bool) {
	if appendMode {
		c.Payload = append(c.Payload, other.Payload...)
		return
	}
	c.SequenceNo = other.SequenceNo
	c.Payload = append([]byte(nil), other.Payload...)
}

// Clone returns a deep copy that shares no memory with c.
func (c *Chunk) Clone() *Chunk {
	out := &Chunk{SequenceNo: c.SequenceNo}
	if c.Payload != nil {
		out.Payload = append(make([]byte, 0, len(c.Payload)), c.Payload...)
	}
	return out
}

// Len returns the payload length in bytes.
func (c *Chunk) Len() int { return len(c.Payload) }

// IsFirstPart reports whether this is sequence number 0.
func (c *Chunk) IsFirstPart() bool {
	return c.SequenceNo == 0
}

// IsLastPart reports whether this is the final chunk declared by h.
func (c *Chunk) IsLastPart(h *Header) bool {
	return h.PacketCount > 0 && c.SequenceNo == h.PacketCount-1
}
