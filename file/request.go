package file

import (
	"fmt"
	"math"

	"github.com/opd-ai/packetxfer/stream"
)

// Request asks the sender for a header (no sequences) or for specific chunks.
//
// Wire layout: logicalName (1-byte prefix + N), packetLength (4),
// count (2), sequence numbers (4 each).
type Request struct {
	LogicalName  string
	PacketLength uint32
	Sequences    []uint32
}

// IsHeaderRequest reports whether the request asks only for the header.
func (q *Request) IsHeaderRequest() bool { return len(q.Sequences) == 0 }

// Write emits the request.
func (q *Request) Write(w *stream.Writer) error {
	if len(q.Sequences) > math.MaxUint16 {
		return fmt.Errorf("%w: %d sequences", ErrCountOverflow, len(q.Sequences))
	}
	if err := w.WriteStr(q.LogicalName); err != nil {
		return err
	}
	if err := w.WriteUint32(q.PacketLength); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(len(q.Sequences))); err != nil {
		return err
	}
	for _, seq := range q.Sequences {
		if err := w.WriteUint32(seq); err != nil {
			return err
		}
	}
	return nil
}

// Read is the inverse of Write.
func (q *Request) Read(r *stream.Reader) error {
	name, err := r.ReadStr()
	if err != nil {
		return err
	}
	pl, err := r.ReadUint32()
	if err != nil {
		return err
	}
	n, err := r.ReadUint16()
	if err != nil {
		return err
	}
	seqs := make([]uint32, 0, n)
	for i := 0; i < int(n); i++ {
		seq, err := r.ReadUint32()
		if err != nil {
			return err
		}
		seqs = append(seqs, seq)
	}
	*q = Request{LogicalName: name, PacketLength: pl, Sequences: seqs}
	return nil
}
