package file

import (
	"bytes"
	"encoding/binary"

	"github.com/opd-ai/packetxfer/limits"
	"github.com/opd-ai/packetxfer/stream"
)

// Encoder is anything that serializes itself onto a protocol stream.
// Header, Chunk, StatusFrame and SequenceNo all satisfy it.
type Encoder interface {
	Write(w *stream.Writer) error
}

// SequenceNo is a chunk sequence number as a standalone wire element.
type SequenceNo uint32

// Write emits the sequence number as 4 bytes.
func (s SequenceNo) Write(w *stream.Writer) error {
	return w.WriteUint32(uint32(s))
}

// RangeBuilder partitions a collection into ordered ranges whose serialized
// size stays within one packet length.
//
// Packing is greedy in arrival order. An element that does not fit the
// current range starts a new one; an element that alone exceeds the budget
// still gets its own range.
type RangeBuilder[T Encoder] struct {
	items   []T
	budget  int
	order   binary.ByteOrder
	emitted int
}

// NewRangeBuilder prepares items for partitioning with a budget of
// packetLength bytes, clamped like every other packet length.
func NewRangeBuilder[T Encoder](items []T, packetLength uint32, order binary.ByteOrder) *RangeBuilder[T] {
	return &RangeBuilder[T]{
		items:  items,
		budget: int(limits.ClampPacketLength(packetLength)),
		order:  order,
	}
}

// Budget returns the per-range serialized byte budget.
func (b *RangeBuilder[T]) Budget() int { return b.budget }

// Build returns the ranges. Concatenating them reproduces items exactly.
func (b *RangeBuilder[T]) Build() ([][]T, error) {
	var (
		ranges  [][]T
		scratch bytes.Buffer
		inRange int
	)
	w := stream.NewWriter(&scratch, b.order)

	for _, item := range b.items {
		if err := item.Write(w); err != nil {
			return nil, err
		}
		if inRange > 0 && scratch.Len() > b.budget {
			scratch.Reset()
			if err := item.Write(w); err != nil {
				return nil, err
			}
			inRange = 0
		}
		if inRange == 0 {
			ranges = append(ranges, nil)
		}
		last := len(ranges) - 1
		ranges[last] = append(ranges[last], item)
		inRange++
	}
	return ranges, nil
}

// Len returns the number of input elements.
func (b *RangeBuilder[T]) Len() int { return len(b.items) }

// MarkEmitted records that n more elements have been sent.
func (b *RangeBuilder[T]) MarkEmitted(n int) {
	b.emitted += n
	if b.emitted > len(b.items) {
		b.emitted = len(b.items)
	}
}

// Emitted returns how many elements have been sent.
func (b *RangeBuilder[T]) Emitted() int { return b.emitted }

// IsLastPart reports whether every input element has been sent.
func (b *RangeBuilder[T]) IsLastPart() bool {
	return b.emitted == len(b.items)
}
