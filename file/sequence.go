package file

import (
	"fmt"
	"math"
	"sort"

	"github.com/opd-ai/packetxfer/stream"
)

// CountWidth is the byte width of the count prefix written before a chunk
// sequence. Zero means the count is known from context and not written.
type CountWidth uint8

const (
	// CountWidthNone omits the count; the reader must be told how many chunks follow.
	CountWidthNone CountWidth = 0
	// CountWidth8 prefixes the chunks with a 1-byte count.
	CountWidth8 CountWidth = 1
	// CountWidth16 prefixes the chunks with a 2-byte count.
	CountWidth16 CountWidth = 2
	// CountWidth32 prefixes the chunks with a 4-byte count.
	CountWidth32 CountWidth = 4
)

// Valid reports whether w is one of the supported widths.
func (w CountWidth) Valid() bool {
	switch w {
	case CountWidthNone, CountWidth8, CountWidth16, CountWidth32:
		return true
	default:
		return false
	}
}

// MaxCount returns the largest count the width can carry. CountWidthNone
// carries no count and is bounded only by the slice length.
func (w CountWidth) MaxCount() int {
	switch w {
	case CountWidth8:
		return math.MaxUint8
	case CountWidth16:
		return math.MaxUint16
	case CountWidth32, CountWidthNone:
		return math.MaxInt32
	default:
		return 0
	}
}

// ChunkSequence is an ordered collection of chunks that owns its elements.
// Insertion order is wire order.
type ChunkSequence struct {
	width  CountWidth
	known  int
	chunks []*Chunk
}

// NewChunkSequence returns an empty sequence using width for its count prefix.
func NewChunkSequence(width CountWidth) *ChunkSequence {
	return &ChunkSequence{width: width}
}

// Width returns the configured count field width.
func (s *ChunkSequence) Width() CountWidth { return s.width }

// SetKnownCount sets how many chunks Read consumes when the width is
// CountWidthNone.
func (s *ChunkSequence) SetKnownCount(n int) { s.known = n }

// Append adds c at the end of the sequence.
func (s *ChunkSequence) Append(c *Chunk) { s.chunks = append(s.chunks, c) }

// Len returns the number of chunks held.
func (s *ChunkSequence) Len() int { return len(s.chunks) }

// At returns the chunk at position i in wire order.
func (s *ChunkSequence) At(i int) *Chunk { return s.chunks[i] }

// Chunks returns the held chunks in wire order.
func (s *ChunkSequence) Chunks() []*Chunk { return s.chunks }

// Reset drops every chunk.
func (s *ChunkSequence) Reset() { s.chunks = nil }

// Find returns the first chunk with the given sequence number.
func (s *ChunkSequence) Find(seq uint32) (*Chunk, bool) {
	for _, c := range s.chunks {
		if c.SequenceNo == seq {
			return c, true
		}
	}
	return nil, false
}

// Sorted returns the chunks ordered by sequence number. Arrival order is
// preserved for equal sequence numbers and the sequence itself is untouched.
func (s *ChunkSequence) Sorted() []*Chunk {
	out := append([]*Chunk(nil), s.chunks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SequenceNo < out[j].SequenceNo
	})
	return out
}

// Write emits the optional count prefix followed by every chunk in order.
func (s *ChunkSequence) Write(w *stream.Writer) error {
	if err := s.writeCount(w, len(s.chunks)); err != nil {
		return err
	}
	for _, c := range s.chunks {
		if err := c.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// Read replaces the contents with exactly count freshly read chunks, where
// count comes from the prefix or, for CountWidthNone, from SetKnownCount.
func (s *ChunkSequence) Read(r *stream.Reader) error {
	count, err := s.readCount(r)
	if err != nil {
		return err
	}
	// The count is untrusted; grow as chunks actually arrive.
	s.chunks = make([]*Chunk, 0, min(count, 64))
	for i := 0; i < count; i++ {
		c := &Chunk{}
		if err := c.Read(r); err != nil {
			return err
		}
		s.chunks = append(s.chunks, c)
	}
	return nil
}

func (s *ChunkSequence) writeCount(w *stream.Writer, n int) error {
	if !s.width.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedCountWidth, s.width)
	}
	if n > s.width.MaxCount() {
		return fmt.Errorf("%w: %d chunks with width %d", ErrCountOverflow, n, s.width)
	}
	switch s.width {
	case CountWidth8:
		return w.WriteUint8(uint8(n))
	case CountWidth16:
		return w.WriteUint16(uint16(n))
	case CountWidth32:
		return w.WriteUint32(uint32(n))
	}
	return nil
}

func (s *ChunkSequence) readCount(r *stream.Reader) (int, error) {
	switch s.width {
	case CountWidthNone:
		return s.known, nil
	case CountWidth8:
		n, err := r.ReadUint8()
		return int(n), err
	case CountWidth16:
		n, err := r.ReadUint16()
		return int(n), err
	case CountWidth32:
		n, err := r.ReadUint32()
		if err != nil {
			return 0, err
		}
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %d chunks", ErrCountOverflow, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedCountWidth, s.width)
	}
}
