package file

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/packetxfer/stream"
)

func serializedSize(t *testing.T, items ...Encoder) int {
	t.Helper()
	var buf bytes.Buffer
	w := stream.NewWriter(&buf, binary.BigEndian)
	for _, it := range items {
		require.NoError(t, it.Write(w))
	}
	return buf.Len()
}

func TestRangeBuilderSequenceNumbers(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		budget     uint32
		wantRanges int
	}{
		{"empty", 0, testPacketLength, 0},
		{"single_range", 10, testPacketLength, 1},
		{"exact_fit", 64, testPacketLength, 1},
		{"one_over", 65, testPacketLength, 2},
		{"many", 1000, testPacketLength, 16},
		{"budget_clamped", 100, 10, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]SequenceNo, tt.n)
			for i := range items {
				items[i] = SequenceNo(i * 7)
			}
			rb := NewRangeBuilder(items, tt.budget, binary.BigEndian)
			ranges, err := rb.Build()
			require.NoError(t, err)
			assert.Len(t, ranges, tt.wantRanges)

			var flat []SequenceNo
			for _, r := range ranges {
				assert.NotEmpty(t, r)
				assert.LessOrEqual(t, len(r)*4, rb.Budget())
				flat = append(flat, r...)
			}
			if tt.n == 0 {
				assert.Empty(t, flat)
			} else {
				assert.Equal(t, items, flat)
			}
		})
	}
}

func TestRangeBuilderOversizeElement(t *testing.T) {
	items := []*Chunk{
		NewChunk(0, make([]byte, 100)),
		NewChunk(1, make([]byte, 100)),
		NewChunk(2, make([]byte, 600)),
		NewChunk(3, make([]byte, 10)),
	}
	rb := NewRangeBuilder(items, testPacketLength, binary.BigEndian)
	ranges, err := rb.Build()
	require.NoError(t, err)

	require.Len(t, ranges, 3)
	assert.Equal(t, items[:2], ranges[0])
	assert.Equal(t, items[2:3], ranges[1])
	assert.Equal(t, items[3:], ranges[2])

	for _, r := range ranges {
		enc := make([]Encoder, len(r))
		for i, c := range r {
			enc[i] = c
		}
		if len(r) > 1 {
			assert.LessOrEqual(t, serializedSize(t, enc...), rb.Budget())
		}
	}
}

func TestRangeBuilderEmission(t *testing.T) {
	items := []SequenceNo{1, 2, 3}
	rb := NewRangeBuilder(items, testPacketLength, nil)
	assert.Equal(t, 3, rb.Len())
	assert.False(t, rb.IsLastPart())

	rb.MarkEmitted(2)
	assert.Equal(t, 2, rb.Emitted())
	assert.False(t, rb.IsLastPart())

	rb.MarkEmitted(5)
	assert.Equal(t, 3, rb.Emitted())
	assert.True(t, rb.IsLastPart())

	empty := NewRangeBuilder[SequenceNo](nil, testPacketLength, nil)
	assert.True(t, empty.IsLastPart())
}
