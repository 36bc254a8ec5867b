package stream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterByteOrder(t *testing.T) {
	tests := []struct {
		name  string
		order binary.ByteOrder
		want  []byte
	}{
		{"big_endian", binary.BigEndian, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}},
		{"little_endian", binary.LittleEndian, []byte{0x04, 0x03, 0x02, 0x01, 0x06, 0x05}},
		{"nil_defaults_big", nil, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, tt.order)
			require.NoError(t, w.WriteUint32(0x01020304))
			require.NoError(t, w.WriteUint16(0x0506))
			assert.Equal(t, tt.want, buf.Bytes())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		t.Run(order.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, order)
			require.NoError(t, w.WriteUint8(0xAB))
			require.NoError(t, w.WriteUint16(0xBEEF))
			require.NoError(t, w.WriteUint32(0xDEADBEEF))
			require.NoError(t, w.WriteStr("report.csv"))
			require.NoError(t, w.WriteBytes([]byte{9, 8, 7}))

			r := NewReader(&buf, order)
			u8, err := r.ReadUint8()
			require.NoError(t, err)
			assert.Equal(t, uint8(0xAB), u8)

			u16, err := r.ReadUint16()
			require.NoError(t, err)
			assert.Equal(t, uint16(0xBEEF), u16)

			u32, err := r.ReadUint32()
			require.NoError(t, err)
			assert.Equal(t, uint32(0xDEADBEEF), u32)

			s, err := r.ReadStr()
			require.NoError(t, err)
			assert.Equal(t, "report.csv", s)

			raw, err := r.ReadN(3)
			require.NoError(t, err)
			assert.Equal(t, []byte{9, 8, 7}, raw)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestWriteStrLimits(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil)

	require.NoError(t, w.WriteStr(""))
	assert.Equal(t, []byte{0}, buf.Bytes())

	buf.Reset()
	require.NoError(t, w.WriteStr(strings.Repeat("x", 255)))
	assert.Equal(t, 256, buf.Len())

	buf.Reset()
	err := w.WriteStr(strings.Repeat("x", 256))
	assert.True(t, errors.Is(err, ErrStringTooLong))
	assert.Zero(t, buf.Len(), "nothing is written for an oversized string")
}

func TestReaderPropagatesShortReads(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2}), nil)
	_, err := r.ReadUint32()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	r = NewReader(bytes.NewReader(nil), nil)
	_, err = r.ReadUint8()
	assert.ErrorIs(t, err, io.EOF)

	r = NewReader(bytes.NewReader([]byte{5, 'a', 'b'}), nil)
	_, err = r.ReadStr()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestWriterPropagatesErrors(t *testing.T) {
	sentinel := errors.New("disk on fire")
	w := NewWriter(failingWriter{err: sentinel}, nil)
	assert.ErrorIs(t, w.WriteUint32(1), sentinel)
	assert.ErrorIs(t, w.WriteStr("a"), sentinel)
	assert.NoError(t, w.WriteBytes(nil), "empty writes never reach the underlying writer")
}
