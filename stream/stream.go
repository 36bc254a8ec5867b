package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrStringTooLong indicates a string does not fit the 1-byte length prefix.
var ErrStringTooLong = errors.New("stream: string exceeds 255 bytes")

// Writer encodes protocol fields onto an io.Writer.
type Writer struct {
	w     io.Writer
	order binary.ByteOrder
	buf   [4]byte
}

// NewWriter returns a Writer using order for multi-byte integers.
// A nil order selects binary.BigEndian.
func NewWriter(w io.Writer, order binary.ByteOrder) *Writer {
	if order == nil {
		order = binary.BigEndian
	}
	return &Writer{w: w, order: order}
}

// ByteOrder returns the byte order the writer encodes with.
func (w *Writer) ByteOrder() binary.ByteOrder { return w.order }

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) error {
	w.buf[0] = v
	return w.WriteBytes(w.buf[:1])
}

// WriteUint16 writes v in the writer's byte order.
func (w *Writer) WriteUint16(v uint16) error {
	w.order.PutUint16(w.buf[:2], v)
	return w.WriteBytes(w.buf[:2])
}

// WriteUint32 writes v in the writer's byte order.
func (w *Writer) WriteUint32(v uint32) error {
	w.order.PutUint32(w.buf[:4], v)
	return w.WriteBytes(w.buf[:4])
}

// WriteBytes writes b verbatim with no length prefix.
func (w *Writer) WriteBytes(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	_, err := w.w.Write(b)
	return err
}

// WriteStr writes s with a 1-byte length prefix.
func (w *Writer) WriteStr(s string) error {
	if len(s) > math.MaxUint8 {
		return fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
	}
	if err := w.WriteUint8(uint8(len(s))); err != nil {
		return err
	}
	return w.WriteBytes([]byte(s))
}

// Reader decodes protocol fields from an io.Reader.
type Reader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [4]byte
}

// NewReader returns a Reader using order for multi-byte integers.
// A nil order selects binary.BigEndian.
func NewReader(r io.Reader, order binary.ByteOrder) *Reader {
	if order == nil {
		order = binary.BigEndian
	}
	return &Reader{r: r, order: order}
}

// ByteOrder returns the byte order the reader decodes with.
func (r *Reader) ByteOrder() binary.ByteOrder { return r.order }

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if _, err := io.ReadFull(r.r, r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

// ReadUint16 reads a uint16 in the reader's byte order.
func (r *Reader) ReadUint16() (uint16, error) {
	if _, err := io.ReadFull(r.r, r.buf[:2]); err != nil {
		return 0, err
	}
	return r.order.Uint16(r.buf[:2]), nil
}

// ReadUint32 reads a uint32 in the reader's byte order.
func (r *Reader) ReadUint32() (uint32, error) {
	if _, err := io.ReadFull(r.r, r.buf[:4]); err != nil {
		return 0, err
	}
	return r.order.Uint32(r.buf[:4]), nil
}

// ReadBytes fills b completely from the stream.
func (r *Reader) ReadBytes(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	_, err := io.ReadFull(r.r, b)
	return err
}

// ReadN allocates and fills a buffer of exactly n bytes.
func (r *Reader) ReadN(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := r.ReadBytes(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadStr reads a string written by WriteStr.
func (r *Reader) ReadStr() (string, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	b, err := r.ReadN(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
