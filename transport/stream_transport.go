package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrFrameTooLarge indicates a frame length above MaxFrameLength.
var ErrFrameTooLarge = errors.New("frame too large")

// StreamTransport frames packets over a byte stream as
// [length (4 bytes, big-endian)][packet type (1 byte)][data].
// Send is safe for concurrent use; Receive must be called from one goroutine.
type StreamTransport struct {
	rwc     io.ReadWriteCloser
	writeMu sync.Mutex
	lenBuf  [4]byte
}

// NewStreamTransport wraps rwc, typically a net.Conn.
func NewStreamTransport(rwc io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{rwc: rwc}
}

// Send writes one length-prefixed packet.
func (t *StreamTransport) Send(packet *Packet) error {
	data, err := packet.Serialize()
	if err != nil {
		return err
	}
	if len(data) > MaxFrameLength {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(data)))
	copy(frame[4:], data)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err = t.rwc.Write(frame)
	return err
}

// Receive reads one length-prefixed packet. A clean close between frames
// yields io.EOF; a close mid-frame yields io.ErrUnexpectedEOF.
func (t *StreamTransport) Receive() (*Packet, error) {
	if _, err := io.ReadFull(t.rwc, t.lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(t.lenBuf[:])
	if n > MaxFrameLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(t.rwc, data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return ParsePacket(data)
}

// Close closes the underlying stream.
func (t *StreamTransport) Close() error {
	return t.rwc.Close()
}
