package transport

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopCloser adapts a bytes.Buffer into an io.ReadWriteCloser.
type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func TestStreamTransportOverPipe(t *testing.T) {
	left, right := net.Pipe()
	a := NewStreamTransport(left)
	b := NewStreamTransport(right)
	defer a.Close()
	defer b.Close()

	sent := []*Packet{
		{PacketType: PacketHeader, Data: []byte("header-bytes")},
		{PacketType: PacketData, Data: bytes.Repeat([]byte{7}, 4096)},
		{PacketType: PacketStatus, Data: []byte{}},
	}

	errCh := make(chan error, 1)
	go func() {
		for _, p := range sent {
			if err := a.Send(p); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- a.Close()
	}()

	for _, want := range sent {
		got, err := b.Receive()
		require.NoError(t, err)
		assert.Equal(t, want.PacketType, got.PacketType)
		assert.Equal(t, want.Data, got.Data)
	}

	_, err := b.Receive()
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, <-errCh)
}

func TestStreamTransportFrameLayout(t *testing.T) {
	buf := nopCloser{&bytes.Buffer{}}
	tr := NewStreamTransport(buf)
	require.NoError(t, tr.Send(&Packet{PacketType: PacketRequest, Data: []byte{1, 2}}))

	assert.Equal(t, []byte{0, 0, 0, 3, byte(PacketRequest), 1, 2}, buf.Bytes())
}

func TestStreamTransportRejectsOversizedFrame(t *testing.T) {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], MaxFrameLength+1)
	tr := NewStreamTransport(nopCloser{bytes.NewBuffer(hdr[:])})

	_, err := tr.Receive()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestStreamTransportTruncatedFrame(t *testing.T) {
	raw := []byte{0, 0, 0, 10, byte(PacketData), 1, 2}
	tr := NewStreamTransport(nopCloser{bytes.NewBuffer(raw)})

	_, err := tr.Receive()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
