package file

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opd-ai/packetxfer/stream"
	"github.com/opd-ai/packetxfer/transport"
)

// mockTransport replays scripted inbound packets and records outbound ones.
type mockTransport struct {
	inbound []*transport.Packet
	sent    []*transport.Packet
	closed  bool
}

func newMockTransport(inbound ...*transport.Packet) *mockTransport {
	return &mockTransport{inbound: inbound}
}

func (m *mockTransport) Send(packet *transport.Packet) error {
	if m.closed {
		return io.ErrClosedPipe
	}
	m.sent = append(m.sent, packet)
	return nil
}

func (m *mockTransport) Receive() (*transport.Packet, error) {
	if m.closed || len(m.inbound) == 0 {
		return nil, io.EOF
	}
	p := m.inbound[0]
	m.inbound = m.inbound[1:]
	return p, nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return nil
}

// encodePacket serializes e into a packet of type t using big-endian fields.
func encodePacket(t *testing.T, pt transport.PacketType, e Encoder) *transport.Packet {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.Write(stream.NewWriter(&buf, nil)))
	return &transport.Packet{PacketType: pt, Data: buf.Bytes()}
}

// decodeStatus parses a status packet.
func decodeStatus(t *testing.T, p *transport.Packet) StatusFrame {
	t.Helper()
	require.Equal(t, transport.PacketStatus, p.PacketType)
	var f StatusFrame
	require.NoError(t, f.Read(stream.NewReader(bytes.NewReader(p.Data), nil)))
	return f
}

// testPayload returns n deterministic, non-repeating-looking bytes.
func testPayload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte((i*31 + i/251) % 256)
	}
	return b
}

// stageFile writes data under dir at the slash-separated logical name.
func stageFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

// newPipe connects two stream transports back to back.
func newPipe(t *testing.T) (client, server transport.Transport) {
	t.Helper()
	a, b := net.Pipe()
	client = transport.NewStreamTransport(a)
	server = transport.NewStreamTransport(b)
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

// startServe runs m.Serve on tr and returns a channel with its result.
func startServe(m *Manager, tr transport.Transport) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- m.Serve(context.Background(), tr)
	}()
	return done
}

func testOptions(dir string) Options {
	opts := DefaultOptions()
	opts.PacketLength = testPacketLength
	opts.ChunksPerFrame = 3
	opts.StagingDir = dir
	return opts
}
