package transport

import (
	"bytes"
	"testing"
)

// nopReadWriteCloser discards writes and replays one buffer for reads.
type nopReadWriteCloser struct {
	r *bytes.Reader
}

func (n *nopReadWriteCloser) Read(p []byte) (int, error)  { return n.r.Read(p) }
func (n *nopReadWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (n *nopReadWriteCloser) Close() error                { return nil }

// BenchmarkPacketSerialize measures envelope encoding of a 64 KiB data packet
func BenchmarkPacketSerialize(b *testing.B) {
	packet := &Packet{PacketType: PacketData, Data: make([]byte, 64*1024)}

	b.ReportAllocs()
	b.SetBytes(int64(len(packet.Data)))
	for i := 0; i < b.N; i++ {
		if _, err := packet.Serialize(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkStreamTransportSend measures framing a data packet onto a stream
func BenchmarkStreamTransportSend(b *testing.B) {
	tr := NewStreamTransport(&nopReadWriteCloser{r: bytes.NewReader(nil)})
	packet := &Packet{PacketType: PacketData, Data: make([]byte, 64*1024)}

	b.ReportAllocs()
	b.SetBytes(int64(len(packet.Data)))
	for i := 0; i < b.N; i++ {
		if err := tr.Send(packet); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkStreamTransportReceive measures decoding framed packets
func BenchmarkStreamTransportReceive(b *testing.B) {
	var frames bytes.Buffer
	writer := NewStreamTransport(nopCloser{&frames})
	packet := &Packet{PacketType: PacketData, Data: make([]byte, 64*1024)}
	if err := writer.Send(packet); err != nil {
		b.Fatal(err)
	}
	frame := frames.Bytes()

	b.ReportAllocs()
	b.SetBytes(int64(len(packet.Data)))
	for i := 0; i < b.N; i++ {
		tr := NewStreamTransport(&nopReadWriteCloser{r: bytes.NewReader(frame)})
		if _, err := tr.Receive(); err != nil {
			b.Fatal(err)
		}
	}
}
