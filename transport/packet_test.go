package transport

import (
	"bytes"
	"errors"
	"testing"
)

// TestPacketSerialize tests the Packet.Serialize method.
func TestPacketSerialize(t *testing.T) {
	tests := []struct {
		name    string
		packet  *Packet
		wantErr bool
	}{
		{
			name: "valid packet",
			packet: &Packet{
				PacketType: PacketHeader,
				Data:       []byte{1, 2, 3, 4},
			},
			wantErr: false,
		},
		{
			name: "empty data",
			packet: &Packet{
				PacketType: PacketStatus,
				Data:       []byte{},
			},
			wantErr: false,
		},
		{
			name: "nil data",
			packet: &Packet{
				PacketType: PacketData,
				Data:       nil,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.packet.Serialize()
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			// Verify format: [packet type (1 byte)][data]
			if len(result) != 1+len(tt.packet.Data) {
				t.Errorf("Expected length %d, got %d", 1+len(tt.packet.Data), len(result))
			}
			if result[0] != byte(tt.packet.PacketType) {
				t.Errorf("Expected packet type %d, got %d", tt.packet.PacketType, result[0])
			}
			if !bytes.Equal(result[1:], tt.packet.Data) {
				t.Errorf("Data mismatch: got %v, want %v", result[1:], tt.packet.Data)
			}
		})
	}
}

// TestParsePacket tests parsing of serialized packets, including rejection of
// unknown types.
func TestParsePacket(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantType PacketType
		wantData []byte
		wantErr  error
	}{
		{"header", []byte{byte(PacketHeader), 0xAA}, PacketHeader, []byte{0xAA}, nil},
		{"request_empty", []byte{byte(PacketRequest)}, PacketRequest, []byte{}, nil},
		{"unknown_zero", []byte{0, 1}, 0, nil, ErrUnknownPacketType},
		{"unknown_high", []byte{200}, 0, nil, ErrUnknownPacketType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePacket(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePacket error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePacket unexpected error: %v", err)
			}
			if p.PacketType != tt.wantType || !bytes.Equal(p.Data, tt.wantData) {
				t.Errorf("ParsePacket = %+v, want type %v data %v", p, tt.wantType, tt.wantData)
			}
		})
	}

	if _, err := ParsePacket(nil); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestPacketTypeString(t *testing.T) {
	names := map[PacketType]string{
		PacketHeader:   "header",
		PacketData:     "data",
		PacketStatus:   "status",
		PacketRequest:  "request",
		PacketType(99): "packet(99)",
	}
	for pt, want := range names {
		if got := pt.String(); got != want {
			t.Errorf("PacketType(%d).String() = %q, want %q", byte(pt), got, want)
		}
	}
}
