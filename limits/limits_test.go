package limits

import (
	"errors"
	"math"
	"testing"
)

// TestClampPacketLength verifies out-of-range packet lengths are corrected, not rejected.
func TestClampPacketLength(t *testing.T) {
	tests := []struct {
		name string
		in   uint32
		want uint32
	}{
		{"zero", 0, MinPacketLength},
		{"below_min", 100, MinPacketLength},
		{"at_min", MinPacketLength, MinPacketLength},
		{"default", DefaultPacketLength, DefaultPacketLength},
		{"at_max", MaxPacketLength, MaxPacketLength},
		{"above_max", MaxPacketLength + 1, MaxPacketLength},
		{"max_uint32", math.MaxUint32, MaxPacketLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampPacketLength(tt.in); got != tt.want {
				t.Errorf("ClampPacketLength(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

// TestValidatePacketLength tests the rejecting variant of the bounds check.
func TestValidatePacketLength(t *testing.T) {
	tests := []struct {
		name    string
		in      uint32
		wantErr bool
	}{
		{"below_min", MinPacketLength - 1, true},
		{"at_min", MinPacketLength, false},
		{"at_max", MaxPacketLength, false},
		{"above_max", MaxPacketLength + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePacketLength(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrPacketLengthOutOfRange) {
					t.Errorf("ValidatePacketLength(%d) error = %v, want ErrPacketLengthOutOfRange", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidatePacketLength(%d) unexpected error: %v", tt.in, err)
			}
		})
	}
}

func TestValidateChunkPayload(t *testing.T) {
	if err := ValidateChunkPayload(MaxPacketLength); err != nil {
		t.Errorf("max payload rejected: %v", err)
	}
	if err := ValidateChunkPayload(MaxPacketLength + 1); !errors.Is(err, ErrChunkTooLarge) {
		t.Errorf("oversized payload error = %v, want ErrChunkTooLarge", err)
	}
}

func TestValidateLogicalName(t *testing.T) {
	name := make([]byte, MaxLogicalNameLength)
	for i := range name {
		name[i] = 'a'
	}
	if err := ValidateLogicalName(string(name)); err != nil {
		t.Errorf("255-byte name rejected: %v", err)
	}
	if err := ValidateLogicalName(string(name) + "b"); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("256-byte name error = %v, want ErrNameTooLong", err)
	}
}

// TestCalcPacketCount checks the ceiling division across the packet length range.
func TestCalcPacketCount(t *testing.T) {
	tests := []struct {
		name         string
		totalLength  uint32
		packetLength uint32
		want         uint32
	}{
		{"empty_payload", 0, 65536, 0},
		{"empty_payload_min_length", 0, MinPacketLength, 0},
		{"one_byte", 1, 65536, 1},
		{"exact_multiple", 65536 * 4, 65536, 4},
		{"one_over_multiple", 65536*4 + 1, 65536, 5},
		{"million_bytes", 1_000_000, 65536, 16},
		{"max_packet", MaxPacketLength, MaxPacketLength, 1},
		{"max_uint32_min_packet", math.MaxUint32, MinPacketLength, 16777216},
		{"undersized_length_clamped", 1000, 100, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalcPacketCount(tt.totalLength, tt.packetLength); got != tt.want {
				t.Errorf("CalcPacketCount(%d, %d) = %d, want %d", tt.totalLength, tt.packetLength, got, tt.want)
			}
		})
	}
}

// TestCalcPacketCountMatchesCeil sweeps lengths around packet boundaries.
func TestCalcPacketCountMatchesCeil(t *testing.T) {
	for _, pl := range []uint32{MinPacketLength, 1000, 4096, DefaultPacketLength, MaxPacketLength} {
		for _, total := range []uint32{1, pl - 1, pl, pl + 1, 3*pl - 1, 3 * pl, 3*pl + 1} {
			want := uint32(math.Ceil(float64(total) / float64(pl)))
			if got := CalcPacketCount(total, pl); got != want {
				t.Errorf("CalcPacketCount(%d, %d) = %d, want %d", total, pl, got, want)
			}
		}
	}
}
