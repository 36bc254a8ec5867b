package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/packetxfer/crypto"
	"github.com/opd-ai/packetxfer/limits"
)

func TestHeaderUpdateAndChecksumGate(t *testing.T) {
	for _, alg := range []crypto.Algorithm{crypto.MD5, crypto.BLAKE2b128} {
		t.Run(alg.String(), func(t *testing.T) {
			dir := t.TempDir()
			data := testPayload(testFileSizeOdd)
			p := stageFile(t, dir, testLogicalName, data)

			h := Header{StagingPath: dir, LogicalName: testLogicalName, Algorithm: alg}
			require.NoError(t, h.Update())
			assert.Equal(t, uint32(testFileSizeOdd), h.TotalLength)
			assert.False(t, h.Checksum.IsZero())
			assert.Len(t, h.FormatChecksum(), 32)
			assert.True(t, h.CheckChecksum())

			// any single-byte mutation fails the gate
			for _, i := range []int{0, testFileSizeOdd / 2, testFileSizeOdd - 1} {
				mutated := append([]byte(nil), data...)
				mutated[i] ^= 0x01
				require.NoError(t, os.WriteFile(p, mutated, 0o644))
				assert.False(t, h.CheckChecksum(), "byte %d mutated", i)
			}
		})
	}
}

func TestHeaderUpdateErrors(t *testing.T) {
	dir := t.TempDir()

	h := Header{StagingPath: dir, LogicalName: "absent.bin"}
	assert.ErrorIs(t, h.Update(), ErrFileNotFound)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	h.LogicalName = "sub"
	assert.ErrorIs(t, h.Update(), ErrFileNotFound)

	assert.False(t, (&Header{StagingPath: dir, LogicalName: "absent.bin"}).CheckChecksum())
}

func TestHeaderUpdateEmptyFile(t *testing.T) {
	dir := t.TempDir()
	stageFile(t, dir, "empty", nil)

	h := Header{StagingPath: dir, LogicalName: "empty"}
	require.NoError(t, h.Update())
	assert.Zero(t, h.TotalLength)
	assert.Equal(t, "D41D8CD98F00B204E9800998ECF8427E", h.FormatChecksum())
}

func TestHeaderFileNames(t *testing.T) {
	h := Header{StagingPath: "/srv/in", LogicalName: "reports/q3.csv"}
	assert.Equal(t, filepath.Join("/srv/in", "reports", "q3.csv"), h.ResolvedFileName())
	assert.Equal(t, filepath.Join("/srv/in", "reports", StagingPrefix+"q3.csv"), h.StagingFileName())
}

func TestHeaderEqualIgnoresLocalFields(t *testing.T) {
	a := Header{TotalLength: 1, LogicalName: "x", PacketCount: 1, StagingPath: "/a"}
	b := Header{TotalLength: 1, LogicalName: "x", PacketCount: 1, StagingPath: "/b", Algorithm: crypto.BLAKE2b128}
	assert.True(t, a.Equal(&b))
	b.PacketCount = 2
	assert.False(t, a.Equal(&b))
}

func TestValidateLogicalName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"plain", "report.csv", nil},
		{"nested", "a/b/c.txt", nil},
		{"dot_segment", "a/./b", nil},
		{"empty", "", ErrInvalidName},
		{"nul", "a\x00b", ErrInvalidName},
		{"current_dir", ".", ErrInvalidName},
		{"trailing_slash", "dir/", ErrInvalidName},
		{"parent", "../etc/passwd", ErrDirectoryTraversal},
		{"inner_parent", "a/../../b", ErrDirectoryTraversal},
		{"absolute", "/etc/passwd", ErrDirectoryTraversal},
		{"backslash", `a\b`, ErrDirectoryTraversal},
		{"too_long", strings.Repeat("a", 300), limits.ErrNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogicalName(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
