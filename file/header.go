package file

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/packetxfer/crypto"
	"github.com/opd-ai/packetxfer/limits"
	"github.com/opd-ai/packetxfer/stream"
)

// StagingPrefix marks a file that is still being written. A receiver only
// renames it to its resolved name once the checksum gate passes.
const StagingPrefix = ".xfer-"

// Header describes a whole logical payload.
//
// Wire layout: totalLength (4), checksum (16), logicalName (1-byte prefix + N),
// packetCount (4).
type Header struct {
	TotalLength uint32
	Checksum    crypto.Digest
	LogicalName string
	PacketCount uint32

	// StagingPath is the local directory the logical name resolves against.
	// It never goes on the wire.
	StagingPath string
	// Algorithm is the local hash configuration. It never goes on the wire.
	Algorithm crypto.Algorithm
}

// Write emits the header fields in wire order.
func (h *Header) Write(w *stream.Writer) error {
	if err := w.WriteUint32(h.TotalLength); err != nil {
		return err
	}
	if err := w.WriteBytes(h.Checksum[:]); err != nil {
		return err
	}
	if err := w.WriteStr(h.LogicalName); err != nil {
		return err
	}
	return w.WriteUint32(h.PacketCount)
}

// Read populates the wire fields from r. If the stream fails the wire
// fields are zeroed and the stream's error is returned unchanged.
func (h *Header) Read(r *stream.Reader) error {
	var in Header
	var err error
	defer func() {
		if err != nil {
			h.Reset()
		}
	}()

	if in.TotalLength, err = r.ReadUint32(); err != nil {
		return err
	}
	if err = r.ReadBytes(in.Checksum[:]); err != nil {
		return err
	}
	if in.LogicalName, err = r.ReadStr(); err != nil {
		return err
	}
	if in.PacketCount, err = r.ReadUint32(); err != nil {
		return err
	}

	h.TotalLength = in.TotalLength
	h.Checksum = in.Checksum
	h.LogicalName = in.LogicalName
	h.PacketCount = in.PacketCount
	return nil
}

// Update recomputes TotalLength and Checksum from the staged file.
// PacketCount is left to the owning Context.
func (h *Header) Update() error {
	p := h.ResolvedFileName()
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, p)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, p)
	}
	if info.Size() > math.MaxUint32 {
		return fmt.Errorf("%w: %s is %d bytes", ErrPayloadTooLarge, p, info.Size())
	}

	sum, err := crypto.HashFile(p, h.Algorithm)
	if err != nil {
		return err
	}
	h.Checksum = sum
	h.TotalLength = uint32(info.Size())
	return nil
}

// CheckChecksum verifies the file at the resolved name against Checksum.
func (h *Header) CheckChecksum() bool {
	return h.CheckChecksumFile(h.ResolvedFileName())
}

// CheckChecksumFile verifies the file at p against Checksum.
// Any hashing failure counts as a mismatch.
func (h *Header) CheckChecksumFile(p string) bool {
	sum, err := crypto.HashFile(p, h.Algorithm)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "CheckChecksumFile",
			"path":     p,
			"error":    err.Error(),
		}).Debug("Checksum verification could not hash file")
		return false
	}
	return sum == h.Checksum
}

// FormatChecksum renders the checksum as uppercase hex for diagnostics.
func (h *Header) FormatChecksum() string {
	return h.Checksum.String()
}

// ResolvedFileName is the final local path of the payload.
func (h *Header) ResolvedFileName() string {
	return filepath.Join(h.StagingPath, filepath.FromSlash(h.LogicalName))
}

// StagingFileName is the temporary local path the payload is written to
// before the checksum gate passes.
func (h *Header) StagingFileName() string {
	dir, base := path.Split(h.LogicalName)
	return filepath.Join(h.StagingPath, filepath.FromSlash(dir), StagingPrefix+base)
}

// IsEmpty reports an uninitialised or empty-payload header.
func (h *Header) IsEmpty() bool {
	return h.TotalLength == 0 && h.PacketCount == 0
}

// Equal compares the wire fields only.
func (h *Header) Equal(o *Header) bool {
	return h.TotalLength == o.TotalLength &&
		h.Checksum == o.Checksum &&
		h.LogicalName == o.LogicalName &&
		h.PacketCount == o.PacketCount
}

// Reset clears the wire fields and keeps the local configuration.
func (h *Header) Reset() {
	h.TotalLength = 0
	h.Checksum = crypto.Digest{}
	h.LogicalName = ""
	h.PacketCount = 0
}

// ValidateLogicalName checks that name is a relative, slash-separated path
// that stays inside the staging directory once resolved.
func ValidateLogicalName(name string) error {
	if name == "" || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := limits.ValidateLogicalName(name); err != nil {
		return err
	}
	if strings.ContainsRune(name, '\\') || path.IsAbs(name) || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return fmt.Errorf("%w: %q", ErrDirectoryTraversal, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return fmt.Errorf("%w: %q", ErrDirectoryTraversal, name)
		}
	}
	cleaned := path.Clean(name)
	if cleaned == "." || strings.HasSuffix(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
