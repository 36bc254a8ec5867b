package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Assembler writes received chunks into a staging file and renames it to
// the resolved name once every chunk is present and the checksum matches.
// Chunks may arrive in any order and duplicates overwrite in place.
type Assembler struct {
	ctx      *Context
	file     *os.File
	received []bool
	count    uint32
}

// NewAssembler creates the staging file for the context's header. The
// header must already carry the total length, checksum, and packet count.
func NewAssembler(ctx *Context) (*Assembler, error) {
	h := ctx.Header()
	if err := ValidateLogicalName(h.LogicalName); err != nil {
		return nil, err
	}

	staging := h.StagingFileName()
	if err := os.MkdirAll(filepath.Dir(staging), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	f, err := os.OpenFile(staging, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open staging file: %w", err)
	}
	if err := f.Truncate(int64(h.TotalLength)); err != nil {
		f.Close()
		os.Remove(staging)
		return nil, fmt.Errorf("failed to size staging file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":     "NewAssembler",
		"transfer_id":  ctx.ID().String(),
		"staging_file": staging,
		"total_length": h.TotalLength,
		"packet_count": ctx.PacketCount(),
	}).Debug("Staging file created")

	return &Assembler{
		ctx:      ctx,
		file:     f,
		received: make([]bool, ctx.PacketCount()),
	}, nil
}

// Write stores one chunk at its offset. The chunk's sequence number and
// length must match what the header implies for that position.
func (a *Assembler) Write(c *Chunk) error {
	if a.file == nil {
		return os.ErrClosed
	}
	off, n, err := a.ctx.ChunkRange(c.SequenceNo)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedChunk, err)
	}
	if c.Len() != n {
		return fmt.Errorf("%w: sequence %d has %d bytes, want %d", ErrUnexpectedChunk, c.SequenceNo, c.Len(), n)
	}
	if _, err := a.file.WriteAt(c.Payload, off); err != nil {
		return err
	}
	if !a.received[c.SequenceNo] {
		a.received[c.SequenceNo] = true
		a.count++
		a.ctx.MarkTransferred(n)
	}
	return nil
}

// Received reports whether sequence number seq has been written.
func (a *Assembler) Received(seq uint32) bool {
	return int(seq) < len(a.received) && a.received[seq]
}

// Complete reports whether every chunk has been written.
func (a *Assembler) Complete() bool {
	return int(a.count) == len(a.received)
}

// Missing returns the sequence numbers not yet written, in ascending order.
func (a *Assembler) Missing() []uint32 {
	var out []uint32
	for i, ok := range a.received {
		if !ok {
			out = append(out, uint32(i))
		}
	}
	return out
}

// Commit verifies the staged content against the header checksum and moves
// it to the resolved name. A mismatch removes the staging file.
func (a *Assembler) Commit() error {
	if !a.Complete() {
		return fmt.Errorf("%w: %d of %d chunks", ErrIncomplete, a.count, len(a.received))
	}
	h := a.ctx.Header()
	staging := h.StagingFileName()

	if err := a.file.Sync(); err != nil {
		a.Abort()
		return err
	}
	if err := a.file.Close(); err != nil {
		a.file = nil
		os.Remove(staging)
		return err
	}
	a.file = nil

	if !h.CheckChecksumFile(staging) {
		os.Remove(staging)
		a.ctx.SetStatus(StatusFailed)
		return fmt.Errorf("%w: %s want %s", ErrChecksumMismatch, h.LogicalName, h.FormatChecksum())
	}
	if err := os.Rename(staging, h.ResolvedFileName()); err != nil {
		os.Remove(staging)
		return fmt.Errorf("failed to commit %s: %w", h.LogicalName, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":     "Commit",
		"transfer_id":  a.ctx.ID().String(),
		"logical_name": h.LogicalName,
		"checksum":     h.FormatChecksum(),
	}).Info("Transfer committed")
	return nil
}

// Abort closes and removes the staging file. It is safe to call after Commit.
func (a *Assembler) Abort() {
	if a.file == nil {
		return
	}
	staging := a.file.Name()
	a.file.Close()
	a.file = nil
	if err := os.Remove(staging); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithFields(logrus.Fields{
			"function":     "Abort",
			"staging_file": staging,
			"error":        err.Error(),
		}).Warn("Failed to remove staging file")
	}
}
