package file

import (
	"encoding/binary"

	"github.com/opd-ai/packetxfer/crypto"
	"github.com/opd-ai/packetxfer/limits"
	"github.com/opd-ai/packetxfer/transport"
)

// Options configures a Manager. Both peers of a transfer must agree on
// CountWidth, ByteOrder and Algorithm. With CountWidthNone they must also
// agree on ChunksPerFrame, since the receiver derives each frame's count
// from it.
type Options struct {
	// PacketLength is the payload bytes per chunk. It is clamped into
	// [limits.MinPacketLength, limits.MaxPacketLength].
	PacketLength uint32
	// CountWidth is the width of the count prefix on data frames.
	CountWidth CountWidth
	// ChunksPerFrame is how many chunks a data frame carries at most.
	ChunksPerFrame int
	// ByteOrder applies to every multi-byte integer on the wire.
	ByteOrder binary.ByteOrder
	// Algorithm selects the 16-byte content digest.
	Algorithm crypto.Algorithm
	// StagingDir is where logical names resolve.
	StagingDir string
	// MaxRounds bounds how many times Fetch re-requests missing chunks.
	MaxRounds int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		PacketLength:   limits.DefaultPacketLength,
		CountWidth:     CountWidth16,
		ChunksPerFrame: 4,
		ByteOrder:      binary.BigEndian,
		Algorithm:      crypto.MD5,
		StagingDir:     ".",
		MaxRounds:      3,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	o.PacketLength = limits.ClampPacketLength(o.PacketLength)
	if !o.CountWidth.Valid() {
		o.CountWidth = d.CountWidth
	}
	if o.ChunksPerFrame < 1 {
		o.ChunksPerFrame = 1
	}
	if o.ByteOrder == nil {
		o.ByteOrder = d.ByteOrder
	}
	if o.StagingDir == "" {
		o.StagingDir = d.StagingDir
	}
	if o.MaxRounds < 1 {
		o.MaxRounds = 1
	}
	return o
}

// chunksPerFrame caps ChunksPerFrame by the count width and by the largest
// frame a transport accepts for chunks of packetLength bytes.
func (o Options) chunksPerFrame(packetLength uint32) int {
	n := o.ChunksPerFrame
	if limit := o.CountWidth.MaxCount(); n > limit {
		n = limit
	}
	// type byte + widest count prefix, then sequence number and length per chunk
	if fit := (transport.MaxFrameLength - 5) / (int(packetLength) + 8); n > fit {
		n = fit
	}
	if n < 1 {
		n = 1
	}
	return n
}
