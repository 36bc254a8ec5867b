// Package file implements the packetized file transfer protocol: the wire
// elements exchanged between two endpoints and the per-transfer state that
// drives them.
//
// # Overview
//
// A logical payload is described by a Header (total length, 16-byte content
// digest, logical name, packet count) and moved as fixed-size Chunks, each
// addressed by its sequence number. Chunks travel in data frames encoded as a
// ChunkSequence, optionally preceded by a 1, 2 or 4 byte count. Outcomes are
// carried by a StatusFrame.
//
//	packetCount = ceil(totalLength / packetLength)
//
// Every multi-byte integer uses one configurable byte order; strings carry a
// 1-byte length prefix.
//
// # Transfer Context
//
// A Context composes the header, the chunks held for the current frame, the
// status code and packet progress:
//
//	ctx := file.NewContext(file.Upload, 64*1024)
//	ctx.Header().StagingPath = "/srv/outbox"
//	ctx.Header().LogicalName = "report.csv"
//	if err := ctx.Update(); err != nil {
//	    // ctx.Status() is StatusFileNotFound for a missing file
//	}
//
// The packet length is clamped into [limits.MinPacketLength,
// limits.MaxPacketLength]. The context does not enforce phase ordering; the
// caller declares each phase with TransferHeader, TransferData and
// TransferStatus.
//
// # Integrity
//
// A receiver writes chunks to a staging file through an Assembler and only
// renames it to the resolved name once Header.CheckChecksumFile accepts it.
// Update and CheckChecksum are distinct: Update recomputes the header from
// the file, CheckChecksum verifies the file against the header.
//
// # Manager
//
// Manager drives whole exchanges over a transport.Transport:
//
//	m := file.NewManager(file.DefaultOptions())
//	go m.Serve(ctx, serverSide)
//	tc, err := m.Fetch(ctx, clientSide, "reports/q3.csv")
//
// Fetch requests the header, skips the download when the local copy already
// matches, then requests missing sequence numbers in ranges built by
// RangeBuilder so no request frame exceeds one packet length.
package file
