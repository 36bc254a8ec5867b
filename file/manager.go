package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/packetxfer/stream"
	"github.com/opd-ai/packetxfer/transport"
)

// maxRequestSequences is the most sequence numbers one request frame holds.
const maxRequestSequences = math.MaxUint16

// Manager drives transfers over a transport: Push sends a staged file, Fetch
// pulls one by name, and Serve answers the peer of either.
type Manager struct {
	opts      Options
	transfers map[uuid.UUID]*Context
	mu        sync.RWMutex
}

// NewManager creates a new transfer manager.
func NewManager(opts Options) *Manager {
	opts = opts.normalized()

	logrus.WithFields(logrus.Fields{
		"function":      "NewManager",
		"packet_length": opts.PacketLength,
		"count_width":   int(opts.CountWidth),
		"algorithm":     opts.Algorithm.String(),
		"staging_dir":   opts.StagingDir,
	}).Info("Creating new transfer manager")

	return &Manager{
		opts:      opts,
		transfers: make(map[uuid.UUID]*Context),
	}
}

// Options returns the normalized options in use.
func (m *Manager) Options() Options { return m.opts }

// Transfer retrieves an active transfer.
func (m *Manager) Transfer(id uuid.UUID) (*Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, exists := m.transfers[id]
	if !exists {
		return nil, fmt.Errorf("transfer not found: %s", id)
	}
	return c, nil
}

// ActiveTransfers returns the IDs of transfers currently in flight.
func (m *Manager) ActiveTransfers() []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(m.transfers))
	for id := range m.transfers {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) track(c *Context) {
	m.mu.Lock()
	m.transfers[c.ID()] = c
	m.mu.Unlock()
}

func (m *Manager) untrack(c *Context) {
	m.mu.Lock()
	delete(m.transfers, c.ID())
	m.mu.Unlock()
}

func (m *Manager) newContext(direction Direction, packetLength uint32, name string) *Context {
	c := NewContext(direction, packetLength)
	h := c.Header()
	h.StagingPath = m.opts.StagingDir
	h.Algorithm = m.opts.Algorithm
	h.LogicalName = name
	return c
}

// Push sends the staged file name to the peer. The returned context carries
// the final status; StatusNoNeedDownload means the peer already had it.
//
// Cancelling ctx closes tr.
func (m *Manager) Push(ctx context.Context, tr transport.Transport, name string) (*Context, error) {
	if err := ValidateLogicalName(name); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { tr.Close() })
	defer stop()

	c := m.newContext(Upload, m.opts.PacketLength, name)
	m.track(c)
	defer m.untrack(c)

	if err := c.Update(); err != nil {
		return c, err
	}

	logrus.WithFields(logrus.Fields{
		"function":     "Push",
		"transfer_id":  c.ID().String(),
		"logical_name": name,
		"total_length": c.Header().TotalLength,
		"packet_count": c.PacketCount(),
	}).Info("Initiating push transfer")

	c.TransferHeader()
	if err := m.send(tr, transport.PacketHeader, c.Header()); err != nil {
		return c, m.fail(ctx, c, err)
	}

	answer, err := m.receiveStatus(tr)
	if err != nil {
		return c, m.fail(ctx, c, err)
	}
	c.SetStatus(answer.Code)
	switch answer.Code {
	case StatusSucceed:
		if answer.SequenceNo != 0 && answer.SequenceNo != c.PacketLength() {
			err := fmt.Errorf("%w: peer uses %d, local %d",
				ErrPacketLengthMismatch, answer.SequenceNo, c.PacketLength())
			if sendErr := m.reject(tr, c, StatusFailed, err); sendErr != nil {
				return c, m.fail(ctx, c, sendErr)
			}
			return c, err
		}
	case StatusNoNeedDownload:
		logrus.WithFields(logrus.Fields{
			"function":     "Push",
			"transfer_id":  c.ID().String(),
			"logical_name": name,
		}).Info("Peer already holds an identical copy")
		return c, nil
	default:
		return c, statusError(answer)
	}

	if c.PacketCount() > 0 {
		f, err := os.Open(c.Header().ResolvedFileName())
		if err != nil {
			return c, m.fail(ctx, c, err)
		}
		defer f.Close()

		seqs := make([]uint32, c.PacketCount())
		for i := range seqs {
			seqs[i] = uint32(i)
		}
		if err := m.sendChunks(ctx, tr, c, f, seqs); err != nil {
			return c, m.fail(ctx, c, err)
		}
	}

	final, err := m.receiveStatus(tr)
	if err != nil {
		return c, m.fail(ctx, c, err)
	}
	c.SetStatus(final.Code)
	if final.Code != StatusSucceed {
		return c, statusError(final)
	}

	logrus.WithFields(logrus.Fields{
		"function":     "Push",
		"transfer_id":  c.ID().String(),
		"logical_name": name,
		"transferred":  c.Transferred(),
	}).Info("Push transfer completed")
	return c, nil
}

// Fetch pulls name from the peer into the staging directory, requesting
// only the chunks it is still missing for up to MaxRounds passes.
//
// Cancelling ctx closes tr.
func (m *Manager) Fetch(ctx context.Context, tr transport.Transport, name string) (*Context, error) {
	if err := ValidateLogicalName(name); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { tr.Close() })
	defer stop()

	c := m.newContext(Download, m.opts.PacketLength, name)
	m.track(c)
	defer m.untrack(c)

	logrus.WithFields(logrus.Fields{
		"function":      "Fetch",
		"transfer_id":   c.ID().String(),
		"logical_name":  name,
		"packet_length": c.PacketLength(),
	}).Info("Initiating fetch transfer")

	req := &Request{LogicalName: name, PacketLength: c.PacketLength()}
	if err := m.send(tr, transport.PacketRequest, req); err != nil {
		return c, m.fail(ctx, c, err)
	}
	if err := m.receiveHeader(tr, c); err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			c.SetStatus(se.Status)
			return c, err
		}
		return c, m.fail(ctx, c, err)
	}
	if !c.Consistent() {
		err := fmt.Errorf("%w: header declares %d packets, expected %d",
			ErrUnexpectedPacket, c.Header().PacketCount, c.PacketCount())
		m.reject(tr, c, StatusFailed, err)
		return c, err
	}

	if c.Header().CheckChecksum() {
		c.SetStatus(StatusNoNeedDownload)
		logrus.WithFields(logrus.Fields{
			"function":     "Fetch",
			"transfer_id":  c.ID().String(),
			"logical_name": name,
		}).Info("Local copy already matches, skipping download")
		return c, m.sendStatus(tr, NewStatusFrame(StatusNoNeedDownload, 0, ""))
	}

	asm, err := NewAssembler(c)
	if err != nil {
		m.reject(tr, c, StatusFailed, err)
		return c, err
	}
	defer asm.Abort()

	for round := 0; round < m.opts.MaxRounds && !asm.Complete(); round++ {
		if err := m.fetchMissing(ctx, tr, c, asm); err != nil {
			var se *StatusError
			if errors.As(err, &se) {
				c.SetStatus(se.Status)
				return c, err
			}
			return c, m.fail(ctx, c, err)
		}
	}

	if err := asm.Commit(); err != nil {
		m.reject(tr, c, StatusFailed, err)
		return c, err
	}

	c.SetStatus(StatusSucceed)
	logrus.WithFields(logrus.Fields{
		"function":     "Fetch",
		"transfer_id":  c.ID().String(),
		"logical_name": name,
		"transferred":  c.Transferred(),
	}).Info("Fetch transfer completed")
	return c, m.sendStatus(tr, NewStatusFrame(StatusSucceed, 0, ""))
}

// fetchMissing requests every missing chunk once, packing the sequence
// numbers into request frames no larger than one packet length.
func (m *Manager) fetchMissing(ctx context.Context, tr transport.Transport, c *Context, asm *Assembler) error {
	missing := asm.Missing()
	items := make([]SequenceNo, len(missing))
	for i, seq := range missing {
		items[i] = SequenceNo(seq)
	}

	budget := c.PacketLength()
	if budget > maxRequestSequences*4 {
		budget = maxRequestSequences * 4
	}
	rb := NewRangeBuilder(items, budget, m.opts.ByteOrder)
	ranges, err := rb.Build()
	if err != nil {
		return err
	}

	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := &Request{
			LogicalName:  c.Header().LogicalName,
			PacketLength: c.PacketLength(),
			Sequences:    make([]uint32, len(r)),
		}
		for i, seq := range r {
			req.Sequences[i] = uint32(seq)
		}
		if err := m.send(tr, transport.PacketRequest, req); err != nil {
			return err
		}
		if err := m.receiveChunks(ctx, tr, c, asm, len(r)); err != nil {
			return err
		}
		rb.MarkEmitted(len(r))

		logrus.WithFields(logrus.Fields{
			"function":    "fetchMissing",
			"transfer_id": c.ID().String(),
			"requested":   len(r),
			"emitted":     rb.Emitted(),
			"last_range":  rb.IsLastPart(),
			"progress":    c.Progress(),
		}).Debug("Requested range received")
	}
	return nil
}

// Serve answers one peer until it closes the transport: headers start
// incoming pushes, requests are answered from the staging directory, and
// statuses are logged. A clean close returns nil.
//
// Cancelling ctx closes tr.
func (m *Manager) Serve(ctx context.Context, tr transport.Transport) error {
	stop := context.AfterFunc(ctx, func() { tr.Close() })
	defer stop()

	served := make(map[servedKey]*Context)
	defer func() {
		for _, c := range served {
			m.untrack(c)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkt, err := tr.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch pkt.PacketType {
		case transport.PacketHeader:
			err = m.acceptPush(ctx, tr, pkt, served)
		case transport.PacketRequest:
			err = m.answerRequest(ctx, tr, pkt, served)
		case transport.PacketStatus:
			err = m.logPeerStatus(pkt)
		default:
			err = fmt.Errorf("%w: %s outside a transfer", ErrUnexpectedPacket, pkt.PacketType)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// servedKey identifies a file answered to requests. The packet length is
// part of the key because it changes the packet count.
type servedKey struct {
	name         string
	packetLength uint32
}

// forgetServed drops every cached upload context for name so the next
// request rebuilds its header from the file on disk.
func (m *Manager) forgetServed(served map[servedKey]*Context, name string) {
	for key, c := range served {
		if key.name == name {
			m.untrack(c)
			delete(served, key)
		}
	}
}

// acceptPush receives one pushed file. The Succeed answer to the header
// carries the local packet length in its sequence number field so the
// pusher can abort before sending data the receiver would drop.
func (m *Manager) acceptPush(ctx context.Context, tr transport.Transport, pkt *transport.Packet, served map[servedKey]*Context) error {
	var h Header
	if err := h.Read(m.reader(pkt)); err != nil {
		return err
	}
	h.StagingPath = m.opts.StagingDir
	h.Algorithm = m.opts.Algorithm

	c := NewContext(Download, m.opts.PacketLength)
	c.SetHeader(h)
	m.track(c)
	defer m.untrack(c)

	logrus.WithFields(logrus.Fields{
		"function":     "acceptPush",
		"transfer_id":  c.ID().String(),
		"logical_name": h.LogicalName,
		"total_length": h.TotalLength,
		"packet_count": h.PacketCount,
	}).Info("Incoming push transfer")

	if err := ValidateLogicalName(h.LogicalName); err != nil {
		return m.reject(tr, c, StatusFailed, err)
	}
	if !c.Consistent() {
		return m.reject(tr, c, StatusFailed, fmt.Errorf("%w: header declares %d packets, expected %d",
			ErrUnexpectedPacket, h.PacketCount, c.PacketCount()))
	}
	if c.Header().CheckChecksum() {
		c.SetStatus(StatusNoNeedDownload)
		return m.sendStatus(tr, NewStatusFrame(StatusNoNeedDownload, 0, ""))
	}

	asm, err := NewAssembler(c)
	if err != nil {
		return m.reject(tr, c, StatusFailed, err)
	}
	defer asm.Abort()

	if err := m.sendStatus(tr, NewStatusFrame(StatusSucceed, c.PacketLength(), "")); err != nil {
		return err
	}
	if err := m.receiveChunks(ctx, tr, c, asm, int(c.PacketCount())); err != nil {
		var se *StatusError
		if !errors.As(err, &se) {
			return err
		}
		c.SetStatus(se.Status)
		logrus.WithFields(logrus.Fields{
			"function":     "acceptPush",
			"transfer_id":  c.ID().String(),
			"logical_name": h.LogicalName,
			"status":       se.Status.String(),
			"message":      se.Message,
		}).Warn("Peer abandoned push")
		return nil
	}
	if err := asm.Commit(); err != nil {
		return m.reject(tr, c, StatusFailed, err)
	}
	m.forgetServed(served, h.LogicalName)
	c.SetStatus(StatusSucceed)
	return m.sendStatus(tr, NewStatusFrame(StatusSucceed, 0, ""))
}

func (m *Manager) answerRequest(ctx context.Context, tr transport.Transport, pkt *transport.Packet, served map[servedKey]*Context) error {
	var req Request
	if err := req.Read(m.reader(pkt)); err != nil {
		return err
	}
	if err := ValidateLogicalName(req.LogicalName); err != nil {
		return m.sendStatus(tr, NewStatusFrame(StatusFailed, 0, err.Error()))
	}

	key := servedKey{name: req.LogicalName, packetLength: req.PacketLength}
	c, ok := served[key]
	if ok && req.IsHeaderRequest() {
		// each attempt starts from the file as it is now
		m.untrack(c)
		delete(served, key)
		ok = false
	}
	if !ok {
		c = m.newContext(Upload, req.PacketLength, req.LogicalName)
		if err := c.Update(); err != nil {
			return m.sendStatus(tr, NewStatusFrame(c.Status(), 0, err.Error()))
		}
		served[key] = c
		m.track(c)
	}

	if req.IsHeaderRequest() {
		logrus.WithFields(logrus.Fields{
			"function":      "answerRequest",
			"transfer_id":   c.ID().String(),
			"logical_name":  req.LogicalName,
			"packet_length": c.PacketLength(),
		}).Info("Answering header request")
		c.TransferHeader()
		return m.send(tr, transport.PacketHeader, c.Header())
	}

	for _, seq := range req.Sequences {
		if seq >= c.PacketCount() {
			c.SetStatus(StatusPacketNotFound)
			return m.sendStatus(tr, NewStatusFrame(StatusPacketNotFound, seq, ""))
		}
	}

	f, err := os.Open(c.Header().ResolvedFileName())
	if err != nil {
		return m.sendStatus(tr, NewStatusFrame(StatusFailed, 0, err.Error()))
	}
	defer f.Close()

	return m.sendChunks(ctx, tr, c, f, req.Sequences)
}

func (m *Manager) logPeerStatus(pkt *transport.Packet) error {
	var f StatusFrame
	if err := f.Read(m.reader(pkt)); err != nil {
		return err
	}
	entry := logrus.WithFields(logrus.Fields{
		"function": "logPeerStatus",
		"status":   f.Code.String(),
		"message":  f.Message,
	})
	if f.Code == StatusSucceed || f.Code == StatusNoNeedDownload {
		entry.Info("Peer reported transfer status")
	} else {
		entry.Warn("Peer reported transfer failure")
	}
	return nil
}

// sendChunks streams the listed chunks of the file behind r as data frames.
func (m *Manager) sendChunks(ctx context.Context, tr transport.Transport, c *Context, r io.ReaderAt, seqs []uint32) error {
	per := m.opts.chunksPerFrame(c.PacketLength())
	for i := 0; i < len(seqs); i += per {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+per, len(seqs))

		frame := NewChunkSequence(m.opts.CountWidth)
		for _, seq := range seqs[i:end] {
			chunk, err := c.LoadChunk(r, seq)
			if err != nil {
				return err
			}
			frame.Append(chunk)
			c.SetCurrentPacketNo(seq)
		}
		c.SetChunks(frame)
		c.TransferData()
		if err := m.send(tr, transport.PacketData, frame); err != nil {
			return err
		}
		for _, chunk := range frame.Chunks() {
			c.MarkTransferred(chunk.Len())
		}

		logrus.WithFields(logrus.Fields{
			"function":    "sendChunks",
			"transfer_id": c.ID().String(),
			"chunks":      frame.Len(),
			"first_part":  c.IsFirstPart(),
			"last_part":   c.IsLastPart(),
		}).Debug("Data frame sent")
	}
	return nil
}

// receiveChunks reads data frames until expected chunks have arrived.
// Chunks that do not fit the header are dropped and stay missing.
func (m *Manager) receiveChunks(ctx context.Context, tr transport.Transport, c *Context, asm *Assembler, expected int) error {
	per := m.opts.chunksPerFrame(c.PacketLength())
	for remaining := expected; remaining > 0; {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkt, err := tr.Receive()
		if err != nil {
			return err
		}
		switch pkt.PacketType {
		case transport.PacketData:
		case transport.PacketStatus:
			var f StatusFrame
			if err := f.Read(m.reader(pkt)); err != nil {
				return err
			}
			return statusError(f)
		default:
			return fmt.Errorf("%w: %s during data phase", ErrUnexpectedPacket, pkt.PacketType)
		}

		frame := NewChunkSequence(m.opts.CountWidth)
		frame.SetKnownCount(min(per, remaining))
		if err := frame.Read(m.reader(pkt)); err != nil {
			return err
		}
		if frame.Len() == 0 || frame.Len() > remaining {
			return fmt.Errorf("%w: data frame with %d chunks, %d outstanding", ErrUnexpectedChunk, frame.Len(), remaining)
		}
		c.SetChunks(frame)
		c.TransferData()

		for _, chunk := range frame.Chunks() {
			c.SetCurrentPacketNo(chunk.SequenceNo)
			if err := asm.Write(chunk); err != nil {
				if !errors.Is(err, ErrUnexpectedChunk) {
					return err
				}
				logrus.WithFields(logrus.Fields{
					"function":    "receiveChunks",
					"transfer_id": c.ID().String(),
					"sequence_no": chunk.SequenceNo,
					"error":       err.Error(),
				}).Warn("Dropping chunk")
			}
		}
		remaining -= frame.Len()
	}
	return nil
}

func (m *Manager) receiveHeader(tr transport.Transport, c *Context) error {
	pkt, err := tr.Receive()
	if err != nil {
		return err
	}
	switch pkt.PacketType {
	case transport.PacketHeader:
		h := *c.Header()
		if err := h.Read(m.reader(pkt)); err != nil {
			return err
		}
		if h.LogicalName != c.Header().LogicalName {
			return fmt.Errorf("%w: header for %q, requested %q", ErrUnexpectedPacket, h.LogicalName, c.Header().LogicalName)
		}
		c.SetHeader(h)
		c.TransferHeader()
		return nil
	case transport.PacketStatus:
		var f StatusFrame
		if err := f.Read(m.reader(pkt)); err != nil {
			return err
		}
		return statusError(f)
	default:
		return fmt.Errorf("%w: %s instead of header", ErrUnexpectedPacket, pkt.PacketType)
	}
}

func (m *Manager) receiveStatus(tr transport.Transport) (StatusFrame, error) {
	var f StatusFrame
	pkt, err := tr.Receive()
	if err != nil {
		return f, err
	}
	if pkt.PacketType != transport.PacketStatus {
		return f, fmt.Errorf("%w: %s instead of status", ErrUnexpectedPacket, pkt.PacketType)
	}
	err = f.Read(m.reader(pkt))
	return f, err
}

func (m *Manager) send(tr transport.Transport, t transport.PacketType, e Encoder) error {
	var buf bytes.Buffer
	if err := e.Write(stream.NewWriter(&buf, m.opts.ByteOrder)); err != nil {
		return err
	}
	return tr.Send(&transport.Packet{PacketType: t, Data: buf.Bytes()})
}

func (m *Manager) sendStatus(tr transport.Transport, f StatusFrame) error {
	return m.send(tr, transport.PacketStatus, &f)
}

func (m *Manager) reader(pkt *transport.Packet) *stream.Reader {
	return stream.NewReader(bytes.NewReader(pkt.Data), m.opts.ByteOrder)
}

// reject tells the peer the transfer failed and returns nil unless the
// status itself cannot be sent. cause is logged and recorded on c.
func (m *Manager) reject(tr transport.Transport, c *Context, code Status, cause error) error {
	c.SetStatus(code)
	c.TransferStatus()
	logrus.WithFields(logrus.Fields{
		"function":     "reject",
		"transfer_id":  c.ID().String(),
		"logical_name": c.Header().LogicalName,
		"status":       code.String(),
		"error":        cause.Error(),
	}).Warn("Rejecting transfer")
	return m.sendStatus(tr, NewStatusFrame(code, 0, cause.Error()))
}

// fail records a transport or protocol failure on c. A cancelled ctx takes
// precedence over the error it caused.
func (m *Manager) fail(ctx context.Context, c *Context, err error) error {
	c.SetStatus(StatusCommunicationError)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	logrus.WithFields(logrus.Fields{
		"function":    "fail",
		"transfer_id": c.ID().String(),
		"error":       err.Error(),
	}).Error("Transfer failed")
	return err
}
