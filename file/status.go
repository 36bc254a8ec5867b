package file

import (
	"fmt"

	"github.com/opd-ai/packetxfer/stream"
)

// Status is the outcome code carried in a status frame.
type Status uint8

const (
	// StatusSucceed indicates the exchange step completed.
	StatusSucceed Status = iota
	// StatusCommunicationError indicates the transport failed mid-exchange.
	StatusCommunicationError
	// StatusFileNotFound indicates the sender has no such staged file.
	StatusFileNotFound
	// StatusNoNeedDownload indicates the receiver already holds an identical copy.
	StatusNoNeedDownload
	// StatusFailed is the generic failure.
	StatusFailed
	// StatusPacketNotFound indicates a requested sequence number is not available.
	StatusPacketNotFound
)

// String returns a short name for logs.
func (s Status) String() string {
	switch s {
	case StatusSucceed:
		return "succeed"
	case StatusCommunicationError:
		return "communication_error"
	case StatusFileNotFound:
		return "file_not_found"
	case StatusNoNeedDownload:
		return "no_need_download"
	case StatusFailed:
		return "failed"
	case StatusPacketNotFound:
		return "packet_not_found"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// StatusFrame is the body of a status packet.
// SequenceNo names the missing chunk for StatusPacketNotFound. In the
// Succeed answer to a pushed header it carries the receiver's packet length;
// zero means unspecified.
type StatusFrame struct {
	Code       Status
	SequenceNo uint32
	Message    string
}

// NewStatusFrame builds a frame, truncating the message to the 1-byte prefix limit.
func NewStatusFrame(code Status, seq uint32, message string) StatusFrame {
	if len(message) > 255 {
		message = message[:255]
	}
	return StatusFrame{Code: code, SequenceNo: seq, Message: message}
}

// Write emits code (1 byte), sequence number (4 bytes) and message (1-byte prefix).
func (f *StatusFrame) Write(w *stream.Writer) error {
	if err := w.WriteUint8(uint8(f.Code)); err != nil {
		return err
	}
	if err := w.WriteUint32(f.SequenceNo); err != nil {
		return err
	}
	return w.WriteStr(f.Message)
}

// Read is the inverse of Write.
func (f *StatusFrame) Read(r *stream.Reader) error {
	code, err := r.ReadUint8()
	if err != nil {
		return err
	}
	seq, err := r.ReadUint32()
	if err != nil {
		return err
	}
	msg, err := r.ReadStr()
	if err != nil {
		return err
	}
	*f = StatusFrame{Code: Status(code), SequenceNo: seq, Message: msg}
	return nil
}

// StatusError surfaces a non-success status from the peer as an error.
type StatusError struct {
	Status     Status
	SequenceNo uint32
	Message    string
}

func (e *StatusError) Error() string {
	s := "transfer status " + e.Status.String()
	if e.Status == StatusPacketNotFound {
		s += fmt.Sprintf(" (sequence %d)", e.SequenceNo)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

func statusError(f StatusFrame) *StatusError {
	return &StatusError{Status: f.Code, SequenceNo: f.SequenceNo, Message: f.Message}
}
