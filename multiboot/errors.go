package multiboot

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-multiboot/transport"
)

var (
	// ErrFailedHandshake indicates the key-exchange token did not carry the expected marker.
	ErrFailedHandshake = errors.New("failed handshake")

	// ErrTransmission indicates a payload word was not acknowledged with its offset.
	ErrTransmission = errors.New("transmission error")

	// ErrInvalidChecksum indicates the peer echoed a different checksum than the one sent.
	ErrInvalidChecksum = errors.New("invalid checksum")

	// ErrChecksumTimeout indicates the peer never signalled readiness for the checksum.
	ErrChecksumTimeout = errors.New("timed out waiting for checksum readiness")

	// ErrSessionUsed indicates Multiboot was called on a session that already ran.
	ErrSessionUsed = errors.New("session already used")
)

// HandshakeError indicates that the encryption token's high byte was not the token marker.
type HandshakeError struct {
	Token uint16
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("failed handshake: token 0x%04X does not carry marker 0x73", e.Token)
}

func (e *HandshakeError) Is(target error) bool {
	return target == ErrFailedHandshake
}

// TransmissionError indicates that a payload word's acknowledgment did not match its offset.
type TransmissionError struct {
	Offset   uint32
	Expected uint16
	Actual   uint16
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("transmission error at offset 0x%05X: expected ack 0x%04X, got 0x%04X",
		e.Offset, e.Expected, e.Actual)
}

func (e *TransmissionError) Is(target error) bool {
	return target == ErrTransmission
}

// ChecksumMismatchError indicates that the peer's echoed checksum differs from the local digest.
type ChecksumMismatchError struct {
	Expected uint16
	Actual   uint16
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("invalid checksum: sent 0x%04X, peer echoed 0x%04X", e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Is(target error) bool {
	return target == ErrInvalidChecksum
}

// ChecksumTimeoutError indicates that the peer kept answering busy to the checksum wait command.
type ChecksumTimeoutError struct {
	Timeout time.Duration
	Polls   int
	Last    uint16
}

func (e *ChecksumTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s (%d polls) waiting for checksum readiness, last reply 0x%04X",
		e.Timeout, e.Polls, e.Last)
}

func (e *ChecksumTimeoutError) Is(target error) bool {
	return target == ErrChecksumTimeout
}

// ErrorKind classifies the result of a multiboot session.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindFailedHandshake
	KindTransmission
	KindInvalidChecksum
	KindTimeout
	KindTransport
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFailedHandshake:
		return "failed_handshake"
	case KindTransmission:
		return "transmission_error"
	case KindInvalidChecksum:
		return "invalid_checksum"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	default:
		return "other"
	}
}

// Kind classifies err into a single ErrorKind. A nil error is KindNone.
func Kind(err error) ErrorKind {
	var terr *transport.Error
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrFailedHandshake):
		return KindFailedHandshake
	case errors.Is(err, ErrTransmission):
		return KindTransmission
	case errors.Is(err, ErrInvalidChecksum):
		return KindInvalidChecksum
	case errors.Is(err, ErrChecksumTimeout):
		return KindTimeout
	case errors.As(err, &terr):
		return KindTransport
	default:
		return KindOther
	}
}
