package emulator

import (
	"errors"

	"github.com/moffa90/go-multiboot/protocol"
)

// ErrInjected is the default error returned by WithTransportFailure.
var ErrInjected = errors.New("injected transport failure")

type options struct {
	token     byte
	finalB    byte
	marker    byte
	busyPolls int

	notReady      bool
	neverReady    bool
	wrongEcho     bool
	corruptAck    bool
	corruptOffset uint32

	failAt  int
	failErr error
}

func defaultOptions() options {
	return options{
		token:     0xF2,
		finalB:    0x02,
		marker:    protocol.TokenMarker,
		busyPolls: 2,
	}
}

// Option configures a Console.
type Option func(*options)

// WithToken sets the low byte of the encryption token reply.
func WithToken(token byte) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithFinalB sets the low byte of the reply to the length parameter.
func WithFinalB(finalB byte) Option {
	return func(o *options) {
		o.finalB = finalB
	}
}

// WithTokenMarker replaces the 0x73 marker in key-exchange replies.
func WithTokenMarker(marker byte) Option {
	return func(o *options) {
		o.marker = marker
	}
}

// WithBusyPolls sets how many checksum wait polls are answered busy before ready.
func WithBusyPolls(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.busyPolls = n
		}
	}
}

// WithNotReady makes the console ignore readiness probes.
func WithNotReady() Option {
	return func(o *options) {
		o.notReady = true
	}
}

// WithNeverReady makes the console answer busy to every checksum wait poll.
func WithNeverReady() Option {
	return func(o *options) {
		o.neverReady = true
	}
}

// WithWrongEcho makes the console echo a checksum different from its own digest.
func WithWrongEcho() Option {
	return func(o *options) {
		o.wrongEcho = true
	}
}

// WithCorruptAck corrupts the acknowledgment for the payload word at byte offset.
func WithCorruptAck(offset uint32) Option {
	return func(o *options) {
		o.corruptAck = true
		o.corruptOffset = offset
	}
}

// WithTransportFailure makes the n-th exchange (1-based) fail with err.
// A nil err uses ErrInjected.
func WithTransportFailure(n int, err error) Option {
	return func(o *options) {
		if err == nil {
			err = ErrInjected
		}
		o.failAt = n
		o.failErr = err
	}
}
