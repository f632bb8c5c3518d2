// Package emulator provides an in-memory multiboot peer.
//
// Console plays the receiving console's side of the protocol behind the
// transport.Transport interface: it decrypts and checksums what it receives the
// same way the real peer does, so a session that completes against it has produced a
// byte-exact payload. Faults can be injected at every step.
package emulator

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/moffa90/go-multiboot/protocol"
)

type state int

const (
	stateIdle state = iota
	stateHeader
	stateHeaderEnd
	stateKeys
	stateLength
	statePayload
	stateChecksumWait
	stateChecksumValue
	stateDone
)

// Console is an emulated peer. It is safe for use by one session at a time;
// inspection methods may be called from other goroutines.
type Console struct {
	mu sync.Mutex

	opts options

	state     state
	exchanges int
	sent      []uint32

	header  []byte
	pp      uint16
	finalA  byte
	words   int
	payload []byte
	crc     *protocol.Checksum
	ks      *protocol.Keystream
	polls   int

	hostDigest uint16
	digest     uint16
	finished   bool
}

// New creates a Console ready to accept a multiboot session.
func New(opts ...Option) *Console {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Console{opts: o}
}

// Exchange implements transport.Transport.
func (c *Console) Exchange(ctx context.Context, word uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.exchanges++
	c.sent = append(c.sent, word)
	if c.opts.failAt > 0 && c.exchanges == c.opts.failAt {
		return 0, c.opts.failErr
	}

	return c.handle(word), nil
}

func reply16(v uint16) uint32 {
	return uint32(v) << 16
}

func (c *Console) tokenReply(low byte) uint32 {
	return reply16(uint16(c.opts.marker)<<8 | uint16(low))
}

func (c *Console) handle(word uint32) uint32 {
	cmd := uint16(word)

	switch c.state {
	case stateIdle:
		switch cmd {
		case protocol.CmdProbe:
			if c.opts.notReady {
				return 0
			}
			return reply16(protocol.RespReady)
		case protocol.CmdHeaderStart:
			c.state = stateHeader
			c.header = c.header[:0]
		}
		return 0

	case stateHeader:
		c.header = binary.LittleEndian.AppendUint16(c.header, cmd)
		if len(c.header) == protocol.HeaderSize {
			c.state = stateHeaderEnd
		}
		return reply16(uint16(len(c.header) / 2))

	case stateHeaderEnd:
		if cmd == protocol.CmdHeaderEnd {
			c.state = stateKeys
		}
		return 0

	case stateKeys:
		switch {
		case cmd == protocol.CmdProbe:
			return reply16(protocol.RespReady)
		case cmd&0xFF00 == protocol.CmdKeyBase:
			c.pp = cmd & 0xFF
			return c.tokenReply(c.opts.token)
		case cmd&0xFF00 == protocol.CmdFinalABase:
			c.finalA = byte(cmd)
			c.state = stateLength
			return c.tokenReply(c.opts.token)
		}
		return 0

	case stateLength:
		c.words = protocol.PayloadWords(cmd)
		// The peer seeds its checksum with the finalA it expects, so a host that
		// sent a wrong value fails at checksum time.
		c.crc = protocol.NewChecksum(protocol.AdjustFinalA(c.opts.token), c.opts.finalB)
		c.ks = protocol.NewKeystream(protocol.KeystreamSeed(c.opts.token, c.pp))
		c.payload = c.payload[:0]
		c.state = statePayload
		if c.words == 0 {
			c.state = stateChecksumWait
		}
		return c.tokenReply(c.opts.finalB)

	case statePayload:
		offset := protocol.WordOffset(len(c.payload) / protocol.WordSize)
		plain := c.ks.Step(word, offset)
		c.crc.Step(plain)
		c.payload = binary.LittleEndian.AppendUint32(c.payload, plain)

		ack := protocol.Ack(offset)
		if c.opts.corruptAck && offset == c.opts.corruptOffset {
			ack = ^ack
		}
		if len(c.payload)/protocol.WordSize == c.words {
			c.state = stateChecksumWait
		}
		return reply16(ack)

	case stateChecksumWait:
		switch cmd {
		case protocol.CmdChecksumWait:
			c.polls++
			if c.opts.neverReady || c.polls <= c.opts.busyPolls {
				return reply16(protocol.RespChecksumBusy)
			}
			return reply16(protocol.RespChecksumReady)
		case protocol.CmdChecksumStart:
			c.state = stateChecksumValue
			return reply16(protocol.RespChecksumReady)
		}
		return 0

	case stateChecksumValue:
		c.hostDigest = cmd
		c.digest, _ = c.crc.Digest()
		c.finished = true
		c.state = stateDone
		if c.opts.wrongEcho {
			return reply16(^c.digest)
		}
		return reply16(c.digest)
	}

	return 0
}

// Exchanges returns the number of exchanges performed so far.
func (c *Console) Exchanges() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exchanges
}

// Sent returns a copy of every word the host sent, in order.
func (c *Console) Sent() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint32(nil), c.sent...)
}

// Header returns a copy of the header bytes received.
func (c *Console) Header() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.header...)
}

// Payload returns a copy of the decrypted payload received so far.
func (c *Console) Payload() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.payload...)
}

// PayloadWordsReceived returns the number of payload words received.
func (c *Console) PayloadWordsReceived() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payload) / protocol.WordSize
}

// PP returns the pp parameter received with the key commands.
func (c *Console) PP() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pp
}

// FinalA returns the finalA byte the host sent.
func (c *Console) FinalA() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalA
}

// Digest returns the peer's own checksum digest and the digest the host sent.
// ok is false until the checksum exchange has happened.
func (c *Console) Digest() (own, host uint16, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.digest, c.hostDigest, c.finished
}

// Reset returns the console to its power-on state, keeping its options.
func (c *Console) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = stateIdle
	c.exchanges = 0
	c.sent = nil
	c.header = nil
	c.pp = 0
	c.finalA = 0
	c.words = 0
	c.payload = nil
	c.crc = nil
	c.ks = nil
	c.polls = 0
	c.hostDigest = 0
	c.digest = 0
	c.finished = false
}
