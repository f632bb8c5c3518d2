package multiboot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-multiboot/protocol"
	"github.com/moffa90/go-multiboot/rom"
	"github.com/moffa90/go-multiboot/transport"
)

// Phase is a step of the session state machine. Phases only move forward.
type Phase int

const (
	// PhaseProbing is the initial phase; IsReady may be polled
	PhaseProbing Phase = iota
	// PhaseHeaderSent follows a complete header transfer
	PhaseHeaderSent
	// PhaseKeysExchanged follows a successful key exchange
	PhaseKeysExchanged
	// PhaseTransferring is entered when the first payload word is sent
	PhaseTransferring
	// PhaseValidating is entered once every payload word was acknowledged
	PhaseValidating
	// PhaseCompleted is the terminal success phase
	PhaseCompleted
	// PhaseFailed is the terminal failure phase
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseProbing:
		return "probing"
	case PhaseHeaderSent:
		return "header_sent"
	case PhaseKeysExchanged:
		return "keys_exchanged"
	case PhaseTransferring:
		return "transferring"
	case PhaseValidating:
		return "validating"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Session runs one multiboot transfer of an image to a peer.
// It holds the transport exclusively for its lifetime and is not safe for concurrent use.
// A Session runs Multiboot at most once; start a new Session to retry.
type Session struct {
	transport transport.Transport
	image     *rom.Image
	config    Config

	phase Phase
	used  bool
	keys  protocol.Keys
	start time.Time
}

// New creates a new Session for img over t with the given options.
//
// Example:
//
//	img, _ := rom.Load("game.mb.gba")
//	s := multiboot.New(spi, img,
//	    multiboot.WithProgressCallback(progressFunc),
//	    multiboot.WithChecksumTimeout(2*time.Second),
//	)
func New(t transport.Transport, img *rom.Image, opts ...Option) *Session {
	if t == nil {
		panic("transport cannot be nil")
	}
	if img == nil {
		panic("image cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		transport: t,
		image:     img,
		config:    cfg,
		phase:     PhaseProbing,
	}
}

// Phase returns the current phase of the session.
func (s *Session) Phase() Phase {
	return s.phase
}

// Keys returns the values negotiated during key exchange.
// It is the zero value until ExchangeKeys succeeds.
func (s *Session) Keys() protocol.Keys {
	return s.keys
}

// IsReady sends a single readiness probe and reports whether the peer answered 0x7202.
// It never loops; callers choose the polling cadence.
func (s *Session) IsReady(ctx context.Context) (bool, error) {
	reply, err := s.send16(ctx, protocol.CmdProbe)
	if err != nil {
		return false, err
	}
	return reply == protocol.RespReady, nil
}

// Multiboot performs the complete transfer:
//  1. Send the header
//  2. Exchange keys
//  3. Send the encrypted payload
//  4. Validate the checksum
//
// It returns the first error encountered. The peer must already have answered IsReady.
//
// Example:
//
//	if ok, _ := s.IsReady(ctx); ok {
//	    err := s.Multiboot(ctx)
//	}
func (s *Session) Multiboot(ctx context.Context) error {
	if s.used {
		return ErrSessionUsed
	}
	s.used = true
	s.start = time.Now()

	err := s.run(ctx)
	if err != nil {
		s.phase = PhaseFailed
		s.logError("multiboot failed",
			"kind", Kind(err).String(),
			"error", err.Error(),
			"elapsed", time.Since(s.start).String(),
		)
		return err
	}

	s.phase = PhaseCompleted
	s.reportProgress(100)
	s.logInfo("multiboot complete",
		"rom", s.image.String(),
		"bytes", int(s.image.AlignedLength()),
		"elapsed", time.Since(s.start).String(),
	)
	return nil
}

func (s *Session) run(ctx context.Context) error {
	// Phase 1: Header
	if err := s.SendHeader(ctx); err != nil {
		return fmt.Errorf("send header: %w", err)
	}

	// Phase 2: Keys
	crc, ks, err := s.ExchangeKeys(ctx)
	if err != nil {
		return fmt.Errorf("exchange keys: %w", err)
	}

	// Phase 3: Payload
	if err := s.SendPayload(ctx, crc, ks); err != nil {
		return fmt.Errorf("send payload: %w", err)
	}

	// Phase 4: Checksum
	digest, err := crc.Digest()
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	if err := s.ValidateChecksum(ctx, digest); err != nil {
		return fmt.Errorf("validate checksum: %w", err)
	}

	return nil
}

// SendHeader sends the header start command, the 192 header bytes as 96
// little-endian halfwords, and the header end command. Replies are not checked.
func (s *Session) SendHeader(ctx context.Context) error {
	if s.start.IsZero() {
		s.start = time.Now()
	}
	s.reportProgress(0)

	if _, err := s.send16(ctx, protocol.CmdHeaderStart); err != nil {
		return err
	}

	header := s.image.Header()
	for i := 0; i < len(header); i += 2 {
		if _, err := s.send16(ctx, binary.LittleEndian.Uint16(header[i:])); err != nil {
			return err
		}
	}

	if _, err := s.send16(ctx, protocol.CmdHeaderEnd); err != nil {
		return err
	}

	s.phase = PhaseHeaderSent
	s.logDebug("header sent",
		"title", s.image.Info().Title,
		"game_code", s.image.Info().GameCode,
	)
	return nil
}

// ExchangeKeys negotiates the session keys and returns the checksum and keystream
// generator seeded from them. It fails with a *HandshakeError when the token reply
// does not carry the 0x73 marker; nothing of the payload has been sent at that point.
func (s *Session) ExchangeKeys(ctx context.Context) (*protocol.Checksum, *protocol.Keystream, error) {
	pp := s.config.Handshake.PP()
	keyCmd := protocol.KeyCommand(pp)

	if _, err := s.send16(ctx, protocol.CmdProbe); err != nil {
		return nil, nil, err
	}

	// The first key command primes the peer; its reply is discarded.
	if _, err := s.send16(ctx, keyCmd); err != nil {
		return nil, nil, err
	}
	token, err := s.send16(ctx, keyCmd)
	if err != nil {
		return nil, nil, err
	}

	if !protocol.IsToken(token) {
		return nil, nil, &HandshakeError{Token: token}
	}

	keys := protocol.NewKeys(pp, byte(token))

	if _, err := s.send16(ctx, protocol.FinalACommand(keys.FinalA)); err != nil {
		return nil, nil, err
	}

	reply, err := s.send16(ctx, protocol.LengthParam(s.image.AlignedLength()))
	if err != nil {
		return nil, nil, err
	}
	keys.FinalB = byte(reply)

	s.keys = keys
	s.phase = PhaseKeysExchanged
	s.reportProgress(5)
	s.logDebug("keys exchanged",
		"pp", fmt.Sprintf("0x%02X", keys.PP),
		"seed", fmt.Sprintf("0x%08X", keys.Seed),
		"final_a", fmt.Sprintf("0x%02X", keys.FinalA),
		"final_b", fmt.Sprintf("0x%02X", keys.FinalB),
	)

	return keys.Checksum(), keys.Keystream(), nil
}

// SendPayload encrypts and sends every payload word in order, accumulating the
// plaintext into crc. Each reply's high half must equal the low 16 bits of the word's
// byte offset; the first mismatch aborts with a *TransmissionError and nothing is resent.
func (s *Session) SendPayload(ctx context.Context, crc *protocol.Checksum, ks *protocol.Keystream) error {
	payload := s.image.Payload()
	total := len(payload) / protocol.WordSize

	s.phase = PhaseTransferring
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		offset := protocol.WordOffset(i)
		word := binary.LittleEndian.Uint32(payload[i*protocol.WordSize:])

		crc.Step(word)
		reply, err := s.exchange(ctx, ks.Step(word, offset))
		if err != nil {
			return err
		}

		if ack := uint16(reply >> 16); ack != protocol.Ack(offset) {
			return &TransmissionError{
				Offset:   offset,
				Expected: protocol.Ack(offset),
				Actual:   ack,
			}
		}

		if sent := i + 1; sent%s.config.ProgressEvery == 0 || sent == total {
			// Payload spans 5% to 95%
			s.reportWords(5+float64(sent)/float64(total)*90, sent, total)
		}
	}

	s.phase = PhaseValidating
	return nil
}

// ValidateChecksum waits until the peer is ready for the checksum, then sends digest
// and checks the peer's echo. The wait is bounded by the configured checksum timeout.
func (s *Session) ValidateChecksum(ctx context.Context, digest uint16) error {
	s.phase = PhaseValidating

	deadline := time.Now().Add(s.config.ChecksumTimeout)
	polls := 0
	for {
		reply, err := s.send16(ctx, protocol.CmdChecksumWait)
		if err != nil {
			return err
		}
		polls++

		if reply == protocol.RespChecksumReady {
			break
		}
		if !time.Now().Before(deadline) {
			return &ChecksumTimeoutError{
				Timeout: s.config.ChecksumTimeout,
				Polls:   polls,
				Last:    reply,
			}
		}
		if err := s.pause(ctx, s.config.ChecksumPollInterval); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}
	}

	if _, err := s.send16(ctx, protocol.CmdChecksumStart); err != nil {
		return err
	}

	echo, err := s.send16(ctx, digest)
	if err != nil {
		return err
	}

	s.logDebug("checksum exchanged",
		"digest", fmt.Sprintf("0x%04X", digest),
		"echo", fmt.Sprintf("0x%04X", echo),
		"polls", polls,
	)

	if echo != digest {
		return &ChecksumMismatchError{Expected: digest, Actual: echo}
	}
	return nil
}

// pause waits d or until ctx is done.
func (s *Session) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// exchange sends one 32-bit word. Failures are always surfaced as *transport.Error.
func (s *Session) exchange(ctx context.Context, word uint32) (uint32, error) {
	reply, err := s.transport.Exchange(ctx, word)
	if err != nil {
		return 0, wrapTransport(err, word)
	}
	return reply, nil
}

// send16 sends v in the low half of an exchange and returns the reply's high half.
func (s *Session) send16(ctx context.Context, v uint16) (uint16, error) {
	reply, err := transport.Exchange16(ctx, s.transport, v)
	if err != nil {
		return 0, wrapTransport(err, uint32(v))
	}
	return reply, nil
}

func wrapTransport(err error, word uint32) error {
	var terr *transport.Error
	if errors.As(err, &terr) {
		return err
	}
	return &transport.Error{Op: "exchange", Word: word, Err: err}
}

// reportProgress calls the progress callback outside the payload loop.
func (s *Session) reportProgress(percentage float64) {
	total := s.image.PayloadWords()
	sent := 0
	if s.phase >= PhaseValidating {
		sent = total
	}
	s.reportWords(percentage, sent, total)
}

// reportWords calls the progress callback if configured.
func (s *Session) reportWords(percentage float64, sent, total int) {
	if s.config.ProgressCallback == nil {
		return
	}
	bytesSent := 0
	if s.phase >= PhaseHeaderSent {
		bytesSent = protocol.HeaderSize + sent*protocol.WordSize
	}
	s.config.ProgressCallback(Progress{
		Phase:       s.phase,
		WordsSent:   sent,
		TotalWords:  total,
		Percentage:  percentage,
		BytesSent:   bytesSent,
		ElapsedTime: time.Since(s.start),
	})
}

// logDebug logs a debug message if a logger is configured.
func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
