package multiboot

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-multiboot/internal/emulator"
	"github.com/moffa90/go-multiboot/protocol"
	"github.com/moffa90/go-multiboot/rom"
	"github.com/moffa90/go-multiboot/transport"
)

// Exchange indexes of a session with the default configuration.
const (
	headerExchanges = 1 + protocol.HeaderWords + 1
	keyExchanges    = 5
	firstPayloadIdx = headerExchanges + keyExchanges
)

// MockTransport records every sent word and answers through a script.
type MockTransport struct {
	sent    []uint32
	respond func(n int, word uint32) (uint32, error)
}

func (m *MockTransport) Exchange(ctx context.Context, word uint32) (uint32, error) {
	n := len(m.sent)
	m.sent = append(m.sent, word)
	if m.respond == nil {
		return 0, nil
	}
	return m.respond(n, word)
}

// MockLogger records logged messages.
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

// goldenImage is a zero header carrying a game code, followed by 16 incrementing bytes.
func goldenImage(t *testing.T) *rom.Image {
	t.Helper()

	b := make([]byte, rom.HeaderSize+16)
	copy(b[0xAC:], "AMBE")
	for i := 0; i < 16; i++ {
		b[rom.HeaderSize+i] = byte(i)
	}
	img, err := rom.New(b)
	require.NoError(t, err)
	return img
}

func testImage(t *testing.T, payloadWords int) *rom.Image {
	t.Helper()

	b := make([]byte, rom.HeaderSize+payloadWords*4)
	for i := range b {
		b[i] = byte(i * 7)
	}
	img, err := rom.New(b)
	require.NoError(t, err)
	return img
}

func TestNew(t *testing.T) {
	img := goldenImage(t)

	tests := []struct {
		name    string
		options []Option
	}{
		{
			name:    "with no options",
			options: nil,
		},
		{
			name: "with all options",
			options: []Option{
				WithProgressCallback(func(p Progress) {}),
				WithLogger(&MockLogger{}),
				WithHandshake(protocol.Handshake{Palette: 1}),
				WithChecksumTimeout(time.Second),
				WithChecksumPollInterval(time.Millisecond),
				WithProgressEvery(16),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&MockTransport{}, img, tt.options...)
			require.NotNil(t, s)
			assert.Equal(t, PhaseProbing, s.Phase())
		})
	}

	assert.Panics(t, func() { New(nil, img) })
	assert.Panics(t, func() { New(&MockTransport{}, nil) })
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	s := New(&MockTransport{}, goldenImage(t),
		WithChecksumTimeout(-1),
		WithChecksumPollInterval(-1),
		WithProgressEvery(0),
	)

	def := defaultConfig()
	assert.Equal(t, def.ChecksumTimeout, s.config.ChecksumTimeout)
	assert.Equal(t, def.ChecksumPollInterval, s.config.ChecksumPollInterval)
	assert.Equal(t, def.ProgressEvery, s.config.ProgressEvery)
}

func TestIsReady(t *testing.T) {
	tests := []struct {
		name    string
		reply   uint32
		err     error
		want    bool
		wantErr bool
	}{
		{name: "ready", reply: 0x72020000, want: true},
		{name: "ready ignores low half", reply: 0x7202FFFF, want: true},
		{name: "not ready", reply: 0x00000000, want: false},
		{name: "other reply", reply: 0x72030000, want: false},
		{name: "transport error", err: errors.New("bus fault"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &MockTransport{respond: func(n int, word uint32) (uint32, error) {
				return tt.reply, tt.err
			}}
			s := New(tr, goldenImage(t))

			ready, err := s.IsReady(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, KindTransport, Kind(err))
				assert.False(t, ready)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ready)
			assert.Equal(t, []uint32{protocol.CmdProbe}, tr.sent)
			assert.Equal(t, PhaseProbing, s.Phase())
		})
	}
}

func TestSendHeader(t *testing.T) {
	b := make([]byte, rom.HeaderSize)
	for i := range b {
		b[i] = byte(i)
	}
	img, err := rom.New(b)
	require.NoError(t, err)

	tr := &MockTransport{}
	s := New(tr, img)
	require.NoError(t, s.SendHeader(context.Background()))

	require.Len(t, tr.sent, headerExchanges)
	assert.Equal(t, uint32(protocol.CmdHeaderStart), tr.sent[0])
	assert.Equal(t, uint32(0x0100), tr.sent[1])
	assert.Equal(t, uint32(0x0302), tr.sent[2])
	assert.Equal(t, uint32(0xBFBE), tr.sent[protocol.HeaderWords])
	assert.Equal(t, uint32(protocol.CmdHeaderEnd), tr.sent[headerExchanges-1])
	assert.Equal(t, PhaseHeaderSent, s.Phase())
}

// goldenScript answers a session for goldenImage like a peer with token 0xF2 and finalB 0x02.
func goldenScript(n int, word uint32) (uint32, error) {
	switch {
	case n == headerExchanges+2:
		return 0x73F20000, nil
	case n == headerExchanges+4:
		return 0x73020000, nil
	case n >= firstPayloadIdx && n < firstPayloadIdx+4:
		return protocol.WordOffset(n-firstPayloadIdx) << 16, nil
	case n == firstPayloadIdx+4:
		return protocol.RespChecksumReady << 16, nil
	case n == firstPayloadIdx+6:
		return word << 16, nil
	}
	return 0, nil
}

func TestMultibootGoldenVector(t *testing.T) {
	tr := &MockTransport{respond: goldenScript}
	s := New(tr, goldenImage(t))

	require.NoError(t, s.Multiboot(context.Background()))
	assert.Equal(t, PhaseCompleted, s.Phase())

	sent := tr.sent
	require.Len(t, sent, firstPayloadIdx+7)

	// Key exchange
	assert.Equal(t, uint32(protocol.CmdProbe), sent[headerExchanges])
	assert.Equal(t, uint32(0x6381), sent[headerExchanges+1])
	assert.Equal(t, uint32(0x6381), sent[headerExchanges+2])
	assert.Equal(t, uint32(0x6401), sent[headerExchanges+3])
	assert.Equal(t, uint32(0xFFD0), sent[headerExchanges+4])

	keys := s.Keys()
	assert.Equal(t, byte(0x01), keys.FinalA)
	assert.Equal(t, byte(0x02), keys.FinalB)
	assert.Equal(t, uint32(0xFFFFF281), keys.Seed)

	// Encrypted payload
	assert.Equal(t, []uint32{0x19D7059B, 0x4BE8388A, 0xD6557797, 0x2D1BD20E},
		sent[firstPayloadIdx:firstPayloadIdx+4])

	// Checksum phase
	assert.Equal(t, uint32(protocol.CmdChecksumWait), sent[firstPayloadIdx+4])
	assert.Equal(t, uint32(protocol.CmdChecksumStart), sent[firstPayloadIdx+5])

	// Digest computed by hand from the documented step/digest algorithm.
	crc := protocol.NewChecksum(0x01, 0x02)
	for _, w := range []uint32{0x03020100, 0x07060504, 0x0B0A0908, 0x0F0E0D0C} {
		crc.Step(w)
	}
	want, err := crc.Digest()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xE628), want)
	assert.Equal(t, uint32(want), sent[firstPayloadIdx+6])
}

func TestMultibootAgainstEmulator(t *testing.T) {
	img := testImage(t, 512)
	console := emulator.New(emulator.WithToken(0x5D), emulator.WithFinalB(0xC4), emulator.WithBusyPolls(3))
	s := New(console, img)

	require.NoError(t, s.Multiboot(context.Background()))

	assert.Equal(t, img.Header(), console.Header())
	assert.Equal(t, img.Payload(), console.Payload())

	own, host, ok := console.Digest()
	require.True(t, ok)
	assert.Equal(t, own, host)
}

func TestMultibootHandshakeConfig(t *testing.T) {
	hs := protocol.Handshake{Palette: 2, Direction: 1, Speed: 1}
	console := emulator.New()
	s := New(console, testImage(t, 64), WithHandshake(hs))

	require.NoError(t, s.Multiboot(context.Background()))
	assert.Equal(t, hs.PP(), console.PP())
	assert.Equal(t, uint16(0xAB), console.PP())
}

func TestMultibootFailedHandshake(t *testing.T) {
	console := emulator.New(emulator.WithTokenMarker(0x00))
	s := New(console, testImage(t, 64))

	err := s.Multiboot(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrFailedHandshake)
	var hsErr *HandshakeError
	require.ErrorAs(t, err, &hsErr)
	assert.Equal(t, uint16(0x00F2), hsErr.Token)
	assert.Equal(t, KindFailedHandshake, Kind(err))
	assert.Equal(t, PhaseFailed, s.Phase())

	// probe + prime + fetch, then nothing else
	assert.Equal(t, headerExchanges+3, console.Exchanges())
	assert.Zero(t, console.PayloadWordsReceived())
}

func TestMultibootTransmissionError(t *testing.T) {
	console := emulator.New(emulator.WithCorruptAck(0x100))
	s := New(console, testImage(t, 64))

	err := s.Multiboot(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrTransmission)
	var txErr *TransmissionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, uint32(0x100), txErr.Offset)
	assert.Equal(t, uint16(0x100), txErr.Expected)
	assert.Equal(t, KindTransmission, Kind(err))

	// words at 0xC0..0x100 were sent, none after
	wordsSent := (0x100-protocol.HeaderSize)/protocol.WordSize + 1
	assert.Equal(t, wordsSent, console.PayloadWordsReceived())
	assert.Equal(t, firstPayloadIdx+wordsSent, console.Exchanges())
}

func TestMultibootInvalidChecksum(t *testing.T) {
	console := emulator.New(emulator.WithWrongEcho())
	s := New(console, testImage(t, 64))

	err := s.Multiboot(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrInvalidChecksum)
	var csErr *ChecksumMismatchError
	require.ErrorAs(t, err, &csErr)
	assert.Equal(t, ^csErr.Expected, csErr.Actual)
	assert.Equal(t, KindInvalidChecksum, Kind(err))
	assert.Equal(t, 64, console.PayloadWordsReceived())
}

func TestMultibootChecksumTimeout(t *testing.T) {
	console := emulator.New(emulator.WithNeverReady())
	s := New(console, testImage(t, 16),
		WithChecksumTimeout(20*time.Millisecond),
		WithChecksumPollInterval(time.Millisecond),
	)

	err := s.Multiboot(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrChecksumTimeout)
	var toErr *ChecksumTimeoutError
	require.ErrorAs(t, err, &toErr)
	assert.Equal(t, uint16(protocol.RespChecksumBusy), toErr.Last)
	assert.Greater(t, toErr.Polls, 1)
	assert.Equal(t, KindTimeout, Kind(err))
}

func TestMultibootChecksumWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	console := emulator.New(emulator.WithNeverReady())
	s := New(console, testImage(t, 16),
		WithChecksumTimeout(time.Minute),
		WithChecksumPollInterval(time.Millisecond),
	)

	time.AfterFunc(20*time.Millisecond, cancel)
	err := s.Multiboot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMultibootTransportError(t *testing.T) {
	console := emulator.New(emulator.WithTransportFailure(50, nil))
	s := New(console, testImage(t, 16))

	err := s.Multiboot(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, emulator.ErrInjected)
	assert.Contains(t, err.Error(), "send header")
	var terr *transport.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindTransport, Kind(err))
	assert.Equal(t, 50, console.Exchanges())
}

func TestMultibootTransportErrorIsNotZero(t *testing.T) {
	// A failed exchange on the token fetch must not be mistaken for a 0x0000 reply.
	tr := &MockTransport{respond: func(n int, word uint32) (uint32, error) {
		if n == headerExchanges+2 {
			return 0, errors.New("bus fault")
		}
		return 0, nil
	}}
	s := New(tr, goldenImage(t))

	err := s.Multiboot(context.Background())
	assert.Equal(t, KindTransport, Kind(err))
	assert.NotErrorIs(t, err, ErrFailedHandshake)
}

func TestIsReadyWrapsTransportError(t *testing.T) {
	busErr := errors.New("bus fault")
	tr := &MockTransport{respond: func(n int, word uint32) (uint32, error) {
		return 0, busErr
	}}
	s := New(tr, testImage(t, 4))

	ready, err := s.IsReady(context.Background())
	assert.False(t, ready)
	assert.ErrorIs(t, err, busErr)

	var terr *transport.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "exchange", terr.Op)
	assert.Equal(t, uint32(protocol.CmdProbe), terr.Word)
}

func TestSendHeaderKeepsTransportError(t *testing.T) {
	spiErr := &transport.Error{Op: "spi transfer", Word: protocol.CmdHeaderStart, Err: errors.New("bus fault")}
	tr := &MockTransport{respond: func(n int, word uint32) (uint32, error) {
		return 0, spiErr
	}}
	s := New(tr, testImage(t, 4))

	err := s.SendHeader(context.Background())
	var terr *transport.Error
	require.ErrorAs(t, err, &terr)
	assert.Same(t, spiErr, terr)
}

func TestMultibootOnce(t *testing.T) {
	s := New(emulator.New(), testImage(t, 16))

	require.NoError(t, s.Multiboot(context.Background()))
	assert.ErrorIs(t, s.Multiboot(context.Background()), ErrSessionUsed)
}

func TestMultibootProgress(t *testing.T) {
	var reports []Progress
	s := New(emulator.New(), testImage(t, 100),
		WithProgressEvery(10),
		WithProgressCallback(func(p Progress) {
			reports = append(reports, p)
		}),
	)

	require.NoError(t, s.Multiboot(context.Background()))
	require.NotEmpty(t, reports)

	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i].Percentage, reports[i-1].Percentage)
		assert.GreaterOrEqual(t, reports[i].WordsSent, reports[i-1].WordsSent)
	}

	last := reports[len(reports)-1]
	assert.Equal(t, PhaseCompleted, last.Phase)
	assert.Equal(t, 100.0, last.Percentage)
	assert.Equal(t, 100, last.WordsSent)
	assert.Equal(t, protocol.HeaderSize+400, last.BytesSent)

	transferring := 0
	for _, r := range reports {
		if r.Phase == PhaseTransferring {
			transferring++
		}
	}
	assert.Equal(t, 10, transferring)
}

func TestMultibootLogging(t *testing.T) {
	logger := &MockLogger{}
	s := New(emulator.New(), testImage(t, 16), WithLogger(logger))
	require.NoError(t, s.Multiboot(context.Background()))

	assert.Contains(t, logger.debugMsgs, "keys exchanged")
	assert.Contains(t, logger.infoMsgs, "multiboot complete")
	assert.Empty(t, logger.errorMsgs)

	logger = &MockLogger{}
	s = New(emulator.New(emulator.WithWrongEcho()), testImage(t, 16), WithLogger(logger))
	require.Error(t, s.Multiboot(context.Background()))
	assert.Equal(t, []string{"multiboot failed"}, logger.errorMsgs)
}

func TestSendPayloadDoesNotRollBack(t *testing.T) {
	img := testImage(t, 8)
	tr := &MockTransport{respond: func(n int, word uint32) (uint32, error) {
		if n == 2 {
			return 0xDEAD0000, nil
		}
		return protocol.WordOffset(n) << 16, nil
	}}
	s := New(tr, img)

	crc := protocol.NewChecksum(0, 0)
	ks := protocol.NewKeystream(0xFFFF0081)
	err := s.SendPayload(context.Background(), crc, ks)
	require.ErrorIs(t, err, ErrTransmission)
	assert.Len(t, tr.sent, 3)

	// The checksum saw exactly the three words that went out.
	ref := protocol.NewChecksum(0, 0)
	payload := img.Payload()
	for i := 0; i < 3; i++ {
		ref.Step(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	assert.Equal(t, ref.Register(), crc.Register())
	assert.Equal(t, PhaseTransferring, s.Phase())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "probing", PhaseProbing.String())
	assert.Equal(t, "completed", PhaseCompleted.String())
	assert.Equal(t, "phase(42)", Phase(42).String())
}
