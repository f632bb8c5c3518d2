package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	host "periph.io/x/host/v3"
)

const (
	// DefaultFrequency is the SPI clock used by the reference hardware
	DefaultFrequency = 256 * physic.KiloHertz

	// DefaultQuiescent is the minimum idle time between two exchanges
	DefaultQuiescent = 10 * time.Microsecond

	// MinQuiescent is the floor applied to SPI.Quiescent
	MinQuiescent = DefaultQuiescent

	// sleepThreshold is the delay above which time.Sleep is precise enough
	sleepThreshold = time.Millisecond
)

// Conn is the subset of periph.io's spi.Conn used by SPI.
type Conn interface {
	Tx(w, r []byte) error
}

// SPI implements Transport over a full-duplex SPI connection.
// Words are sent and received most significant byte first.
type SPI struct {
	conn Conn

	// Quiescent is the delay after every exchange. Values below MinQuiescent are raised to it.
	Quiescent time.Duration

	w [4]byte
	r [4]byte
}

// NewSPI wraps an SPI connection. The connection must already be configured for
// mode 3 with 8 bits per word.
func NewSPI(conn Conn) *SPI {
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &SPI{
		conn:      conn,
		Quiescent: DefaultQuiescent,
	}
}

// OpenSPI initializes the host drivers, opens the named SPI port ("" for the first
// available) and connects at freq in mode 3. The returned closer releases the port.
func OpenSPI(name string, freq physic.Frequency) (*SPI, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("init host drivers: %w", err)
	}

	port, err := spireg.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open spi port %q: %w", name, err)
	}

	if freq == 0 {
		freq = DefaultFrequency
	}
	conn, err := port.Connect(freq, spi.Mode3, 8)
	if err != nil {
		_ = port.Close()
		return nil, nil, fmt.Errorf("connect spi port %q: %w", name, err)
	}

	return NewSPI(conn), port, nil
}

// Exchange implements Transport.
func (s *SPI) Exchange(ctx context.Context, word uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, &Error{Op: "spi transfer", Word: word, Err: err}
	}

	binary.BigEndian.PutUint32(s.w[:], word)
	if err := s.conn.Tx(s.w[:], s.r[:]); err != nil {
		return 0, &Error{Op: "spi transfer", Word: word, Err: err}
	}
	reply := binary.BigEndian.Uint32(s.r[:])

	quiesce(s.quiescent())
	return reply, nil
}

func (s *SPI) quiescent() time.Duration {
	if s.Quiescent < MinQuiescent {
		return MinQuiescent
	}
	return s.Quiescent
}

// quiesce waits d. Short delays spin because the scheduler cannot sleep for microseconds.
func quiesce(d time.Duration) {
	if d <= 0 {
		return
	}
	if d >= sleepThreshold {
		time.Sleep(d)
		return
	}
	for start := time.Now(); time.Since(start) < d; {
	}
}
