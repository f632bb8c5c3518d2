package multiboot

import (
	"time"

	"github.com/moffa90/go-multiboot/protocol"
)

// Config holds the session configuration.
type Config struct {
	// ProgressCallback is called during the transfer to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Handshake holds the display bits folded into the pp parameter
	Handshake protocol.Handshake

	// ChecksumTimeout bounds the wait for the peer's checksum readiness
	ChecksumTimeout time.Duration

	// ChecksumPollInterval is the pause between two checksum readiness polls
	ChecksumPollInterval time.Duration

	// ProgressEvery is the number of payload words between two progress reports
	ProgressEvery int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ChecksumTimeout:      5 * time.Second,
		ChecksumPollInterval: 0,
		ProgressEvery:        256, // 1 KiB of payload
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	s := multiboot.New(t, img,
//	    multiboot.WithProgressCallback(func(p multiboot.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the session operations.
//
// Example:
//
//	s := multiboot.New(t, img, multiboot.WithLogger(logging.NewLogrus(logrus.New())))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithHandshake sets the palette, direction and speed bits sent during key exchange.
//
// Example:
//
//	s := multiboot.New(t, img, multiboot.WithHandshake(protocol.Handshake{Palette: 2}))
func WithHandshake(h protocol.Handshake) Option {
	return func(c *Config) {
		c.Handshake = h
	}
}

// WithChecksumTimeout bounds the wait for checksum readiness. Non-positive values are ignored.
//
// Example:
//
//	s := multiboot.New(t, img, multiboot.WithChecksumTimeout(2*time.Second))
func WithChecksumTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ChecksumTimeout = timeout
		}
	}
}

// WithChecksumPollInterval sets the pause between checksum readiness polls.
func WithChecksumPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval >= 0 {
			c.ChecksumPollInterval = interval
		}
	}
}

// WithProgressEvery sets how many payload words are sent between progress reports.
func WithProgressEvery(words int) Option {
	return func(c *Config) {
		if words > 0 {
			c.ProgressEvery = words
		}
	}
}
