// Package config loads the gbamb command configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/moffa90/go-multiboot/internal/selector"
	"github.com/moffa90/go-multiboot/logging"
	"github.com/moffa90/go-multiboot/protocol"
	"github.com/moffa90/go-multiboot/transport"
)

// Config is the on-disk configuration of the gbamb command.
type Config struct {
	// ROMs are the default image and the numbered slots
	ROMs ROMs `yaml:"roms"`

	// Switches are GPIO pin names selecting slots 1..n; the first active one wins
	Switches []string `yaml:"switches"`

	// Emulate runs against the in-memory console instead of hardware
	Emulate bool `yaml:"emulate"`

	SPI       SPI       `yaml:"spi"`
	Handshake Handshake `yaml:"handshake"`
	Probe     Probe     `yaml:"probe"`
	Checksum  Checksum  `yaml:"checksum"`
	Log       Log       `yaml:"log"`
	MQTT      MQTT      `yaml:"mqtt"`
}

// ROMs lists the images the command can send.
type ROMs struct {
	// Default is sent when no slot is selected
	Default string `yaml:"default"`

	// Slots are selected by switch or slot number, starting at 1
	Slots []string `yaml:"slots"`
}

// SPI configures the hardware link.
type SPI struct {
	// Device is the periph.io port name; empty selects the first port
	Device string `yaml:"device"`

	// Hz is the SPI clock frequency
	Hz int64 `yaml:"hz"`

	// Quiescent is the idle time after every exchange, at least transport.MinQuiescent
	Quiescent time.Duration `yaml:"quiescent"`
}

// Handshake configures the pp parameter bits.
type Handshake struct {
	Palette   byte `yaml:"palette"`
	Direction byte `yaml:"direction"`
	Speed     byte `yaml:"speed"`
}

// Probe configures the readiness polling loop.
type Probe struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"` // 0 waits forever
}

// Checksum configures the checksum readiness wait.
type Checksum struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Log selects the logging backend.
type Log struct {
	Backend string `yaml:"backend"` // logrus or glog
	Level   string `yaml:"level"`
}

// MQTT configures the optional status publisher.
type MQTT struct {
	// Broker is a broker URL such as mqtt://host:1883; empty disables publishing
	Broker string `yaml:"broker"`

	// Topic is the topic prefix for progress and result messages
	Topic string `yaml:"topic"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		SPI: SPI{
			Hz:        256000,
			Quiescent: 10 * time.Microsecond,
		},
		Probe: Probe{
			Interval: 100 * time.Millisecond,
		},
		Checksum: Checksum{
			Timeout: 5 * time.Second,
		},
		Log: Log{
			Backend: "logrus",
			Level:   "info",
		},
		MQTT: MQTT{
			Topic: "gbamb",
		},
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.ROMs.Default == "" {
		return fmt.Errorf("roms.default path is required")
	}
	for i, path := range c.ROMs.Slots {
		if path == "" {
			return fmt.Errorf("roms.slots[%d] path is empty", i)
		}
	}
	if len(c.Switches) > len(c.ROMs.Slots) {
		return fmt.Errorf("%d switches configured for %d slots", len(c.Switches), len(c.ROMs.Slots))
	}
	if !c.Emulate && c.SPI.Hz <= 0 {
		return fmt.Errorf("spi.hz must be positive, got %d", c.SPI.Hz)
	}
	if !c.Emulate && c.SPI.Quiescent < transport.MinQuiescent {
		return fmt.Errorf("spi.quiescent must be at least %s, got %s", transport.MinQuiescent, c.SPI.Quiescent)
	}
	if c.Handshake.Palette > 7 || c.Handshake.Direction > 1 || c.Handshake.Speed > 3 {
		return fmt.Errorf("handshake bits out of range: palette=%d direction=%d speed=%d",
			c.Handshake.Palette, c.Handshake.Direction, c.Handshake.Speed)
	}
	if c.Probe.Interval <= 0 {
		return fmt.Errorf("probe.interval must be positive, got %s", c.Probe.Interval)
	}
	if c.Checksum.Timeout <= 0 {
		return fmt.Errorf("checksum.timeout must be positive, got %s", c.Checksum.Timeout)
	}
	switch c.Log.Backend {
	case "logrus":
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	case "glog":
		if _, err := logging.NewGlog(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	default:
		return fmt.Errorf("unknown log backend %q", c.Log.Backend)
	}
	return nil
}

// ROMSet returns the configured images for slot selection.
func (c Config) ROMSet() selector.Set {
	return selector.Set{Default: c.ROMs.Default, Slots: c.ROMs.Slots}
}

// HandshakeParams returns the configured pp bits.
func (c Config) HandshakeParams() protocol.Handshake {
	return protocol.Handshake{
		Palette:   c.Handshake.Palette,
		Direction: c.Handshake.Direction,
		Speed:     c.Handshake.Speed,
	}
}
