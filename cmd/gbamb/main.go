// Command gbamb sends a multiboot image to a console over SPI.
//
// Usage:
//
//	gbamb -rom game.mb.gba [-spi SPI0.0] [-hz 256000]
//	gbamb -config gbamb.yaml -slot 2
//	gbamb -config gbamb.yaml -mqtt mqtt://broker:1883
//	gbamb -emulate -rom game.mb.gba -i
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/golang/glog"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"

	"github.com/moffa90/go-multiboot/internal/config"
	"github.com/moffa90/go-multiboot/internal/emulator"
	"github.com/moffa90/go-multiboot/internal/selector"
	"github.com/moffa90/go-multiboot/internal/shell"
	"github.com/moffa90/go-multiboot/internal/status"
	"github.com/moffa90/go-multiboot/logging"
	"github.com/moffa90/go-multiboot/multiboot"
	"github.com/moffa90/go-multiboot/rom"
	"github.com/moffa90/go-multiboot/transport"
)

var (
	configPath  = flag.String("config", "", "YAML configuration file")
	romPath     = flag.String("rom", "", "default image to send")
	slot        = flag.Int("slot", -1, "send the image of this slot (0 is the default), ignoring switches")
	spiDevice   = flag.String("spi", "", "SPI port name, empty for the first one")
	spiHz       = flag.Int64("hz", 0, "SPI clock frequency in Hz")
	emulate     = flag.Bool("emulate", false, "run against an in-memory console")
	interactive = flag.Bool("i", false, "start the interactive shell")
	mqttBroker  = flag.String("mqtt", "", "MQTT broker URL for status messages")
)

func main() {
	flag.Parse()

	code := run()
	glog.Flush()
	os.Exit(code)
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return status.BlinkOther
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return status.BlinkOther
	}

	set := cfg.ROMSet()
	switches, err := openSwitches(cfg)
	if err != nil {
		logger.Error("failed to open switches", "error", err)
		return status.BlinkOther
	}
	selected, path, err := set.Choose(switches)
	if err != nil {
		logger.Error("failed to select rom", "error", err)
		return status.BlinkOther
	}

	img, err := rom.Load(path)
	if err != nil {
		logger.Error("failed to load rom", "slot", selected, "path", path, "error", err)
		return status.BlinkOther
	}
	logger.Info("loaded rom", "slot", selected, "path", path, "rom", img.String(), "title", img.Info().Title, "bytes", img.Len())

	t, closer, err := openTransport(cfg)
	if err != nil {
		logger.Error("failed to open transport", "error", err)
		return status.BlinkOther
	}
	defer closer.Close()

	reporter, err := newReporter(cfg, logger)
	if err != nil {
		logger.Error("failed to connect status publisher", "error", err)
		return status.BlinkOther
	}
	defer reporter.Close()

	runner := &shell.Runner{
		Transport: t,
		Image:     img,
		ROMs:      set,
		Slot:      selected,
		Options: []multiboot.Option{
			multiboot.WithLogger(logger),
			multiboot.WithHandshake(cfg.HandshakeParams()),
			multiboot.WithChecksumTimeout(cfg.Checksum.Timeout),
			multiboot.WithChecksumPollInterval(cfg.Checksum.PollInterval),
		},
		Reporter:      reporter,
		ProbeInterval: cfg.Probe.Interval,
		ProbeTimeout:  cfg.Probe.Timeout,
	}

	if *interactive {
		if err := shell.New(runner).Run(flag.Args()...); err != nil {
			logger.Error("shell failed", "error", err)
			return status.BlinkOther
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("waiting for console", "interval", cfg.Probe.Interval.String())
	if err := runner.Wait(ctx); err != nil {
		logger.Error("console not ready", "error", err)
		return status.BlinkCode(err)
	}

	if err := runner.Boot(ctx); err != nil {
		return status.BlinkCode(err)
	}
	return 0
}

// loadConfig reads the configuration file, then applies flags that were set.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rom":
			cfg.ROMs.Default = *romPath
		case "spi":
			cfg.SPI.Device = *spiDevice
		case "hz":
			cfg.SPI.Hz = *spiHz
		case "emulate":
			cfg.Emulate = *emulate
		case "mqtt":
			cfg.MQTT.Broker = *mqttBroker
		}
	})

	return cfg, cfg.Validate()
}

func newLogger(cfg config.Log) (multiboot.Logger, error) {
	if cfg.Backend == "glog" {
		return logging.NewGlog(cfg.Level)
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logging.NewLogrus(l), nil
}

// openSwitches returns the slot switches: the -slot flag when set, GPIO pins when
// configured, nil otherwise.
func openSwitches(cfg config.Config) (selector.Switches, error) {
	if *slot >= 0 {
		if *slot > len(cfg.ROMs.Slots) {
			return nil, fmt.Errorf("slot %d out of range 0-%d", *slot, len(cfg.ROMs.Slots))
		}
		return selector.Fixed(*slot), nil
	}
	if len(cfg.Switches) == 0 || cfg.Emulate {
		return nil, nil
	}
	return selector.OpenGPIO(cfg.Switches...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openTransport(cfg config.Config) (transport.Transport, io.Closer, error) {
	if cfg.Emulate {
		return emulator.New(), nopCloser{}, nil
	}

	spi, closer, err := transport.OpenSPI(cfg.SPI.Device, physic.Frequency(cfg.SPI.Hz)*physic.Hertz)
	if err != nil {
		return nil, nil, err
	}
	spi.Quiescent = cfg.SPI.Quiescent
	return spi, closer, nil
}

func newReporter(cfg config.Config, logger multiboot.Logger) (status.Reporter, error) {
	reporters := status.Multi{status.Log{Logger: logger}}
	if cfg.MQTT.Broker != "" {
		m, err := status.DialMQTT(cfg.MQTT.Broker, cfg.MQTT.Topic)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, m)
	}
	return reporters, nil
}
