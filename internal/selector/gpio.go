package selector

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	host "periph.io/x/host/v3"
)

// GPIO reads selection switches wired between a pulled-up input and ground.
// A switch is active when its pin reads low.
type GPIO struct {
	pins []gpio.PinIn
}

// NewGPIO wraps pins that are already configured as pulled-up inputs.
func NewGPIO(pins ...gpio.PinIn) *GPIO {
	return &GPIO{pins: pins}
}

// OpenGPIO initializes the host drivers and configures the named pins
// (for example "GPIO17") as pulled-up inputs, in priority order.
func OpenGPIO(names ...string) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	pins := make([]gpio.PinIn, 0, len(names))
	for _, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("unknown gpio pin %q", name)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure gpio pin %q: %w", name, err)
		}
		pins = append(pins, p)
	}
	return NewGPIO(pins...), nil
}

// Active implements Switches.
func (g *GPIO) Active() ([]bool, error) {
	active := make([]bool, len(g.pins))
	for i, p := range g.pins {
		active[i] = p.Read() == gpio.Low
	}
	return active, nil
}
