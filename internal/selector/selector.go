// Package selector picks which ROM image to send from a default image and
// numbered slots, driven by switch inputs or an explicit slot number.
package selector

import (
	"fmt"
)

// DefaultSlot selects the default image.
const DefaultSlot = 0

// Switches reports which selection switches are active, in priority order.
// Switch i selects slot i+1.
type Switches interface {
	Active() ([]bool, error)
}

// Pick returns the slot of the first active switch, or DefaultSlot when none is active.
func Pick(active []bool) int {
	for i, on := range active {
		if on {
			return i + 1
		}
	}
	return DefaultSlot
}

// Set is a default image path plus numbered slots, slot 1 being Slots[0].
type Set struct {
	Default string
	Slots   []string
}

// Path returns the image path for slot.
func (s Set) Path(slot int) (string, error) {
	switch {
	case slot == DefaultSlot:
		return s.Default, nil
	case slot < 0 || slot > len(s.Slots):
		return "", fmt.Errorf("slot %d out of range 0-%d", slot, len(s.Slots))
	default:
		return s.Slots[slot-1], nil
	}
}

// Choose reads sw and returns the selected slot and its path. A nil sw selects
// the default image. An active switch without a configured slot falls back to
// the default image.
func (s Set) Choose(sw Switches) (int, string, error) {
	if sw == nil {
		return DefaultSlot, s.Default, nil
	}

	active, err := sw.Active()
	if err != nil {
		return DefaultSlot, "", fmt.Errorf("read switches: %w", err)
	}

	slot := Pick(active)
	if slot > len(s.Slots) {
		slot = DefaultSlot
	}
	path, err := s.Path(slot)
	return slot, path, err
}

// Fixed is a Switches with a single slot forced on. Fixed(DefaultSlot) reports
// no active switch.
type Fixed int

// Active implements Switches.
func (f Fixed) Active() ([]bool, error) {
	if f <= DefaultSlot {
		return nil, nil
	}
	active := make([]bool, int(f))
	active[f-1] = true
	return active, nil
}
