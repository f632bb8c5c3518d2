package rom

import "strings"

// Header field offsets within the cartridge header.
const (
	titleOffset      = 0xA0
	titleLength      = 12
	gameCodeOffset   = 0xAC
	gameCodeLength   = 4
	makerCodeOffset  = 0xB0
	makerCodeLength  = 2
	fixedValueOffset = 0xB2
	unitCodeOffset   = 0xB3
	versionOffset    = 0xBC
	complementOffset = 0xBD

	// FixedValue is the value every valid header carries at 0xB2
	FixedValue = 0x96
)

// HeaderInfo contains the decoded cartridge header fields.
type HeaderInfo struct {
	// Title is the uppercase game title, NUL padding removed
	Title string

	// GameCode is the 4-character game code
	GameCode string

	// MakerCode is the 2-character maker code
	MakerCode string

	// FixedValue should be 0x96
	FixedValue byte

	// UnitCode is the target unit code (0x00 for the base console)
	UnitCode byte

	// Version is the software version
	Version byte

	// Complement is the header complement check byte stored in the image
	Complement byte

	raw []byte
}

func parseHeader(h []byte) HeaderInfo {
	return HeaderInfo{
		Title:      field(h, titleOffset, titleLength),
		GameCode:   field(h, gameCodeOffset, gameCodeLength),
		MakerCode:  field(h, makerCodeOffset, makerCodeLength),
		FixedValue: h[fixedValueOffset],
		UnitCode:   h[unitCodeOffset],
		Version:    h[versionOffset],
		Complement: h[complementOffset],
		raw:        h,
	}
}

func field(h []byte, off, n int) string {
	return strings.TrimRight(string(h[off:off+n]), "\x00")
}

// ComputedComplement returns the complement check computed over bytes 0xA0-0xBC:
// -(sum) - 0x19, truncated to a byte.
func (hi HeaderInfo) ComputedComplement() byte {
	var sum byte
	for _, b := range hi.raw[titleOffset:complementOffset] {
		sum += b
	}
	return -sum - 0x19
}

// ComplementValid reports whether the stored complement matches the computed one.
func (hi HeaderInfo) ComplementValid() bool {
	return hi.raw != nil && hi.ComputedComplement() == hi.Complement
}
