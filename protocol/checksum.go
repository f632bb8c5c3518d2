package protocol

// Checksum is the bit-serial CRC-16 variant accumulated over every plaintext payload word.
//
// The register holds 16 significant bits in a 32-bit word. A Checksum is created once per
// session, right after the key exchange, and finalized exactly once with Digest.
type Checksum struct {
	register uint32
	mask     uint32
	finalize uint32
	done     bool
}

// NewChecksum creates a checksum seeded with the two negotiated bytes.
// finalA is the adjusted value sent to the peer, finalB is the peer's reply to the length parameter.
func NewChecksum(finalA, finalB byte) *Checksum {
	return &Checksum{
		register: CRCInitial,
		mask:     CRCMask,
		finalize: FinalizeStep(finalA, finalB),
	}
}

// FinalizeStep returns the value injected by Digest: 0xFFFF0000 | finalB<<8 | finalA.
func FinalizeStep(finalA, finalB byte) uint32 {
	return 0xFFFF0000 | uint32(finalB)<<8 | uint32(finalA)
}

// Step feeds all 32 bits of value into the register, least significant bit first.
// Step is a no-op once the checksum has been finalized.
func (c *Checksum) Step(value uint32) {
	if c.done {
		return
	}
	c.step(value)
}

func (c *Checksum) step(value uint32) {
	for i := 0; i < 32; i++ {
		bit := (c.register ^ value) & 1

		c.register >>= 1
		if bit != 0 {
			c.register ^= c.mask
		}

		value >>= 1
	}
}

// Digest performs the finalize step and returns the low 16 bits of the register.
// It may be called once; further calls return ErrDigestConsumed.
func (c *Checksum) Digest() (uint16, error) {
	if c.done {
		return 0, ErrDigestConsumed
	}
	c.step(c.finalize)
	c.done = true
	return uint16(c.register), nil
}

// Register returns the current register value.
func (c *Checksum) Register() uint32 {
	return c.register
}
