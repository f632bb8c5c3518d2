package protocol

// Keys holds everything negotiated during the key exchange.
type Keys struct {
	// PP is the display configuration parameter sent with the key commands
	PP uint16

	// Token is the low byte of the peer's token reply
	Token byte

	// Seed is the keystream seed derived from Token and PP
	Seed uint32

	// FinalA is the adjusted token byte sent back to the peer
	FinalA byte

	// FinalB is the low byte of the peer's reply to the length parameter
	FinalB byte
}

// NewKeys derives the seed and finalA from a token byte; FinalB is filled in later.
func NewKeys(pp uint16, token byte) Keys {
	return Keys{
		PP:     pp,
		Token:  token,
		Seed:   KeystreamSeed(token, pp),
		FinalA: AdjustFinalA(token),
	}
}

// Checksum creates the session checksum from FinalA and FinalB.
func (k Keys) Checksum() *Checksum {
	return NewChecksum(k.FinalA, k.FinalB)
}

// Keystream creates the session keystream generator from Seed.
func (k Keys) Keystream() *Keystream {
	return NewKeystream(k.Seed)
}
