package protocol

// Keystream is the seeded linear generator that obscures payload words.
//
// Its state advances on every call, so a stream can only be reproduced by replaying
// the same sequence of calls from the same seed; it is not addressable by index.
type Keystream struct {
	seed uint32
	mask uint32
}

// NewKeystream creates a generator from a seed derived during key exchange (see KeystreamSeed).
func NewKeystream(seed uint32) *Keystream {
	return &Keystream{
		seed: seed,
		mask: KeystreamMask,
	}
}

// Step advances the seed and returns value xor'ed with the next keystream word for the given
// byte offset. Applying Step of an identically seeded generator with the same call history
// to the result recovers value.
func (k *Keystream) Step(value, offset uint32) uint32 {
	k.seed = k.seed*KeystreamMultiplier + 1
	return k.seed ^ value ^ (KeystreamOffsetBase - offset) ^ k.mask
}

// Seed returns the current generator state.
func (k *Keystream) Seed() uint32 {
	return k.seed
}
