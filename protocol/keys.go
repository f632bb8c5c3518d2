package protocol

// Handshake holds the display configuration bits folded into the pp parameter.
// The zero value is the common configuration and yields pp = 0x81.
type Handshake struct {
	// Palette is the logo palette selector (3 bits)
	Palette byte

	// Direction is the logo fly-in direction (1 bit)
	Direction byte

	// Speed is the logo fly-in speed (2 bits)
	Speed byte
}

// PP returns 0x81 + palette*0x10 + direction*0x8 + speed*0x2 with each field masked to its width.
func (h Handshake) PP() uint16 {
	return 0x81 +
		uint16(h.Palette&0x07)*0x10 +
		uint16(h.Direction&0x01)*0x08 +
		uint16(h.Speed&0x03)*0x02
}

// KeyCommand returns the command used to prime and fetch the encryption token.
func KeyCommand(pp uint16) uint16 {
	return CmdKeyBase | pp&0xFF
}

// IsToken reports whether a key-exchange reply carries the token marker in its high byte.
func IsToken(reply uint16) bool {
	return reply>>8 == TokenMarker
}

// KeystreamSeed derives the keystream seed from the token's low byte and pp.
func KeystreamSeed(token byte, pp uint16) uint32 {
	return 0xFFFF0000 | uint32(token)<<8 | uint32(pp&0xFF)
}

// AdjustFinalA returns the finalA byte sent back to the peer: (token + 0xF) mod 256.
func AdjustFinalA(token byte) byte {
	return token + 0x0F
}

// FinalACommand returns the command carrying the adjusted finalA byte.
func FinalACommand(finalA byte) uint16 {
	return CmdFinalABase | uint16(finalA)
}

// LengthParam returns ((alignedLength - HeaderSize) / 4) - 0x34 truncated to 16 bits.
// alignedLength is the whole image length rounded down to PayloadAlignment.
// The arithmetic wraps for images shorter than 0x1C0 bytes, as the peer expects.
func LengthParam(alignedLength uint32) uint16 {
	return uint16((alignedLength-HeaderSize)/WordSize - LengthParamBias)
}

// PayloadWords is the peer-side inverse of LengthParam: the number of payload words announced.
func PayloadWords(param uint16) int {
	return int(param + LengthParamBias)
}

// WordOffset returns the byte offset of payload word i within the image.
func WordOffset(i int) uint32 {
	return uint32(i)*WordSize + HeaderSize
}

// Ack returns the acknowledgment the peer sends for the word at offset.
func Ack(offset uint32) uint16 {
	return uint16(offset)
}
