// Package protocol implements the wire-level pieces of the multiboot transfer protocol.
//
// This package provides the command constants, the checksum and keystream algorithms, and the
// arithmetic that derives session keys from the peer's replies. It performs no I/O; the
// multiboot package drives a transport with these building blocks.
//
// # Protocol Overview
//
// Every exchange is a single 32-bit full-duplex transfer. 16-bit commands are sent in the low
// half of the word and the peer's 16-bit reply is read from the high half:
//
//	Probe:      0x6202                      -> 0x7202
//	Header:     0x6100, 96 header halfwords, 0x6200
//	Keys:       0x6202, 0x63pp, 0x63pp      -> 0x73cc (token)
//	            0x64hh, length parameter    -> 0x73rr (finalB)
//	Payload:    encrypted 32-bit words      -> offset in high half
//	Checksum:   0x0065 ...                  -> 0x0075
//	            0x0066, digest              -> digest echo
//
// # Checksum
//
// Checksum is a bit-serial CRC-16 variant over the plaintext payload words:
//
//	crc := protocol.NewChecksum(finalA, finalB)
//	crc.Step(word)
//	digest, err := crc.Digest()
//
// # Keystream
//
// Keystream obscures each payload word. It is sequential: words must be processed in order.
//
//	ks := protocol.NewKeystream(protocol.KeystreamSeed(token, pp))
//	cipher := ks.Step(word, protocol.WordOffset(i))
package protocol
