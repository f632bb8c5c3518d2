package protocol

// ProtocolName identifies the transfer protocol implemented by this library.
const ProtocolName = "multiboot (normal mode, 32-bit)"

// Image layout constants.
const (
	// HeaderSize is the size of the cartridge header sent unencrypted (0xC0)
	HeaderSize = 0xC0

	// HeaderWords is the number of 16-bit words in the header
	HeaderWords = HeaderSize / 2

	// PayloadAlignment is the byte alignment the image length is rounded down to
	PayloadAlignment = 0x10

	// WordSize is the payload transfer unit in bytes
	WordSize = 4

	// LengthParamBias is subtracted from the payload word count in the length parameter
	LengthParamBias = 0x34
)

// Commands sent by the host. 16-bit commands travel in the low half of a 32-bit exchange.
const (
	// CmdProbe asks the peer whether it is ready for multiboot; also re-arms it for key exchange
	CmdProbe = 0x6202

	// CmdHeaderStart begins the header transfer
	CmdHeaderStart = 0x6100

	// CmdHeaderEnd ends the header transfer
	CmdHeaderEnd = 0x6200

	// CmdKeyBase is or'ed with the pp parameter to prime and fetch the encryption token
	CmdKeyBase = 0x6300

	// CmdFinalABase is or'ed with the adjusted finalA byte
	CmdFinalABase = 0x6400

	// CmdChecksumWait polls the peer until it is ready for the checksum
	CmdChecksumWait = 0x0065

	// CmdChecksumStart begins the checksum exchange
	CmdChecksumStart = 0x0066
)

// Responses returned by the peer in the high half of a 32-bit exchange.
const (
	// RespReady is the reply to CmdProbe from a peer waiting for multiboot
	RespReady = 0x7202

	// RespChecksumBusy is the reply to CmdChecksumWait while the peer is still busy
	RespChecksumBusy = 0x0074

	// RespChecksumReady is the reply to CmdChecksumWait once the peer accepts the checksum
	RespChecksumReady = 0x0075

	// TokenMarker is the high byte every key-exchange reply must carry
	TokenMarker = 0x73
)

// Cipher and checksum constants.
const (
	// CRCInitial is the initial value of the checksum register
	CRCInitial = 0xC387

	// CRCMask is the polynomial mask xor'ed into the register on a set bit
	CRCMask = 0xC37B

	// KeystreamMask is xor'ed into every ciphertext word
	KeystreamMask = 0x43202F2F

	// KeystreamMultiplier drives the seed recurrence
	KeystreamMultiplier = 0x6F646573

	// KeystreamOffsetBase is the value the word offset is subtracted from
	KeystreamOffsetBase = 0xFE000000
)
