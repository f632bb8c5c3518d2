package protocol

import (
	"errors"
	"fmt"
)

// ErrDigestConsumed is returned when Digest is called on a Checksum that was already finalized.
var ErrDigestConsumed = errors.New("checksum digest already consumed")

// CommandName returns a human-readable name for a 16-bit host command.
func CommandName(cmd uint16) string {
	switch {
	case cmd == CmdProbe:
		return "probe"
	case cmd == CmdHeaderStart:
		return "header start"
	case cmd == CmdHeaderEnd:
		return "header end"
	case cmd&0xFF00 == CmdKeyBase:
		return "key"
	case cmd&0xFF00 == CmdFinalABase:
		return "finalA"
	case cmd == CmdChecksumWait:
		return "checksum wait"
	case cmd == CmdChecksumStart:
		return "checksum start"
	default:
		return fmt.Sprintf("unknown command 0x%04X", cmd)
	}
}
