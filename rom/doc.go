// Package rom provides a read-only view over a multiboot ROM image.
//
// # Image Layout
//
// A multiboot image starts with a fixed 192-byte cartridge header followed by the program
// payload. Only whole 16-byte blocks are transferred; trailing bytes are dropped:
//
//	[HEADER(0xC0)][PAYLOAD ... up to len &^ 0xF][ignored tail]
//
// # Usage
//
// Load an image from disk:
//
//	img, err := rom.Load("game.mb.gba")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s (%s) payload=%d bytes\n", img.Info().Title, img.Info().GameCode, len(img.Payload()))
//
// Or wrap bytes already in memory (they are borrowed, not copied):
//
//	img, err := rom.New(buf)
//
// # Validation
//
// New rejects images shorter than the header or larger than the peer's receive RAM with a
// *SizeError. Header fields are decoded for display only; the protocol checksum is the only
// integrity check performed during a transfer.
package rom
