package rom

import (
	"fmt"
	"io"
	"os"
)

// Load reads a ROM image from the given file path.
//
// Example:
//
//	img, err := rom.Load("game.mb.gba")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rom: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Read(f)
}

// Read reads a ROM image from any io.Reader.
// At most MaxSize+1 bytes are read so oversized input is rejected without buffering it all.
func Read(r io.Reader) (*Image, error) {
	b, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read rom: %w", err)
	}

	return New(b)
}
