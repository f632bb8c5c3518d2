package rom

import (
	"encoding/hex"
	"errors"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/moffa90/go-multiboot/protocol"
)

const (
	// HeaderSize is the size of the cartridge header in bytes
	HeaderSize = protocol.HeaderSize

	// MaxSize is the largest image the peer can receive (256 KiB of work RAM)
	MaxSize = 0x40000
)

var (
	// ErrTooShort indicates the image does not contain a full header
	ErrTooShort = errors.New("rom image shorter than header")

	// ErrTooLarge indicates the image does not fit in the peer's receive RAM
	ErrTooLarge = errors.New("rom image larger than receive RAM")
)

// SizeError reports an image whose length is outside the accepted range.
type SizeError struct {
	Size int
	Min  int
	Max  int
	Err  error
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("invalid rom size %d bytes: valid range is %d-%d", e.Size, e.Min, e.Max)
}

func (e *SizeError) Unwrap() error {
	return e.Err
}

// Image is an immutable view over a ROM byte buffer.
// The buffer is borrowed and must not be modified while the image is in use.
type Image struct {
	bytes []byte
}

// New wraps b as an image. It fails with a *SizeError when b cannot hold a header
// or exceeds MaxSize.
func New(b []byte) (*Image, error) {
	switch {
	case len(b) < HeaderSize:
		return nil, &SizeError{Size: len(b), Min: HeaderSize, Max: MaxSize, Err: ErrTooShort}
	case len(b) > MaxSize:
		return nil, &SizeError{Size: len(b), Min: HeaderSize, Max: MaxSize, Err: ErrTooLarge}
	}
	return &Image{bytes: b}, nil
}

// Len returns the raw image length in bytes.
func (img *Image) Len() int {
	return len(img.bytes)
}

// AlignedLength returns the image length rounded down to a multiple of 16.
func (img *Image) AlignedLength() uint32 {
	return uint32(len(img.bytes)) &^ (protocol.PayloadAlignment - 1)
}

// Header returns the fixed 192-byte header.
func (img *Image) Header() []byte {
	return img.bytes[:HeaderSize]
}

// Payload returns the bytes from the end of the header up to AlignedLength.
func (img *Image) Payload() []byte {
	return img.bytes[HeaderSize:img.AlignedLength()]
}

// PayloadWords returns the number of 32-bit words in the payload.
func (img *Image) PayloadWords() int {
	return len(img.Payload()) / protocol.WordSize
}

// Info decodes the cartridge header fields.
func (img *Image) Info() HeaderInfo {
	return parseHeader(img.Header())
}

// Hash returns the BLAKE3-256 hash of the full image.
func (img *Image) Hash() [32]byte {
	return blake3.Sum256(img.bytes)
}

// String returns the first 8 bytes of Hash in hex. It is intended as a short
// human-readable identifier in logs.
func (img *Image) String() string {
	h := img.Hash()
	return hex.EncodeToString(h[:8])
}
