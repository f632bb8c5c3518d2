package transport

import (
	"context"
	"fmt"
)

// Transport exchanges one 32-bit word with the peer.
//
// Exchange blocks until the peer's reply for this word is available. The send and
// receive happen in a single bus transaction, followed by the transport's quiescent delay.
// Implementations are used by one session at a time and need not be safe for concurrent use.
type Transport interface {
	Exchange(ctx context.Context, word uint32) (uint32, error)
}

// Func adapts an ordinary function to the Transport interface.
type Func func(ctx context.Context, word uint32) (uint32, error)

// Exchange implements Transport.
func (f Func) Exchange(ctx context.Context, word uint32) (uint32, error) {
	return f(ctx, word)
}

// Exchange16 sends v in the low 16 bits of a 32-bit exchange and returns the high 16 bits of the reply.
func Exchange16(ctx context.Context, t Transport, v uint16) (uint16, error) {
	reply, err := t.Exchange(ctx, uint32(v))
	if err != nil {
		return 0, err
	}
	return uint16(reply >> 16), nil
}

// Error wraps a failed exchange.
type Error struct {
	// Op is the operation that failed (e.g. "spi transfer")
	Op string

	// Word is the word that was being sent
	Word uint32

	// Err is the underlying error
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s failed sending 0x%08X: %v", e.Op, e.Word, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
