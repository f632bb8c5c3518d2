// Package transport defines the word-exchange contract the multiboot engine drives.
//
// # Contract
//
// A Transport performs one atomic 32-bit full-duplex exchange with the peer and then
// waits a fixed quiescent delay before the next exchange may start. Implementations
// must report failures as errors; a failed exchange is never reported as a zero reply,
// because zero is a meaningful protocol response.
//
// # Hardware
//
// SPI adapts any periph.io SPI connection (mode 3, 8 bits per word):
//
//	t, closer, err := transport.OpenSPI("", 256*physic.KiloHertz)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer closer.Close()
//
// Tests and emulators implement Transport directly, or wrap a function with Func.
package transport
