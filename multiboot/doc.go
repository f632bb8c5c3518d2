// Package multiboot provides a high-level API for loading a program image into a
// remote console's RAM over a multiboot serial link.
//
// # Overview
//
// This package drives the complete session over a transport.Transport:
//   - Probing the peer for readiness
//   - Sending the unencrypted cartridge header
//   - Exchanging keys that seed the checksum and keystream
//   - Sending the encrypted payload, one acknowledged word at a time
//   - Validating the checksum echoed by the peer
//
// # Basic Usage
//
//	img, err := rom.Load("game.mb.gba")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	spi, closer, err := transport.OpenSPI("", transport.DefaultFrequency)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer closer.Close()
//
//	s := multiboot.New(spi, img)
//	for {
//	    if ok, _ := s.IsReady(ctx); ok {
//	        break
//	    }
//	    time.Sleep(100 * time.Millisecond)
//	}
//	if err := s.Multiboot(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration Options
//
//	s := multiboot.New(t, img,
//	    multiboot.WithProgressCallback(progressFunc),
//	    multiboot.WithLogger(logging.NewLogrus(logrus.StandardLogger())),
//	    multiboot.WithHandshake(protocol.Handshake{Palette: 1}),
//	    multiboot.WithChecksumTimeout(2*time.Second),
//	)
//
// # Error Handling
//
// Every failure is terminal for the session; nothing is retried or rolled back.
// The package provides structured error types, each matching a sentinel with errors.Is:
//   - HandshakeError (ErrFailedHandshake): token reply lacked the 0x73 marker
//   - TransmissionError (ErrTransmission): a payload word was acknowledged with the wrong offset
//   - ChecksumMismatchError (ErrInvalidChecksum): the peer echoed a different checksum
//   - ChecksumTimeoutError (ErrChecksumTimeout): the peer never became ready for the checksum
//   - transport.Error: the link itself failed
//
// Kind folds any returned error into a single ErrorKind for status reporting.
// To try again, start a new Session from the probing phase.
package multiboot
