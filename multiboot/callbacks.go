package multiboot

import "time"

// Progress contains information about the transfer progress.
// Passed to ProgressCallback during a multiboot session.
type Progress struct {
	// Phase is the phase the session is in when the report is made
	Phase Phase

	// WordsSent is the number of payload words acknowledged so far
	WordsSent int

	// TotalWords is the total number of payload words
	TotalWords int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesSent is the number of header and payload bytes sent so far
	BytesSent int

	// ElapsedTime is the time elapsed since the session started
	ElapsedTime time.Duration
}

// ProgressCallback is called periodically during the transfer to report progress.
// Implementations should return quickly; the peer is waiting on the bus.
//
// Example:
//
//	s := multiboot.New(t, img,
//	    multiboot.WithProgressCallback(func(p multiboot.Progress) {
//	        fmt.Printf("[%s] %.1f%% - word %d/%d\n",
//	            p.Phase, p.Percentage, p.WordsSent, p.TotalWords)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the session.
// This allows integration with any logging framework; see package logging for
// logrus and glog adapters.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
