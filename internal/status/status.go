// Package status reports multiboot progress and results to the outside world.
package status

import (
	"github.com/moffa90/go-multiboot/multiboot"
)

// Blink codes, counted as LED flashes on the reference hardware.
const (
	BlinkSuccess         = 1
	BlinkFailedHandshake = 2
	BlinkInvalidChecksum = 3
	BlinkTransmission    = 4
	BlinkTimeout         = 5
	BlinkOther           = 6
)

// BlinkCode maps a session result to its blink code.
func BlinkCode(err error) int {
	switch multiboot.Kind(err) {
	case multiboot.KindNone:
		return BlinkSuccess
	case multiboot.KindFailedHandshake:
		return BlinkFailedHandshake
	case multiboot.KindInvalidChecksum:
		return BlinkInvalidChecksum
	case multiboot.KindTransmission:
		return BlinkTransmission
	case multiboot.KindTimeout:
		return BlinkTimeout
	default:
		return BlinkOther
	}
}

// Result is the summary of a finished session.
type Result struct {
	OK    bool   `json:"ok"`
	Kind  string `json:"kind"`
	Blink int    `json:"blink"`
	Error string `json:"error,omitempty"`
	ROM   string `json:"rom,omitempty"`
}

// NewResult summarizes err for the image identified by rom.
func NewResult(rom string, err error) Result {
	r := Result{
		OK:    err == nil,
		Kind:  multiboot.Kind(err).String(),
		Blink: BlinkCode(err),
		ROM:   rom,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Reporter receives progress updates and the final result of a session.
type Reporter interface {
	Progress(p multiboot.Progress)
	Result(r Result)
	Close() error
}

// Log reports through a multiboot.Logger.
type Log struct {
	Logger multiboot.Logger
}

// Progress implements Reporter.
func (l Log) Progress(p multiboot.Progress) {
	l.Logger.Debug("progress",
		"phase", p.Phase.String(),
		"words", p.WordsSent,
		"total", p.TotalWords,
		"percent", p.Percentage,
	)
}

// Result implements Reporter.
func (l Log) Result(r Result) {
	if r.OK {
		l.Logger.Info("multiboot succeeded", "rom", r.ROM, "blink", r.Blink)
		return
	}
	l.Logger.Error("multiboot failed", "rom", r.ROM, "kind", r.Kind, "blink", r.Blink, "error", r.Error)
}

// Close implements Reporter.
func (l Log) Close() error {
	return nil
}

// Multi fans out to several reporters.
type Multi []Reporter

// Progress implements Reporter.
func (m Multi) Progress(p multiboot.Progress) {
	for _, r := range m {
		r.Progress(p)
	}
}

// Result implements Reporter.
func (m Multi) Result(res Result) {
	for _, r := range m {
		r.Result(res)
	}
}

// Close implements Reporter. It closes every reporter and returns the first error.
func (m Multi) Close() error {
	var first error
	for _, r := range m {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
