// Package shell drives multiboot sessions from the gbamb command, either one-shot
// or through an interactive ishell front end.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/moffa90/go-multiboot/internal/selector"
	"github.com/moffa90/go-multiboot/internal/status"
	"github.com/moffa90/go-multiboot/multiboot"
	"github.com/moffa90/go-multiboot/rom"
	"github.com/moffa90/go-multiboot/transport"
)

// ErrNotReady is returned by Wait when the peer never answered the probe.
var ErrNotReady = errors.New("peer not ready")

// Runner runs multiboot sessions for one image over one transport.
type Runner struct {
	Transport transport.Transport
	Image     *rom.Image

	// ROMs are the images Select chooses from
	ROMs selector.Set

	// Slot is the slot Image was loaded from
	Slot int

	// Options are applied to every session
	Options []multiboot.Option

	// Reporter receives progress and results of Boot; nil disables reporting
	Reporter status.Reporter

	// ProbeInterval is the delay between readiness probes in Wait
	ProbeInterval time.Duration

	// ProbeTimeout bounds Wait; zero waits until ctx is done
	ProbeTimeout time.Duration
}

func (r *Runner) session(extra ...multiboot.Option) *multiboot.Session {
	opts := append(append([]multiboot.Option{}, r.Options...), extra...)
	return multiboot.New(r.Transport, r.Image, opts...)
}

// Select loads the image of slot and makes it the one Boot sends.
// On error the current image is kept.
func (r *Runner) Select(slot int) error {
	path, err := r.ROMs.Path(slot)
	if err != nil {
		return err
	}
	img, err := rom.Load(path)
	if err != nil {
		return err
	}
	r.Image, r.Slot = img, slot
	return nil
}

// Info writes a description of the image to w.
func (r *Runner) Info(w io.Writer) {
	info := r.Image.Info()
	hash := r.Image.Hash()

	if path, err := r.ROMs.Path(r.Slot); err == nil && path != "" {
		fmt.Fprintf(w, "Slot:       %d (%s)\n", r.Slot, path)
	}
	fmt.Fprintf(w, "Size:       %s (%d bytes)\n", humanize.IBytes(uint64(r.Image.Len())), r.Image.Len())
	fmt.Fprintf(w, "Sent:       %s, %s words of payload\n",
		humanize.IBytes(uint64(r.Image.AlignedLength())), humanize.Comma(int64(r.Image.PayloadWords())))
	fmt.Fprintf(w, "Title:      %q\n", info.Title)
	fmt.Fprintf(w, "Game code:  %q\n", info.GameCode)
	fmt.Fprintf(w, "Maker code: %q\n", info.MakerCode)
	fmt.Fprintf(w, "Version:    %d\n", info.Version)
	complement := "ok"
	if !info.ComplementValid() {
		complement = fmt.Sprintf("mismatch (header 0x%02X, computed 0x%02X)", info.Complement, info.ComputedComplement())
	}
	fmt.Fprintf(w, "Complement: %s\n", complement)
	fmt.Fprintf(w, "BLAKE3:     %x\n", hash[:])
}

// Probe sends a single readiness probe.
func (r *Runner) Probe(ctx context.Context) (bool, error) {
	return r.session().IsReady(ctx)
}

// Wait probes until the peer is ready, ProbeTimeout elapses or ctx is done.
// Transport errors end the wait.
func (r *Runner) Wait(ctx context.Context) error {
	if r.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.ProbeTimeout)
		defer cancel()
	}

	probes := 0
	for {
		probes++
		ready, err := r.Probe(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && r.ProbeTimeout > 0 {
				return fmt.Errorf("%w after %d probes", ErrNotReady, probes)
			}
			return err
		}
		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && r.ProbeTimeout > 0 {
				return fmt.Errorf("%w after %d probes", ErrNotReady, probes)
			}
			return ctx.Err()
		case <-time.After(r.ProbeInterval):
		}
	}
}

// Boot runs one complete multiboot session and reports its result.
func (r *Runner) Boot(ctx context.Context) error {
	var extra []multiboot.Option
	if r.Reporter != nil {
		extra = append(extra, multiboot.WithProgressCallback(r.Reporter.Progress))
	}

	err := r.session(extra...).Multiboot(ctx)

	if r.Reporter != nil {
		r.Reporter.Result(status.NewResult(r.Image.String(), err))
	}
	return err
}
