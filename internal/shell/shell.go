package shell

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
)

const (
	shellKey = "$shell"
	prompt   = "gbamb > "
)

// resetter is implemented by peers that can be rewound between sessions.
type resetter interface {
	Reset()
}

// Shell provides an ishell backed interactive shell around a Runner.
type Shell struct {
	Shell  *ishell.Shell
	Runner *Runner
}

var commands = []*ishell.Cmd{
	&InfoCmd,
	&ProbeCmd,
	&WaitCmd,
	&BootCmd,
	&SelectCmd,
	&ResetCmd,
}

// New creates a new shell.
func New(r *Runner) *Shell {
	s := &Shell{
		Shell:  ishell.New(),
		Runner: r,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Run processes args as a single command, or starts the interactive loop when
// args is empty.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	s.Shell.Run()
	return nil
}

var (
	// InfoCmd prints the loaded image details.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "show image details",
		Func: func(c *ishell.Context) {
			var w bytes.Buffer
			ShellFrom(c).Runner.Info(&w)
			c.Print(w.String())
		},
	}

	// ProbeCmd sends one readiness probe.
	ProbeCmd = ishell.Cmd{
		Name:    "probe",
		Aliases: []string{"p"},
		Help:    "send one readiness probe",
		Func: func(c *ishell.Context) {
			ready, err := ShellFrom(c).Runner.Probe(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			if ready {
				c.Println("ready")
				return
			}
			c.Println("not ready")
		},
	}

	// WaitCmd polls until the peer is ready.
	WaitCmd = ishell.Cmd{
		Name:    "wait",
		Aliases: []string{"w"},
		Help:    "poll until the peer is ready",
		Func: func(c *ishell.Context) {
			start := time.Now()
			if err := ShellFrom(c).Runner.Wait(context.Background()); err != nil {
				c.Err(err)
				return
			}
			c.Printf("ready after %s\n", time.Since(start).Round(time.Millisecond))
		},
	}

	// BootCmd runs a complete multiboot session.
	BootCmd = ishell.Cmd{
		Name:    "boot",
		Aliases: []string{"b"},
		Help:    "send the image",
		Func: func(c *ishell.Context) {
			start := time.Now()
			if err := ShellFrom(c).Runner.Boot(context.Background()); err != nil {
				c.Err(err)
				return
			}
			c.Printf("OK in %s\n", time.Since(start).Round(time.Millisecond))
		},
	}

	// SelectCmd lists the slots, or loads the image of one.
	SelectCmd = ishell.Cmd{
		Name:    "select",
		Aliases: []string{"s"},
		Help:    "[SLOT] list slots or select the image to send (0 is the default)",
		Func: func(c *ishell.Context) {
			r := ShellFrom(c).Runner
			if len(c.Args) < 1 {
				for slot := 0; slot <= len(r.ROMs.Slots); slot++ {
					path, _ := r.ROMs.Path(slot)
					mark := " "
					if slot == r.Slot {
						mark = "*"
					}
					c.Printf("%s %d %s\n", mark, slot, path)
				}
				return
			}
			slot, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("Invalid SLOT: %v", err))
				return
			}
			if err := r.Select(slot); err != nil {
				c.Err(err)
				return
			}
			c.Printf("slot %d: %s\n", slot, r.Image.Info().Title)
		},
	}

	// ResetCmd rewinds an emulated peer so it accepts another session.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "rewind the emulated peer",
		Func: func(c *ishell.Context) {
			r, ok := ShellFrom(c).Runner.Transport.(resetter)
			if !ok {
				c.Err(fmt.Errorf("transport cannot be reset"))
				return
			}
			r.Reset()
			c.Println("OK")
		},
	}
)
