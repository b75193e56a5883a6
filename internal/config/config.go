// Package config holds the flag-derived Options assembled once at startup
// and threaded through the rest of the program by value. There is no
// persisted config file here -- section 1's Non-goals exclude a scripting or
// configuration file, so unlike the teacher's ~/.h2/config.yaml loader this
// package has nothing to read from disk.
package config

import "fmt"

// Options is the runtime configuration derived from the CLI flags in
// section 6: command-prefix key, scrollback depth, forced TERM, and the PTY
// width setting.
type Options struct {
	// CommandKey is the byte that, after Ctrl-modification (`& 0x1F`),
	// enters command mode -- the `-c` flag.
	CommandKey byte

	// Scrollback is the number of history lines kept per pty's primary
	// screen -- the `-s` flag.
	Scrollback int

	// ForceTerm overrides the TERM value advertised to children -- the
	// `-t`/`-T` flags (aliases of each other).
	ForceTerm string

	// Width is the `-w` flag's value. Ptys are sized from their pane's
	// extent; no pty is created or resized with this width.
	Width int
}

// DefaultCommandKey is 'g' & 0x1F, the original program's default command
// prefix (Ctrl-G).
const DefaultCommandKey = 'g' & 0x1F

// Default returns the Options in force when no flags override them.
func Default() Options {
	return Options{
		CommandKey: DefaultCommandKey,
		Scrollback: 1024,
		Width:      80,
	}
}

// CtrlKey applies the `& 0x1F` transform the `-c` flag's value goes through,
// turning a plain letter like 'a' into its Ctrl-modified control code.
func CtrlKey(c byte) byte { return c & 0x1F }

// Validate reports an error for a negative scrollback, a scrollback too
// large to be a sane terminal allocation, or a non-positive width, matching
// section 6's "large values may fail allocation and exit" rule -- surfaced
// here as a validation error instead of letting a pathological
// `make([]Row, n)` panic deep in internal/term. Width has no upper bound.
func (o Options) Validate() error {
	if o.Scrollback < 0 {
		return fmt.Errorf("scrollback must be >= 0, got %d", o.Scrollback)
	}
	if o.Scrollback > 1_000_000 {
		return fmt.Errorf("scrollback %d exceeds the maximum of 1000000 lines", o.Scrollback)
	}
	if o.Width <= 0 {
		return fmt.Errorf("width must be > 0, got %d", o.Width)
	}
	return nil
}
