package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// capabilities is what startup learns about the host terminal: its color
// profile, and the TERM value section 4.3 says to advertise to children.
// Adapted from the teacher's detectTerminalColorHints, dropping the OSC
// 10/11 foreground/background probe and its on-disk cache -- those existed
// so a reattaching h2 daemon client could recall a remote terminal's colors
// across reconnects. This program has no daemon and never detaches, so
// there is nothing to reattach to and nothing worth persisting.
type capabilities struct {
	Profile termenv.Profile
	Term    string
}

// detectCapabilities inspects stdout the way the teacher's
// detectTerminalColorHints does (termenv.NewOutput plus x/term.IsTerminal,
// go-isatty alongside it matching the teacher's combined use of both TTY
// detectors), and resolves the section 4.3 TERM choice: screen-256color-bce
// when the host can do at least 256 colors, screen-bce otherwise.
func detectCapabilities() capabilities {
	if !isatty.IsTerminal(os.Stdout.Fd()) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return capabilities{Profile: termenv.Ascii, Term: "screen-bce"}
	}
	profile := termenv.NewOutput(os.Stdout).Profile
	termName := "screen-bce"
	if profile >= termenv.ANSI256 {
		termName = "screen-256color-bce"
	}
	return capabilities{Profile: profile, Term: termName}
}
