package cmd

import (
	"fmt"
	"os"

	"smtx/internal/app"
	"smtx/internal/config"
	"smtx/internal/render"
)

// Main starts the multiplexer: detect the host terminal's capabilities,
// put it into raw mode, build the initial pane and canvas tree, and run the
// event loop until the tree empties or stdin closes. The Go analogue of
// smtx-main.c's main(): init() plus the call into main_loop(), minus the
// argv-parsing init() also does (cobra already handled that by the time
// Main runs).
func Main(opts config.Options) error {
	if !isRealTerminal(os.Stdin) || !isRealTerminal(os.Stdout) {
		return fmt.Errorf("smtx must be run from a terminal")
	}

	caps := detectCapabilities()
	rows, cols, err := render.Size(os.Stdout)
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	restore, err := render.EnableRawMode(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer restore()

	a, err := app.New(opts, app.Capabilities{Term: caps.Term}, rows, cols)
	if err != nil {
		return err
	}

	r := render.NewRenderer(os.Stdout, caps.Profile)
	r.Resize(rows, cols)

	return app.Run(a, r, os.Stdin)
}

func isRealTerminal(f *os.File) bool {
	_, _, err := render.Size(f)
	return err == nil
}
