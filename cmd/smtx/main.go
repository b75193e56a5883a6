// Command smtx is a terminal multiplexer.
package main

import (
	"fmt"
	"os"

	"smtx/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "smtx:", err)
		os.Exit(1)
	}
}
