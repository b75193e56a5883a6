package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"smtx/internal/config"
	"smtx/internal/version"
)

// NewRootCmd builds the single smtx command: unlike the teacher's cobra
// tree of a dozen-plus agent-management subcommands, smtx has no
// subcommands at all -- section 6's entire CLI surface is a flat set of
// flags on the one invocation that starts the multiplexer.
func NewRootCmd() *cobra.Command {
	opts := config.Default()
	var commandKeyFlag string
	var forceTerm string
	var termAlias string
	var showVersion bool

	root := &cobra.Command{
		Use:   "smtx [flags]",
		Short: "A terminal multiplexer",
		Long:  "smtx partitions the terminal into a tree of panes, each running its own shell behind a pseudoterminal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version.DisplayVersion())
				return nil
			}
			if commandKeyFlag != "" {
				opts.CommandKey = config.CtrlKey(commandKeyFlag[0])
			}
			if termAlias != "" {
				forceTerm = termAlias
			}
			opts.ForceTerm = forceTerm
			if err := opts.Validate(); err != nil {
				return err
			}
			return Main(opts)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&commandKeyFlag, "command-key", "c", "", "command prefix char (value is char & 0x1F)")
	flags.IntVarP(&opts.Scrollback, "scrollback", "s", opts.Scrollback, "scrollback history depth in lines")
	flags.StringVarP(&forceTerm, "term", "t", "", "force the TERM value advertised to child shells")
	flags.StringVarP(&termAlias, "term-long", "T", "", "alias of -t")
	flags.IntVarP(&opts.Width, "width", "w", opts.Width, "PTY column width setting (ptys are sized to their pane)")
	flags.BoolVarP(&showVersion, "version", "v", false, "print the version and exit")

	return root
}
