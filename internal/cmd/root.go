// Package cmd wires every core package (config, stores, session
// manager, hook server, event loop, UI dispatch) into the single
// runnable binary spec.md §6 describes: no subcommands, unknown flags
// tolerated for forward compatibility, non-zero exit on startup
// failure. Grounded in the teacher's internal/cmd/root.go, which plays
// the same "one cobra.Command, PersistentPreRunE resolves the config
// dir" role — narrowed here to a single command instead of h2's run
// bucket of thirty-odd subcommands, since spec.md §6 explicitly rules
// those out.
package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the single cobra.Command this binary runs.
// Unknown flags are whitelisted (not rejected) per spec.md §6's
// forward-compatibility requirement, and the command accepts no
// positional arguments of its own.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:                "panoptes",
		Short:              "Terminal dashboard for concurrent AI-agent and shell sessions",
		Args:               cobra.ArbitraryArgs,
		SilenceUsage:       true,
		SilenceErrors:      true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard()
		},
	}
	return root
}

// Execute runs the root command and returns its error, if any, for
// main to report and translate into a non-zero exit code.
func Execute() error {
	return NewRootCmd().Execute()
}

// runDashboard is the fatal-at-startup gate (spec.md §7): verifying a
// real TTY is attached before anything else, the same way h2's own
// term_colors.go probes capabilities with go-isatty before committing
// to raw-mode/alt-screen control.
func runDashboard() error {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("stdin is not a terminal; panoptes must run interactively")
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("stdout is not a terminal; panoptes must run interactively")
	}

	app, err := NewApp()
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer app.Close()

	return app.Run()
}
