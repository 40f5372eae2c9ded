// Command panoptes is the dashboard binary: a single no-subcommand
// entry point (spec.md §6) that boots the event/render loop and runs
// until the user quits.
package main

import (
	"fmt"
	"os"

	"github.com/ivanbrko/panoptes/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "panoptes:", err)
		os.Exit(1)
	}
}
