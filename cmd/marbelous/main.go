// Command marbelous runs a Marbelous board from the command line
// (spec.md §6, SPEC_FULL.md §4.5).
package main

import (
	"fmt"
	"os"

	"github.com/marbelous-lang/marbelous/internal/cliapp"
)

func main() {
	cmd := cliapp.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
