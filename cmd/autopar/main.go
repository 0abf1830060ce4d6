package main

import (
	"fmt"
	"os"

	"github.com/roach88/autopar/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Diagnostics go to stderr; report text already went to stdout.
		fmt.Fprintf(os.Stderr, "autopar: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
