package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/autopar/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the autopar CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "autopar",
		Short:   "Profile-driven automatic parallelism advisor",
		Long:    "autopar analyzes a program's execution profile, decides which conjunctions\nare worth running in parallel, and reports the recommendations.",
		Version: ir.AdvisorVersion,
	}

	// Global flags. -v is reserved for report verbosity, so version takes -V
	// and verbose has no shorthand.
	cmd.PersistentFlags().BoolVar(&opts.Verbose, "verbose", false, "verbose diagnostics on stderr")
	cmd.PersistentFlags().BoolP("version", "V", false, "print version and exit")

	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// verbosef prints a diagnostic to the command's error stream when verbose
// mode is on. Report text never goes through here.
func (o *RootOptions) verbosef(cmd *cobra.Command, format string, args ...any) {
	if o.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
	}
}
