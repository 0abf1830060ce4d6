package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/autopar/internal/feedback"
	"github.com/roach88/autopar/internal/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Verbosity int
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <feedback-file>",
		Short: "Render a feedback file as readable text",
		Long: `Decode a feedback file and print its parallelization recommendations.

Verbosity controls detail only:
  0  program name and candidate count
  2  adds per-candidate goal ranges and speedup ratios (default)
  4  adds per-goal measurements, dependency edges, and additional data

Out-of-range verbosity is clamped with a warning, not rejected. The report
is labeled with the program name recorded in the artifact, independent of
the file's name on disk.

Examples:
  autopar report ./prog.feedback
  autopar report ./prog.feedback -v 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.Verbosity, "verbosity", "v", report.DefaultVerbosity, "detail level (0-4)")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command, path string) error {
	verbosity, clamped := report.Clamp(opts.Verbosity)
	if clamped {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: verbosity %d out of range, using %d\n",
			opts.Verbosity, verbosity)
	}

	artifact, err := feedback.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitFailure, "", err)
	}

	// Render fully before emitting a byte: the contract is a whole report
	// or none, never a partial report followed by an error.
	var sb strings.Builder
	if err := report.Write(&sb, artifact, verbosity); err != nil {
		return WrapExitError(ExitFailure, "", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), sb.String())
	return err
}
