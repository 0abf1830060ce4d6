package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/autopar/internal/config"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a tuning parameter file against the schema",
		Long: `Validate a tuning parameter file without running any analysis.

Examples:
  autopar validate --config tuning.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "tuning parameter file to check (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitFailure, "", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"ok: min_speedup=%g produce_fraction=%g sync_overhead=%g\n",
		cfg.MinSpeedup, cfg.Params.ProduceFraction, cfg.Params.SyncOverhead)
	return nil
}
