package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/autopar/internal/config"
	"github.com/roach88/autopar/internal/feedback"
	"github.com/roach88/autopar/internal/selector"
	"github.com/roach88/autopar/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Database string
	Output   string
	Config   string

	MinSpeedup      float64
	ProduceFraction float64
	SyncOverhead    float64
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a profile and write a feedback file",
		Long: `Load the collector's profile database, select the conjunctions worth
running in parallel, and write the recommendations to a feedback file.

The feedback file is published atomically: a half-written file is never
observable at the output path.

Examples:
  autopar analyze --db ./prog.profile.db --out ./prog.feedback
  autopar analyze --db ./prog.profile.db --out ./prog.feedback --min-speedup 1.2
  autopar analyze --db ./prog.profile.db --out ./prog.feedback --config tuning.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, cmd)
		},
	}

	defaults := selector.DefaultConfig()
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the profile database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Output, "out", "", "path of the feedback file to write (required)")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().StringVar(&opts.Config, "config", "", "tuning parameter file (YAML)")
	cmd.Flags().Float64Var(&opts.MinSpeedup, "min-speedup", defaults.MinSpeedup, "minimum speedup ratio a candidate must exceed")
	cmd.Flags().Float64Var(&opts.ProduceFraction, "produce-fraction", defaults.Params.ProduceFraction, "fraction of a producer's cost before its output is available")
	cmd.Flags().Float64Var(&opts.SyncOverhead, "sync-overhead", defaults.Params.SyncOverhead, "fixed cost per dependency edge crossed in parallel")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitFailure, "", err)
	}

	// Explicit flags win over the tuning file.
	if cmd.Flags().Changed("min-speedup") {
		cfg.MinSpeedup = opts.MinSpeedup
	}
	if cmd.Flags().Changed("produce-fraction") {
		cfg.Params.ProduceFraction = opts.ProduceFraction
	}
	if cmd.Flags().Changed("sync-overhead") {
		cfg.Params.SyncOverhead = opts.SyncOverhead
	}
	if err := config.Validate(cfg); err != nil {
		return WrapExitError(ExitFailure, "", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitFailure, "", err)
	}
	defer st.Close()

	model, err := st.ReadModel(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "", err)
	}
	opts.verbosef(cmd, "loaded profile for %s: %d conjunctions, %d call sites",
		model.Name(), len(model.Program.Conjunctions), model.SiteCount())

	selected, err := selector.Select(model, cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "", err)
	}
	opts.verbosef(cmd, "selected %d parallelization candidates", len(selected))

	artifact := feedback.FromSelection(model, selected)
	if err := feedback.WriteFile(opts.Output, artifact); err != nil {
		return WrapExitError(ExitFailure, "", err)
	}
	opts.verbosef(cmd, "wrote feedback to %s", opts.Output)
	return nil
}
