// Package config loads the advisor's tuning parameters from a YAML file and
// validates them against an embedded CUE schema before any analysis runs.
//
// Absent fields take the stock defaults; present fields must satisfy the
// schema. Validation happens on the merged result, so a file cannot smuggle
// an out-of-range value past a default.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/autopar/internal/selector"
)

//go:embed schema.cue
var schemaCUE string

// File is the YAML shape of a tuning file. Pointer fields distinguish
// "absent, use default" from an explicit value.
type File struct {
	MinSpeedup      *float64 `yaml:"min_speedup"`
	ProduceFraction *float64 `yaml:"produce_fraction"`
	SyncOverhead    *float64 `yaml:"sync_overhead"`
}

// Load reads, merges, and validates a tuning file, returning the resulting
// selector configuration. An empty path returns the defaults unchanged.
func Load(path string) (selector.Config, error) {
	cfg := selector.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return selector.Config{}, fmt.Errorf("tuning file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return selector.Config{}, fmt.Errorf("tuning file %s: %w", path, err)
	}

	if f.MinSpeedup != nil {
		cfg.MinSpeedup = *f.MinSpeedup
	}
	if f.ProduceFraction != nil {
		cfg.Params.ProduceFraction = *f.ProduceFraction
	}
	if f.SyncOverhead != nil {
		cfg.Params.SyncOverhead = *f.SyncOverhead
	}

	if err := Validate(cfg); err != nil {
		return selector.Config{}, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks a merged configuration against the embedded CUE schema.
func Validate(cfg selector.Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("tuning schema: %w", err)
	}
	tuning := schema.LookupPath(cue.ParsePath("#Tuning"))
	if err := tuning.Err(); err != nil {
		return fmt.Errorf("tuning schema: %w", err)
	}

	value := ctx.Encode(map[string]any{
		"min_speedup":      cfg.MinSpeedup,
		"produce_fraction": cfg.Params.ProduceFraction,
		"sync_overhead":    cfg.Params.SyncOverhead,
	})
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode tuning values: %w", err)
	}

	unified := tuning.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid tuning: %s", cueerrors.Details(err, nil))
	}
	return nil
}

// Default returns the stock configuration; a convenience mirror of
// selector.DefaultConfig for callers that only import config.
func Default() selector.Config {
	return selector.DefaultConfig()
}
