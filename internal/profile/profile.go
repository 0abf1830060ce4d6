// Package profile holds the in-memory cost model of one executed program.
//
// A Model is built by the store from the collector's database and consumed,
// never mutated, by the analysis pipeline. Measurements are aggregates: the
// collector has already folded raw traces into per-call-site totals.
package profile

import (
	"fmt"

	"github.com/roach88/autopar/internal/ir"
)

// Measurement is the aggregate cost observed at one call site.
type Measurement struct {
	// Calls is how many times the site was executed. Zero means the site
	// was never reached in the observed run; its average is undefined.
	Calls int64 `json:"calls"`

	// TotalCost is the summed cost over all calls, in the collector's cost
	// units (clock ticks or a proxy).
	TotalCost float64 `json:"total_cost"`
}

// AvgCost returns the per-call average cost. The second return is false when
// Calls is zero: an unexecuted site has no average, and treating it as zero
// would let it falsely dominate candidate ranking.
func (m Measurement) AvgCost() (float64, bool) {
	if m.Calls <= 0 {
		return 0, false
	}
	return m.TotalCost / float64(m.Calls), true
}

// Validate checks the measurement's invariants.
func (m Measurement) Validate() error {
	if m.Calls < 0 {
		return fmt.Errorf("negative call count %d", m.Calls)
	}
	if m.TotalCost < 0 {
		return fmt.Errorf("negative total cost %g", m.TotalCost)
	}
	return nil
}

// Model is the profile of one executed program: its static structure plus
// the measurement for every call site the collector observed.
//
// Model is built once and treated as immutable thereafter.
type Model struct {
	Program      ir.Program
	measurements map[string]Measurement // keyed by canonical call-site path
}

// NewModel builds a model from a program structure and its measurements,
// keyed by canonical call-site path.
func NewModel(program ir.Program, measurements map[string]Measurement) *Model {
	m := make(map[string]Measurement, len(measurements))
	for k, v := range measurements {
		m[k] = v
	}
	return &Model{Program: program, measurements: m}
}

// Name returns the profiled program's name.
func (m *Model) Name() string {
	return m.Program.Name
}

// MeasurementFor returns the measurement recorded for a call site.
// The second return is false when the collector recorded nothing for it.
func (m *Model) MeasurementFor(cs ir.CallSiteID) (Measurement, bool) {
	meas, ok := m.measurements[ir.CanonicalPath(cs)]
	return meas, ok
}

// SiteCount returns how many call sites carry measurements.
func (m *Model) SiteCount() int {
	return len(m.measurements)
}

// Hash returns the content-addressed identity of the profiled program's
// structure. See ir.ProfileHash.
func (m *Model) Hash() string {
	return ir.ProfileHash(&m.Program)
}
