// Package store reads the profile database the external collector produces.
//
// The collector aggregates raw traces into a SQLite file holding the
// program's static structure (conjunctions and goals) and per-call-site
// measurements. This package loads that file into a profile.Model; the
// advisor itself never writes measurements.
//
// Init and WriteProfile exist for the collector toolchain and for test
// fixtures; the analysis pipeline only ever calls Open and ReadModel.
package store
