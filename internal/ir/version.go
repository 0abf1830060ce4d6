package ir

// Version constants for the profile schema and the advisor.
const (
	// ProfileSchemaVersion is the collector database schema version this
	// build reads.
	ProfileSchemaVersion = 1

	// AdvisorVersion is the autopar advisor version.
	AdvisorVersion = "0.1.0"
)
