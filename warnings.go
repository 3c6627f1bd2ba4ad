package uvio

// WarningCategory classifies non-fatal findings.
type WarningCategory string

const (
	// WarnDeprecation flags legacy file conventions that are fixed up
	// on read but will stop being accepted eventually.
	WarnDeprecation WarningCategory = "deprecation"
	// WarnConsistency flags metadata that is kept as stored even though
	// it disagrees with values derived from other metadata.
	WarnConsistency WarningCategory = "consistency"
	// WarnPerformance flags selections that force slow access paths.
	WarnPerformance WarningCategory = "performance"
	// WarnCompatibility flags encodings other tools may not read.
	WarnCompatibility WarningCategory = "compatibility"
)

// Warning is a non-fatal finding surfaced during an operation.
type Warning struct {
	Category WarningCategory
	Message  string
}

// WarningHandler receives warnings as they are found. The default
// handler logs them.
type WarningHandler func(Warning)
