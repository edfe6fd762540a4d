package logger

// OutputCategory defines a category of CLI output that can be enabled or
// disabled independently of log severity.
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults OutputCategory = iota // Generated file list, decoded messages
	OutputErrors                        // Errors with hints

	// Level 1 (-v)
	OutputProgress // Why a generate runs
	OutputSources  // Fetch and patch status

	// Level 2 (-vv)
	OutputTiming // Stage timing
	OutputConfig // Config files consulted

	// Level 3 (-vvv)
	OutputLayout // Per-message wire order and crc_extra
)

var categoryLevels = map[OutputCategory]int{
	OutputResults:  VerbosityUser,
	OutputErrors:   VerbosityUser,
	OutputProgress: VerbosityInfo,
	OutputSources:  VerbosityInfo,
	OutputTiming:   VerbosityDebug,
	OutputConfig:   VerbosityDebug,
	OutputLayout:   VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}

// Shows reports whether category is shown at the verbosity Initialize was
// given.
func Shows(category OutputCategory) bool {
	return ShouldOutput(Verbosity, category)
}
