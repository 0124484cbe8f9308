package cli

// Default values for CLI flags and formatted output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// MaxFailuresShown caps the failed assets listed in text output.
	MaxFailuresShown = 20
	// DefaultArchiveName is used by pack when no archive path is given.
	DefaultArchiveName = "mirror.tar.gz"
)
