package fsutil

// File and directory permission constants.
// Mirrored assets are public build output, so the defaults are world-readable.
const (
	// Default file modes.
	FileModeDefault = 0o644 // -rw-r--r--: Default for mirrored assets and reports
	FileModeSecure  = 0o640 // -rw-r-----: For config files that may carry credentials

	// Directory modes.
	DirModeDefault = 0o755 // drwxr-xr-x: Default for the mirror tree
	DirModeSecure  = 0o750 // drwxr-x---: For config directories
)
