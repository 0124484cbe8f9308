package provider

import "fmt"

// Common provider errors. Callers wrap them with errors.ErrProvider.
var (
	// ErrNotArray is returned when a provider produced something other than a list.
	ErrNotArray = fmt.Errorf("provider result is not an array")

	// ErrNoResult is returned when a script finished without setting its result variable.
	ErrNoResult = fmt.Errorf("provider script did not set a result")

	// ErrScriptExecution is returned when a script fails to compile or run.
	ErrScriptExecution = fmt.Errorf("error executing provider script")

	// ErrScriptReported is returned when a script sets a non-empty err variable.
	ErrScriptReported = fmt.Errorf("provider script reported an error")
)
