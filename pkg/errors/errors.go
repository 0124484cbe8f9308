// Package errors provides the error vocabulary shared by the assetmirror packages.
// It defines sentinel errors for every failure class of a harvest run, helpers that
// attach the offending path or URL, and Wrap/Wrapf for adding context while keeping
// errors.Is matching intact.
package errors

import (
	"fmt"
	"strings"
)

// Common error types.
var (
	// Collection errors. These always abort the collect phase.
	ErrScan              = fmt.Errorf("artifact scan failed")
	ErrProvider          = fmt.Errorf("asset provider failed")
	ErrMalformedArtifact = fmt.Errorf("malformed asset reference")

	// Download errors.
	ErrTransientFetch  = fmt.Errorf("transient fetch failure")
	ErrDownloadFailed  = fmt.Errorf("download failed")
	ErrPartialDownload = fmt.Errorf("partial download failure")
	ErrInvalidOrigin   = fmt.Errorf("invalid origin host")
	ErrInvalidPath     = fmt.Errorf("invalid path")

	// ErrAlreadyRun is returned when a single-use component is run a second time.
	ErrAlreadyRun = fmt.Errorf("already run")

	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config to YAML")

	// ErrConfigFileExists is returned when attempting to create a configuration file that already exists.
	ErrConfigFileExists = fmt.Errorf("configuration file already exists (use --force to overwrite)")

	// ErrVersionConstraint is returned when the running build does not satisfy required_version.
	ErrVersionConstraint = fmt.Errorf("version constraint not satisfied")

	ErrHTTPTimeoutNegative  = fmt.Errorf("http_timeout cannot be negative")
	ErrRetriesNegative      = fmt.Errorf("retries cannot be negative")
	ErrMaxConcurrentInvalid = fmt.Errorf("concurrency must be at least 1")
	ErrInvalidFailureMode   = fmt.Errorf("invalid failure mode")
	ErrInvalidMalformed     = fmt.Errorf("invalid malformed policy")
	ErrInvalidProgressStep  = fmt.Errorf("progress_step must be between 1 and 100")
	ErrInvalidOutputFormat  = fmt.Errorf("invalid output format")
	ErrInvalidLogLevel      = fmt.Errorf("invalid log level")
	ErrInvalidProviderType  = fmt.Errorf("invalid provider type")
	ErrUnknownConfigKey     = fmt.Errorf("unknown configuration key")
)

// PartialDownloadError is returned by a strict download run in which at least one
// asset failed after retries. Failed lists the references in submission order.
type PartialDownloadError struct {
	Failed []string
	Total  int
}

func (e *PartialDownloadError) Error() string {
	const preview = 5
	shown := e.Failed
	if len(shown) > preview {
		shown = shown[:preview]
	}
	msg := fmt.Sprintf("%s: %d of %d assets failed: %s", ErrPartialDownload, len(e.Failed), e.Total, strings.Join(shown, ", "))
	if len(e.Failed) > preview {
		msg += fmt.Sprintf(" (and %d more)", len(e.Failed)-preview)
	}
	return msg
}

// Unwrap lets errors.Is match ErrPartialDownload.
func (e *PartialDownloadError) Unwrap() error {
	return ErrPartialDownload
}

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrScanWithPath wraps a filesystem failure with the path being scanned.
func ErrScanWithPath(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrScan, path, err)
}

// ErrMalformedWithPath reports an unterminated reference found in the artifact at path.
func ErrMalformedWithPath(path, candidate string) error {
	return fmt.Errorf("%w: %s: %w: %q", ErrScan, path, ErrMalformedArtifact, candidate)
}

// ErrProviderWithCause wraps a provider failure.
func ErrProviderWithCause(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrProvider, name, err)
}

// ErrInvalidFailureModeWithDetails is a helper to create a wrapped error with the invalid mode and valid options.
func ErrInvalidFailureModeWithDetails(mode string) error {
	return fmt.Errorf("%w: '%s', must be one of: lenient, strict", ErrInvalidFailureMode, mode)
}

// ErrInvalidMalformedWithDetails is a helper to create a wrapped error with the invalid policy and valid options.
func ErrInvalidMalformedWithDetails(policy string) error {
	return fmt.Errorf("%w: '%s', must be one of: skip, fail", ErrInvalidMalformed, policy)
}

// ErrInvalidOutputFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json, yaml", ErrInvalidOutputFormat, format)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: error, warn, info, debug", ErrInvalidLogLevel, level)
}

// ErrInvalidProviderTypeWithDetails is a helper to create a wrapped error with the provider index.
func ErrInvalidProviderTypeWithDetails(i int, kind string) error {
	return fmt.Errorf("provider %d: %w: '%s', must be one of: script, list", i, ErrInvalidProviderType, kind)
}
