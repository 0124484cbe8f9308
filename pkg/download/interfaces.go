package download

import (
	"context"
	"time"

	"github.com/cperrin88/assetmirror/pkg/auth"
	"github.com/cperrin88/assetmirror/pkg/collect"
)

// Fetcher downloads every reference of an AssetSet into a destination tree.
// It is implemented by *Downloader and mocked in orchestrator tests.
type Fetcher interface {
	// Download fetches each reference in set once. Individual failures are recorded in
	// the report; the returned error is reserved for invalid options and, in strict
	// mode, for a partial failure.
	Download(ctx context.Context, set *collect.AssetSet, opts Options) (Report, error)
}

// FailureMode selects how partial failure is surfaced.
type FailureMode string

const (
	// FailureLenient returns the report and no error even when some assets failed.
	FailureLenient FailureMode = "lenient"
	// FailureStrict returns the report together with a *errors.PartialDownloadError.
	FailureStrict FailureMode = "strict"
)

// Defaults used when the corresponding Options field is zero.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultRetryWaitMin = 500 * time.Millisecond
	DefaultRetryWaitMax = 10 * time.Second
	DefaultProgressStep = 5
	DefaultUserAgent    = "assetmirror/1.0"
)

// DefaultTrimPrefixes are removed from relative references when building destination paths.
var DefaultTrimPrefixes = []string{"/assets/", "/imager/"}

// Options control a download run.
type Options struct {
	Origin      string // scheme and host relative references are resolved against
	Dir         string // destination root; created if missing
	Concurrency int    // maximum in-flight downloads; if <=0, a sane default is used

	Timeout      time.Duration // per attempt, including the body
	Retries      int           // additional attempts after the first
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	FailureMode  FailureMode
	ProgressStep int // percent between progress notifications
	OnProgress   func(Progress)

	// TrimPrefixes are stripped from relative references before they become paths
	// under Dir. Nil means DefaultTrimPrefixes; an empty slice disables trimming.
	TrimPrefixes []string
	UserAgent    string

	// Auth is applied to requests for the origin host only.
	Auth *auth.Credentials
}

// Outcome is the result of downloading one reference.
type Outcome struct {
	Reference    string
	URL          string
	Path         string // absolute destination path
	Success      bool
	BytesWritten int64
	Digest       string // hex BLAKE3 of the body, set on success
	Err          error
}

// Progress is delivered to Options.OnProgress as downloads complete.
type Progress struct {
	Completed int
	Total     int
	Failed    int
	Bytes     int64
	Percent   int
}
