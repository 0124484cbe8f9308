//go:generate mockgen -destination=./mocks/orchestrator.go . AssetCollector,AssetDownloader

package orchestrator

import (
	"context"
	"sync/atomic"

	"github.com/cperrin88/assetmirror/pkg/collect"
	"github.com/cperrin88/assetmirror/pkg/download"
)

// AssetCollector produces the set of references to mirror.
type AssetCollector interface {
	Collect(ctx context.Context) (*collect.AssetSet, collect.Stats, error)
}

// AssetDownloader fetches a set of references.
type AssetDownloader interface {
	Download(ctx context.Context, set *collect.AssetSet, opts download.Options) (download.Report, error)
}

// Phases reported through Hooks.
const (
	PhaseCollecting  = "collecting"
	PhaseCollected   = "collected"
	PhaseDownloading = "downloading"
	PhaseDone        = "done"
	PhaseError       = "error"
)

// Orchestrator runs the collect and download stages in order. It runs once.
type Orchestrator struct {
	Collector AssetCollector
	DL        AssetDownloader
	Hooks     Hooks // Hooks for progress and event notifications

	ran atomic.Bool
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // collecting|collected|downloading|done|error
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Options control orchestrator execution.
type Options struct {
	Download download.Options
	DryRun   bool // collect only
}

// Result is what a run produced. Report is empty for dry runs.
type Result struct {
	Assets *collect.AssetSet
	Stats  collect.Stats
	Report download.Report
	DryRun bool
}
