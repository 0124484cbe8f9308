package orchestrator

import (
	"context"
	"fmt"

	pkgerrors "github.com/cperrin88/assetmirror/pkg/errors"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Run collects asset references and downloads them. A collection failure stops the run
// before any download. A strict download failure returns the partial Result together
// with the error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Result, error) {
	if !o.ran.CompareAndSwap(false, true) {
		return Result{}, fmt.Errorf("orchestrator: %w", pkgerrors.ErrAlreadyRun)
	}
	if o.Collector == nil {
		return Result{}, fmt.Errorf("asset collector is not configured")
	}

	emit(o.Hooks, Event{Phase: PhaseCollecting})
	set, stats, err := o.Collector.Collect(ctx)
	if err != nil {
		emit(o.Hooks, Event{Phase: PhaseError, Msg: err.Error()})
		return Result{}, err
	}
	result := Result{Assets: set, Stats: stats, DryRun: opts.DryRun}
	emit(o.Hooks, Event{Phase: PhaseCollected, Msg: fmt.Sprintf("%d unique asset references", set.Len())})

	if opts.DryRun {
		emit(o.Hooks, Event{Phase: PhaseDone, Msg: "dry-run"})
		return result, nil
	}
	if o.DL == nil {
		return result, fmt.Errorf("asset downloader is not configured")
	}

	emit(o.Hooks, Event{Phase: PhaseDownloading, Msg: fmt.Sprintf("%d assets", set.Len())})
	report, err := o.DL.Download(ctx, set, opts.Download)
	result.Report = report
	if err != nil {
		emit(o.Hooks, Event{Phase: PhaseError, Msg: err.Error()})
		return result, err
	}
	emit(o.Hooks, Event{Phase: PhaseDone, Msg: fmt.Sprintf("%d downloaded, %d failed", report.Succeeded, report.Failed)})
	return result, nil
}

// New constructs an Orchestrator. Hooks can be empty if no event handling is needed.
func New(c AssetCollector, dl AssetDownloader, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		Collector: c,
		DL:        dl,
		Hooks:     hooks,
	}
}
