package download

import (
	"time"

	pkgerrors "github.com/cperrin88/assetmirror/pkg/errors"
)

// Report aggregates the outcomes of one download run.
type Report struct {
	Total            int
	Succeeded        int
	Failed           int
	TotalBytes       int64
	FailedReferences []string
	Outcomes         []Outcome
	Duration         time.Duration
}

// NewReport folds outcomes, kept in submission order, into a Report.
func NewReport(outcomes []Outcome, elapsed time.Duration) Report {
	r := Report{
		Total:    len(outcomes),
		Outcomes: outcomes,
		Duration: elapsed,
	}
	for _, o := range outcomes {
		if o.Success {
			r.Succeeded++
			r.TotalBytes += o.BytesWritten
			continue
		}
		r.Failed++
		r.FailedReferences = append(r.FailedReferences, o.Reference)
	}
	return r
}

// Complete reports whether every asset was downloaded.
func (r Report) Complete() bool {
	return r.Failed == 0
}

// PartialError returns a *errors.PartialDownloadError describing the failed assets, or
// nil when there were none.
func (r Report) PartialError() error {
	if r.Failed == 0 {
		return nil
	}
	return &pkgerrors.PartialDownloadError{Failed: r.FailedReferences, Total: r.Total}
}
