package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cperrin88/assetmirror/internal/logger"
	"github.com/cperrin88/assetmirror/pkg/collect"
	"github.com/cperrin88/assetmirror/pkg/download"
)

// render writes v as JSON or YAML, or calls text for the default format.
func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(v)
	case "", "text":
		return text(w)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

type collectView struct {
	Assets []string      `json:"assets" yaml:"assets"`
	Stats  collect.Stats `json:"stats" yaml:"stats"`
}

type outcomeView struct {
	Reference string `json:"reference" yaml:"reference"`
	URL       string `json:"url" yaml:"url"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Success   bool   `json:"success" yaml:"success"`
	Bytes     int64  `json:"bytes" yaml:"bytes"`
	Digest    string `json:"blake3,omitempty" yaml:"blake3,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

type reportView struct {
	RunID     string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Stats     collect.Stats `json:"collect" yaml:"collect"`
	Total     int           `json:"total" yaml:"total"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Bytes     int64         `json:"bytes" yaml:"bytes"`
	Duration  string        `json:"duration" yaml:"duration"`
	Outcomes  []outcomeView `json:"outcomes" yaml:"outcomes"`
}

func newReportView(stats collect.Stats, r download.Report) reportView {
	view := reportView{
		RunID:     RunID,
		Stats:     stats,
		Total:     r.Total,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Bytes:     r.TotalBytes,
		Duration:  r.Duration.String(),
		Outcomes:  make([]outcomeView, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		ov := outcomeView{
			Reference: o.Reference,
			URL:       o.URL,
			Path:      o.Path,
			Success:   o.Success,
			Bytes:     o.BytesWritten,
			Digest:    o.Digest,
		}
		if o.Err != nil {
			ov.Error = o.Err.Error()
		}
		view.Outcomes = append(view.Outcomes, ov)
	}
	return view
}

func logStats(stats collect.Stats) {
	logger.Info("Collected asset references", logger.Fields{
		"files":         stats.FilesScanned,
		"total":         stats.TotalFound,
		"unique":        stats.Unique,
		"duplicates":    stats.DuplicatesRemoved,
		"from_provider": stats.FromProvider,
		"skipped":       stats.SkippedEntries,
		"malformed":     stats.Malformed,
	})
}
