package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cperrin88/assetmirror/internal/logger"
	"github.com/cperrin88/assetmirror/pkg/config"
	"github.com/cperrin88/assetmirror/pkg/download"
	"github.com/cperrin88/assetmirror/pkg/orchestrator"
)

type mirrorFlags struct {
	collectFlags

	origin      string
	dest        string
	concurrency int
	retries     int
	timeout     time.Duration
	strict      bool
	dryRun      bool
}

func (f *mirrorFlags) bind(cmd *cobra.Command) {
	f.collectFlags.bind(cmd)
	cmd.Flags().StringVar(&f.origin, "origin", "", "origin URL relative references are fetched from")
	cmd.Flags().StringVarP(&f.dest, "dest", "d", "", "destination directory (default from config)")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "j", 0, "maximum parallel downloads")
	cmd.Flags().IntVar(&f.retries, "retries", 0, "retries per asset after the first attempt")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "timeout per attempt")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "exit non-zero if any asset fails (--strict=false forces lenient)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "collect and report without downloading")
}

func (f *mirrorFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("origin") {
		cfg.Settings.Origin = f.origin
	}
	if flags.Changed("dest") {
		cfg.Settings.DestDir = f.dest
	}
	if flags.Changed("concurrency") {
		cfg.Settings.Concurrency = f.concurrency
	}
	if flags.Changed("retries") {
		cfg.Settings.Retries = f.retries
	}
	if flags.Changed("timeout") {
		cfg.Settings.HTTPTimeout = f.timeout
	}
	if flags.Changed("strict") {
		cfg.Settings.FailureMode = string(download.FailureLenient)
		if f.strict {
			cfg.Settings.FailureMode = string(download.FailureStrict)
		}
	}
	return f.collectFlags.apply(cmd, cfg)
}

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	var flags mirrorFlags

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Collect asset references and download them",
		Long: `Scan the artifact directory for asset references and download every unique
asset into the destination directory, mirroring its path.

Relative references are fetched from the origin; absolute URLs from their own host.
Failed assets are reported. With --strict (or failure_mode: strict) any failure makes
the command exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMirror(cmd, &flags)
		},
	}
	flags.bind(cmd)

	return cmd
}

func runMirror(cmd *cobra.Command, flags *mirrorFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return err
	}
	if cfg.Settings.Origin == "" && !flags.dryRun {
		return fmt.Errorf("an origin is required: set settings.origin, ASSETMIRROR_ORIGIN or --origin")
	}
	collector, err := flags.newCollector(cfg)
	if err != nil {
		return err
	}

	opts := cfg.DownloadOptions()
	opts.OnProgress = func(p download.Progress) {
		logger.Info("Download progress", logger.Fields{
			"completed": p.Completed,
			"total":     p.Total,
			"failed":    p.Failed,
			"bytes":     p.Bytes,
			"percent":   p.Percent,
		})
	}

	orch := orchestrator.New(collector, download.New(), orchestrator.Hooks{OnEvent: logEvent})
	result, runErr := orch.Run(commandContext(cmd), orchestrator.Options{Download: opts, DryRun: flags.dryRun})
	if runErr != nil && result.Assets == nil {
		return fmt.Errorf("failed to collect assets: %w", runErr)
	}
	logStats(result.Stats)

	if result.DryRun {
		view := collectView{Assets: result.Assets.Items(), Stats: result.Stats}
		return render(cmd.OutOrStdout(), cfg.Settings.OutputFormat, view, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "%d assets would be mirrored into %s\n", result.Assets.Len(), cfg.Settings.DestDir)
			return err
		})
	}

	report := result.Report
	if report.Failed == 0 && runErr == nil {
		logger.Success("Mirror complete", logger.Fields{"assets": report.Succeeded, "bytes": report.TotalBytes})
	} else {
		logger.Warn("Mirror finished with failures", logger.Fields{"failed": report.Failed, "total": report.Total})
	}

	view := newReportView(result.Stats, report)
	if err := render(cmd.OutOrStdout(), cfg.Settings.OutputFormat, view, func(w io.Writer) error {
		return writeReportText(w, report)
	}); err != nil {
		return err
	}
	return runErr
}

func writeReportText(w io.Writer, r download.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Total:\t%d\n", r.Total)
	_, _ = fmt.Fprintf(tw, "Succeeded:\t%d\n", r.Succeeded)
	_, _ = fmt.Fprintf(tw, "Failed:\t%s\n", failedLabel(r.Failed))
	_, _ = fmt.Fprintf(tw, "Bytes:\t%d\n", r.TotalBytes)
	_, _ = fmt.Fprintf(tw, "Duration:\t%s\n", humanDuration(r.Duration))
	if err := tw.Flush(); err != nil {
		return err
	}
	if r.Failed == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(w, "\nFailed assets:")
	shown := 0
	for _, o := range r.Outcomes {
		if o.Success {
			continue
		}
		if shown == MaxFailuresShown {
			_, _ = fmt.Fprintf(w, "  ... and %d more\n", r.Failed-shown)
			break
		}
		_, _ = fmt.Fprintf(w, "  %s: %v\n", o.Reference, o.Err)
		shown++
	}
	return nil
}

func failedLabel(n int) string {
	if n == 0 || !colorEnabled() {
		return fmt.Sprint(n)
	}
	return fmt.Sprintf("\x1b[31m%d\x1b[0m", n)
}
