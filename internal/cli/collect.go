package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cperrin88/assetmirror/internal/logger"
	"github.com/cperrin88/assetmirror/pkg/collect"
	"github.com/cperrin88/assetmirror/pkg/config"
	"github.com/cperrin88/assetmirror/pkg/orchestrator"
	"github.com/cperrin88/assetmirror/pkg/provider"
)

// collectFlags are shared by collect and mirror and override the config file.
type collectFlags struct {
	root       string
	suffix     string
	lists      []string
	decompress bool
	malformed  string
}

func (f *collectFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.root, "root", "r", "", "artifact directory to scan (default from config)")
	cmd.Flags().StringVarP(&f.suffix, "suffix", "s", "", "artifact file name suffix (default from config)")
	cmd.Flags().StringArrayVar(&f.lists, "list", nil, "JSON list file of extra references (repeatable)")
	cmd.Flags().BoolVar(&f.decompress, "decompress", false, "also read .gz and .zst artifacts")
	cmd.Flags().StringVar(&f.malformed, "malformed", "", "malformed reference policy (skip, fail)")
}

func (f *collectFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("root") {
		cfg.Settings.ArtifactDir = f.root
	}
	if cmd.Flags().Changed("suffix") {
		cfg.Settings.ArtifactSuffix = f.suffix
	}
	if cmd.Flags().Changed("decompress") {
		cfg.Settings.DecompressArtifacts = f.decompress
	}
	if cmd.Flags().Changed("malformed") {
		cfg.Settings.Malformed = f.malformed
	}
	return cfg.Validate()
}

// newCollector builds a single-use collector from the configuration and extra list files.
func (f *collectFlags) newCollector(cfg *config.Config) (*collect.Collector, error) {
	p, err := cfg.BuildProvider(configBaseDir())
	if err != nil {
		return nil, err
	}
	if len(f.lists) > 0 {
		var chain provider.Chain
		if p != nil {
			chain = append(chain, p)
		}
		for _, path := range f.lists {
			chain = append(chain, provider.NewListFile(path))
		}
		p = chain
	}
	opts := cfg.CollectOptions(p)
	opts.ProviderState = map[string]interface{}{
		"run_id": RunID,
		"root":   opts.Root,
		"origin": cfg.Settings.Origin,
	}
	return collect.New(opts), nil
}

// NewCollectCmd creates the collect command.
func NewCollectCmd() *cobra.Command {
	var flags collectFlags

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "List the asset references found in build artifacts",
		Long: `Scan the artifact directory for /assets/ and /imager/ references and print
the deduplicated list without downloading anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, &flags)
		},
	}
	flags.bind(cmd)

	return cmd
}

func runCollect(cmd *cobra.Command, flags *collectFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return err
	}
	collector, err := flags.newCollector(cfg)
	if err != nil {
		return err
	}

	orch := orchestrator.New(collector, nil, orchestrator.Hooks{OnEvent: logEvent})
	result, err := orch.Run(commandContext(cmd), orchestrator.Options{DryRun: true})
	if err != nil {
		return fmt.Errorf("failed to collect assets: %w", err)
	}
	logStats(result.Stats)

	view := collectView{Assets: result.Assets.Items(), Stats: result.Stats}
	return render(cmd.OutOrStdout(), cfg.Settings.OutputFormat, view, func(w io.Writer) error {
		for _, ref := range view.Assets {
			if _, err := fmt.Fprintln(w, ref); err != nil {
				return err
			}
		}
		return nil
	})
}

func logEvent(e orchestrator.Event) {
	fields := logger.Fields{"phase": e.Phase}
	if e.Msg != "" {
		fields["detail"] = e.Msg
	}
	logger.Debug("Run phase", fields)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func humanDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
