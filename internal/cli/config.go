package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/assetmirror/internal/logger"
	"github.com/cperrin88/assetmirror/pkg/config"
	"github.com/cperrin88/assetmirror/pkg/errors"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and modify assetmirror configuration settings",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigSetCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration, including environment overrides",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	return cmd
}

// Number of arguments expected by the set command.
const setCommandArgs = 2

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration key to a specific value and save the file",
		Args:  cobra.ExactArgs(setCommandArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Long:  "Get the value of a specific configuration key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")

	return cmd
}

// configView leaves credentials out of the output.
type configView struct {
	Settings   map[string]string `json:"settings" yaml:"settings"`
	Providers  []providerView    `json:"providers,omitempty" yaml:"providers,omitempty"`
	OriginAuth bool              `json:"origin_auth" yaml:"origin_auth"`
}

type providerView struct {
	Type string `json:"type" yaml:"type"`
	Path string `json:"path" yaml:"path"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	view := configView{Settings: cfg.ToMap(), OriginAuth: cfg.OriginAuth != nil}
	for _, p := range cfg.Providers {
		view.Providers = append(view.Providers, providerView{Type: p.Type, Path: p.Path})
	}

	return render(cmd.OutOrStdout(), cfg.Settings.OutputFormat, view, func(w io.Writer) error {
		tabWriter := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
		_, _ = fmt.Fprintln(tabWriter, "SETTING\tVALUE")
		_, _ = fmt.Fprintln(tabWriter, "-------\t-----")

		for _, key := range config.Keys() {
			_, _ = fmt.Fprintf(tabWriter, "%s\t%s\n", key, view.Settings[key])
		}
		if err := tabWriter.Flush(); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(w, "\nProviders (%d):\n", len(view.Providers))
		for _, p := range view.Providers {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", p.Type, p.Path)
		}
		if view.OriginAuth {
			_, _ = fmt.Fprintln(w, "\nOrigin authentication: configured")
		}
		return nil
	})
}

func runConfigSet(key, value string) error {
	configPath := getConfigPath()

	// Load the file without environment overrides so they are not persisted.
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg)

	if err := cfg.SetValue(key, value); err != nil {
		return fmt.Errorf("failed to set configuration value: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logger.Success("Configuration updated", logger.Fields{"key": key, "value": value})
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	value, err := cfg.GetValue(key)
	if err != nil {
		return fmt.Errorf("failed to get configuration value: %w", err)
	}

	_, err = fmt.Fprintln(w, value)
	return err
}

func runConfigInit(force bool) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists at %s: %w", configPath, errors.ErrConfigFileExists)
	}

	defaultConfig := config.DefaultConfig()
	if err := defaultConfig.SaveConfig(configPath); err != nil {
		return fmt.Errorf("failed to save default configuration: %w", err)
	}

	logger.Success("Configuration file created", logger.Fields{"path": configPath})
	return nil
}
