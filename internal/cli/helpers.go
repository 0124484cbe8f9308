package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cperrin88/assetmirror/internal/logger"
	"github.com/cperrin88/assetmirror/pkg/config"
	"github.com/cperrin88/assetmirror/pkg/fsutil"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	NoColor      *bool
	OutputFormat *string

	// RunID identifies one invocation in every log line.
	RunID string
)

// loadConfig loads the configuration file, applies ASSETMIRROR_* overrides and the
// global flags, checks required_version and initializes logging.
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()
	if configPath == "" {
		return nil, fmt.Errorf("failed to determine config path")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CheckVersion(Version); err != nil {
		return nil, err
	}

	setupLogging(cfg)
	logger.Debug("Configuration loaded", logger.Fields{"path": configPath})
	return cfg, nil
}

// setupLogging routes logs to stderr at the configured level, tagged with the run id.
// Machine-readable output switches the handler to JSON.
func setupLogging(cfg *config.Config) {
	logger.InitLogger(cfg.Settings.LogLevel, logger.FormatText)
	if RunID != "" {
		logger.SetAttrs(logger.Fields{"run_id": RunID})
	}
	if cfg.Settings.OutputFormat == "json" {
		logger.SetOutputFormat(logger.FormatJSON)
	}
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := fsutil.GetDefaultConfigPath()
	if err != nil {
		// An empty path causes a more descriptive error when the config is read or written.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// configBaseDir is where relative provider paths in the config file resolve from.
func configBaseDir() string {
	path := getConfigPath()
	if path == "" {
		return ""
	}
	return filepath.Dir(path)
}

func colorEnabled() bool {
	if NoColor != nil && *NoColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return !strings.EqualFold(os.Getenv("TERM"), "dumb")
}
