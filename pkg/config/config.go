// Package config loads, validates and saves the assetmirror configuration file. It
// provides defaults for every setting, lets ASSETMIRROR_* environment variables override
// them, and converts the result into collector and downloader options.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/cperrin88/assetmirror/pkg/errors"
	"github.com/cperrin88/assetmirror/pkg/fsutil"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`

	// Providers contribute references that are always mirrored.
	Providers []ProviderConfig `yaml:"providers,omitempty"`

	// OriginAuth holds credentials sent to the origin host only.
	OriginAuth *AuthConfig `yaml:"origin_auth,omitempty"`
}

// ProviderConfig describes one external asset provider.
type ProviderConfig struct {
	Type string                 `yaml:"type"` // script or list
	Path string                 `yaml:"path"`
	Vars map[string]interface{} `yaml:"vars,omitempty"` // script only
}

// Provider types.
const (
	ProviderScript = "script"
	ProviderList   = "list"
)

// Settings represents general application settings.
type Settings struct {
	// Collection settings
	ArtifactDir         string   `yaml:"artifact_dir"`
	ArtifactSuffix      string   `yaml:"artifact_suffix"`
	DecompressArtifacts bool     `yaml:"decompress_artifacts"`
	Malformed           string   `yaml:"malformed"` // skip, fail
	TrimPrefixes        []string `yaml:"trim_prefixes,omitempty"`

	// Download settings
	Origin       string        `yaml:"origin"`
	DestDir      string        `yaml:"dest_dir"`
	Concurrency  int           `yaml:"concurrency"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	Retries      int           `yaml:"retries"`
	RetryWaitMin time.Duration `yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `yaml:"retry_wait_max"`
	FailureMode  string        `yaml:"failure_mode"` // lenient, strict
	ProgressStep int           `yaml:"progress_step"`
	UserAgent    string        `yaml:"user_agent,omitempty"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json, yaml
	LogLevel     string `yaml:"log_level"`     // error, warn, info, debug

	// RequiredVersion is a version constraint, e.g. ">= 0.2, < 1.0", checked against
	// the running build.
	RequiredVersion string `yaml:"required_version,omitempty"`
}

// Default configuration values.
const (
	DefaultArtifactDir    = ".output/public"
	DefaultArtifactSuffix = ".js"
	DefaultDestDir        = "mirror"
	DefaultConcurrency    = 4
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRetries        = 3
	DefaultRetryWaitMin   = 500 * time.Millisecond
	DefaultRetryWaitMax   = 10 * time.Second
	DefaultProgressStep   = 5

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			ArtifactDir:    DefaultArtifactDir,
			ArtifactSuffix: DefaultArtifactSuffix,
			Malformed:      "skip",
			TrimPrefixes:   []string{"/assets/", "/imager/"},
			DestDir:        DefaultDestDir,
			Concurrency:    DefaultConcurrency,
			HTTPTimeout:    DefaultHTTPTimeout,
			Retries:        DefaultRetries,
			RetryWaitMin:   DefaultRetryWaitMin,
			RetryWaitMax:   DefaultRetryWaitMax,
			FailureMode:    "lenient",
			ProgressStep:   DefaultProgressStep,
			OutputFormat:   "text",
			LogLevel:       "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader. Unknown keys are rejected.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigParse, err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigValidation, err)
	}
	return config, nil
}

// SaveConfig writes the configuration to path through a temporary file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := fsutil.CreateFilePerm(tempPath, fsutil.FileModeSecure)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	for i, p := range c.Providers {
		if p.Type != ProviderScript && p.Type != ProviderList {
			return errors.ErrInvalidProviderTypeWithDetails(i, p.Type)
		}
		if p.Path == "" {
			return fmt.Errorf("provider %d: %w", i, errors.ErrInvalidPath)
		}
	}
	return c.OriginAuth.validate()
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errors.ErrHTTPTimeoutNegative
	}
	if s.Retries < 0 {
		return errors.ErrRetriesNegative
	}
	if s.Concurrency < 1 {
		return errors.ErrMaxConcurrentInvalid
	}
	if s.ProgressStep < 1 || s.ProgressStep > 100 {
		return errors.ErrInvalidProgressStep
	}
	if s.RetryWaitMax < s.RetryWaitMin {
		return fmt.Errorf("retry_wait_max (%s) is shorter than retry_wait_min (%s)", s.RetryWaitMax, s.RetryWaitMin)
	}
	if s.ArtifactSuffix == "" {
		return fmt.Errorf("artifact_suffix cannot be empty")
	}
	switch s.FailureMode {
	case "lenient", "strict":
	default:
		return errors.ErrInvalidFailureModeWithDetails(s.FailureMode)
	}
	switch s.Malformed {
	case "skip", "fail":
	default:
		return errors.ErrInvalidMalformedWithDetails(s.Malformed)
	}
	validFormats := map[string]bool{"text": true, "json": true, "yaml": true}
	if !validFormats[s.OutputFormat] {
		return errors.ErrInvalidOutputFormatWithDetails(s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	if s.RequiredVersion != "" {
		if _, err := version.NewConstraint(s.RequiredVersion); err != nil {
			return fmt.Errorf("required_version: %w", err)
		}
	}
	return nil
}

// CheckVersion reports an error when current does not satisfy required_version.
// Development builds that are not valid versions always pass.
func (c *Config) CheckVersion(current string) error {
	if c.Settings.RequiredVersion == "" {
		return nil
	}
	constraint, err := version.NewConstraint(c.Settings.RequiredVersion)
	if err != nil {
		return fmt.Errorf("required_version: %w", err)
	}
	v, err := version.NewVersion(current)
	if err != nil {
		return nil
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: running %s, config requires %s", errors.ErrVersionConstraint, current, c.Settings.RequiredVersion)
	}
	return nil
}

// applyDefaults fills in zero values that a partial config file leaves behind.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig().Settings

	if c.Settings.ArtifactDir == "" {
		c.Settings.ArtifactDir = defaults.ArtifactDir
	}
	if c.Settings.ArtifactSuffix == "" {
		c.Settings.ArtifactSuffix = defaults.ArtifactSuffix
	}
	if c.Settings.Malformed == "" {
		c.Settings.Malformed = defaults.Malformed
	}
	if c.Settings.DestDir == "" {
		c.Settings.DestDir = defaults.DestDir
	}
	if c.Settings.Concurrency == 0 {
		c.Settings.Concurrency = defaults.Concurrency
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.HTTPTimeout
	}
	if c.Settings.RetryWaitMin == 0 {
		c.Settings.RetryWaitMin = defaults.RetryWaitMin
	}
	if c.Settings.RetryWaitMax == 0 {
		c.Settings.RetryWaitMax = defaults.RetryWaitMax
	}
	if c.Settings.FailureMode == "" {
		c.Settings.FailureMode = defaults.FailureMode
	}
	if c.Settings.ProgressStep == 0 {
		c.Settings.ProgressStep = defaults.ProgressStep
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.LogLevel
	}
}
