package config

import (
	"fmt"
	"path/filepath"

	"github.com/cperrin88/assetmirror/pkg/collect"
	"github.com/cperrin88/assetmirror/pkg/download"
	"github.com/cperrin88/assetmirror/pkg/provider"
)

// BuildProvider loads the configured providers. It returns nil when none are configured
// and chains them in file order otherwise. Relative paths resolve against baseDir.
func (c *Config) BuildProvider(baseDir string) (provider.Provider, error) {
	var chain provider.Chain
	for i, p := range c.Providers {
		path := p.Path
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		switch p.Type {
		case ProviderScript:
			script, err := provider.LoadScript(path, p.Vars)
			if err != nil {
				return nil, fmt.Errorf("provider %d: %w", i, err)
			}
			chain = append(chain, script)
		case ProviderList:
			chain = append(chain, provider.NewListFile(path))
		default:
			return nil, fmt.Errorf("provider %d: unknown type %q", i, p.Type)
		}
	}
	switch len(chain) {
	case 0:
		return nil, nil
	case 1:
		return chain[0], nil
	}
	return chain, nil
}

// CollectOptions converts the collection settings. p may be nil.
func (c *Config) CollectOptions(p provider.Provider) collect.Options {
	return collect.Options{
		Root:       c.Settings.ArtifactDir,
		Suffix:     c.Settings.ArtifactSuffix,
		Provider:   p,
		Decompress: c.Settings.DecompressArtifacts,
		Malformed:  collect.MalformedPolicy(c.Settings.Malformed),
	}
}

// DownloadOptions converts the download settings.
func (c *Config) DownloadOptions() download.Options {
	trim := c.Settings.TrimPrefixes
	if trim == nil {
		trim = []string{}
	}
	return download.Options{
		Origin:       c.Settings.Origin,
		Dir:          c.Settings.DestDir,
		Concurrency:  c.Settings.Concurrency,
		Timeout:      c.Settings.HTTPTimeout,
		Retries:      c.Settings.Retries,
		RetryWaitMin: c.Settings.RetryWaitMin,
		RetryWaitMax: c.Settings.RetryWaitMax,
		FailureMode:  download.FailureMode(c.Settings.FailureMode),
		ProgressStep: c.Settings.ProgressStep,
		TrimPrefixes: trim,
		UserAgent:    c.Settings.UserAgent,
		Auth:         c.OriginAuth.Credentials(),
	}
}
