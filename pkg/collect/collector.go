// Package collect scans a tree of generated build artifacts for embedded asset
// references and produces a deduplicated AssetSet. It performs no network or
// write I/O.
package collect

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/cperrin88/assetmirror/internal/logger"
	pkgerrors "github.com/cperrin88/assetmirror/pkg/errors"
	"github.com/cperrin88/assetmirror/pkg/provider"
)

// MalformedPolicy decides what happens to a candidate that has no closing quote.
type MalformedPolicy string

const (
	MalformedSkip MalformedPolicy = "skip"
	MalformedFail MalformedPolicy = "fail"
)

// Options control a collection run.
type Options struct {
	Root   string // directory to scan; must exist
	Suffix string // file name suffix selecting artifacts, e.g. ".js"

	// Provider supplies references that are always included. Optional.
	Provider provider.Provider
	// ProviderState is passed to the provider untouched.
	ProviderState any

	// Decompress also reads Suffix+".gz" and Suffix+".zst" artifacts.
	Decompress bool
	Malformed  MalformedPolicy
}

// Stats describes a finished collection run.
type Stats struct {
	FilesScanned      int `json:"files_scanned" yaml:"files_scanned"`
	TotalFound        int `json:"total_found" yaml:"total_found"`
	DuplicatesRemoved int `json:"duplicates_removed" yaml:"duplicates_removed"`
	Unique            int `json:"unique" yaml:"unique"`
	FromProvider      int `json:"from_provider" yaml:"from_provider"`
	SkippedEntries    int `json:"skipped_entries" yaml:"skipped_entries"`
	Malformed         int `json:"malformed" yaml:"malformed"`
}

// Collector walks an artifact tree once and returns the references it found.
type Collector struct {
	opts Options
	ran  atomic.Bool
}

// New creates a Collector. Construct one per run.
func New(opts Options) *Collector {
	if opts.Malformed == "" {
		opts.Malformed = MalformedSkip
	}
	return &Collector{opts: opts}
}

type compression int

const (
	compressionNone compression = iota
	compressionGzip
	compressionZstd
)

// Collect runs the provider, scans every matching artifact under Root and merges the
// results. Any unreadable directory or file, and any provider failure, aborts the run.
func (c *Collector) Collect(ctx context.Context) (*AssetSet, Stats, error) {
	if !c.ran.CompareAndSwap(false, true) {
		return nil, Stats{}, fmt.Errorf("collector: %w", pkgerrors.ErrAlreadyRun)
	}
	if c.opts.Suffix == "" {
		return nil, Stats{}, pkgerrors.ErrScanWithPath(c.opts.Root, fmt.Errorf("artifact suffix cannot be empty"))
	}

	var stats Stats
	builder := newSetBuilder()

	if c.opts.Provider != nil {
		if err := c.addProvided(ctx, builder, &stats); err != nil {
			return nil, Stats{}, err
		}
	}

	if err := c.walk(ctx, builder, &stats); err != nil {
		return nil, Stats{}, err
	}

	set := builder.build()
	stats.TotalFound = builder.total
	stats.DuplicatesRemoved = builder.duplicates()
	stats.Unique = set.Len()

	logger.Debug("Collected asset references", logger.Fields{
		"root":       c.opts.Root,
		"files":      stats.FilesScanned,
		"total":      stats.TotalFound,
		"unique":     stats.Unique,
		"duplicates": stats.DuplicatesRemoved,
	})
	return set, stats, nil
}

func (c *Collector) addProvided(ctx context.Context, builder *setBuilder, stats *Stats) error {
	entries, err := c.opts.Provider.Provide(ctx, c.opts.ProviderState)
	if err != nil {
		return pkgerrors.ErrProviderWithCause(provider.Describe(c.opts.Provider), err)
	}
	for i, entry := range entries {
		ref, ok := entry.(string)
		if !ok {
			stats.SkippedEntries++
			logger.Warn("Skipping non-string provider entry", logger.Fields{"index": i, "type": fmt.Sprintf("%T", entry)})
			continue
		}
		if !IsReference(ref) {
			stats.SkippedEntries++
			logger.Warn("Skipping invalid provider entry", logger.Fields{"index": i, "value": ref})
			continue
		}
		builder.add(ref)
		stats.FromProvider++
	}
	return nil
}

// walk visits the tree with an explicit stack so deep trees cannot exhaust the
// goroutine stack. Entries are handled in lexical order.
func (c *Collector) walk(ctx context.Context, builder *setBuilder, stats *Stats) error {
	info, err := os.Stat(c.opts.Root)
	if err != nil {
		return pkgerrors.ErrScanWithPath(c.opts.Root, err)
	}
	if !info.IsDir() {
		return pkgerrors.ErrScanWithPath(c.opts.Root, fmt.Errorf("not a directory"))
	}

	stack := []string{c.opts.Root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return pkgerrors.ErrScanWithPath(c.opts.Root, err)
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return pkgerrors.ErrScanWithPath(dir, err)
		}

		var subdirs []string
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				subdirs = append(subdirs, path)
				continue
			}
			comp, ok := c.match(entry.Name())
			if !ok {
				continue
			}
			if err := c.scanFile(path, comp, builder, stats); err != nil {
				return err
			}
		}
		// Reverse so the lexically first directory is popped first.
		slices.Reverse(subdirs)
		stack = append(stack, subdirs...)
	}
	return nil
}

func (c *Collector) match(name string) (compression, bool) {
	switch {
	case strings.HasSuffix(name, c.opts.Suffix):
		return compressionNone, true
	case !c.opts.Decompress:
		return compressionNone, false
	case strings.HasSuffix(name, c.opts.Suffix+".gz"):
		return compressionGzip, true
	case strings.HasSuffix(name, c.opts.Suffix+".zst"):
		return compressionZstd, true
	}
	return compressionNone, false
}

func (c *Collector) scanFile(path string, comp compression, builder *setBuilder, stats *Stats) error {
	text, err := readArtifact(path, comp)
	if err != nil {
		return pkgerrors.ErrScanWithPath(path, err)
	}
	stats.FilesScanned++

	refs, malformed := scan(text)
	if len(malformed) > 0 {
		if c.opts.Malformed == MalformedFail {
			return pkgerrors.ErrMalformedWithPath(path, malformed[0])
		}
		stats.Malformed += len(malformed)
		logger.Debug("Skipping malformed asset references", logger.Fields{"file": path, "count": len(malformed)})
	}
	for _, ref := range refs {
		builder.add(ref)
	}
	return nil
}

func readArtifact(path string, comp compression) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	switch comp {
	case compressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	case compressionZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
