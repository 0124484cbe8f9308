//go:build integration

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// runCLI executes the root command in-process and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())

	// The flag variables are package globals shared by every newRootCmd call.
	configPath, verbose, noColor, outputFormat = "", false, false, ""
	return stdout.String(), err
}

// writeArtifacts creates files under root from a path to content map.
func writeArtifacts(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// writeConfig writes a config file pointing at the given artifact and destination
// directories and returns its path.
func writeConfig(t *testing.T, dir, artifactDir, destDir, origin string, extra ...string) string {
	t.Helper()
	lines := []string{
		"settings:",
		"  artifact_dir: " + artifactDir,
		"  dest_dir: " + destDir,
		"  origin: " + origin,
		"  retries: 0",
		"  retry_wait_min: 1ms",
		"  retry_wait_max: 2ms",
		"  log_level: error",
	}
	lines = append(lines, extra...)
	path := filepath.Join(dir, "assetmirror.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

// startOrigin serves files from a path to body map and answers 404 for anything else.
func startOrigin(t *testing.T, files map[string]string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}
