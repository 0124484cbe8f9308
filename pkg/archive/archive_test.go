package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/cperrin88/assetmirror/pkg/errors"
)

func writeMirror(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

func TestManager_RoundTrip(t *testing.T) {
	mirror := map[string]string{
		"img/a.png":        "png",
		"x/b.jpg":          "jpeg",
		"static/logo.svg":  "<svg/>",
		"deep/er/file.css": "body{}",
	}

	for _, ext := range []string{".tar.gz", ".tgz", ".tar.zst", ".tar", ".zip"} {
		t.Run(ext, func(t *testing.T) {
			tempDir := t.TempDir()
			sourceDir := filepath.Join(tempDir, "mirror")
			writeMirror(t, sourceDir, mirror)
			writeMirror(t, sourceDir, map[string]string{"img/.dl-123.tmp": "partial"})

			am := NewManager()
			ctx := context.Background()
			archivePath := filepath.Join(tempDir, "out", "mirror"+ext)

			packed, err := am.Create(ctx, sourceDir, archivePath)
			require.NoError(t, err)
			assert.Equal(t, len(mirror), packed)
			assert.FileExists(t, archivePath)

			extractDir := filepath.Join(tempDir, "restored")
			restored, err := am.ExtractAll(ctx, archivePath, extractDir)
			require.NoError(t, err)
			assert.Equal(t, len(mirror), restored)

			for path, want := range mirror {
				got, err := os.ReadFile(filepath.Join(extractDir, filepath.FromSlash(path)))
				require.NoError(t, err, path)
				assert.Equal(t, want, string(got), path)
			}
			assert.NoFileExists(t, filepath.Join(extractDir, "img", ".dl-123.tmp"))
		})
	}
}

func TestManager_CreateErrors(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "mirror")
	writeMirror(t, sourceDir, map[string]string{"a.png": "a"})
	am := NewManager()

	tests := []struct {
		name        string
		source      string
		archive     string
		expectErrIs error
		expectMsg   string
	}{
		{name: "unknown extension", source: sourceDir, archive: filepath.Join(tempDir, "mirror.rar"), expectMsg: "unsupported archive extension"},
		{name: "missing source", source: filepath.Join(tempDir, "nope"), archive: filepath.Join(tempDir, "m.tar.gz"), expectErrIs: pkgerrors.ErrInvalidPath},
		{name: "archive inside source", source: sourceDir, archive: filepath.Join(sourceDir, "self.tar.gz"), expectErrIs: pkgerrors.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := am.Create(context.Background(), tt.source, tt.archive)
			require.Error(t, err)
			if tt.expectErrIs != nil {
				assert.ErrorIs(t, err, tt.expectErrIs)
			}
			if tt.expectMsg != "" {
				assert.Contains(t, err.Error(), tt.expectMsg)
			}
		})
	}
}

func TestManager_ExtractAllMissingArchive(t *testing.T) {
	_, err := NewManager().ExtractAll(context.Background(), filepath.Join(t.TempDir(), "none.tar.gz"), t.TempDir())
	require.Error(t, err)
}
