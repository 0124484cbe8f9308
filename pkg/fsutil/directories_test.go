package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "creates new directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "newdir")
			},
		},
		{
			name: "creates nested directories",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "img", "icons", "small")
			},
		},
		{
			name: "succeeds when directory already exists",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)

			require.NoError(t, EnsureDir(path))
			assert.DirExists(t, path)
		})
	}
}

func TestEnsureDir_ConcurrentSamePath(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "img", "x", "y")

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = EnsureDir(target)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.DirExists(t, target)
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "img")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), FileModeDefault))

	err := EnsureDir(filepath.Join(blocker, "a"))
	assert.Error(t, err)
}

func TestEnsureDir_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	readonlyDir := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.Mkdir(readonlyDir, 0o555))

	err := EnsureDir(filepath.Join(readonlyDir, "shouldfail"))
	assert.Error(t, err)
}

func TestEnsureFileDir(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "x", "b.jpg")
	require.NoError(t, EnsureFileDir(filePath))
	assert.DirExists(t, filepath.Dir(filePath))
	assert.NoFileExists(t, filePath)
}

func TestIsWithin(t *testing.T) {
	root := filepath.Join("/", "srv", "mirror")

	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{name: "nested file", target: filepath.Join(root, "img", "a.png"), want: true},
		{name: "root itself", target: root, want: true},
		{name: "parent escape", target: filepath.Join(root, "..", "etc", "passwd"), want: false},
		{name: "sibling with shared prefix", target: root + "-other", want: false},
		{name: "dotdot-prefixed name stays inside", target: filepath.Join(root, "..a"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithin(root, tt.target))
		})
	}
}
