package collect

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/cperrin88/assetmirror/pkg/errors"
	"github.com/cperrin88/assetmirror/pkg/provider"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestCollect_EndToEndScenario(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/payload.js": `"/assets/img/a.png","/imager/x/b.jpg"`,
		"b/other.js":   `"/assets/img/a.png"`,
	})

	set, stats, err := New(Options{Root: root, Suffix: ".js"}).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"/assets/img/a.png", "/imager/x/b.jpg"}, set.Items())
	assert.Equal(t, 2, stats.Unique)
	assert.Equal(t, 3, stats.TotalFound)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 2, stats.FilesScanned)
}

func TestCollect_SuffixFilterAndDeepTrees(t *testing.T) {
	files := map[string]string{
		"entry.js":            `"/assets/root.png"`,
		"entry.js.map":        `"/assets/ignored-map.png"`,
		"index.html":          `<img src="/assets/ignored-html.png">`,
		"payload.json":        `"/assets/ignored-json.png"`,
		"z/_payload.js":       `"/imager/z.jpg"`,
		"empty/.keep":         ``,
		"nested/a/b/c/d/e.js": `"/assets/deep.png"`,
	}
	deep := "deep"
	for i := 0; i < 64; i++ {
		deep = filepath.ToSlash(filepath.Join(deep, "d"))
	}
	files[deep+"/leaf.js"] = `"/assets/leaf.png"`
	root := writeTree(t, files)

	set, stats, err := New(Options{Root: root, Suffix: ".js"}).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.FilesScanned)
	assert.ElementsMatch(t, []string{"/assets/root.png", "/imager/z.jpg", "/assets/deep.png", "/assets/leaf.png"}, set.Items())
	assert.False(t, set.Contains("/assets/ignored-map.png"))
}

func TestCollect_LexicalOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b/2.js":   `"/assets/b2.png"`,
		"a/1.js":   `"/assets/a1.png"`,
		"0.js":     `"/assets/root.png"`,
		"a/b/x.js": `"/assets/ab.png"`,
	})

	set, _, err := New(Options{Root: root, Suffix: ".js"}).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/assets/root.png", "/assets/a1.png", "/assets/ab.png", "/assets/b2.png"}, set.Items())
}

func TestCollect_DeduplicationIsIdempotent(t *testing.T) {
	content := `"/assets/a.png","/assets/b.png","/assets/a.png","/imager/c.jpg"`

	once := writeTree(t, map[string]string{"one.js": content})
	twice := writeTree(t, map[string]string{"one.js": content, "copy/two.js": content})

	setOnce, _, err := New(Options{Root: once, Suffix: ".js"}).Collect(context.Background())
	require.NoError(t, err)
	setTwice, statsTwice, err := New(Options{Root: twice, Suffix: ".js"}).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, setOnce.Len(), setTwice.Len())
	assert.Equal(t, 8, statsTwice.TotalFound)
	assert.Equal(t, 5, statsTwice.DuplicatesRemoved)
}

func TestCollect_Provider(t *testing.T) {
	root := writeTree(t, map[string]string{"a.js": `"/assets/a.png"`})

	var gotState any
	p := provider.Func(func(_ context.Context, state any) ([]any, error) {
		gotState = state
		return []any{
			"https://static.example/logo.svg",
			"/assets/a.png",
			42,
			nil,
			"relative/path.png",
			"",
		}, nil
	})

	set, stats, err := New(Options{Root: root, Suffix: ".js", Provider: p, ProviderState: "ctx"}).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ctx", gotState)
	assert.Equal(t, []string{"https://static.example/logo.svg", "/assets/a.png"}, set.Items())
	assert.Equal(t, 2, stats.FromProvider)
	assert.Equal(t, 4, stats.SkippedEntries)
	assert.Equal(t, 3, stats.TotalFound)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
}

func TestCollect_ProviderFailureAborts(t *testing.T) {
	root := writeTree(t, map[string]string{"a.js": `"/assets/a.png"`})
	boom := errors.New("manifest unreachable")

	p := provider.Func(func(context.Context, any) ([]any, error) { return nil, boom })

	set, _, err := New(Options{Root: root, Suffix: ".js", Provider: p}).Collect(context.Background())
	require.Error(t, err)
	assert.Nil(t, set)
	assert.ErrorIs(t, err, pkgerrors.ErrProvider)
	assert.ErrorIs(t, err, boom)
}

func TestCollect_ScriptProviderNotArray(t *testing.T) {
	root := writeTree(t, map[string]string{"a.js": ``})
	p := provider.NewScript("bad.tengo", []byte(`assets := {a: 1}`), nil)

	_, _, err := New(Options{Root: root, Suffix: ".js", Provider: p}).Collect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrProvider)
	assert.ErrorIs(t, err, provider.ErrNotArray)
}

func TestCollect_ScanErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope")
		_, _, err := New(Options{Root: missing, Suffix: ".js"}).Collect(context.Background())
		require.ErrorIs(t, err, pkgerrors.ErrScan)
		assert.Contains(t, err.Error(), missing)
	})

	t.Run("root is a file", func(t *testing.T) {
		root := writeTree(t, map[string]string{"a.js": ``})
		file := filepath.Join(root, "a.js")
		_, _, err := New(Options{Root: file, Suffix: ".js"}).Collect(context.Background())
		require.ErrorIs(t, err, pkgerrors.ErrScan)
	})

	t.Run("empty suffix", func(t *testing.T) {
		_, _, err := New(Options{Root: t.TempDir()}).Collect(context.Background())
		require.ErrorIs(t, err, pkgerrors.ErrScan)
	})

	t.Run("unreadable file", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root can read any file")
		}
		root := writeTree(t, map[string]string{"locked.js": `"/assets/a.png"`})
		locked := filepath.Join(root, "locked.js")
		require.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

		_, _, err := New(Options{Root: root, Suffix: ".js"}).Collect(context.Background())
		require.ErrorIs(t, err, pkgerrors.ErrScan)
		assert.Contains(t, err.Error(), "locked.js")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := New(Options{Root: t.TempDir(), Suffix: ".js"}).Collect(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCollect_MalformedPolicy(t *testing.T) {
	files := map[string]string{"broken.js": `"/assets/ok.png","/assets/unterminated.png`}

	t.Run("skip is the default", func(t *testing.T) {
		root := writeTree(t, files)
		set, stats, err := New(Options{Root: root, Suffix: ".js"}).Collect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"/assets/ok.png"}, set.Items())
		assert.Equal(t, 1, stats.Malformed)
	})

	t.Run("fail aborts and names the file", func(t *testing.T) {
		root := writeTree(t, files)
		_, _, err := New(Options{Root: root, Suffix: ".js", Malformed: MalformedFail}).Collect(context.Background())
		require.ErrorIs(t, err, pkgerrors.ErrMalformedArtifact)
		require.ErrorIs(t, err, pkgerrors.ErrScan)
		assert.Contains(t, err.Error(), "broken.js")
	})
}

func TestCollect_CompressedArtifacts(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(`"/assets/from-gzip.png"`))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll([]byte(`"/imager/from-zstd.jpg"`), nil)
	require.NoError(t, enc.Close())

	root := writeTree(t, map[string]string{
		"plain.js": `"/assets/plain.png"`,
		"a.js.gz":  gz.String(),
		"b.js.zst": string(zst),
		"c.css.gz": gz.String(),
	})

	t.Run("ignored without decompress", func(t *testing.T) {
		set, stats, err := New(Options{Root: root, Suffix: ".js"}).Collect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.FilesScanned)
		assert.Equal(t, []string{"/assets/plain.png"}, set.Items())
	})

	t.Run("read with decompress", func(t *testing.T) {
		set, stats, err := New(Options{Root: root, Suffix: ".js", Decompress: true}).Collect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, stats.FilesScanned)
		assert.ElementsMatch(t, []string{"/assets/plain.png", "/assets/from-gzip.png", "/imager/from-zstd.jpg"}, set.Items())
	})

	t.Run("corrupt gzip is a scan error", func(t *testing.T) {
		bad := writeTree(t, map[string]string{"a.js.gz": strings.Repeat("x", 32)})
		_, _, err := New(Options{Root: bad, Suffix: ".js", Decompress: true}).Collect(context.Background())
		require.ErrorIs(t, err, pkgerrors.ErrScan)
		assert.Contains(t, err.Error(), "gzip")
	})
}

func TestCollect_RunsOnce(t *testing.T) {
	c := New(Options{Root: t.TempDir(), Suffix: ".js"})
	_, _, err := c.Collect(context.Background())
	require.NoError(t, err)

	_, _, err = c.Collect(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrAlreadyRun)
}

func TestAssetSet(t *testing.T) {
	set := NewAssetSet("/assets/a.png", "/assets/b.png", "/assets/a.png")
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("/assets/b.png"))
	assert.False(t, set.Contains("/assets/c.png"))

	items := set.Items()
	items[0] = "mutated"
	assert.Equal(t, "/assets/a.png", set.Items()[0])

	var empty *AssetSet
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.Items())
	assert.False(t, empty.Contains("/assets/a.png"))
}
