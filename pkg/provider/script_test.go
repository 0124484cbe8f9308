package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScript_Provide(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		state     any
		vars      map[string]interface{}
		want      []any
		expectErr error
	}{
		{
			name:   "static list",
			source: `assets := ["/assets/a.png", "/imager/b.jpg"]`,
			want:   []any{"/assets/a.png", "/imager/b.jpg"},
		},
		{
			name: "built from state",
			source: `
fmt := import("fmt")
assets := []
for r in state.routes {
	assets = append(assets, fmt.sprintf("/assets/og/%s.png", r))
}`,
			state: map[string]interface{}{"routes": []interface{}{"home", "about"}},
			want:  []any{"/assets/og/home.png", "/assets/og/about.png"},
		},
		{
			name:   "uses configured vars",
			source: `assets := [cdn + "/logo.svg"]`,
			vars:   map[string]interface{}{"cdn": "https://static.example"},
			want:   []any{"https://static.example/logo.svg"},
		},
		{
			name:   "mixed entries are passed through untyped",
			source: `assets := ["/assets/a.png", 7, true]`,
			want:   []any{"/assets/a.png", int64(7), true},
		},
		{
			name:      "result not an array",
			source:    `assets := "/assets/a.png"`,
			expectErr: ErrNotArray,
		},
		{
			name:      "result not set",
			source:    `x := 1`,
			expectErr: ErrNoResult,
		},
		{
			name:      "script reports error",
			source:    `err := "manifest missing"; assets := []`,
			expectErr: ErrScriptReported,
		},
		{
			name:      "compile error",
			source:    `assets := [`,
			expectErr: ErrScriptExecution,
		},
		{
			name:      "runtime error",
			source:    `assets := [1 / 0]`,
			expectErr: ErrScriptExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScript(tt.name, []byte(tt.source), tt.vars)
			entries, err := s.Provide(context.Background(), tt.state)
			if tt.expectErr != nil {
				require.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, entries)
		})
	}
}

func TestScript_EmptyArray(t *testing.T) {
	entries, err := NewScript("empty", []byte(`assets := []`), nil).Provide(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScript_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScript("loop", []byte(`for true {}; assets := []`), nil)
	_, err := s.Provide(ctx, nil)
	require.Error(t, err)
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.tengo")
	require.NoError(t, os.WriteFile(path, []byte(`assets := ["/assets/" + name]`), 0o644))

	s, err := LoadScript(path, map[string]interface{}{"name": "a.png"})
	require.NoError(t, err)
	entries, err := s.Provide(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"/assets/a.png"}, entries)

	_, err = LoadScript(filepath.Join(t.TempDir(), "missing.tengo"), nil)
	assert.Error(t, err)
}
