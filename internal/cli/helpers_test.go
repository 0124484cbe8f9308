package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/assetmirror/internal/logger"
	"github.com/cperrin88/assetmirror/pkg/config"
)

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		contains []string
	}{
		{name: "text", format: "text", contains: []string{"run_id=run-1", "msg=hello"}},
		{name: "json keeps the run id", format: "json", contains: []string{`"run_id":"run-1"`, `"msg":"hello"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger.SetTestOutput(buf)
			defer logger.UnsetTestOutput()

			oldRunID := RunID
			RunID = "run-1"
			defer func() { RunID = oldRunID }()

			cfg := config.DefaultConfig()
			cfg.Settings.OutputFormat = tt.format
			setupLogging(cfg)
			logger.Info("hello")

			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestMirrorFlags_Strict(t *testing.T) {
	tests := []struct {
		name       string
		configMode string
		args       []string
		want       string
	}{
		{name: "flag absent keeps config", configMode: "strict", args: nil, want: "strict"},
		{name: "strict flag", configMode: "lenient", args: []string{"--strict"}, want: "strict"},
		{name: "strict=false overrides config", configMode: "strict", args: []string{"--strict=false"}, want: "lenient"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags mirrorFlags
			cmd := &cobra.Command{Use: "mirror"}
			flags.bind(cmd)
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg := config.DefaultConfig()
			cfg.Settings.FailureMode = tt.configMode
			require.NoError(t, flags.apply(cmd, cfg))
			assert.Equal(t, tt.want, cfg.Settings.FailureMode)
		})
	}
}
