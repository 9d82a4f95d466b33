package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canarist/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func newLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	lg := logger.New()
	lg.SetOutput(&buf)
	return lg, &buf
}

func TestLogger_Levels(t *testing.T) {
	lg, buf := newLogger(t)

	lg.Info("cloning repositories")
	lg.Warn("incompatible resolutions")
	lg.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "cloning repositories")
	assert.Contains(t, out, "! incompatible resolutions")
	assert.NotContains(t, out, "hidden")
}

func TestLogger_SetDebug(t *testing.T) {
	lg, buf := newLogger(t)

	lg.SetDebug(true)
	lg.Debug("yarn output line")
	assert.Contains(t, buf.String(), "yarn output line")

	buf.Reset()
	lg.SetDebug(false)
	lg.Debug("yarn output line")
	assert.Empty(t, buf.String())
}

func TestLogger_SetJSON(t *testing.T) {
	lg, buf := newLogger(t)
	lg.SetJSON(true)

	lg.Info("json message")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "json message", record["msg"])
	assert.Equal(t, "INFO", record["level"])
}

func TestLogger_SetJSON_KeepsDebugLevel(t *testing.T) {
	lg, buf := newLogger(t)
	lg.SetDebug(true)
	lg.SetJSON(true)

	lg.Debug("debug in json")
	assert.Contains(t, buf.String(), `"msg":"debug in json"`)
}

func TestLogger_Error(t *testing.T) {
	lg, buf := newLogger(t)

	base := zerr.New("failed to clone repository")
	err := zerr.With(zerr.Wrap(os.ErrNotExist, base.Error()), "url", "https://github.com/xing/hops.git")
	lg.Error(err)

	out := buf.String()
	assert.Contains(t, out, "Error: failed to clone repository")
	assert.Contains(t, out, "Caused by:")
	assert.Contains(t, out, "→ file does not exist")
	assert.Contains(t, out, "url: https://github.com/xing/hops.git")
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "standard error",
			err:      os.ErrPermission,
			expected: "Error: permission denied",
		},
		{
			name: "wrapped chain",
			err:  zerr.Wrap(zerr.Wrap(os.ErrPermission, "failed to write manifest"), "stage persist failed"),
			expected: strings.Join([]string{
				"Error: stage persist failed",
				"",
				"  Caused by:",
				"    → failed to write manifest",
				"    → permission denied",
			}, "\n"),
		},
		{
			name: "metadata and multi-line values",
			err:  zerr.With(zerr.With(zerr.New("command failed"), "stderr", "line1\nline2"), "exit_code", 1),
			expected: strings.Join([]string{
				"Error: command failed",
				"",
				"  Details:",
				"    exit_code: 1",
				"    stderr: line1",
				"      line2",
			}, "\n"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, logger.FormatError(tt.err))
		})
	}
}
