package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextOnStderr(t *testing.T) {
	var buf bytes.Buffer

	logger, closer := New(Options{Level: slog.LevelInfo, Stderr: &buf})
	require.NotNil(t, closer)

	logger.Debug("hidden")
	logger.Info("fetching site", slog.String("site_id", "s1"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=\"fetching site\"")
	assert.Contains(t, out, "logger=sharepoint_api")
	assert.Contains(t, out, "site_id=s1")
	assert.NoError(t, closer.Close())
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger, _ := New(Options{Level: slog.LevelDebug, JSON: true, Stderr: &buf})
	logger.Debug("listing drives")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "listing drives", rec["msg"])
	assert.Equal(t, LoggerName, rec["logger"])
}

func TestNew_FileTee(t *testing.T) {
	var buf bytes.Buffer

	path := filepath.Join(t.TempDir(), "sp.log")

	logger, closer := New(Options{Level: slog.LevelWarn, File: path, MaxSizeMB: 1, Stderr: &buf})
	logger.Info("not written")
	logger.Warn("item skipped", slog.String("item_id", "x"))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "item skipped")
	assert.Contains(t, string(data), `"msg":"item skipped"`)
	assert.Contains(t, string(data), `"logger":"sharepoint_api"`)
	assert.NotContains(t, string(data), "not written")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("chatty")
	require.Error(t, err)
}

func TestErr(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("a", Err(nil))
	logger.Info("b", Err(errors.New("boom")))

	assert.NotContains(t, buf.String(), "msg=a error")
	assert.Contains(t, buf.String(), "error=boom")
}
