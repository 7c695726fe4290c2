package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "json", Level: slog.LevelInfo})

	logger.Debug("hidden")
	logger.Error("add entry failed", "op", "add_entry")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "add entry failed", record["msg"])
	assert.Equal(t, "add_entry", record["op"])
	assert.Equal(t, "ERROR", record["level"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Level: slog.LevelDebug})
	logger.Debug("session changed", "event", "SIGNED_IN")
	assert.Contains(t, buf.String(), "msg=\"session changed\"")
	assert.Contains(t, buf.String(), "event=SIGNED_IN")
}

func TestOpenFile_CreatesDirsAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "handbook.log")

	for _, line := range []string{"one\n", "two\n"} {
		f, err := OpenFile(path)
		require.NoError(t, err)
		_, err = f.WriteString(line)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}
