package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLoggerWithWriter(&buf, slog.LevelInfo)

	log.Debugf("hidden %d", 1)
	log.With("run_id", "r-1").Errorf(errors.New("boom"), "call %s failed", "AddImage")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "call AddImage failed", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "r-1", entry["run_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
