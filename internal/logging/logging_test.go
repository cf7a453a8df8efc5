package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewJSONLoggerWritesStructuredFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New("info", FormatJSON, &buf)
	require.NoError(t, err)

	logger.Info("queue drained", zap.Int("succeeded", 2))
	logger.Debug("hidden")
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "queue drained", entry["msg"])
	assert.EqualValues(t, 2, entry["succeeded"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewConsoleLoggerHonoursLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New("warn", FormatConsole, &buf)
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("cache write failed")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "cache write failed")
}

func TestNewRejectsUnknownLevelAndFormat(t *testing.T) {
	t.Parallel()

	_, err := New("loud", FormatJSON, nil)
	require.Error(t, err)

	_, err = New("info", "xml", nil)
	require.ErrorContains(t, err, "unsupported log format")
}

func TestOrNop(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, OrNop(nil))
	logger := zap.NewExample()
	assert.Same(t, logger, OrNop(logger))
}
