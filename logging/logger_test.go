package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestLogger_ScopedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&Config{Level: "info", Format: "json"}, &buf)

	ctx := ContextWithRequestID(context.Background(), "req-7")
	logger.WithComponent("browse_service").WithSession("s-1").WithContext(ctx).Info("opened")

	line := decodeLine(t, &buf)
	assert.Equal(t, "opened", line["msg"])
	assert.Equal(t, "browse_service", line["component"])
	assert.Equal(t, "s-1", line["session_id"])
	assert.Equal(t, "req-7", line["request_id"])
	assert.Contains(t, line, "timestamp")
}

func TestLogger_WithContextWithoutRequestID(t *testing.T) {
	logger := NewLoggerWithWriter(DefaultConfig(), &bytes.Buffer{})

	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&Config{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Paging("hidden too", "page", 1)
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Equal(t, "shown", decodeLine(t, &buf)["msg"])
}

func TestLogger_SubsystemHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&Config{Level: "debug", Format: "json"}, &buf)

	logger.Cache("evicted", "removed", 3)

	line := decodeLine(t, &buf)
	assert.Equal(t, "cache", line["subsystem"])
	assert.Equal(t, float64(3), line["removed"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "ERROR", parseLevel("ERROR").String())
	assert.Equal(t, "INFO", parseLevel("bogus").String())
}
