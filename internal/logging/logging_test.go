package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: "info", Format: "json", Service: "todolist-api"})

	ctx := WithRequestID(context.Background(), "req-1")
	log.InfoContext(ctx, "hello", "k", "v")
	log.Debug("dropped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "todolist-api", rec["service"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "v", rec["k"])
}

func TestNew_TextWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Format: "text"}).With("component", "test")

	log.Warn("careful")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "component=test")
	assert.NotContains(t, out, "request_id")
}
