package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	opts := *DefaultOptions
	opts.NoColor = true
	opts.Level = level
	return slog.New(NewHandler(buf, &opts))
}

func TestHandlerWritesRequestIDAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelDebug)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	log.InfoContext(ctx, "Routing event", "sourceID", "U1", Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "req-1 ")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "Routing event")
	assert.Contains(t, out, "sourceID=U1")
	assert.Contains(t, out, "err=boom")
	assert.NotContains(t, out, "\u001b[")
}

func TestHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelWarn)

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestRequestIDFromContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = RequestIDFromContext(ContextWithRequestID(context.Background(), ""))
	assert.False(t, ok)

	id, ok := RequestIDFromContext(ContextWithRequestID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestWithAttrsAreInherited(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelDebug).With("channel", "line")

	log.Info("hello")

	assert.Contains(t, buf.String(), "channel=line")
}

func TestHandlerAddSource(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Level: slog.LevelDebug, TimeFormat: "15:04", AddSource: true, NoColor: true}
	slog.New(NewHandler(&buf, &opts)).Info("with source")

	assert.Contains(t, buf.String(), "logger_test.go:")
	assert.Contains(t, buf.String(), "| with source")

	buf.Reset()
	opts.AddSource = false
	slog.New(NewHandler(&buf, &opts)).Info("without source")

	assert.NotContains(t, buf.String(), "logger_test.go:")
}
