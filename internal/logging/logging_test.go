package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLoggingState() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	isTerminalFn = func(uintptr) bool { return false }
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, parseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
}

func TestSelectWriter(t *testing.T) {
	t.Cleanup(resetLoggingState)

	assert.Equal(t, os.Stderr, selectWriter("json", os.Stderr))
	assert.IsType(t, zerolog.ConsoleWriter{}, selectWriter("console", os.Stderr))

	isTerminalFn = func(uintptr) bool { return false }
	assert.Equal(t, os.Stderr, selectWriter("auto", os.Stderr))

	isTerminalFn = func(uintptr) bool { return true }
	assert.IsType(t, zerolog.ConsoleWriter{}, selectWriter("", os.Stderr))
}

func TestInitSetsLevelAndComponent(t *testing.T) {
	t.Cleanup(resetLoggingState)

	Init(Config{Format: "json", Level: "warn", Component: "ipamhosts"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	var buf bytes.Buffer
	log.Logger = log.Logger.Output(&buf)
	log.Warn().Msg("hello")

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "ipamhosts", event["component"])
	assert.Equal(t, "hello", event["message"])
}

func TestRequestID(t *testing.T) {
	t.Cleanup(resetLoggingState)

	ctx, id := WithRequestID(context.Background(), "")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, RequestID(ctx))

	ctx, id = WithRequestID(ctx, " abc ")
	assert.Equal(t, "abc", id)
	assert.Equal(t, "abc", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	FromContext(ctx).Info().Msg("x")
	assert.Contains(t, buf.String(), `"request_id":"abc"`)
}
