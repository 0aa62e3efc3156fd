package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type logEntry map[string]any

func TestLoggerInfoWithFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	log = log.WithFields(map[string]any{"job": "wordcount", "phase": "generate"})
	log.Info("compiling plan")

	var entry logEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "compiling plan", entry["message"])
	require.Equal(t, "wordcount", entry["job"])
	require.Equal(t, "generate", entry["phase"])
	require.Equal(t, "info", entry["level"])
}

func TestLoggerDebugRespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	log.Debug("this should not appear")
	require.Equal(t, "", strings.TrimSpace(buf.String()))
}

func TestLoggerErrorIncludesContext(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "debug", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	log = log.WithFields(map[string]any{"transform": "map-2"})
	log.Error(errors.New("boom"), "lowering failed")

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	require.Equal(t, "lowering failed", entry["message"])
	require.Equal(t, "map-2", entry["transform"])
	require.Equal(t, "boom", entry["error"])
}

func TestLoggerNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var log *Logger
	log.Debug("ignored")
	log.Info("ignored")
	log.Error(errors.New("ignored"), "ignored")
	require.Nil(t, log.WithFields(map[string]any{"a": 1}))
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "chatty"})
	require.Error(t, err)
}
