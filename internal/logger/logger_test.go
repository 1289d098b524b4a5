package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWritesJSONWithAppFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("temperature-dashboard", "test", "info", "json", &buf)
	require.NoError(t, err)

	l.Info("departments loaded", map[string]any{"count": 101})
	l.Debug("filtered out")
	require.NoError(t, l.Stop())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "departments loaded", entry["msg"])
	assert.Equal(t, "temperature-dashboard", entry["app_name"])
	assert.Equal(t, "test", entry["app_zone"])
	assert.EqualValues(t, 101, entry["count"])
	assert.Contains(t, entry["caller_func"], "TestNewWritesJSONWithAppFields")
	assert.Contains(t, entry, "timestamp")
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	_, err := New("app", "test", "loud", "json")
	assert.Error(t, err)

	_, err = New("app", "test", "info", "xml")
	assert.Error(t, err)
}

func TestErrorAddsErrorField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore("app", "test", core)

	l.Error(errors.New("upstream unavailable"), map[string]any{"date": "2024-01-01"})
	l.Error(nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	ctx := entry.ContextMap()
	assert.Equal(t, "upstream unavailable", ctx["error"])
	assert.Equal(t, "2024-01-01", ctx["date"])
}

func TestWarningLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewWithCore("app", "test", core)

	l.Info("ignored")
	l.Warning("slow upstream", map[string]any{"cause": errors.New("timeout")})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "slow upstream", logs.All()[0].Message)
	assert.Equal(t, "timeout", logs.All()[0].ContextMap()["cause"])
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Info("nothing")
	l.Error(errors.New("nothing"))
}
