package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.WarnLevel,
		"chatty":  log.WarnLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestParseFormatter(t *testing.T) {
	assert.Equal(t, log.JSONFormatter, ParseFormatter("json"))
	assert.Equal(t, log.LogfmtFormatter, ParseFormatter("logfmt"))
	assert.Equal(t, log.TextFormatter, ParseFormatter("pretty"))
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "logfmt")

	l.Info("hidden")
	l.Warn("persist failed", "key", "todos")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "persist failed")
	assert.Contains(t, out, "key=todos")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing to see")
	assert.Equal(t, log.FatalLevel, l.GetLevel())
}

func TestNewTimestampsAtDebugAnyCase(t *testing.T) {
	for _, level := range []string{"debug", "DEBUG", "Debug"} {
		var buf bytes.Buffer
		New(&buf, level, "logfmt").Debug("loaded")
		assert.Contains(t, buf.String(), "time=", level)
	}

	var buf bytes.Buffer
	New(&buf, "WARN", "logfmt").Warn("loaded")
	assert.NotContains(t, buf.String(), "time=")
}
