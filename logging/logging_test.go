package logging

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerRespectsLevel(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	log := New(&buf, LevelInfo)

	log.Debugf("hidden %d", 1)
	log.Infof("created table %s", "users")
	log.Warnf("careful")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "created table users\n")
	assert.Contains(t, out, "careful\n")
}

func TestSilentLoggerWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelSilent)
	log.Warnf("nope")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":  LevelDebug,
		"":       LevelInfo,
		"INFO":   LevelInfo,
		"warn":   LevelWarn,
		"silent": LevelSilent,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Debugf("x")
	log.Infof("x")
	log.Warnf("x")
}
