package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Config{}.Validate())
	require.NoError(t, Config{Level: "debug", Format: "json"}.Validate())
	require.Error(t, Config{Format: "xml"}.Validate())
	require.Error(t, Config{Level: "loud"}.Validate())
}

func TestNew_JSONToNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Config{Level: "info"})

	log.Debug().Msg("hidden")
	log.Info().Str("k", "v").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Config{Format: "console"})
	log.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MCHECK_LOG_LEVEL", "debug")
	t.Setenv("MCHECK_LOG_FORMAT", "")

	c := Config{Level: "error", Format: "json"}.FromEnv()
	assert.Equal(t, "debug", c.Level)
	assert.Equal(t, "json", c.Format)
}
