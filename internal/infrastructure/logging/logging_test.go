package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"NOTIFICATION", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"NONE", zerolog.Disabled},
		{"debug", zerolog.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNew_FileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o600))

	logger, closer, err := New("WARNING", path)
	require.NoError(t, err)
	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("existing\n")))
	assert.Contains(t, string(raw), `"message":"kept"`)
	assert.NotContains(t, string(raw), "dropped")
}

func TestNew_Errors(t *testing.T) {
	_, _, err := New("chatty", SinkScreen)
	assert.Error(t, err)

	_, _, err = New("ERROR", filepath.Join(t.TempDir(), "missing", "client.log"))
	assert.Error(t, err)
}

func TestForce(t *testing.T) {
	var buf bytes.Buffer
	Force(zerolog.New(&buf).Level(zerolog.ErrorLevel), "connected")
	assert.Contains(t, buf.String(), `"message":"connected"`)

	buf.Reset()
	Force(zerolog.New(&buf).Level(zerolog.Disabled), "connected")
	assert.Empty(t, buf.String())
}
