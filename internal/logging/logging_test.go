package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scoop.log")

	logger, err := New(Config{Level: "debug", File: path})
	require.NoError(t, err)
	logger.Debug().Str("component", "test").Msg("hello")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Contains(t, entry, "time")
}

func TestNew_LevelDefaultsToInfo(t *testing.T) {
	for _, level := range []string{"", "bogus"} {
		logger, err := New(Config{Level: level})
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	}
}

func TestNew_LevelFiltersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoop.log")
	logger, err := New(Config{Level: "warn", File: path})
	require.NoError(t, err)
	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestClose_NilSafe(t *testing.T) {
	var l *Logger
	assert.NoError(t, l.Close())
}
