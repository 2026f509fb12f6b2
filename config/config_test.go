package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Creates file with defaults", func(t *testing.T) {
		// Given: no config file
		path := filepath.Join(t.TempDir(), "config.json")

		// When: loading
		cfg, err := Load(path)
		require.NoError(t, err)

		// Then: defaults are used
		assert.Equal(t, "38870", cfg.Port)
		assert.Equal(t, 50, cfg.Blocksize)
		assert.Equal(t, 5.0, cfg.InitialSpeed)
		assert.Equal(t, 100, cfg.HeaderHeight)
		assert.Equal(t, "info", cfg.LogLevel)

		// Then: the file was written with the same values
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var saved AppConfig
		require.NoError(t, json.Unmarshal(data, &saved))
		assert.Equal(t, *cfg, saved)
	})

	t.Run("Environment is not written to a new file", func(t *testing.T) {
		// Given: no config file and a port override in the environment
		path := filepath.Join(t.TempDir(), "config.json")
		t.Setenv("SNAKE_PORT", "9100")

		// When: loading creates the file
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "9100", cfg.Port)

		// Then: the file holds the default port
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var saved AppConfig
		require.NoError(t, json.Unmarshal(data, &saved))
		assert.Equal(t, "38870", saved.Port)

		// When: the override goes away and the file is loaded again
		require.NoError(t, os.Unsetenv("SNAKE_PORT"))
		cfg, err = Load(path)
		require.NoError(t, err)

		// Then: the default is back
		assert.Equal(t, "38870", cfg.Port)
	})

	t.Run("Reads existing file", func(t *testing.T) {
		path := writeConfig(t, `{"port": "9000", "blocksize": 20, "viewport_width": 640}`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, 20, cfg.Blocksize)
		assert.Equal(t, 640, cfg.ViewportWidth)
		// missing keys fall back to defaults
		assert.Equal(t, 720, cfg.ViewportHeight)
		assert.Equal(t, "game.db", cfg.DBPath)
	})

	t.Run("Environment wins over file", func(t *testing.T) {
		path := writeConfig(t, `{"port": "9000"}`)
		t.Setenv("SNAKE_PORT", "9100")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "9100", cfg.Port)
	})

	t.Run("Invalid block size", func(t *testing.T) {
		path := writeConfig(t, `{"blocksize": -5}`)

		_, err := Load(path)

		require.ErrorIs(t, err, ErrInvalidBlockSize)
	})

	t.Run("Block size one is too small", func(t *testing.T) {
		path := writeConfig(t, `{"blocksize": 1}`)

		_, err := Load(path)
		require.ErrorIs(t, err, ErrInvalidBlockSize)

		_, err = Load(writeConfig(t, `{"blocksize": 2}`))
		require.NoError(t, err)
	})

	t.Run("Invalid speed", func(t *testing.T) {
		path := writeConfig(t, `{"initial_speed": -1}`)

		_, err := Load(path)

		require.ErrorIs(t, err, ErrInvalidSpeed)
	})

	t.Run("Broken file", func(t *testing.T) {
		path := writeConfig(t, `{"port":`)

		_, err := Load(path)

		require.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := LoadConfig(path)

	require.NotNil(t, cfg)
	assert.Same(t, cfg, LoadConfig("does-not-matter.json"))
}
