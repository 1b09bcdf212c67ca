package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, 5, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, "1s", cfg.Reconnect.BaseDelay.String())
	assert.Equal(t, "adjacent", cfg.SelectionMode)
	assert.Equal(t, 10, cfg.DefaultLevelCount)
	assert.Equal(t, 30, cfg.DefaultLevelSeconds)
	assert.Equal(t, 480.0, cfg.Canvas.Width)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := "server_url: https://words.example.com\nselection_mode: free\nreconnect:\n  max_attempts: 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("WORDBRAIN_RECONNECT_MAX_ATTEMPTS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://words.example.com", cfg.ServerURL)
	assert.Equal(t, "free", cfg.SelectionMode)
	assert.Equal(t, 7, cfg.Reconnect.MaxAttempts)
}

func TestLoad_RejectsUnknownSelectionMode(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("WORDBRAIN_SELECTION_MODE", "diagonal")

	_, err := Load()
	require.Error(t, err)
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:8080", "ws://localhost:8080/game-websocket"},
		{"https://words.example.com", "wss://words.example.com/game-websocket"},
		{"https://words.example.com/app?x=1", "wss://words.example.com/game-websocket"},
	}
	for _, tt := range tests {
		cfg := &Config{ServerURL: tt.server, WSPath: "/game-websocket"}
		got, err := cfg.WebSocketURL()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := (&Config{ServerURL: "ftp://x", WSPath: "/ws"}).WebSocketURL()
	require.ErrorIs(t, err, ErrBadServerURL)
}
