package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	store, err := Load(path)
	require.NoError(t, err)

	cfg := store.Current()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DefaultRecognitionURL, cfg.Recognition.URL)
	assert.Equal(t, 8*time.Second, cfg.Recognition.Timeout)
	assert.Equal(t, []string{"all"}, cfg.Privacy.Detectors)
	assert.Equal(t, path, store.ConfigFileUsed())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port", "server:\n  port: 70000\n"},
		{"log level", "logging:\n  level: verbose\n"},
		{"log format", "logging:\n  format: xml\n"},
		{"timeout", "recognition:\n  timeout: 0s\n"},
		{"audit without redis", "audit:\n  enabled: true\n  redis_url: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadBindsRecognitionEnv(t *testing.T) {
	t.Setenv(EnvAppCode, "code-from-env")
	t.Setenv(EnvRecognitionURL, "https://ocr.example.com/idcard")

	store, err := Load(writeConfig(t, "recognition:\n  app_code: code-from-file\n"))
	require.NoError(t, err)

	cfg := store.Current()
	assert.Equal(t, "code-from-env", cfg.Recognition.AppCode)
	assert.Equal(t, "https://ocr.example.com/idcard", cfg.Recognition.URL)
}

func TestLookup(t *testing.T) {
	cfg := GetDefaults()
	cfg.Recognition.AppCode = "  file-code  "
	store := NewStore(cfg)

	t.Run("falls back to config values", func(t *testing.T) {
		t.Setenv(EnvAppCode, "   ")
		assert.Equal(t, "file-code", store.Lookup(EnvAppCode))
		assert.Equal(t, DefaultRecognitionURL, store.Lookup(EnvRecognitionURL))
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv(EnvAppCode, " env-code ")
		assert.Equal(t, "env-code", store.Lookup(EnvAppCode))
	})

	t.Run("unknown key", func(t *testing.T) {
		assert.Equal(t, "", store.Lookup("GATEWAY_UNKNOWN_KEY_FOR_TEST"))
	})
}

func TestWatchWithoutFileIsNoop(t *testing.T) {
	store := NewStore(GetDefaults())
	store.Watch(func(*Config) { t.Fatal("unexpected reload") }, nil)
	assert.Equal(t, 8080, store.Current().Server.Port)
}
