package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every override so tests see only what they set.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "CITYSENSE_API_KEY", "CITYSENSE_MODEL", "CITYSENSE_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, 60, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, 500, cfg.Watch.DebounceMS)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.SVG.NoLegend)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not, a, mapping"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.APIKey = "file-key"
	cfg.LLM.Model = "gemini-2.5-pro"
	cfg.LLM.TimeoutSeconds = 30
	cfg.SVG.NoLegend = true
	cfg.Watch.DebounceMS = 250
	cfg.Logging.Level = "debug"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  api_key: only-this\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "only-this", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model, "unset fields keep defaults")
	assert.Equal(t, 500, cfg.Watch.DebounceMS)
}

func TestDurationAccessors(t *testing.T) {
	tests := []struct {
		name         string
		timeoutSec   int
		debounceMS   int
		wantTimeout  time.Duration
		wantDebounce time.Duration
	}{
		{"configured", 30, 250, 30 * time.Second, 250 * time.Millisecond},
		{"zero falls back", 0, 0, 60 * time.Second, 500 * time.Millisecond},
		{"negative falls back", -5, -5, 60 * time.Second, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LLM:   LLMConfig{TimeoutSeconds: tt.timeoutSec},
				Watch: WatchConfig{DebounceMS: tt.debounceMS},
			}
			assert.Equal(t, tt.wantTimeout, cfg.Timeout())
			assert.Equal(t, tt.wantDebounce, cfg.Debounce())
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	})
	t.Run("missing model", func(t *testing.T) {
		cfg := &Config{LLM: LLMConfig{APIKey: "k"}}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model")
	})
	t.Run("complete", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "k"
		assert.NoError(t, cfg.Validate())
	})
}
