package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("CODEAGENT_BASE_URL", "")
	t.Setenv("CODEAGENT_SETTINGS", "")
	t.Setenv("CODEAGENT_SESSION_NAME", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	var c Config
	c.LoadEnv()
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, DefaultSessionName, c.SessionName)
	assert.Equal(t, filepath.Join("/xdg", "codeagent", "settings.toml"), c.SettingsPath)
}

func TestFlagsWinOverEnv(t *testing.T) {
	t.Setenv("CODEAGENT_BASE_URL", "http://env:1")
	t.Setenv("CODEAGENT_SESSION_NAME", "from-env")

	var c Config
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	c.BindFlags(cmd)
	cmd.SetArgs([]string{"--base-url", "http://flag:2", "--dev"})
	require.NoError(t, cmd.Execute())

	c.LoadEnv()
	assert.Equal(t, "http://flag:2", c.BaseURL)
	assert.Equal(t, "from-env", c.SessionName)
	assert.True(t, c.Dev)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadSettingsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chat]\nenabled = false\n\n[autocomplete]\nlanguage = \"go\"\n"), 0o644))

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.False(t, settings.Chat.Enabled)
	assert.True(t, settings.Autocomplete.Enabled)
	assert.Equal(t, "go", settings.Autocomplete.Language)
	assert.Equal(t, 128, settings.Autocomplete.MaxTokens)
}

func TestLoadSettingsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chat\nenabled = "), 0o644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	want := DefaultSettings()
	want.Autocomplete.Enabled = false
	want.Autocomplete.TopK = 3

	require.NoError(t, SaveSettings(path, want))
	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWatchSettingsReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, SaveSettings(path, DefaultSettings()))

	var chatDisabled atomic.Bool
	w, err := WatchSettings(path, func(s Settings) {
		if !s.Chat.Enabled {
			chatDisabled.Store(true)
		}
	})
	require.NoError(t, err)
	defer w.Close()

	update := DefaultSettings()
	update.Chat.Enabled = false
	require.NoError(t, SaveSettings(path, update))

	assert.Eventually(t, chatDisabled.Load, 5*time.Second, 10*time.Millisecond)
}

func TestWatchSettingsIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")

	var calls atomic.Int32
	w, err := WatchSettings(path, func(Settings) { calls.Add(1) })
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1"), 0o644))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, w.Close())
	assert.Zero(t, calls.Load())
}
