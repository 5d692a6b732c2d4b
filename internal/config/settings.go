package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Settings are the user-editable toggles and completion options.
type Settings struct {
	Chat         ChatSettings         `toml:"chat"`
	Autocomplete AutocompleteSettings `toml:"autocomplete"`
}

type ChatSettings struct {
	Enabled bool `toml:"enabled"`
}

type AutocompleteSettings struct {
	Enabled   bool   `toml:"enabled"`
	Language  string `toml:"language"`
	MaxTokens int    `toml:"max_tokens"`
	TopK      int    `toml:"top_k"`
}

// DefaultSettings has both features on, like the service at startup.
func DefaultSettings() Settings {
	return Settings{
		Chat: ChatSettings{Enabled: true},
		Autocomplete: AutocompleteSettings{
			Enabled:   true,
			Language:  "plain",
			MaxTokens: 128,
			TopK:      1,
		},
	}
}

// DefaultSettingsPath resolves $XDG_CONFIG_HOME/codeagent/settings.toml,
// falling back to ~/.config/codeagent/settings.toml.
func DefaultSettingsPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "codeagent", "settings.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "codeagent", "settings.toml")
	}
	return filepath.Join(home, ".config", "codeagent", "settings.toml")
}

// LoadSettings reads path. A missing file yields the defaults; keys absent
// from the file keep their default values.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	if _, err := toml.DecodeFile(path, &settings); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("load settings %s: %w", path, err)
	}
	return settings, nil
}

// SaveSettings writes settings to path, creating its directory.
func SaveSettings(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(settings); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
