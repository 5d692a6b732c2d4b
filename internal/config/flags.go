package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	DefaultBaseURL     = "http://127.0.0.1:8000"
	DefaultSessionName = "editor"
)

// Config is the process-level configuration of the client.
type Config struct {
	Dev          bool
	LogPath      string
	BaseURL      string
	SettingsPath string
	SessionName  string
}

// BindFlags registers the persistent flags of cmd into c.
func (c *Config) BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.BoolVar(&c.Dev, "dev", false, "Development mode")
	flags.StringVar(&c.LogPath, "logPath", "", "Path to save the log file")
	flags.StringVar(&c.BaseURL, "base-url", "", "Address of the generation service (default "+DefaultBaseURL+")")
	flags.StringVar(&c.SettingsPath, "settings", "", "Path to the settings file (default "+DefaultSettingsPath()+")")
	flags.StringVar(&c.SessionName, "session-name", "", "Name given to sessions this client creates")
}

// LoadEnv fills unset fields from the environment, after loading a .env
// file from the working directory if there is one.
func (c *Config) LoadEnv() {
	_ = godotenv.Load()

	c.BaseURL = firstNonEmpty(c.BaseURL, os.Getenv("CODEAGENT_BASE_URL"), DefaultBaseURL)
	c.SettingsPath = firstNonEmpty(c.SettingsPath, os.Getenv("CODEAGENT_SETTINGS"), DefaultSettingsPath())
	c.SessionName = firstNonEmpty(c.SessionName, os.Getenv("CODEAGENT_SESSION_NAME"), DefaultSessionName)
	c.LogPath = firstNonEmpty(c.LogPath, os.Getenv("CODEAGENT_LOG_PATH"))
	if !c.Dev && os.Getenv("CODEAGENT_DEV") == "1" {
		c.Dev = true
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
