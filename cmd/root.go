package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/bz888/codeagent/internal/assistant"
	"github.com/bz888/codeagent/internal/config"
	"github.com/bz888/codeagent/internal/logger"
	"github.com/bz888/codeagent/internal/ui"
	"github.com/spf13/cobra"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "codeagent",
	Short: "Terminal client for a code-assistant generation service",
	Long: `codeagent talks to a local generation service: it streams chat answers
about a piece of code, keeps one conversation session per editor, switches the
chat and autocomplete models on and off, and fetches inline completions.

Run without arguments to start the interactive terminal interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg.LoadEnv()
		// The interactive interface initialises the logger with its debug console.
		if cmd != cmd.Root() {
			logger.InitLogger(cfg.Dev, cfg.LogPath, nil)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

func init() {
	cfg.BindFlags(rootCmd)
	rootCmd.AddCommand(chatCmd, sessionCmd, modelsCmd, completeCmd, devServerCmd)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	logger.NewLogger("cmd").Close()
	if err != nil {
		os.Exit(1)
	}
}

func newAssistant() (*assistant.Assistant, error) {
	c, err := client.NewClientFromURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return assistant.New(c, cfg.SessionName), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runInteractive() error {
	view := ui.New()
	logger.InitLogger(cfg.Dev, cfg.LogPath, view.DebugConsole())
	localLogger := logger.NewLogger("cmd")

	a, err := newAssistant()
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		localLogger.Warn("Using default settings:", err)
		settings = config.DefaultSettings()
	}

	changes := make(chan config.Settings, 1)
	if err := os.MkdirAll(filepath.Dir(cfg.SettingsPath), 0o755); err != nil {
		localLogger.Warn("Settings will not be watched:", err)
	} else if watcher, err := config.WatchSettings(cfg.SettingsPath, func(s config.Settings) {
		changes <- s
	}); err != nil {
		localLogger.Warn("Settings will not be watched:", err)
	} else {
		defer func() {
			watcher.Close()
			close(changes)
		}()
	}

	if err := view.Run(a, cfg, settings, changes); err != nil {
		return fmt.Errorf("terminal interface: %w", err)
	}
	return nil
}
