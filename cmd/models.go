package cmd

import (
	"fmt"
	"strings"

	"github.com/bz888/codeagent/internal/config"
	"github.com/bz888/codeagent/internal/models"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Switch the chat and autocomplete models on or off",
}

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Apply the feature toggles from the settings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings(cfg.SettingsPath)
		if err != nil {
			return err
		}
		a, err := newAssistant()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext()
		defer cancel()

		state := a.ApplySettings(ctx, settings)
		fmt.Fprintln(cmd.OutOrStdout(), state)
		if want := models.Summarize(settings.Chat.Enabled, settings.Autocomplete.Enabled); state != want {
			return fmt.Errorf("service did not accept every toggle, wanted %q", want)
		}
		return nil
	},
}

var modelsToggleCmd = &cobra.Command{
	Use:       "toggle <feature> on|off",
	Short:     "Switch one feature and record it in the settings file",
	Args:      cobra.ExactArgs(2),
	ValidArgs: featureNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		feature, err := parseFeature(args[0])
		if err != nil {
			return err
		}
		var enable bool
		switch args[1] {
		case "on":
			enable = true
		case "off":
		default:
			return fmt.Errorf("expected on or off, got %q", args[1])
		}

		a, err := newAssistant()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext()
		defer cancel()

		state, err := a.Toggle(ctx, feature, enable)
		if err != nil {
			return err
		}

		settings, err := config.LoadSettings(cfg.SettingsPath)
		if err != nil {
			return err
		}
		switch feature {
		case models.Chat:
			settings.Chat.Enabled = enable
		case models.Autocomplete:
			settings.Autocomplete.Enabled = enable
		}
		if err := config.SaveSettings(cfg.SettingsPath, settings); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), state)
		return nil
	},
}

var modelsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the feature state recorded in the settings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings(cfg.SettingsPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, models.Summarize(settings.Chat.Enabled, settings.Autocomplete.Enabled))
		for _, f := range models.Features {
			enabled := settings.Chat.Enabled
			if f == models.Autocomplete {
				enabled = settings.Autocomplete.Enabled
			}
			fmt.Fprintf(out, "  %-13s %t\n", f, enabled)
		}
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsSyncCmd, modelsToggleCmd, modelsStatusCmd)
}

func featureNames() []string {
	names := make([]string, len(models.Features))
	for i, f := range models.Features {
		names[i] = string(f)
	}
	return names
}

func parseFeature(name string) (models.Feature, error) {
	for _, f := range models.Features {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feature %q, expected one of %s", name, strings.Join(featureNames(), ", "))
}
