package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/spf13/cobra"
)

var chatCodeFile string

var chatCmd = &cobra.Command{
	Use:   "chat [instruction]",
	Short: "Ask one question and stream the answer to stdout",
	Long: `Sends one chat turn on the current session and prints the answer as it
streams in. Code to discuss is read from --file, or from stdin with --file -.

Example:
  codeagent chat --file main.go "Why does this deadlock?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readCode(cmd.InOrStdin(), chatCodeFile)
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

		out := cmd.OutOrStdout()
		err = a.Chat(ctx, code, strings.Join(args, " "), func(fragment string) error {
			_, err := io.WriteString(out, fragment)
			return err
		})
		fmt.Fprintln(out)
		if errors.Is(err, client.ErrChatDisabled) {
			return fmt.Errorf("%w: enable it in %s or run `codeagent models toggle chat on`", err, cfg.SettingsPath)
		}
		return err
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatCodeFile, "file", "f", "", "File holding the code to discuss, - for stdin")
}

func readCode(stdin io.Reader, path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	return string(data), nil
}
