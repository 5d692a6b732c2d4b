package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bz888/codeagent/internal/completion"
	"github.com/bz888/codeagent/internal/config"
	"github.com/spf13/cobra"
)

var completeOpts struct {
	after     string
	language  string
	maxTokens int
	topK      int
	timeout   time.Duration
}

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Print an inline completion for the code read from stdin",
	Long: `Reads the code before the cursor from stdin and prints the text to insert
at the cursor, with any part the model repeated from the input removed.
Nothing is printed when there is no suggestion.

Example:
  printf 'func add(a, b int) int {\n\treturn a' | codeagent complete --language go`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		before, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		settings, err := config.LoadSettings(cfg.SettingsPath)
		if err != nil {
			return err
		}

		a, err := newAssistant()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), completeOpts.timeout)
		defer cancel()

		opts := settings.Autocomplete
		if !opts.Enabled {
			return nil
		}
		req := completion.Request{
			Before:    string(before),
			After:     completeOpts.after,
			Language:  firstSet(completeOpts.language, opts.Language),
			MaxTokens: completeOpts.maxTokens,
			TopK:      completeOpts.topK,
		}
		if req.MaxTokens <= 0 {
			req.MaxTokens = opts.MaxTokens
		}
		if req.TopK <= 0 {
			req.TopK = opts.TopK
		}

		suggestion, ok := a.Complete(ctx, req)
		if ok {
			fmt.Fprint(cmd.OutOrStdout(), suggestion.Text)
		}
		return nil
	},
}

func init() {
	flags := completeCmd.Flags()
	flags.StringVar(&completeOpts.after, "after", "", "Code after the cursor")
	flags.StringVar(&completeOpts.language, "language", "", "Language hint (default from settings)")
	flags.IntVar(&completeOpts.maxTokens, "max-tokens", 0, "Token budget (default from settings)")
	flags.IntVar(&completeOpts.topK, "top-k", 0, "Candidates to request (default from settings)")
	flags.DurationVar(&completeOpts.timeout, "timeout", 5*time.Second, "Give up after this long")
}

func firstSet(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
