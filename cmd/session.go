package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and manage conversation sessions",
}

var sessionCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the current session, creating one if the service has none",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAssistant()
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Sessions().Resolve(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the conversation history of the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAssistant()
		if err != nil {
			return err
		}
		defer a.Close()

		outcome, err := a.ResetSession(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), outcome)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the sessions the service knows about",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAssistant()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		if _, _, err := a.Sessions().Discover(ctx); err != nil {
			return err
		}
		sessions, err := a.Sessions().List(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tID\tNAME")
		for _, s := range sessions {
			marker := ""
			if s.IsCurrent {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", marker, s.ID, s.Name)
		}
		return w.Flush()
	},
}

var sessionSwitchCmd = &cobra.Command{
	Use:   "switch <session-id>",
	Short: "Make another session the current one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAssistant()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Sessions().Switch(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Using session", args[0])
		return nil
	},
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Print the stored conversation of a session (default: current)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAssistant()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		var id string
		if len(args) == 1 {
			id = args[0]
		} else {
			var found bool
			id, found, err = a.Sessions().Discover(ctx)
			if err != nil {
				return err
			}
			if !found {
				return client.ErrSessionNotFound
			}
		}

		messages, err := a.Sessions().History(ctx, id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, m := range messages {
			fmt.Fprintf(out, "%s:\n%s\n\n", m.Role, m.Content)
		}
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionCurrentCmd, sessionResetCmd, sessionListCmd, sessionSwitchCmd, sessionHistoryCmd)
}
