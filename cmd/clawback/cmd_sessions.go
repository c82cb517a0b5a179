package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect the session journal",
		Long: `List or delete shifts recorded in the session journal. The journal is only
kept across runs when journal.path points at a file, for example:

  clawback config set journal.path journal.db`,
	}
	cmd.AddCommand(newSessionsListCmd(), newSessionsEventsCmd(), newSessionsDeleteCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List journaled sessions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			sessions, err := rt.journal.Sessions(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, map[string]any{"sessions": sessions, "count": len(sessions)})
			}
			if len(sessions) == 0 {
				fmt.Fprintf(out, "No sessions in %s\n", rt.journal.Path())
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(out, "%s  %s pts  %d done, %d expired, %d failed  tick %d  %s\n",
					s.ID, humanize.Comma(int64(s.Points)), s.Completed, s.Expired, s.Failed,
					s.LastTick, humanize.Time(s.UpdatedAt))
			}
			return nil
		},
	}
}

func newSessionsEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <session-id>",
		Short: "Print the events of a journaled session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			events, err := rt.journal.Events(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, map[string]any{"events": events, "count": len(events)})
			}
			for _, e := range events {
				printEvent(out, e)
			}
			return nil
		},
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and everything recorded for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.journal.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"status": "deleted", "session_id": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		},
	}
}
