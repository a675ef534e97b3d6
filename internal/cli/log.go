package cli

import (
	"fmt"

	"github.com/imkarma/rcvlf/internal/workspace"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log [task-id]",
	Short: "Show event log for a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		t, err := resolveTask(ws.Store.State(), args[0])
		if err != nil {
			return err
		}

		events, err := ws.DB.GetEvents(t.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintf(out, "No events for task %s\n", shortID(t.ID))
			return nil
		}

		fmt.Fprintf(out, "Events for task %s (%s):\n\n", shortID(t.ID), t.Name)
		for _, e := range events {
			fmt.Fprintf(out, "  %s  %-14s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, e.Content)
		}
		return nil
	})
}
