package cli

import (
	"fmt"

	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/workspace"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Quick status overview",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		out := cmd.OutOrStdout()
		state := ws.Store.State()
		if len(state.Tasks) == 0 {
			fmt.Fprintf(out, "No tasks. Run: %srcvlf task create \"description\"%s\n", colorCyan, colorReset)
			return nil
		}

		counts := map[task.Status]int{}
		for _, t := range state.Tasks {
			counts[t.Status]++
		}

		fmt.Fprintf(out, "%sTasks: %d total%s\n", colorBold, len(state.Tasks), colorReset)
		for _, s := range task.AllStatuses() {
			m := statusDisplay[s]
			fmt.Fprintf(out, "  %-14s %s%d%s\n", string(s)+":", m.color, counts[s], colorReset)
		}

		if active, ok := state.Get(state.ActiveTaskID); ok {
			fmt.Fprintf(out, "\n%sActive:%s %s %s(%s)%s\n", colorYellow+colorBold, colorReset,
				active.Name, colorDim, shortID(active.ID), colorReset)
		} else {
			fmt.Fprintf(out, "\n%sNo active task.%s Pick one from: %srcvlf frontier%s\n", colorDim, colorReset, colorCyan, colorReset)
		}

		if frontier := ws.Store.FrontierTasks(); len(frontier) > 0 {
			top := frontier[0]
			fmt.Fprintf(out, "%sNext:%s   %s %s(%s, %.1f)%s\n", colorBold, colorReset,
				top.Name, colorDim, shortID(top.ID), top.TotalScore, colorReset)
		}

		if err := validateTree(state); err != nil {
			title, msg := task.Describe(err)
			fmt.Fprintf(out, "\n%s⚠  %s:%s %s\n", colorRed+colorBold, title, colorReset, msg)
		}
		return nil
	})
}
