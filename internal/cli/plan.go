package cli

import (
	"fmt"
	"strings"

	"github.com/imkarma/rcvlf/internal/storage"
	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	planConfidence float64
	planValue      int
	planLearning   int
)

var planCmd = &cobra.Command{
	Use:   "plan [id] [subtask...]",
	Short: "Break the active task into subtasks",
	Long: "Adds one subtask per argument under the given active task and marks it planned.\n" +
		"Score flags apply to every subtask; missing ones come from config defaults.",
	Args: cobra.MinimumNArgs(2),
	RunE: runPlan,
}

func init() {
	addScoreFlags(planCmd, &planConfidence, &planValue, &planLearning)
}

func runPlan(cmd *cobra.Command, args []string) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		parent, err := resolveTask(ws.Store.State(), args[0])
		if err != nil {
			return err
		}

		params := make([]task.NewTaskParams, 0, len(args)-1)
		for _, name := range args[1:] {
			p := ws.Config.Defaults.Params(name, parent.ID)
			params = append(params, scoreParams(cmd, p, planConfidence, planValue, planLearning))
		}

		created, err := ws.Store.AddSubtasks(parent.ID, params)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(created))
		for _, t := range created {
			ws.Record(t.ID, storage.EventCreated, fmt.Sprintf("Task created: %s", t.Name))
			names = append(names, t.Name)
		}
		ws.Record(parent.ID, storage.EventPlanned,
			fmt.Sprintf("Planned into %d subtasks: %s", len(created), strings.Join(names, ", ")))

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Planned %s%s%s into %d subtasks:\n", colorCyan, shortID(parent.ID), colorReset, len(created))
		for _, t := range created {
			fmt.Fprintf(out, "  %s  %-40s %5.1f\n", shortID(t.ID), truncate(t.Name, 40), t.TotalScore)
		}
		return nil
	})
}
