package cli

import (
	"fmt"
	"strings"

	"github.com/imkarma/rcvlf/internal/score"
	"github.com/imkarma/rcvlf/internal/storage"
	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/tree"
	"github.com/imkarma/rcvlf/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	taskParent     string
	taskConfidence float64
	taskValue      int
	taskLearning   int
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create or manage tasks",
	Long:  "Create a new task or move existing ones through their lifecycle.",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new task",
	Long:  "Creates a task. Without --parent it becomes the project root; only one root is allowed.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskCreate,
}

var taskListCmd = &cobra.Command{
	Use:   "list [status]",
	Short: "List tasks in tree order, optionally filtered by status",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskActivateCmd = &cobra.Command{
	Use:   "activate [id]",
	Short: "Start working on a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], task.StatusActive)
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Mark the active task as done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], task.StatusDone)
	},
}

var taskDropCmd = &cobra.Command{
	Use:   "drop [id]",
	Short: "Mark a pending task as irrelevant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], task.StatusIrrelevant)
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status [id] [status]",
	Short: "Move a task to any allowed status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := task.ParseStatus(args[1])
		if err != nil {
			return err
		}
		return runTransition(cmd, args[0], to)
	},
}

func init() {
	addScoreFlags(taskCreateCmd, &taskConfidence, &taskValue, &taskLearning)
	taskCreateCmd.Flags().StringVarP(&taskParent, "parent", "p", "", "Parent task ID (or unique prefix)")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskActivateCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskDropCmd)
	taskCmd.AddCommand(taskStatusCmd)
}

// addScoreFlags registers -c/-v/-l on cmd.
func addScoreFlags(cmd *cobra.Command, confidence *float64, value, learning *int) {
	cmd.Flags().Float64VarP(confidence, "confidence", "c", 0, "Confidence, 0 to 1")
	cmd.Flags().IntVarP(value, "value", "v", 0, "Value, 1 to 3")
	cmd.Flags().IntVarP(learning, "learning", "l", 0, "Learning, 1 to 3")
}

// scoreParams fills p with flag values, keeping p's defaults for flags that
// were not given.
func scoreParams(cmd *cobra.Command, p task.NewTaskParams, confidence float64, value, learning int) task.NewTaskParams {
	if cmd.Flags().Changed("confidence") {
		p.Confidence = confidence
	}
	if cmd.Flags().Changed("value") {
		p.Value = value
	}
	if cmd.Flags().Changed("learning") {
		p.Learning = learning
	}
	return p
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		parentID := ""
		if taskParent != "" {
			parent, err := resolveTask(ws.Store.State(), taskParent)
			if err != nil {
				return err
			}
			parentID = parent.ID
		}

		p := ws.Config.Defaults.Params(strings.Join(args, " "), parentID)
		p = scoreParams(cmd, p, taskConfidence, taskValue, taskLearning)

		t, err := ws.Store.CreateTask(p)
		if err != nil {
			return err
		}
		ws.Record(t.ID, storage.EventCreated, fmt.Sprintf("Task created: %s", t.Name))

		fmt.Fprintf(cmd.OutOrStdout(), "Created task %s%s%s: %s [score %.1f]\n",
			colorCyan, shortID(t.ID), colorReset, t.Name, t.TotalScore)
		return nil
	})
}

func runTaskList(cmd *cobra.Command, args []string) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		var filter task.Status
		if len(args) > 0 {
			s, err := task.ParseStatus(args[0])
			if err != nil {
				return err
			}
			filter = s
		}

		out := cmd.OutOrStdout()
		state := ws.Store.State()
		if len(state.Tasks) == 0 {
			fmt.Fprintln(out, "No tasks.")
			return nil
		}

		shown := 0
		for _, t := range tree.Ordered(state.Tasks, state.RootTaskID) {
			if filter != "" && t.Status != filter {
				continue
			}
			fmt.Fprintf(out, "  %s  %s  %-40s %5.1f\n",
				shortID(t.ID), statusIcon(t.Status), truncate(t.Name, 40), t.TotalScore)
			shown++
		}
		if shown == 0 {
			fmt.Fprintf(out, "No %s tasks.\n", filter)
		}
		return nil
	})
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		state := ws.Store.State()
		t, err := resolveTask(state, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%sTask %s%s\n", colorBold, t.Name, colorReset)
		fmt.Fprintf(out, "  ID:         %s\n", t.ID)
		fmt.Fprintf(out, "  Status:     %s\n", statusBadge(t.Status))

		path := tree.Path(state.Tasks, t.ID)
		names := make([]string, 0, len(path))
		for _, p := range path {
			names = append(names, p.Name)
		}
		fmt.Fprintf(out, "  Path:       %s\n", strings.Join(names, " › "))

		b := score.BreakdownOf(t)
		fmt.Fprintf(out, "  Score:      %.1f = R %d + C×V %.1f + L %d + F %d\n",
			b.Total, b.Resolution, b.ConfidenceValue, b.Learning, b.Focus)
		fmt.Fprintf(out, "  Components: confidence %.2f, value %d, learning %d\n", t.Confidence, t.Value, t.Learning)

		if len(t.ChildIDs) > 0 {
			fmt.Fprintf(out, "  Subtasks:   %d (%d descendants)\n",
				len(t.ChildIDs), len(tree.Descendants(state.Tasks, t.ID)))
		}
		if sibs := tree.Siblings(state.Tasks, t.ID); len(sibs) > 0 {
			fmt.Fprintf(out, "  Siblings:   %d\n", len(sibs))
		}

		if next := task.AvailableTransitions(t.Status); len(next) > 0 {
			labels := make([]string, 0, len(next))
			for _, s := range next {
				labels = append(labels, string(s))
			}
			fmt.Fprintf(out, "  Next:       %s\n", strings.Join(labels, ", "))
		}

		events, err := ws.DB.GetEvents(t.ID)
		if err != nil {
			return err
		}
		if len(events) > 0 {
			fmt.Fprintln(out, "\n  History:")
			for _, e := range events {
				fmt.Fprintf(out, "    %s%s%s  %s\n", colorDim, e.Timestamp.Format("2006-01-02 15:04"), colorReset, e.Content)
			}
		}
		return nil
	})
}

// runTransition moves the task named by arg to the given status and
// records what changed, including a previously active task that was
// planned to make room.
func runTransition(cmd *cobra.Command, arg string, to task.Status) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		before := ws.Store.State()
		t, err := resolveTask(before, arg)
		if err != nil {
			return err
		}

		if err := ws.Store.UpdateTaskStatus(t.ID, to); err != nil {
			return err
		}

		after := ws.Store.State()
		if prev := before.ActiveTaskID; prev != "" && prev != t.ID {
			if p, ok := after.Get(prev); ok && p.Status == task.StatusPlanned {
				ws.Record(p.ID, storage.EventStatusChanged,
					fmt.Sprintf("Status changed: %s → %s", task.StatusActive, task.StatusPlanned))
			}
		}
		ws.Record(t.ID, storage.EventStatusChanged, fmt.Sprintf("Status changed: %s → %s", t.Status, to))

		fmt.Fprintf(cmd.OutOrStdout(), "Task %s%s%s %s → %s\n",
			colorCyan, shortID(t.ID), colorReset, statusBadge(t.Status), statusBadge(to))
		return nil
	})
}
