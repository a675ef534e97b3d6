package cli

import (
	"fmt"

	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/tree"
	"github.com/imkarma/rcvlf/internal/workspace"
	"github.com/spf13/cobra"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the task tree",
	Args:  cobra.NoArgs,
	RunE:  runTree,
}

func runTree(cmd *cobra.Command, args []string) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		out := cmd.OutOrStdout()
		state := ws.Store.State()
		if len(state.Tasks) == 0 {
			fmt.Fprintf(out, "%sNo tasks.%s Create a goal: %srcvlf task create \"description\"%s\n",
				colorDim, colorReset, colorCyan, colorReset)
			return nil
		}

		for _, line := range renderTree(state) {
			fmt.Fprintln(out, line)
		}
		return nil
	})
}

// renderTree draws the tree rooted at the project root, one line per task.
func renderTree(state task.ProjectState) []string {
	root, ok := state.Get(state.RootTaskID)
	if !ok {
		return nil
	}
	var lines []string
	var walk func(t task.Task, prefix string, last, isRoot bool)
	walk = func(t task.Task, prefix string, last, isRoot bool) {
		branch, childPrefix := "", ""
		if !isRoot {
			branch = "├── "
			childPrefix = prefix + "│   "
			if last {
				branch = "└── "
				childPrefix = prefix + "    "
			}
		}
		lines = append(lines, prefix+branch+treeLine(t, state.ActiveTaskID))

		var children []task.Task
		for _, id := range t.ChildIDs {
			if c, ok := state.Tasks[id]; ok {
				children = append(children, c)
			}
		}
		for i, c := range children {
			walk(c, childPrefix, i == len(children)-1, false)
		}
	}
	walk(root, "", true, true)
	return lines
}

func treeLine(t task.Task, activeID string) string {
	name := t.Name
	if t.ID == activeID {
		name = colorYellow + colorBold + name + colorReset
	} else if task.IsTerminal(t.Status) {
		name = colorDim + name + colorReset
	}
	return fmt.Sprintf("%s %s %s%s (%.1f)%s",
		statusIcon(t.Status), name, colorDim, shortID(t.ID), t.TotalScore, colorReset)
}

// validateTree checks structure; an empty project is valid.
func validateTree(state task.ProjectState) error {
	if len(state.Tasks) == 0 {
		return nil
	}
	return tree.Validate(state)
}
