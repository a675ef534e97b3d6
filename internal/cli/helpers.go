package cli

import (
	"fmt"
	"strings"

	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/workspace"
)

// shortIDLen is how much of a task UUID is shown.
const shortIDLen = 8

// mustWorkspace opens the workspace, returning an error if rcvlf is not initialized.
func mustWorkspace() (*workspace.Workspace, error) {
	return workspace.Open(workDir)
}

// resolveTask finds a task by full id or unique id prefix.
func resolveTask(state task.ProjectState, arg string) (task.Task, error) {
	arg = strings.TrimPrefix(strings.TrimSpace(arg), "#")
	if arg == "" {
		return task.Task{}, task.Errorf(task.KindInvalidTree, "Task id is required")
	}
	if t, ok := state.Get(arg); ok {
		return t, nil
	}

	var matches []string
	for id := range state.Tasks {
		if strings.HasPrefix(id, arg) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return task.Task{}, task.Errorf(task.KindInvalidTree, "Task %s not found", arg)
	case 1:
		return state.Tasks[matches[0]], nil
	default:
		return task.Task{}, task.Errorf(task.KindInvalidTree, "Task id %s is ambiguous (%d matches)", arg, len(matches))
	}
}

// shortID returns the display form of a task id.
func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// statusMeta is how a status is shown in the terminal.
type statusMeta struct {
	label string
	icon  string
	color string
}

var statusDisplay = map[task.Status]statusMeta{
	task.StatusPending:    {"Pending", "○", colorBlue},
	task.StatusActive:     {"Active", "●", colorYellow},
	task.StatusPlanned:    {"Planned", "▤", colorDim},
	task.StatusDone:       {"Done", "✓", colorGreen},
	task.StatusIrrelevant: {"Irrelevant", "✗", colorDim},
}

func statusBadge(s task.Status) string {
	m, ok := statusDisplay[s]
	if !ok {
		return string(s)
	}
	return fmt.Sprintf("%s%s %s%s", m.color, m.icon, m.label, colorReset)
}

func statusIcon(s task.Status) string {
	m, ok := statusDisplay[s]
	if !ok {
		return "?"
	}
	return m.color + m.icon + colorReset
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// withWorkspace opens the workspace, runs fn and closes it. A failure to
// persist the final state is reported when fn itself succeeded.
func withWorkspace(fn func(ws *workspace.Workspace) error) error {
	ws, err := mustWorkspace()
	if err != nil {
		return err
	}
	err = fn(ws)
	if err != nil {
		ws.Log.Warn("command failed", "kind", string(task.KindOf(err)), "error", err)
	}
	if cerr := ws.Close(); err == nil {
		err = cerr
	}
	return err
}
