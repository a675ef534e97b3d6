package tree

import (
	"github.com/imkarma/rcvlf/internal/task"
)

// Validate runs the full consistency check and returns the first violation
// as an INVALID_TREE error. It is meant for diagnostics and for vetting
// restored snapshots; the store keeps cheaper invariants inline.
func Validate(state task.ProjectState) error {
	tasks := state.Tasks
	if state.RootTaskID == "" {
		if len(tasks) == 0 {
			return task.Errorf(task.KindInvalidTree, "No root task defined")
		}
		return task.Errorf(task.KindInvalidTree, "No root task defined for %d tasks", len(tasks))
	}

	// Walk down from the root; a revisit means a cycle.
	visited := make(map[string]bool)
	stack := []string{state.RootTaskID}
	for len(stack) > 0 {
		currentID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[currentID] {
			return task.Errorf(task.KindInvalidTree, "Cycle detected in task tree")
		}
		visited[currentID] = true

		current, ok := tasks[currentID]
		if !ok {
			return task.Errorf(task.KindInvalidTree, "Missing task: %s", currentID)
		}
		stack = append(stack, current.ChildIDs...)
	}

	root := tasks[state.RootTaskID]
	if root.ParentID != "" {
		return task.Errorf(task.KindInvalidTree, "Root task %s has a parent", root.ID)
	}

	for _, t := range Ordered(tasks, state.RootTaskID) {
		if err := checkLinks(tasks, t); err != nil {
			return err
		}
	}

	for id := range tasks {
		if !visited[id] {
			return task.Errorf(task.KindInvalidTree, "Task %s is not reachable from root", id)
		}
	}

	if state.ActiveTaskID != "" {
		active, ok := tasks[state.ActiveTaskID]
		if !ok {
			return task.Errorf(task.KindInvalidTree, "Active task %s does not exist", state.ActiveTaskID)
		}
		if active.Status != task.StatusActive {
			return task.Errorf(task.KindInvalidTree, "Active task %s has status %s", active.ID, active.Status)
		}
	}
	for id, t := range tasks {
		if t.Status == task.StatusActive && id != state.ActiveTaskID {
			return task.Errorf(task.KindInvalidTree, "Task %s is active but not tracked as the active task", id)
		}
	}

	return nil
}

func checkLinks(tasks map[string]task.Task, t task.Task) error {
	if t.ParentID != "" {
		parent, ok := tasks[t.ParentID]
		if !ok {
			return task.Errorf(task.KindInvalidTree, "Invalid parent reference: %s", t.ParentID)
		}
		if count(parent.ChildIDs, t.ID) != 1 {
			return task.Errorf(task.KindInvalidTree, "Mismatched parent-child relationship: %s -> %s", parent.ID, t.ID)
		}
	}

	for _, childID := range t.ChildIDs {
		child, ok := tasks[childID]
		if !ok {
			return task.Errorf(task.KindInvalidTree, "Invalid child reference: %s", childID)
		}
		if child.ParentID != t.ID {
			return task.Errorf(task.KindInvalidTree, "Mismatched parent-child relationship: %s -> %s", t.ID, childID)
		}
	}

	if depth := Depth(tasks, t.ID); t.Resolution != depth {
		return task.Errorf(task.KindInvalidTree, "Incorrect resolution for task %s: %d vs %d", t.ID, t.Resolution, depth)
	}
	return nil
}

func count(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}

// Operation names a structural change that ValidateOperation can vet.
type Operation string

const (
	OpAdd    Operation = "add"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ValidateOperation checks whether op may be applied to the task with the
// given id. Deleting a task that still has children is refused.
func ValidateOperation(tasks map[string]task.Task, id string, op Operation) error {
	t, ok := tasks[id]
	if !ok {
		return task.Errorf(task.KindInvalidTree, "Task %s not found", id)
	}

	switch op {
	case OpDelete:
		if len(t.ChildIDs) > 0 {
			return task.Errorf(task.KindInvalidTree, "Cannot delete task with children")
		}
	case OpUpdate:
		if t.ParentID != "" {
			if _, ok := tasks[t.ParentID]; !ok {
				return task.Errorf(task.KindInvalidTree, "Invalid parent reference")
			}
		}
		for _, childID := range t.ChildIDs {
			if _, ok := tasks[childID]; !ok {
				return task.Errorf(task.KindInvalidTree, "Invalid child reference")
			}
		}
	}
	return nil
}
