// Package tree provides read-only traversal and consistency checks over the
// id-indexed task mapping. Nothing here mutates its input.
package tree

import (
	"github.com/imkarma/rcvlf/internal/task"
)

// Path returns the tasks from the root down to id, root first. A dangling
// parent reference ends the walk early. Walks that revisit a task stop there
// so a corrupted (cyclic) mapping cannot loop forever.
func Path(tasks map[string]task.Task, id string) []task.Task {
	var path []task.Task
	seen := make(map[string]bool)

	current, ok := tasks[id]
	for ok && !seen[current.ID] {
		seen[current.ID] = true
		path = append(path, current)
		if current.ParentID == "" {
			break
		}
		current, ok = tasks[current.ParentID]
	}

	// Reverse into root-first order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Depth returns len(Path)-1; the root is at depth 0.
func Depth(tasks map[string]task.Task, id string) int {
	return len(Path(tasks, id)) - 1
}

// Descendants returns every task reachable below id. Order is unspecified.
func Descendants(tasks map[string]task.Task, id string) []task.Task {
	var result []task.Task
	start, ok := tasks[id]
	if !ok {
		return nil
	}

	seen := map[string]bool{id: true}
	stack := append([]string(nil), start.ChildIDs...)
	for len(stack) > 0 {
		currentID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[currentID] {
			continue
		}
		seen[currentID] = true

		current, ok := tasks[currentID]
		if !ok {
			continue
		}
		result = append(result, current)
		stack = append(stack, current.ChildIDs...)
	}
	return result
}

// Siblings returns the other children of id's parent in child order. The root
// and tasks with an unresolvable parent have no siblings.
func Siblings(tasks map[string]task.Task, id string) []task.Task {
	t, ok := tasks[id]
	if !ok || t.ParentID == "" {
		return []task.Task{}
	}
	parent, ok := tasks[t.ParentID]
	if !ok {
		return []task.Task{}
	}

	siblings := make([]task.Task, 0, len(parent.ChildIDs))
	for _, childID := range parent.ChildIDs {
		if childID == id {
			continue
		}
		if child, ok := tasks[childID]; ok {
			siblings = append(siblings, child)
		}
	}
	return siblings
}

// Ordered returns a pre-order traversal from rootID: each task, then the
// subtree of each child in ChildIDs order.
func Ordered(tasks map[string]task.Task, rootID string) []task.Task {
	var result []task.Task
	seen := make(map[string]bool)

	var traverse func(id string)
	traverse = func(id string) {
		t, ok := tasks[id]
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		result = append(result, t)
		for _, childID := range t.ChildIDs {
			traverse(childID)
		}
	}

	traverse(rootID)
	return result
}
