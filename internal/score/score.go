// Package score recomputes and inspects RCVLF scores over a caller-supplied
// snapshot. It owns no state and never modifies the snapshot it is given.
package score

import (
	"math"
	"slices"

	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/tree"
)

// DefaultReadyConfidence is the confidence a task needs to count as ready.
const DefaultReadyConfidence = 0.7

// Update carries the editable score fields; nil fields are left unchanged.
type Update struct {
	Confidence *float64
	Value      *int
	Learning   *int
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Confidence == nil && u.Value == nil && u.Learning == nil
}

// Apply merges u into t without recomputing anything.
func (u Update) Apply(t task.Task) task.Task {
	if u.Confidence != nil {
		t.Confidence = *u.Confidence
	}
	if u.Value != nil {
		t.Value = *u.Value
	}
	if u.Learning != nil {
		t.Learning = *u.Learning
	}
	return t
}

// UpdateTaskScore merges the update into one task and recomputes its total.
// Resolution and focus are left alone. Unknown ids return state unchanged.
func UpdateTaskScore(state task.ProjectState, id string, u Update) task.ProjectState {
	t, ok := state.Get(id)
	if !ok {
		return state
	}

	updated := u.Apply(t.Clone())
	updated.TotalScore = task.CalculateScore(updated)

	next := state.Clone()
	next.Tasks[id] = updated
	return next
}

// RecalculateAll recomputes resolution from tree depth, focus from the active
// task and then every total. Use it after bulk structural changes.
func RecalculateAll(state task.ProjectState) task.ProjectState {
	next := state.Clone()
	for id, t := range next.Tasks {
		t.Resolution = tree.Depth(next.Tasks, id)
		next.Tasks[id] = t
	}
	return RecalculateFocus(next)
}

// RecalculateFocus recomputes focus and total for every task against the
// state's active task.
func RecalculateFocus(state task.ProjectState) task.ProjectState {
	next := state.Clone()
	for id, t := range next.Tasks {
		t.Focus = task.Focus(next, t.ParentID)
		t.TotalScore = task.CalculateScore(t)
		next.Tasks[id] = t
	}
	return next
}

// Frontier returns the pending tasks, highest total first. Ties keep tree
// order so the listing is stable between runs.
func Frontier(state task.ProjectState) []task.Task {
	var ordered []task.Task
	if state.RootTaskID != "" {
		ordered = tree.Ordered(state.Tasks, state.RootTaskID)
	}
	if len(ordered) != len(state.Tasks) {
		// Not a well-formed tree; fall back to id order.
		ordered = ordered[:0]
		keys := make([]string, 0, len(state.Tasks))
		for id := range state.Tasks {
			keys = append(keys, id)
		}
		slices.Sort(keys)
		for _, id := range keys {
			ordered = append(ordered, state.Tasks[id])
		}
	}

	frontier := make([]task.Task, 0, len(ordered))
	for _, t := range ordered {
		if task.InFrontier(t) {
			frontier = append(frontier, t.Clone())
		}
	}
	slices.SortStableFunc(frontier, func(a, b task.Task) int {
		switch {
		case a.TotalScore > b.TotalScore:
			return -1
		case a.TotalScore < b.TotalScore:
			return 1
		default:
			return 0
		}
	})
	return frontier
}

// ValidateScores checks every score component, derived ones included.
func ValidateScores(t task.Task) error {
	if err := task.ValidateComponents(t.Confidence, t.Value, t.Learning); err != nil {
		return err
	}
	if t.Focus < 0 || t.Focus > task.MaxFocus {
		return task.Errorf(task.KindInvalidScore, "Focus must be 0, 1, or 2")
	}
	if t.Resolution < 0 {
		return task.Errorf(task.KindInvalidScore, "Resolution cannot be negative")
	}
	return nil
}

// Breakdown is a display-ready decomposition of a task's total.
type Breakdown struct {
	Resolution      int
	ConfidenceValue float64 // C×V rounded to one decimal
	Learning        int
	Focus           int
	Total           float64
}

// BreakdownOf decomposes t's score.
func BreakdownOf(t task.Task) Breakdown {
	return Breakdown{
		Resolution:      t.Resolution,
		ConfidenceValue: math.Round(t.Confidence*float64(t.Value)*10) / 10,
		Learning:        t.Learning,
		Focus:           t.Focus,
		Total:           t.TotalScore,
	}
}

// IsReady reports whether t's confidence meets the threshold.
func IsReady(t task.Task, minConfidence float64) bool {
	return t.Confidence >= minConfidence
}
