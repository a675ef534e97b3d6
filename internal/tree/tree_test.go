package tree

import (
	"errors"
	"sort"
	"testing"

	"github.com/imkarma/rcvlf/internal/task"
)

// sampleState builds:
//
//	root
//	├── a
//	│   ├── a1
//	│   └── a2
//	└── b
func sampleState() task.ProjectState {
	state := task.NewProjectState()
	state.RootTaskID = "root"
	state.Tasks["root"] = task.Task{ID: "root", Name: "Root", Status: task.StatusPending, ChildIDs: []string{"a", "b"}}
	state.Tasks["a"] = task.Task{ID: "a", Name: "A", Status: task.StatusPending, ParentID: "root", ChildIDs: []string{"a1", "a2"}, Resolution: 1}
	state.Tasks["b"] = task.Task{ID: "b", Name: "B", Status: task.StatusPending, ParentID: "root", Resolution: 1}
	state.Tasks["a1"] = task.Task{ID: "a1", Name: "A1", Status: task.StatusPending, ParentID: "a", Resolution: 2}
	state.Tasks["a2"] = task.Task{ID: "a2", Name: "A2", Status: task.StatusPending, ParentID: "a", Resolution: 2}
	return state
}

func ids(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPath(t *testing.T) {
	state := sampleState()
	got := ids(Path(state.Tasks, "a2"))
	if !equal(got, []string{"root", "a", "a2"}) {
		t.Errorf("unexpected path %v", got)
	}
	if got := Path(state.Tasks, "missing"); len(got) != 0 {
		t.Errorf("expected empty path for missing id, got %v", ids(got))
	}
}

func TestPath_DanglingParent(t *testing.T) {
	tasks := map[string]task.Task{
		"x": {ID: "x", ParentID: "gone"},
	}
	got := ids(Path(tasks, "x"))
	if !equal(got, []string{"x"}) {
		t.Errorf("expected partial path [x], got %v", got)
	}
}

func TestDepth(t *testing.T) {
	state := sampleState()
	cases := map[string]int{"root": 0, "a": 1, "b": 1, "a1": 2}
	for id, want := range cases {
		if got := Depth(state.Tasks, id); got != want {
			t.Errorf("Depth(%s) = %d, want %d", id, got, want)
		}
	}
}

func TestDescendants(t *testing.T) {
	state := sampleState()
	got := ids(Descendants(state.Tasks, "root"))
	sort.Strings(got)
	if !equal(got, []string{"a", "a1", "a2", "b"}) {
		t.Errorf("unexpected descendants %v", got)
	}
	if got := Descendants(state.Tasks, "b"); len(got) != 0 {
		t.Errorf("expected no descendants for leaf, got %v", ids(got))
	}
}

func TestSiblings(t *testing.T) {
	state := sampleState()
	if got := ids(Siblings(state.Tasks, "a1")); !equal(got, []string{"a2"}) {
		t.Errorf("unexpected siblings %v", got)
	}
	if got := Siblings(state.Tasks, "root"); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil siblings for root, got %v", got)
	}
}

func TestOrdered(t *testing.T) {
	state := sampleState()
	got := ids(Ordered(state.Tasks, "root"))
	if !equal(got, []string{"root", "a", "a1", "a2", "b"}) {
		t.Errorf("unexpected pre-order %v", got)
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(sampleState()); err != nil {
		t.Fatalf("expected valid tree, got %v", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	cases := map[string]func(s *task.ProjectState){
		"missing root": func(s *task.ProjectState) {
			s.RootTaskID = ""
		},
		"missing child": func(s *task.ProjectState) {
			b := s.Tasks["b"]
			b.ChildIDs = []string{"ghost"}
			s.Tasks["b"] = b
		},
		"cycle": func(s *task.ProjectState) {
			a1 := s.Tasks["a1"]
			a1.ChildIDs = []string{"a"}
			s.Tasks["a1"] = a1
		},
		"mismatched parent": func(s *task.ProjectState) {
			a1 := s.Tasks["a1"]
			a1.ParentID = "b"
			s.Tasks["a1"] = a1
		},
		"resolution drift": func(s *task.ProjectState) {
			a2 := s.Tasks["a2"]
			a2.Resolution = 5
			s.Tasks["a2"] = a2
		},
		"unreachable": func(s *task.ProjectState) {
			s.Tasks["orphan"] = task.Task{ID: "orphan"}
		},
		"untracked active": func(s *task.ProjectState) {
			b := s.Tasks["b"]
			b.Status = task.StatusActive
			s.Tasks["b"] = b
		},
	}

	for name, mutate := range cases {
		state := sampleState()
		mutate(&state)
		err := Validate(state)
		if !errors.Is(err, task.ErrInvalidTree) {
			t.Errorf("%s: expected INVALID_TREE, got %v", name, err)
		}
	}
}

func TestValidateOperation(t *testing.T) {
	state := sampleState()

	if err := ValidateOperation(state.Tasks, "missing", OpAdd); !errors.Is(err, task.ErrInvalidTree) {
		t.Errorf("missing task: expected INVALID_TREE, got %v", err)
	}
	if err := ValidateOperation(state.Tasks, "a", OpDelete); err == nil {
		t.Error("expected delete of task with children to fail")
	}
	if err := ValidateOperation(state.Tasks, "b", OpDelete); err != nil {
		t.Errorf("delete leaf: %v", err)
	}
	if err := ValidateOperation(state.Tasks, "a", OpUpdate); err != nil {
		t.Errorf("update: %v", err)
	}

	broken := state.Clone()
	b := broken.Tasks["b"]
	b.ChildIDs = []string{"ghost"}
	broken.Tasks["b"] = b
	if err := ValidateOperation(broken.Tasks, "b", OpUpdate); err == nil {
		t.Error("expected update with dangling child to fail")
	}
}
