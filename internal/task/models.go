package task

// Status is the lifecycle state of a task in the planning tree.
type Status string

const (
	StatusPending    Status = statePending
	StatusActive     Status = stateActive
	StatusPlanned    Status = statePlanned
	StatusDone       Status = stateDone
	StatusIrrelevant Status = stateIrrelevant
)

// Score component domains.
const (
	MinTier  = 1
	MaxTier  = 3
	MaxFocus = 2
)

// Task is a node in the single-rooted planning tree.
//
// ParentID is empty for the root. Resolution, Focus and TotalScore are
// derived by the store and must never be set by callers.
type Task struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Status   Status   `json:"status"`
	ParentID string   `json:"parent_id,omitempty"`
	ChildIDs []string `json:"child_ids"`

	Confidence float64 `json:"confidence"` // 0.0-1.0
	Value      int     `json:"value"`      // core=3, support=2, nice=1
	Learning   int     `json:"learning"`   // multi=3, single=2, minor=1

	Resolution int     `json:"resolution"` // depth in tree
	Focus      int     `json:"focus"`      // position relative to active
	TotalScore float64 `json:"total_score"`
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	c := t
	c.ChildIDs = append([]string(nil), t.ChildIDs...)
	return c
}

// NewTaskParams are the caller-supplied fields of a new task.
type NewTaskParams struct {
	Name       string
	Confidence float64
	Value      int
	Learning   int
	ParentID   string
}

// ProjectState is the aggregate root: every task keyed by id plus the
// active and root pointers. Empty ids mean "none".
type ProjectState struct {
	Tasks        map[string]Task `json:"tasks"`
	ActiveTaskID string          `json:"active_task_id,omitempty"`
	RootTaskID   string          `json:"root_task_id,omitempty"`
}

// NewProjectState returns an empty state.
func NewProjectState() ProjectState {
	return ProjectState{Tasks: map[string]Task{}}
}

// Clone deep-copies the state.
func (s ProjectState) Clone() ProjectState {
	c := ProjectState{
		Tasks:        make(map[string]Task, len(s.Tasks)),
		ActiveTaskID: s.ActiveTaskID,
		RootTaskID:   s.RootTaskID,
	}
	for id, t := range s.Tasks {
		c.Tasks[id] = t.Clone()
	}
	return c
}

// Get returns the task with the given id.
func (s ProjectState) Get(id string) (Task, bool) {
	if id == "" {
		return Task{}, false
	}
	t, ok := s.Tasks[id]
	return t, ok
}

// CalculateScore returns R + C×V + L + F. Fields are not validated.
func CalculateScore(t Task) float64 {
	return float64(t.Resolution) + t.Confidence*float64(t.Value) + float64(t.Learning) + float64(t.Focus)
}

// ValidateTask reports whether the score components are inside their domains.
// Name and tree consistency are checked elsewhere.
func ValidateTask(t Task) bool {
	return t.Confidence >= 0 && t.Confidence <= 1 &&
		validTier(t.Value) &&
		validTier(t.Learning) &&
		t.Focus >= 0 && t.Focus <= MaxFocus
}

func validTier(n int) bool {
	return n >= MinTier && n <= MaxTier
}

// Focus returns the proximity bonus for a task with the given parent:
// 2 for a child of the active task, 1 for a sibling of it, 0 otherwise
// (and 0 for everything when nothing is active).
func Focus(state ProjectState, parentID string) int {
	active, ok := state.Get(state.ActiveTaskID)
	if !ok {
		return 0
	}
	switch {
	case parentID == active.ID:
		return 2
	case parentID == active.ParentID:
		return 1
	default:
		return 0
	}
}

// InFrontier reports whether t is eligible to be started.
func InFrontier(t Task) bool {
	return t.Status == StatusPending
}
