// Package store owns the project state. Every mutation validates first,
// builds a complete new snapshot, swaps it in and then notifies subscribers.
package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/imkarma/rcvlf/internal/score"
	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/tree"
)

// Listener is called after every successful state replacement.
type Listener func()

type subscription struct {
	id int
	fn Listener
}

// Store is the single write path for a ProjectState.
//
// Listeners run synchronously on the goroutine that made the change. A
// listener that mutates the store does not get a nested notification round;
// the change is picked up by one more round once the current one finishes.
type Store struct {
	mu        sync.Mutex
	state     task.ProjectState
	listeners []subscription
	nextSubID int

	notifying bool
	pending   bool

	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDFunc replaces the UUID generator used for new tasks.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		state: task.NewProjectState(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current snapshot.
func (s *Store) State() task.ProjectState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// GetTask returns the task with the given id.
func (s *Store) GetTask(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.Get(id)
	if !ok {
		return task.Task{}, false
	}
	return t.Clone(), true
}

// FrontierTasks returns the pending tasks, highest total first.
func (s *Store) FrontierTasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return score.Frontier(s.state)
}

// Restore replaces the whole state with a persisted snapshot. The snapshot
// must pass tree validation; derived scores are recomputed. Subscribers are
// not notified.
func (s *Store) Restore(state task.ProjectState) error {
	if state.Tasks == nil {
		state.Tasks = map[string]task.Task{}
	}
	if len(state.Tasks) > 0 || state.RootTaskID != "" {
		if err := tree.Validate(state); err != nil {
			return err
		}
	} else if state.ActiveTaskID != "" {
		return task.Errorf(task.KindInvalidTree, "Active task %s does not exist", state.ActiveTaskID)
	}

	next := score.RecalculateAll(state)

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	return nil
}

// CreateTask validates params and inserts a new pending task.
func (s *Store) CreateTask(p task.NewTaskParams) (task.Task, error) {
	s.mu.Lock()
	next, created, err := s.createTask(s.state, p)
	if err != nil {
		s.mu.Unlock()
		return task.Task{}, err
	}
	notify := s.swapLocked(next)
	s.mu.Unlock()

	if notify {
		s.drain()
	}
	return created.Clone(), nil
}

// createTask builds the state that results from adding a task to state.
// Focus is evaluated against state before the insert.
func (s *Store) createTask(state task.ProjectState, p task.NewTaskParams) (task.ProjectState, task.Task, error) {
	if err := task.ValidateParams(p); err != nil {
		return state, task.Task{}, err
	}

	var parent task.Task
	if p.ParentID != "" {
		var ok bool
		parent, ok = state.Get(p.ParentID)
		if !ok {
			return state, task.Task{}, task.Errorf(task.KindInvalidTree, "Parent task %s not found", p.ParentID)
		}
	} else if state.RootTaskID != "" {
		return state, task.Task{}, task.Errorf(task.KindInvalidTree, "Project already has a root task; a parent is required")
	}

	id := s.newID()
	if _, exists := state.Tasks[id]; exists || id == "" {
		return state, task.Task{}, task.Errorf(task.KindState, "Generated task id %q is not unique", id)
	}

	t := task.Task{
		ID:         id,
		Name:       p.Name,
		Status:     task.StatusPending,
		ParentID:   p.ParentID,
		ChildIDs:   []string{},
		Confidence: p.Confidence,
		Value:      p.Value,
		Learning:   p.Learning,
		Focus:      task.Focus(state, p.ParentID),
	}
	if p.ParentID != "" {
		t.Resolution = parent.Resolution + 1
	}
	t.TotalScore = task.CalculateScore(t)

	next := state.Clone()
	next.Tasks[id] = t
	if p.ParentID != "" {
		parent = next.Tasks[p.ParentID]
		parent.ChildIDs = append(parent.ChildIDs, id)
		next.Tasks[p.ParentID] = parent
	}
	if next.RootTaskID == "" {
		next.RootTaskID = id
	}
	return next, t, nil
}

// UpdateTaskStatus moves a task to a new status and recomputes focus and
// totals for every task. Unknown ids are ignored.
func (s *Store) UpdateTaskStatus(id string, status task.Status) error {
	s.mu.Lock()
	if _, ok := s.state.Get(id); !ok {
		s.mu.Unlock()
		return nil
	}
	next, err := updateStatus(s.state, id, status)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	notify := s.swapLocked(next)
	s.mu.Unlock()

	if notify {
		s.drain()
	}
	return nil
}

func updateStatus(state task.ProjectState, id string, status task.Status) (task.ProjectState, error) {
	t, ok := state.Get(id)
	if !ok {
		return state, task.Errorf(task.KindInvalidTree, "Task %s not found", id)
	}
	machine, err := task.NewStatusMachine(t)
	if err != nil {
		return state, err
	}
	if err := machine.Transition(status); err != nil {
		return state, err
	}

	next := state.Clone()

	// Only one task can be active. Starting a new one plans the current
	// one, which is only possible once it has been broken down.
	if status == task.StatusActive && next.ActiveTaskID != "" && next.ActiveTaskID != id {
		prev, ok := next.Get(next.ActiveTaskID)
		if ok && prev.Status == task.StatusActive {
			planned, err := task.NewStatusMachine(prev)
			if err == nil {
				err = planned.Transition(task.StatusPlanned)
			}
			if err != nil {
				return state, task.Errorf(task.KindInvalidTransition,
					"Task %s is already active; finish it or add subtasks first", prev.ID)
			}
			prev.Status = planned.Current()
			next.Tasks[prev.ID] = prev
		}
	}

	t = next.Tasks[id]
	t.Status = machine.Current()
	next.Tasks[id] = t

	switch {
	case status == task.StatusActive:
		next.ActiveTaskID = id
	case next.ActiveTaskID == id:
		next.ActiveTaskID = ""
	}

	return score.RecalculateFocus(next), nil
}

// AddSubtasks creates the subtasks under an active parent and then marks
// the parent planned. Either everything is applied or nothing is.
func (s *Store) AddSubtasks(parentID string, subtasks []task.NewTaskParams) ([]task.Task, error) {
	s.mu.Lock()
	parent, ok := s.state.Get(parentID)
	if !ok {
		s.mu.Unlock()
		return nil, task.Errorf(task.KindInvalidTree, "Parent task %s not found", parentID)
	}
	if !task.IsActive(parent.Status) {
		s.mu.Unlock()
		return nil, task.Errorf(task.KindInvalidTransition, "Parent task must be active to add subtasks, it is %s", parent.Status)
	}

	next := s.state
	created := make([]task.Task, 0, len(subtasks))
	for _, p := range subtasks {
		p.ParentID = parentID
		var (
			t   task.Task
			err error
		)
		next, t, err = s.createTask(next, p)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		created = append(created, t)
	}

	next, err := updateStatus(next, parentID, task.StatusPlanned)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	notify := s.swapLocked(next)
	s.mu.Unlock()

	if notify {
		s.drain()
	}

	// Return the subtasks as they stand after the planned recompute.
	out := make([]task.Task, len(created))
	for i, t := range created {
		out[i] = next.Tasks[t.ID].Clone()
	}
	return out, nil
}

// UpdateTaskScore edits confidence, value and learning of one task and then
// runs the same global focus/score recompute as a status change.
func (s *Store) UpdateTaskScore(id string, u score.Update) error {
	s.mu.Lock()
	t, ok := s.state.Get(id)
	if !ok {
		s.mu.Unlock()
		return task.Errorf(task.KindInvalidTree, "Task %s not found", id)
	}
	merged := u.Apply(t)
	if err := task.ValidateComponents(merged.Confidence, merged.Value, merged.Learning); err != nil {
		s.mu.Unlock()
		return err
	}

	next := score.RecalculateFocus(score.UpdateTaskScore(s.state, id, u))
	notify := s.swapLocked(next)
	s.mu.Unlock()

	if notify {
		s.drain()
	}
	return nil
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// swapLocked installs next and reports whether the caller must drain
// notifications. Callers hold s.mu.
func (s *Store) swapLocked(next task.ProjectState) bool {
	s.state = next
	if s.notifying {
		s.pending = true
		return false
	}
	s.notifying = true
	return true
}

// drain runs notification rounds until no listener or other caller has
// changed the state. notifying is cleared in the same critical section that
// sees pending unset, so a concurrent swap either lands in another round or
// starts its own drain.
func (s *Store) drain() {
	finished := false
	defer func() {
		if finished {
			return
		}
		// A listener panicked.
		s.mu.Lock()
		s.notifying = false
		s.pending = false
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		s.pending = false
		listeners := make([]subscription, len(s.listeners))
		copy(listeners, s.listeners)
		s.mu.Unlock()

		for _, sub := range listeners {
			sub.fn()
		}

		s.mu.Lock()
		if !s.pending {
			s.notifying = false
			s.mu.Unlock()
			finished = true
			return
		}
		s.mu.Unlock()
	}
}
