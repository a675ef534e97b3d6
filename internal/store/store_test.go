package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/imkarma/rcvlf/internal/score"
	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/tree"
)

// testStore returns a store with predictable ids: t1, t2, ...
func testStore(t *testing.T) *Store {
	t.Helper()
	n := 0
	return New(WithIDFunc(func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}))
}

func params(name, parentID string) task.NewTaskParams {
	return task.NewTaskParams{Name: name, Confidence: 0.7, Value: 2, Learning: 1, ParentID: parentID}
}

func mustCreate(t *testing.T, s *Store, p task.NewTaskParams) task.Task {
	t.Helper()
	created, err := s.CreateTask(p)
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", p.Name, err)
	}
	return created
}

func mustStatus(t *testing.T, s *Store, id string, status task.Status) {
	t.Helper()
	if err := s.UpdateTaskStatus(id, status); err != nil {
		t.Fatalf("UpdateTaskStatus(%s, %s): %v", id, status, err)
	}
}

// checkInvariants asserts the structural and derived-field invariants.
func checkInvariants(t *testing.T, s *Store) {
	t.Helper()
	state := s.State()
	if err := tree.Validate(state); err != nil {
		t.Fatalf("tree invalid: %v", err)
	}
	active := 0
	for id, tk := range state.Tasks {
		if tk.TotalScore != task.CalculateScore(tk) {
			t.Errorf("%s: stale total %v", id, tk.TotalScore)
		}
		if tk.Focus != task.Focus(state, tk.ParentID) {
			t.Errorf("%s: stale focus %d", id, tk.Focus)
		}
		if tk.Status == task.StatusActive {
			active++
		}
	}
	if active > 1 {
		t.Errorf("expected at most one active task, got %d", active)
	}
}

func TestCreateTask_Root(t *testing.T) {
	s := testStore(t)

	root := mustCreate(t, s, task.NewTaskParams{Name: "Build Web App", Confidence: 1.0, Value: 3, Learning: 3})
	state := s.State()

	if state.RootTaskID != root.ID {
		t.Fatalf("expected root id %s, got %q", root.ID, state.RootTaskID)
	}
	got := state.Tasks[root.ID]
	if got.Name != "Build Web App" || got.Status != task.StatusPending {
		t.Errorf("unexpected root %+v", got)
	}
	// No active task yet, so focus is 0: 0 + 1.0*3 + 3 + 0.
	if got.TotalScore != 6.0 {
		t.Errorf("expected total 6.0, got %v", got.TotalScore)
	}
}

func TestCreateTask_RootIsSticky(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))
	mustCreate(t, s, params("Child", root.ID))
	mustCreate(t, s, params("Other", root.ID))

	if s.State().RootTaskID != root.ID {
		t.Error("root id changed after later creations")
	}
}

func TestCreateTask_SecondRootRejected(t *testing.T) {
	s := testStore(t)
	mustCreate(t, s, params("Root", ""))

	_, err := s.CreateTask(params("Another root", ""))
	if !errors.Is(err, task.ErrInvalidTree) {
		t.Fatalf("expected INVALID_TREE, got %v", err)
	}
	if len(s.State().Tasks) != 1 {
		t.Error("rejected task was inserted")
	}
}

func TestCreateTask_Invalid(t *testing.T) {
	s := testStore(t)
	calls := 0
	s.Subscribe(func() { calls++ })

	_, err := s.CreateTask(task.NewTaskParams{Name: "", Confidence: 1, Value: 3, Learning: 3})
	if !errors.Is(err, task.ErrInvalidTask) {
		t.Errorf("empty name: expected INVALID_TASK, got %v", err)
	}
	_, err = s.CreateTask(task.NewTaskParams{Name: "Task", Confidence: 1.5, Value: 3, Learning: 3})
	if !errors.Is(err, task.ErrInvalidScore) {
		t.Errorf("confidence 1.5: expected INVALID_SCORE, got %v", err)
	}
	_, err = s.CreateTask(task.NewTaskParams{Name: "Task", Confidence: 1, Value: 3, Learning: 3, ParentID: "ghost"})
	if !errors.Is(err, task.ErrInvalidTree) {
		t.Errorf("missing parent: expected INVALID_TREE, got %v", err)
	}

	if calls != 0 {
		t.Errorf("expected no notifications on failure, got %d", calls)
	}
	if len(s.State().Tasks) != 0 || s.State().RootTaskID != "" {
		t.Error("failed creations changed state")
	}
}

func TestCreateTask_ChildOfActive(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, task.NewTaskParams{Name: "Root", Confidence: 1, Value: 3, Learning: 3})
	mustStatus(t, s, root.ID, task.StatusActive)

	child := mustCreate(t, s, params("Subtask", root.ID))
	state := s.State()

	if got := state.Tasks[root.ID].ChildIDs; len(got) != 1 || got[0] != child.ID {
		t.Errorf("expected root children [%s], got %v", child.ID, got)
	}
	c := state.Tasks[child.ID]
	if c.ParentID != root.ID {
		t.Errorf("expected parent %s, got %s", root.ID, c.ParentID)
	}
	if c.Resolution != 1 {
		t.Errorf("expected resolution 1, got %d", c.Resolution)
	}
	if c.Focus != 2 {
		t.Errorf("expected focus 2 for child of active, got %d", c.Focus)
	}
	checkInvariants(t, s)
}

func TestCreateTask_ChildOrder(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))
	a := mustCreate(t, s, params("A", root.ID))
	b := mustCreate(t, s, params("B", root.ID))
	c := mustCreate(t, s, params("C", root.ID))

	got := s.State().Tasks[root.ID].ChildIDs
	want := []string{a.ID, b.ID, c.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected children %v, got %v", want, got)
		}
	}
}

func TestUpdateTaskStatus_Valid(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))

	mustStatus(t, s, root.ID, task.StatusActive)
	if s.State().ActiveTaskID != root.ID {
		t.Fatalf("expected active %s, got %q", root.ID, s.State().ActiveTaskID)
	}

	mustCreate(t, s, params("Subtask", root.ID))
	mustStatus(t, s, root.ID, task.StatusPlanned)

	state := s.State()
	if state.Tasks[root.ID].Status != task.StatusPlanned {
		t.Errorf("expected planned, got %s", state.Tasks[root.ID].Status)
	}
	if state.ActiveTaskID != "" {
		t.Errorf("expected no active task, got %q", state.ActiveTaskID)
	}
	checkInvariants(t, s)
}

func TestUpdateTaskStatus_Invalid(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))

	for _, to := range []task.Status{task.StatusPlanned, task.StatusDone} {
		err := s.UpdateTaskStatus(root.ID, to)
		if !errors.Is(err, task.ErrInvalidTransition) {
			t.Errorf("pending -> %s: expected INVALID_TRANSITION, got %v", to, err)
		}
	}

	mustStatus(t, s, root.ID, task.StatusActive)
	err := s.UpdateTaskStatus(root.ID, task.StatusPlanned)
	if !errors.Is(err, task.ErrInvalidTransition) {
		t.Errorf("planned without children: expected INVALID_TRANSITION, got %v", err)
	}
	if s.State().Tasks[root.ID].Status != task.StatusActive {
		t.Error("failed transition changed status")
	}
}

func TestUpdateTaskStatus_UnknownIDIsNoop(t *testing.T) {
	s := testStore(t)
	mustCreate(t, s, params("Root", ""))
	calls := 0
	s.Subscribe(func() { calls++ })

	if err := s.UpdateTaskStatus("ghost", task.StatusActive); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no notification, got %d", calls)
	}
}

func TestUpdateTaskStatus_SingleActive(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))
	mustStatus(t, s, root.ID, task.StatusActive)
	a := mustCreate(t, s, params("A", root.ID))

	mustStatus(t, s, a.ID, task.StatusActive)
	state := s.State()
	if state.ActiveTaskID != a.ID {
		t.Errorf("expected active %s, got %s", a.ID, state.ActiveTaskID)
	}
	checkInvariants(t, s)
}

func TestUpdateTaskStatus_FocusShift(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, task.NewTaskParams{Name: "Root", Confidence: 1, Value: 3, Learning: 3})
	mustStatus(t, s, root.ID, task.StatusActive)
	child1 := mustCreate(t, s, params("Child 1", root.ID))
	child2 := mustCreate(t, s, params("Child 2", root.ID))

	state := s.State()
	if state.Tasks[child1.ID].Focus != 2 || state.Tasks[child2.ID].Focus != 2 {
		t.Fatalf("expected both children at focus 2")
	}

	mustStatus(t, s, child1.ID, task.StatusActive)
	state = s.State()
	if state.ActiveTaskID != child1.ID {
		t.Fatalf("expected active %s, got %s", child1.ID, state.ActiveTaskID)
	}
	if got := state.Tasks[child2.ID].Focus; got != 1 {
		t.Errorf("expected child2 focus to flip from 2 to 1, got %d", got)
	}
	if got := state.Tasks[child2.ID].TotalScore; got != task.CalculateScore(state.Tasks[child2.ID]) {
		t.Errorf("stale total %v", got)
	}
	// The previously active root has children, so it was planned.
	if got := state.Tasks[root.ID].Status; got != task.StatusPlanned {
		t.Errorf("expected root planned, got %s", got)
	}
	checkInvariants(t, s)
}

func TestUpdateTaskStatus_ActiveLeafBlocksActivation(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))
	mustStatus(t, s, root.ID, task.StatusActive)
	child1 := mustCreate(t, s, params("Child 1", root.ID))
	child2 := mustCreate(t, s, params("Child 2", root.ID))
	mustStatus(t, s, child1.ID, task.StatusActive)

	err := s.UpdateTaskStatus(child2.ID, task.StatusActive)
	if !errors.Is(err, task.ErrInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
	state := s.State()
	if state.ActiveTaskID != child1.ID || state.Tasks[child2.ID].Status != task.StatusPending {
		t.Error("rejected activation changed state")
	}

	mustStatus(t, s, child1.ID, task.StatusDone)
	mustStatus(t, s, child2.ID, task.StatusActive)
	checkInvariants(t, s)
}

func TestAddSubtasks(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))
	mustStatus(t, s, root.ID, task.StatusActive)

	calls := 0
	s.Subscribe(func() { calls++ })

	created, err := s.AddSubtasks(root.ID, []task.NewTaskParams{
		params("A", ""),
		params("B", ""),
	})
	if err != nil {
		t.Fatalf("AddSubtasks: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(created))
	}
	if calls != 1 {
		t.Errorf("expected a single notification, got %d", calls)
	}

	state := s.State()
	if state.Tasks[root.ID].Status != task.StatusPlanned {
		t.Errorf("expected parent planned, got %s", state.Tasks[root.ID].Status)
	}
	if state.ActiveTaskID != "" {
		t.Errorf("expected active cleared, got %q", state.ActiveTaskID)
	}
	for _, c := range created {
		if c.ParentID != root.ID || c.Resolution != 1 || c.Focus != 0 {
			t.Errorf("unexpected subtask %+v", c)
		}
	}
	checkInvariants(t, s)
}

func TestAddSubtasks_Failures(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))

	notified := 0
	unsubscribe := s.Subscribe(func() { notified++ })

	_, err := s.AddSubtasks(root.ID, []task.NewTaskParams{params("A", "")})
	if !errors.Is(err, task.ErrInvalidTransition) {
		t.Errorf("pending parent: expected INVALID_TRANSITION, got %v", err)
	}
	_, err = s.AddSubtasks("ghost", []task.NewTaskParams{params("A", "")})
	if err == nil {
		t.Error("missing parent: expected error")
	}

	if notified != 0 {
		t.Errorf("failed AddSubtasks notified %d times", notified)
	}

	unsubscribe()
	mustStatus(t, s, root.ID, task.StatusActive)
	s.Subscribe(func() { notified++ })

	_, err = s.AddSubtasks(root.ID, []task.NewTaskParams{params("A", ""), {Name: "", Confidence: 1, Value: 1, Learning: 1}})
	if !errors.Is(err, task.ErrInvalidTask) {
		t.Errorf("invalid subtask: expected INVALID_TASK, got %v", err)
	}
	_, err = s.AddSubtasks(root.ID, nil)
	if !errors.Is(err, task.ErrInvalidTransition) {
		t.Errorf("no subtasks: expected INVALID_TRANSITION, got %v", err)
	}

	if notified != 0 {
		t.Errorf("failed AddSubtasks notified %d times", notified)
	}

	state := s.State()
	if len(state.Tasks) != 1 {
		t.Errorf("expected no subtasks created, got %d tasks", len(state.Tasks))
	}
	if state.Tasks[root.ID].Status != task.StatusActive {
		t.Errorf("expected parent still active, got %s", state.Tasks[root.ID].Status)
	}
}

func TestFrontierTasks(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))
	mustStatus(t, s, root.ID, task.StatusActive)
	mustCreate(t, s, task.NewTaskParams{Name: "Low", Confidence: 0.1, Value: 1, Learning: 1, ParentID: root.ID})
	high := mustCreate(t, s, task.NewTaskParams{Name: "High", Confidence: 1, Value: 3, Learning: 3, ParentID: root.ID})
	drop := mustCreate(t, s, params("Dropped", root.ID))
	mustStatus(t, s, drop.ID, task.StatusIrrelevant)

	frontier := s.FrontierTasks()
	if len(frontier) != 2 {
		t.Fatalf("expected 2 frontier tasks, got %d", len(frontier))
	}
	if frontier[0].ID != high.ID {
		t.Errorf("expected %s first, got %s", high.ID, frontier[0].ID)
	}
	for _, tk := range frontier {
		if tk.Status != task.StatusPending {
			t.Errorf("non-pending task %s in frontier", tk.ID)
		}
	}
}

func TestUpdateTaskScore(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))
	v := 3
	if err := s.UpdateTaskScore(root.ID, score.Update{Value: &v}); err != nil {
		t.Fatalf("UpdateTaskScore: %v", err)
	}
	got, _ := s.GetTask(root.ID)
	if got.Value != 3 || got.TotalScore != task.CalculateScore(got) {
		t.Errorf("unexpected task %+v", got)
	}

	bad := 4
	if err := s.UpdateTaskScore(root.ID, score.Update{Learning: &bad}); !errors.Is(err, task.ErrInvalidScore) {
		t.Errorf("expected INVALID_SCORE, got %v", err)
	}
	if err := s.UpdateTaskScore("ghost", score.Update{Value: &v}); !errors.Is(err, task.ErrInvalidTree) {
		t.Errorf("expected INVALID_TREE, got %v", err)
	}
}

func TestSubscribe(t *testing.T) {
	s := testStore(t)
	var a, b int
	unsubA := s.Subscribe(func() { a++ })
	s.Subscribe(func() { b++ })

	root := mustCreate(t, s, params("Root", ""))
	unsubA()
	mustStatus(t, s, root.ID, task.StatusActive)

	if a != 1 {
		t.Errorf("expected 1 call before unsubscribe, got %d", a)
	}
	if b != 2 {
		t.Errorf("expected 2 calls, got %d", b)
	}
	unsubA() // second call is harmless
}

func TestSubscribe_ListenerSeesNewState(t *testing.T) {
	s := testStore(t)
	var seen int
	s.Subscribe(func() { seen = len(s.State().Tasks) })

	mustCreate(t, s, params("Root", ""))
	if seen != 1 {
		t.Errorf("listener saw %d tasks, want 1", seen)
	}
}

func TestSubscribe_ReentrantMutation(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))

	rounds := 0
	var depth, maxDepth int
	s.Subscribe(func() {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		rounds++
		if rounds == 1 {
			// Activating from inside a listener triggers another round.
			_ = s.UpdateTaskStatus(root.ID, task.StatusActive)
		}
		depth--
	})

	mustCreate(t, s, params("Child", root.ID))

	if rounds != 2 {
		t.Errorf("expected 2 notification rounds, got %d", rounds)
	}
	if maxDepth != 1 {
		t.Errorf("expected no nested notification, max depth %d", maxDepth)
	}
	if s.State().ActiveTaskID != root.ID {
		t.Error("mutation from listener was lost")
	}
}

func TestGetTask_ReturnsCopy(t *testing.T) {
	s := testStore(t)
	root := mustCreate(t, s, params("Root", ""))
	mustStatus(t, s, root.ID, task.StatusActive)
	mustCreate(t, s, params("Child", root.ID))

	got, ok := s.GetTask(root.ID)
	if !ok {
		t.Fatal("expected root to exist")
	}
	got.ChildIDs[0] = "mutated"
	if again, _ := s.GetTask(root.ID); again.ChildIDs[0] == "mutated" {
		t.Error("GetTask leaked internal state")
	}
	if _, ok := s.GetTask("ghost"); ok {
		t.Error("expected missing task")
	}
}

func TestRestore(t *testing.T) {
	src := testStore(t)
	root := mustCreate(t, src, params("Root", ""))
	mustStatus(t, src, root.ID, task.StatusActive)
	mustCreate(t, src, params("Child", root.ID))

	dst := New()
	calls := 0
	dst.Subscribe(func() { calls++ })
	if err := dst.Restore(src.State()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if calls != 0 {
		t.Errorf("Restore must not notify, got %d", calls)
	}
	if dst.State().ActiveTaskID != root.ID || len(dst.State().Tasks) != 2 {
		t.Errorf("unexpected restored state %+v", dst.State())
	}
	checkInvariants(t, dst)

	broken := src.State()
	r := broken.Tasks[root.ID]
	r.ChildIDs = append(r.ChildIDs, "ghost")
	broken.Tasks[root.ID] = r
	if err := dst.Restore(broken); !errors.Is(err, task.ErrInvalidTree) {
		t.Errorf("expected INVALID_TREE, got %v", err)
	}
	if len(dst.State().Tasks) != 2 {
		t.Error("failed restore changed state")
	}

	if err := New().Restore(task.ProjectState{}); err != nil {
		t.Errorf("restoring empty state: %v", err)
	}
}

func TestSubscribe_ConcurrentWritersAreAllAnnounced(t *testing.T) {
	for iter := 0; iter < 200; iter++ {
		s := New()
		root := mustCreate(t, s, params("Root", ""))

		var mu sync.Mutex
		seen := 0
		s.Subscribe(func() {
			n := len(s.State().Tasks)
			mu.Lock()
			if n > seen {
				seen = n
			}
			mu.Unlock()
		})

		const writers, perWriter = 4, 5
		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					if _, err := s.CreateTask(params(fmt.Sprintf("w%d-%d", w, i), root.ID)); err != nil {
						t.Errorf("CreateTask: %v", err)
					}
				}
			}(w)
		}
		wg.Wait()

		want := 1 + writers*perWriter
		mu.Lock()
		got := seen
		mu.Unlock()
		if got != want {
			t.Fatalf("iteration %d: last announced state had %d tasks, want %d", iter, got, want)
		}
		s.mu.Lock()
		stuck := s.notifying || s.pending
		s.mu.Unlock()
		if stuck {
			t.Fatalf("iteration %d: notification flags left set", iter)
		}
	}
}
