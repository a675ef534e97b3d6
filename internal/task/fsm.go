package task

import "github.com/felixgeelhaar/statekit"

// State ids of the status machine. The Status constants are defined from
// them.
const (
	statePending    = "pending"
	stateActive     = "active"
	statePlanned    = "planned"
	stateDone       = "done"
	stateIrrelevant = "irrelevant"
)

// machineContext is the data the guards see.
type machineContext struct {
	TaskID   string
	Children int
}

// StatusMachine drives a single task through its lifecycle. Events are named
// after the status they lead to.
type StatusMachine struct {
	interpreter *statekit.Interpreter[machineContext]

	// guardBlocked is set when the last event was refused by a guard
	// rather than by a missing transition.
	guardBlocked bool
}

// NewStatusMachine builds a machine positioned at the task's current status.
func NewStatusMachine(t Task) (*StatusMachine, error) {
	if !t.Status.IsValid() {
		return nil, Errorf(KindState, "unknown status %q for task %s", t.Status, t.ID)
	}

	m := &StatusMachine{}
	builder := statekit.NewMachine[machineContext]("task-status").
		WithInitial(statekit.StateID(t.Status)).
		WithContext(machineContext{
			TaskID:   t.ID,
			Children: len(t.ChildIDs),
		}).
		WithGuard("hasSubtasks", func(ctx machineContext, e statekit.Event) bool {
			ok := ctx.Children > 0
			if !ok {
				m.guardBlocked = true
			}
			return ok
		})

	builder.State(statePending).
		On(stateActive).Target(stateActive).
		On(stateIrrelevant).Target(stateIrrelevant).
		Done()

	builder.State(stateActive).
		On(statePlanned).Target(statePlanned).Guard("hasSubtasks").
		On(stateDone).Target(stateDone).
		Done()

	builder.State(statePlanned).Done()
	builder.State(stateDone).Done()
	builder.State(stateIrrelevant).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, Errorf(KindState, "build status machine: %v", err)
	}

	m.interpreter = statekit.NewInterpreter(machine)
	m.interpreter.Start()
	return m, nil
}

// Transition moves the machine to the given status. It is the single
// authority on lifecycle moves: the transition table and the planned guard
// are both enforced here.
func (m *StatusMachine) Transition(to Status) error {
	before := m.Current()
	m.guardBlocked = false
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(to)})
	if before != to && m.Current() == to {
		return nil
	}
	if m.guardBlocked {
		return Errorf(KindInvalidTransition, "Cannot mark as planned without subtasks")
	}
	return Errorf(KindInvalidTransition, "Cannot transition from %s to %s", before, to)
}

// Current returns the machine's status.
func (m *StatusMachine) Current() Status {
	return Status(m.interpreter.State().Value)
}
