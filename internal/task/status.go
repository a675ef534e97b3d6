package task

import "fmt"

// allowedTransitions maps each status to the statuses it may move to.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusActive, StatusIrrelevant},
	StatusActive:     {StatusPlanned, StatusDone},
	StatusPlanned:    {},
	StatusDone:       {},
	StatusIrrelevant: {},
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusActive,
		StatusPlanned,
		StatusDone,
		StatusIrrelevant,
	}
}

// IsValid returns true if s is a known status.
func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a string into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid task status: %s", s)
	}
	return status, nil
}

// CanTransition is a pure table lookup.
func CanTransition(from, to Status) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses with no way out.
func IsTerminal(s Status) bool {
	return s == StatusPlanned || s == StatusDone || s == StatusIrrelevant
}

// IsActive returns true if s is the active status.
func IsActive(s Status) bool {
	return s == StatusActive
}

// AvailableTransitions returns the table row for s.
func AvailableTransitions(s Status) []Status {
	return append([]Status(nil), allowedTransitions[s]...)
}

// ValidateTransition reports whether t may move to the given status by
// running the move on a fresh status machine. A task can only be marked
// planned once it has subtasks.
func ValidateTransition(t Task, to Status) error {
	m, err := NewStatusMachine(t)
	if err != nil {
		return err
	}
	return m.Transition(to)
}
