package task

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusPending, StatusActive},
		{StatusPending, StatusIrrelevant},
		{StatusActive, StatusPlanned},
		{StatusActive, StatusDone},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Errorf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}

	denied := [][2]Status{
		{StatusPending, StatusPlanned},
		{StatusPending, StatusDone},
		{StatusActive, StatusPending},
		{StatusDone, StatusActive},
		{StatusPlanned, StatusDone},
		{StatusIrrelevant, StatusPending},
	}
	for _, tr := range denied {
		if CanTransition(tr[0], tr[1]) {
			t.Errorf("expected %s -> %s to be denied", tr[0], tr[1])
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range AllStatuses() {
		want := len(AvailableTransitions(s)) == 0
		if IsTerminal(s) != want {
			t.Errorf("%s: IsTerminal=%v, want %v", s, IsTerminal(s), want)
		}
	}
}

func TestAvailableTransitions_ReturnsCopy(t *testing.T) {
	got := AvailableTransitions(StatusPending)
	got[0] = StatusDone
	if AvailableTransitions(StatusPending)[0] != StatusActive {
		t.Error("table row was modified through returned slice")
	}
}

func TestValidateTransition(t *testing.T) {
	pending := Task{ID: "t", Status: StatusPending}
	if err := ValidateTransition(pending, StatusPlanned); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending -> planned: expected invalid transition, got %v", err)
	}
	if err := ValidateTransition(pending, StatusDone); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending -> done: expected invalid transition, got %v", err)
	}

	active := Task{ID: "t", Status: StatusActive}
	err := ValidateTransition(active, StatusPlanned)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("planned without children: expected invalid transition, got %v", err)
	}
	if err.Error() != "Cannot mark as planned without subtasks" {
		t.Errorf("unexpected message %q", err.Error())
	}

	active.ChildIDs = []string{"c"}
	if err := ValidateTransition(active, StatusPlanned); err != nil {
		t.Errorf("planned with children: %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("irrelevant"); err != nil || s != StatusIrrelevant {
		t.Errorf("ParseStatus(irrelevant) = %v, %v", s, err)
	}
	if _, err := ParseStatus("blocked"); err == nil {
		t.Error("expected error for unknown status")
	}
}
