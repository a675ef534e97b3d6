package task

import "strings"

// ValidateParams checks the caller-supplied fields of a new task.
func ValidateParams(p NewTaskParams) error {
	if strings.TrimSpace(p.Name) == "" {
		return Errorf(KindInvalidTask, "Task name is required")
	}
	return ValidateComponents(p.Confidence, p.Value, p.Learning)
}

// ValidateComponents checks the editable score components.
func ValidateComponents(confidence float64, value, learning int) error {
	if !(confidence >= 0 && confidence <= 1) {
		return Errorf(KindInvalidScore, "Confidence must be between 0 and 1")
	}
	if !validTier(value) {
		return Errorf(KindInvalidScore, "Value must be 1, 2, or 3")
	}
	if !validTier(learning) {
		return Errorf(KindInvalidScore, "Learning must be 1, 2, or 3")
	}
	return nil
}
