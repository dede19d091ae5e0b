package workflow

import (
	"face-restore-studio/internal/api"
	"face-restore-studio/internal/intake"
	"face-restore-studio/internal/preview"
)

// Phase is the controller's discrete workflow state.
type Phase int

const (
	Idle Phase = iota
	Processing
	Result
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Result:
		return "result"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of the workflow handed to presenters.
//
// Preview is set exactly when File is set. Result is set only in the Result
// phase and ErrorMessage only in the Error phase.
type State struct {
	Phase        Phase
	File         *intake.File
	Preview      preview.Handle
	Result       *api.EnhancementResult
	ErrorMessage string
}

// HasFile reports whether a file is currently selected.
func (s State) HasFile() bool {
	return s.File != nil
}

// AcceptsIntake reports whether the file intake surface should be enabled.
func (s State) AcceptsIntake() bool {
	return s.Phase != Processing
}
