package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrSkip is returned by a step action that decided there is nothing to do.
	ErrSkip = errors.New("step skipped")
	// ErrStepFailed is the sentinel wrapped by every StepError.
	ErrStepFailed = errors.New("step failed")
	// ErrNoManifest is returned by Resume when the target has no manifest.
	ErrNoManifest = errors.New("no manifest to resume")
)

// StepError reports a failed step. Path names the file involved, if any.
type StepError struct {
	Step     string
	Path     string
	Blocking bool
	Err      error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("step %s failed", e.Step)
	if e.Path != "" {
		msg += " on " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStepFailed}
	}
	return []error{ErrStepFailed, e.Err}
}

// Skipf returns an ErrSkip carrying a reason.
func Skipf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSkip, fmt.Sprintf(format, args...))
}
