package manifest

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownStep is returned for step names not in the manifest.
	ErrUnknownStep = errors.New("unknown step")
	// ErrInvalidTransition is returned for status changes the state machine forbids.
	ErrInvalidTransition = errors.New("invalid step transition")
)

// Begin stamps the start time of a pending step.
func (m *Manifest) Begin(name string, now time.Time) error {
	s := m.Step(name)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrUnknownStep, name)
	}
	if s.Status != StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, name, s.Status)
	}
	t := now.UTC()
	s.StartedAt = &t
	s.FinishedAt = nil
	return nil
}

// Transition moves a pending step to a terminal status. errMsg is recorded
// for failed steps and ignored otherwise.
func (m *Manifest) Transition(name string, to Status, errMsg string, now time.Time) error {
	s := m.Step(name)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrUnknownStep, name)
	}
	if s.Status != StatusPending || !to.Terminal() {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, name, s.Status, to)
	}
	t := now.UTC()
	s.Status = to
	s.FinishedAt = &t
	s.Error = ""
	if to == StatusFailed {
		s.Error = errMsg
	}
	return nil
}

// Retry moves one failed step back to pending.
func (m *Manifest) Retry(name string) error {
	s := m.Step(name)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrUnknownStep, name)
	}
	if s.Status != StatusFailed {
		return fmt.Errorf("%w: cannot retry %s step %s", ErrInvalidTransition, s.Status, name)
	}
	s.reset()
	m.CompletedAt = nil
	return nil
}

// Reset moves every step back to pending for an update pass. File records
// are kept so the next generation can compare against the previous write.
func (m *Manifest) Reset() {
	for i := range m.Steps {
		m.Steps[i].reset()
	}
	m.CompletedAt = nil
}

// Complete stamps the run completion time.
func (m *Manifest) Complete(now time.Time) {
	t := now.UTC()
	m.CompletedAt = &t
}

func (s *Step) reset() {
	s.Status = StatusPending
	s.Error = ""
	s.StartedAt = nil
	s.FinishedAt = nil
}
