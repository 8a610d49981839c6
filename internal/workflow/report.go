package workflow

import (
	"time"

	"github.com/agentx-labs/groundwork/internal/manifest"
)

// Outcome describes what happened to a step during one run.
type Outcome string

const (
	OutcomeExecuted Outcome = "executed"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
	// OutcomeResumed marks a step already terminal from an earlier run.
	OutcomeResumed Outcome = "resumed"
	// OutcomeNotRun marks a step left pending because the run stopped early.
	OutcomeNotRun Outcome = "not-run"
)

// FileFailure is a file a step could not process while the step itself
// went on.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// StepResult is the per-step entry of a run report.
type StepResult struct {
	Name     string          `json:"name"`
	Outcome  Outcome         `json:"outcome"`
	Status   manifest.Status `json:"status"`
	Blocking bool            `json:"blocking"`
	Error    string          `json:"error,omitempty"`
	Duration time.Duration   `json:"duration_ns,omitempty"`
	Files    int             `json:"files,omitempty"`
	Failed   []FileFailure   `json:"files_failed,omitempty"`
}

// Report summarizes one invocation of the engine.
type Report struct {
	RunID           string                 `json:"run_id"`
	AlreadyFinished bool                   `json:"already_finished,omitempty"`
	Update          bool                   `json:"update,omitempty"`
	Steps           []StepResult           `json:"steps"`
	Written         int                    `json:"files_written"`
	Unchanged       int                    `json:"files_unchanged"`
	Preserved       int                    `json:"regions_preserved"`
	Failed          int                    `json:"files_failed"`
	Notes           map[string]interface{} `json:"notes,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// Count returns the number of steps with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == o {
			n++
		}
	}
	return n
}

func (r *Report) tally(files []manifest.FileRecord, failed []FileFailure) {
	r.Failed += len(failed)
	for _, f := range files {
		if f.Action == "unchanged" {
			r.Unchanged++
		} else {
			r.Written++
		}
		r.Preserved += len(f.Preserved)
	}
}
