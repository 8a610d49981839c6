package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/agentx-labs/groundwork/internal/manifest"
)

// Action performs a step.
type Action func(ctx context.Context, sc *StepContext) error

// Step defines one unit of work.
type Step struct {
	Name      string
	Blocking  bool
	DependsOn []string
	Action    Action
	// Rehydrate rebuilds in-memory state this step produced in an earlier
	// process, before a later pending step that depends on it runs.
	Rehydrate func(ctx context.Context) error
}

// StepContext is handed to a running action.
type StepContext struct {
	Fs       afero.Fs
	Manifest *manifest.Manifest
	Log      *zap.Logger

	step   string
	files  []manifest.FileRecord
	failed []FileFailure
	report *Report
}

// Name returns the running step's name.
func (sc *StepContext) Name() string { return sc.step }

// Record attaches file records to the running step. Records are kept even
// when the step fails.
func (sc *StepContext) Record(files ...manifest.FileRecord) {
	sc.files = append(sc.files, files...)
}

// FailFile reports a file the step left alone without failing the step.
func (sc *StepContext) FailFile(path string, err error) {
	sc.failed = append(sc.failed, FileFailure{Path: path, Error: err.Error()})
}

// Previous returns the record of the last write to path by any run.
func (sc *StepContext) Previous(path string) (manifest.FileRecord, bool) {
	return sc.Manifest.FileRecord(path)
}

// Note attaches a value to the run report under key.
func (sc *StepContext) Note(key string, value interface{}) {
	if sc.report.Notes == nil {
		sc.report.Notes = map[string]interface{}{}
	}
	sc.report.Notes[key] = value
}

func validateSteps(steps []Step) error {
	seen := map[string]bool{}
	for _, s := range steps {
		if s.Name == "" {
			return errors.New("step with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate step %q", s.Name)
		}
		if s.Action == nil {
			return fmt.Errorf("step %q has no action", s.Name)
		}
		for _, d := range s.DependsOn {
			if !seen[d] {
				return fmt.Errorf("step %q depends on %q, which is not an earlier step", s.Name, d)
			}
		}
		seen[s.Name] = true
	}
	return nil
}
