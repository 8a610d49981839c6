package verify

import (
	"encoding/json"
	"fmt"
)

// Level is the severity of a finding. Levels are ordered.
type Level int

const (
	Passed Level = iota
	Warning
	Failed
)

var levelNames = [...]string{"passed", "warning", "failed"}

func (l Level) String() string {
	if l < Passed || l > Failed {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// ExitCode maps a level to the status command's exit code.
func (l Level) ExitCode() int {
	return int(l)
}

// Check names a verification check.
type Check string

const (
	CheckFiles        Check = "files"
	CheckPlaceholders Check = "placeholders"
	CheckConsistency  Check = "consistency"
)

// Finding is one report entry. It is never returned as an error.
type Finding struct {
	Check   Check  `json:"check"`
	Level   Level  `json:"level"`
	Step    string `json:"step,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	where := f.Path
	if where == "" {
		where = f.Step
	}
	if where == "" {
		return fmt.Sprintf("%s: %s", f.Check, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Check, where, f.Message)
}

// Report is the result of a verification pass.
type Report struct {
	Outcome  Level     `json:"outcome"`
	Files    int       `json:"files_checked"`
	Findings []Finding `json:"findings"`
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Level > r.Outcome {
		r.Outcome = f.Level
	}
}

// Count returns the number of findings at level l.
func (r *Report) Count(l Level) int {
	n := 0
	for _, f := range r.Findings {
		if f.Level == l {
			n++
		}
	}
	return n
}
