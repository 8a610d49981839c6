package manifest

import (
	"time"

	"github.com/google/uuid"
)

// FormatVersion is the manifest format written by this build. Manifests with a
// different major version are rejected on load.
const FormatVersion = "1.0.0"

// Status is the lifecycle state of a step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is completed, skipped or failed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped || s == StatusFailed
}

// FileRecord describes one file written by a generation step.
type FileRecord struct {
	Path      string   `json:"path"`
	Action    string   `json:"action"`
	SHA256    string   `json:"sha256,omitempty"`
	Skeleton  string   `json:"skeleton,omitempty"`
	Required  []string `json:"required,omitempty"`
	Preserved []string `json:"preserved,omitempty"`
}

// Step is the persisted state of one workflow step.
type Step struct {
	Name       string       `json:"name"`
	Status     Status       `json:"status"`
	Blocking   bool         `json:"blocking"`
	DependsOn  []string     `json:"depends_on,omitempty"`
	Error      string       `json:"error,omitempty"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Files      []FileRecord `json:"files,omitempty"`
}

// Manifest is the durable record of a workflow run against one target.
type Manifest struct {
	Version     string                 `json:"version"`
	RunID       string                 `json:"run_id"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Steps       []Step                 `json:"steps"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// New creates a manifest with every step pending.
func New(steps []Step, now time.Time) *Manifest {
	m := &Manifest{
		Version:   FormatVersion,
		RunID:     uuid.NewString(),
		StartedAt: now.UTC(),
		Metadata:  map[string]interface{}{},
	}
	for _, s := range steps {
		s.Status = StatusPending
		s.Error = ""
		s.StartedAt = nil
		s.FinishedAt = nil
		s.Files = nil
		m.Steps = append(m.Steps, s)
	}
	return m
}

// Step returns the named step, or nil.
func (m *Manifest) Step(name string) *Step {
	for i := range m.Steps {
		if m.Steps[i].Name == name {
			return &m.Steps[i]
		}
	}
	return nil
}

// Finished reports whether every step is terminal and no blocking step failed.
func (m *Manifest) Finished() bool {
	for _, s := range m.Steps {
		if !s.Status.Terminal() {
			return false
		}
		if s.Status == StatusFailed && s.Blocking {
			return false
		}
	}
	return true
}

// FailedBlocking returns the first blocking step in failed state, or nil.
func (m *Manifest) FailedBlocking() *Step {
	for i := range m.Steps {
		if m.Steps[i].Status == StatusFailed && m.Steps[i].Blocking {
			return &m.Steps[i]
		}
	}
	return nil
}

// SetMeta records a metadata value.
func (m *Manifest) SetMeta(key string, value interface{}) {
	if m.Metadata == nil {
		m.Metadata = map[string]interface{}{}
	}
	m.Metadata[key] = value
}

// Files returns the file records of every completed step, in step order.
func (m *Manifest) Files() []FileRecord {
	var out []FileRecord
	for _, s := range m.Steps {
		if s.Status == StatusCompleted {
			out = append(out, s.Files...)
		}
	}
	return out
}

// FileRecord finds the most recent record for path across all steps.
func (m *Manifest) FileRecord(path string) (FileRecord, bool) {
	for i := len(m.Steps) - 1; i >= 0; i-- {
		for _, f := range m.Steps[i].Files {
			if f.Path == path {
				return f, true
			}
		}
	}
	return FileRecord{}, false
}
