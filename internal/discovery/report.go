package discovery

import "time"

// Status is the outcome of one detector.
type Status string

const (
	StatusRan          Status = "ran"
	StatusInconclusive Status = "inconclusive"
	StatusSkipped      Status = "skipped"
	StatusFailed       Status = "failed"
)

// FindingKind classifies a report finding.
type FindingKind string

const (
	FindingError    FindingKind = "error"
	FindingRejected FindingKind = "rejected"
	FindingConflict FindingKind = "conflict"
	FindingSkipped  FindingKind = "skipped"
)

// Finding is a non-fatal observation made while running detectors.
type Finding struct {
	Detector string      `json:"detector"`
	Kind     FindingKind `json:"kind"`
	Key      string      `json:"key,omitempty"`
	Message  string      `json:"message"`
}

// DetectorReport summarizes one detector's run.
type DetectorReport struct {
	Name     string        `json:"name"`
	Wave     int           `json:"wave"`
	Status   Status        `json:"status"`
	Keys     []string      `json:"keys,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Report is the outcome of a discovery run.
type Report struct {
	Detectors []DetectorReport `json:"detectors"`
	Findings  []Finding        `json:"findings,omitempty"`
	Facts     int              `json:"facts"`
	Duration  time.Duration    `json:"duration"`
}

// Detector returns the report entry for name.
func (r *Report) Detector(name string) (DetectorReport, bool) {
	for _, d := range r.Detectors {
		if d.Name == name {
			return d, true
		}
	}
	return DetectorReport{}, false
}

// Errors returns the detector errors recorded during the run.
func (r *Report) Errors() []error {
	var errs []error
	for _, d := range r.Detectors {
		if d.Err != nil {
			errs = append(errs, d.Err)
		}
	}
	return errs
}

// Count returns how many detectors ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, d := range r.Detectors {
		if d.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
}
