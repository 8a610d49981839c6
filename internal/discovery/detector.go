package discovery

import (
	"context"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

// Detector inspects a project tree and proposes facts.
type Detector interface {
	// Name is a short unique identifier used in reports and fact sources.
	Name() string
	// Keys lists the fact keys, with kinds, the detector may produce.
	Keys() []facts.KeySpec
	// Ceiling is the highest confidence the detector's facts can carry.
	Ceiling() facts.Confidence
	// Requires lists fact keys that must be present before Detect runs.
	Requires() []string
	// Detect reads fsys, which is read-only, and returns its findings. An
	// empty result means the detector was inconclusive.
	Detect(ctx context.Context, fsys afero.Fs, known facts.Reader) ([]facts.Fact, error)
}

// OpenDetector is implemented by detectors that may set any key another
// detector declares, such as user-supplied overrides.
type OpenDetector interface {
	Detector
	OpenKeys() bool
}

func isOpen(d Detector) bool {
	o, ok := d.(OpenDetector)
	return ok && o.OpenKeys()
}
