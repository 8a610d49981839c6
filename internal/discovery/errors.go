package discovery

import (
	"errors"
	"fmt"
)

// ErrDetector is the sentinel wrapped by every DetectorError.
var ErrDetector = errors.New("detector failed")

// DetectorError records a detector that returned an error or panicked.
type DetectorError struct {
	Detector string
	Panic    bool
	Err      error
}

func (e *DetectorError) Error() string {
	if e.Panic {
		return fmt.Sprintf("detector %s panicked: %v", e.Detector, e.Err)
	}
	return fmt.Sprintf("detector %s: %v", e.Detector, e.Err)
}

func (e *DetectorError) Unwrap() []error { return []error{ErrDetector, e.Err} }
