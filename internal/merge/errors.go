package merge

import (
	"errors"
	"fmt"
)

// ErrMalformedRegion is the sentinel wrapped by every MergeError.
var ErrMalformedRegion = errors.New("malformed region markers")

// MergeError reports region markers that cannot be paired up. Doc names the
// document that was being parsed ("existing" or "new").
type MergeError struct {
	Doc  string
	Line int
	Msg  string
}

func (e *MergeError) Error() string {
	if e.Doc == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s content line %d: %s", e.Doc, e.Line, e.Msg)
}

func (e *MergeError) Unwrap() error { return ErrMalformedRegion }
