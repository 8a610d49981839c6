package render

import (
	"errors"
	"fmt"
)

// ErrTemplate is the sentinel wrapped by every TemplateError.
var ErrTemplate = errors.New("template error")

// TemplateError describes a template authoring defect found at load time.
type TemplateError struct {
	Template string
	Line     int
	Msg      string
}

func (e *TemplateError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("template %s:%d: %s", e.Template, e.Line, e.Msg)
	}
	return fmt.Sprintf("template %s: %s", e.Template, e.Msg)
}

func (e *TemplateError) Unwrap() error { return ErrTemplate }
