package facts

import (
	"fmt"
	"strings"
)

// Confidence ranks how trustworthy a fact is. Higher values win conflicts.
type Confidence int

const (
	Default Confidence = iota
	Low
	Medium
	High
)

var confidenceNames = map[Confidence]string{
	Default: "default",
	Low:     "low",
	Medium:  "medium",
	High:    "high",
}

func (c Confidence) String() string {
	if name, ok := confidenceNames[c]; ok {
		return name
	}
	return fmt.Sprintf("confidence(%d)", int(c))
}

// ParseConfidence converts a level name back to a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	for c, name := range confidenceNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return Default, fmt.Errorf("unknown confidence level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Confidence) MarshalText() ([]byte, error) {
	if _, ok := confidenceNames[c]; !ok {
		return nil, fmt.Errorf("invalid confidence %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Confidence) UnmarshalText(text []byte) error {
	parsed, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Min returns the lower of two confidence levels.
func Min(a, b Confidence) Confidence {
	if a < b {
		return a
	}
	return b
}
