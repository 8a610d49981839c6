package facts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	keyPattern     = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z0-9_][a-z0-9_-]*)+$`)
	keySpecPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.([a-z0-9_][a-z0-9_-]*|\*))+$`)
)

// ValidKey reports whether key is a well-formed namespaced fact key.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// KeySpec declares a key (or a pattern where "*" matches one segment) and the
// kind of value stored under it.
type KeySpec struct {
	Key  string
	Kind Kind
}

// Schema is the catalog of keys detectors may produce. Templates are checked
// against it when they are loaded.
type Schema struct {
	exact    map[string]Kind
	patterns []KeySpec
}

// NewSchema returns a schema holding the given specs.
func NewSchema(specs ...KeySpec) (*Schema, error) {
	s := &Schema{exact: make(map[string]Kind)}
	if err := s.Add(specs...); err != nil {
		return nil, err
	}
	return s, nil
}

// Add registers key specs. Registering the same key twice is allowed only
// when the kinds agree.
func (s *Schema) Add(specs ...KeySpec) error {
	for _, spec := range specs {
		if !keySpecPattern.MatchString(spec.Key) {
			return fmt.Errorf("invalid fact key %q", spec.Key)
		}
		if strings.Contains(spec.Key, "*") {
			for _, p := range s.patterns {
				if p.Key == spec.Key && p.Kind != spec.Kind {
					return fmt.Errorf("fact key %q declared as both %s and %s", spec.Key, p.Kind, spec.Kind)
				}
			}
			s.patterns = append(s.patterns, spec)
			continue
		}
		if prev, ok := s.exact[spec.Key]; ok && prev != spec.Kind {
			return fmt.Errorf("fact key %q declared as both %s and %s", spec.Key, prev, spec.Kind)
		}
		s.exact[spec.Key] = spec.Kind
	}
	return nil
}

// Lookup returns the declared kind for key.
func (s *Schema) Lookup(key string) (Kind, bool) {
	if s == nil {
		return KindNull, false
	}
	if k, ok := s.exact[key]; ok {
		return k, true
	}
	for _, p := range s.patterns {
		if matchPattern(p.Key, key) {
			return p.Kind, true
		}
	}
	return KindNull, false
}

// Keys returns the declared keys and patterns, sorted.
func (s *Schema) Keys() []string {
	keys := make([]string, 0, len(s.exact)+len(s.patterns))
	for k := range s.exact {
		keys = append(keys, k)
	}
	for _, p := range s.patterns {
		keys = append(keys, p.Key)
	}
	sort.Strings(keys)
	return keys
}

func matchPattern(pattern, key string) bool {
	ps := strings.Split(pattern, ".")
	ks := strings.Split(key, ".")
	if len(ps) != len(ks) {
		return false
	}
	for i := range ps {
		if ps[i] != "*" && ps[i] != ks[i] {
			return false
		}
	}
	return true
}
