package facts

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrFrozen is returned when writing to a store after discovery has finished.
	ErrFrozen = errors.New("fact store is frozen")
	// ErrInvalidKey is returned for keys that are not namespaced.
	ErrInvalidKey = errors.New("invalid fact key")
)

// Fact is a single piece of project knowledge.
type Fact struct {
	Key        string
	Value      Value
	Confidence Confidence
	Source     string
}

// Reader is the read-only view of a store handed to detectors and templates.
type Reader interface {
	Get(key string) (Fact, bool)
}

// Truthy reports whether key is present in r and its value is truthy.
// Missing facts are falsy.
func Truthy(r Reader, key string) bool {
	f, ok := r.Get(key)
	return ok && f.Value.Truthy()
}

// Outcome describes what Propose did with a fact.
type Outcome int

const (
	// Added means the key was previously unset.
	Added Outcome = iota
	// Replaced means a strictly lower-confidence value was displaced.
	Replaced
	// Kept means the existing value won (equal or higher confidence).
	Kept
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Replaced:
		return "replaced"
	default:
		return "kept"
	}
}

// Store holds facts for one run. It is not safe for concurrent writers;
// discovery aggregates worker results on a single goroutine. Once frozen it
// is read-only and may be shared freely.
type Store struct {
	facts  map[string]Fact
	frozen bool
}

// NewStore returns an empty, writable store.
func NewStore() *Store {
	return &Store{facts: make(map[string]Fact)}
}

// Propose offers a fact to the store. An unset key is added; a set key is
// replaced only by a strictly higher confidence, so ties keep the first writer.
func (s *Store) Propose(f Fact) (Outcome, error) {
	if s.frozen {
		return Kept, ErrFrozen
	}
	if !ValidKey(f.Key) {
		return Kept, fmt.Errorf("%w: %q", ErrInvalidKey, f.Key)
	}
	existing, ok := s.facts[f.Key]
	if !ok {
		s.facts[f.Key] = f
		return Added, nil
	}
	if f.Confidence > existing.Confidence {
		s.facts[f.Key] = f
		return Replaced, nil
	}
	return Kept, nil
}

// Freeze makes the store read-only.
func (s *Store) Freeze() { s.frozen = true }

// Frozen reports whether Freeze has been called.
func (s *Store) Frozen() bool { return s.frozen }

// Get returns the fact stored under key.
func (s *Store) Get(key string) (Fact, bool) {
	f, ok := s.facts[key]
	return f, ok
}

// Len returns the number of facts.
func (s *Store) Len() int { return len(s.facts) }

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.facts))
	for k := range s.facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Facts returns all facts sorted by key.
func (s *Store) Facts() []Fact {
	out := make([]Fact, 0, len(s.facts))
	for _, k := range s.Keys() {
		out = append(out, s.facts[k])
	}
	return out
}

// SnapshotEntry is the serialized form of a fact in a snapshot file.
type SnapshotEntry struct {
	Value      Value      `json:"value"`
	Confidence Confidence `json:"confidence"`
	Source     string     `json:"source"`
}

// Snapshot returns the key → entry mapping written for audit and debugging.
func (s *Store) Snapshot() map[string]SnapshotEntry {
	out := make(map[string]SnapshotEntry, len(s.facts))
	for k, f := range s.facts {
		out[k] = SnapshotEntry{Value: f.Value, Confidence: f.Confidence, Source: f.Source}
	}
	return out
}

// MarshalSnapshot encodes the snapshot as indented JSON with sorted keys.
func (s *Store) MarshalSnapshot() ([]byte, error) {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling fact snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// LoadSnapshot rebuilds a frozen store from snapshot JSON.
func LoadSnapshot(data []byte) (*Store, error) {
	var entries map[string]SnapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing fact snapshot: %w", err)
	}
	s := NewStore()
	for k, e := range entries {
		if _, err := s.Propose(Fact{Key: k, Value: e.Value, Confidence: e.Confidence, Source: e.Source}); err != nil {
			return nil, err
		}
	}
	s.Freeze()
	return s, nil
}
