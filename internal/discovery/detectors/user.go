package detectors

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/agentx-labs/groundwork/internal/branding"
	"github.com/agentx-labs/groundwork/internal/facts"
)

// UserFactsFile is where users pin facts, relative to the project root.
func UserFactsFile() string {
	return path.Join(branding.StateDir(), "facts.yaml")
}

// User reads facts pinned by the user. Nested mappings are flattened into
// dotted keys, so both "commands.test: x" and "commands: {test: x}" work.
type User struct{ base }

// NewUser returns the user-facts detector.
func NewUser() *User {
	return &User{base{name: "user", ceiling: facts.High}}
}

// OpenKeys lets user facts set any key another detector declares.
func (*User) OpenKeys() bool { return true }

func (d *User) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	name := UserFactsFile()
	data, err := readFile(fsys, name)
	if err != nil || data == nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	flat := map[string]interface{}{}
	flatten("", raw, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []facts.Fact
	for _, k := range keys {
		v, err := facts.FromAny(scalarToString(flat[k]))
		if err != nil {
			return nil, fmt.Errorf("%s: key %s: %w", name, k, err)
		}
		out = append(out, facts.Fact{Key: k, Value: v, Confidence: facts.High, Source: name})
	}
	return out, nil
}

func flatten(prefix string, m map[string]interface{}, out map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// scalarToString turns YAML numbers into strings so "indent_size: 2" works.
func scalarToString(v interface{}) interface{} {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = scalarToString(item)
		}
		return out
	default:
		return v
	}
}
