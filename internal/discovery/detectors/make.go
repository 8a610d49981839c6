package detectors

import (
	"context"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

var makeTargetRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_.-]*)\s*:([^=]|$)`)

// makeTargets lists, for each command key, the target names that satisfy it
// in order of preference.
var makeTargets = []struct {
	key     string
	targets []string
}{
	{KeyBuild, []string{"build", "all"}},
	{KeyTest, []string{"test", "check"}},
	{KeyLint, []string{"lint", "vet"}},
	{KeyFormat, []string{"format", "fmt"}},
}

// Make reads Makefile target lines.
type Make struct{ base }

// NewMake returns the Makefile detector.
func NewMake() *Make {
	return &Make{base{
		name:    "make",
		keys:    str(KeyBuild, KeyTest, KeyLint, KeyFormat),
		ceiling: facts.High,
	}}
}

func (d *Make) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	name, ok := firstExisting(fsys, "GNUmakefile", "Makefile", "makefile")
	if !ok {
		return nil, nil
	}
	data, err := readFile(fsys, name)
	if err != nil {
		return nil, err
	}

	targets := map[string]bool{}
	for _, line := range strings.Split(string(data), "\n") {
		if m := makeTargetRe.FindStringSubmatch(line); m != nil {
			targets[m[1]] = true
		}
	}

	var out []facts.Fact
	for _, mt := range makeTargets {
		for _, t := range mt.targets {
			if targets[t] {
				out = append(out, stringFact(mt.key, "make "+t, name))
				break
			}
		}
	}
	return out, nil
}
