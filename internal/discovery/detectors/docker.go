package detectors

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/agentx-labs/groundwork/internal/facts"
)

var composeFiles = []string{"compose.yaml", "compose.yml", "docker-compose.yaml", "docker-compose.yml"}

// Docker reads Dockerfile and compose files.
type Docker struct{ base }

// NewDocker returns the container detector.
func NewDocker() *Docker {
	return &Docker{base{
		name:    "docker",
		keys:    []facts.KeySpec{boolean(KeyDocker), list(KeyServices)},
		ceiling: facts.High,
	}}
}

func (d *Docker) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	var out []facts.Fact
	if exists(fsys, "Dockerfile") {
		out = append(out, facts.Fact{Key: KeyDocker, Value: facts.Bool(true), Confidence: facts.High, Source: "Dockerfile"})
	}

	name, ok := firstExisting(fsys, composeFiles...)
	if !ok {
		return out, nil
	}
	data, err := readFile(fsys, name)
	if err != nil {
		return out, err
	}
	var compose struct {
		Services map[string]interface{} `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &compose); err != nil {
		return out, fmt.Errorf("parsing %s: %w", name, err)
	}

	services := make([]string, 0, len(compose.Services))
	for s := range compose.Services {
		services = append(services, s)
	}
	sort.Strings(services)

	if len(out) == 0 {
		out = append(out, facts.Fact{Key: KeyDocker, Value: facts.Bool(true), Confidence: facts.High, Source: name})
	}
	if len(services) > 0 {
		out = append(out, facts.Fact{Key: KeyServices, Value: facts.List(services...), Confidence: facts.High, Source: name})
	}
	return out, nil
}
